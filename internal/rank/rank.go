// Package rank orders articles by popularity and draws the seeded sample
// that a post is written about.
package rank

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"

	"github.com/pders01/zpost/internal/article"
)

// DefaultPoolSize is the number of top-ranked articles eligible for sampling.
const DefaultPoolSize = 20

type Strategy string

const (
	// ByLikes ranks by like count, falling back to recency when no article
	// carries likes.
	ByLikes Strategy = "likes"
	// ByRecency ranks by publish time, newest first.
	ByRecency Strategy = "recency"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case ByLikes, "":
		return ByLikes, nil
	case ByRecency:
		return ByRecency, nil
	default:
		return "", fmt.Errorf("unknown ranking strategy %q", s)
	}
}

// Rank returns a sorted copy of records. Ties keep their input order.
func Rank(records []article.Record, strategy Strategy) []article.Record {
	ranked := slices.Clone(records)

	if strategy == ByLikes && article.HasLikes(ranked) {
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].Likes != ranked[j].Likes {
				return ranked[i].Likes > ranked[j].Likes
			}
			return ranked[i].Published.After(ranked[j].Published)
		})
		return ranked
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Published.After(ranked[j].Published)
	})
	return ranked
}

// Select draws k articles from the top DefaultPoolSize of records.
func Select(records []article.Record, k int, seed int64, strategy Strategy) []article.Record {
	return SelectPool(records, k, DefaultPoolSize, seed, strategy)
}

// SelectPool ranks records, keeps the best poolSize as the eligible pool and
// returns k of them chosen uniformly with the given seed. A pool no larger
// than k is returned whole. The sample keeps ranked order, so the first
// element is always the most popular article drawn.
func SelectPool(records []article.Record, k, poolSize int, seed int64, strategy Strategy) []article.Record {
	if k <= 0 || len(records) == 0 {
		return []article.Record{}
	}
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}

	pool := Rank(records, strategy)
	if len(pool) > poolSize {
		pool = pool[:poolSize]
	}
	if len(pool) <= k {
		return pool
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))

	// partial Fisher-Yates over indices
	indices := make([]int, len(pool))
	for i := range indices {
		indices[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(indices)-i)
		indices[i], indices[j] = indices[j], indices[i]
	}

	chosen := indices[:k]
	slices.Sort(chosen)

	sample := make([]article.Record, 0, k)
	for _, idx := range chosen {
		sample = append(sample, pool[idx])
	}
	return sample
}
