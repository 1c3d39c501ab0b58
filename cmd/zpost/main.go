package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"

	"github.com/pders01/zpost/internal/account"
	"github.com/pders01/zpost/internal/article"
	"github.com/pders01/zpost/internal/compose"
	"github.com/pders01/zpost/internal/config"
	"github.com/pders01/zpost/internal/debuglog"
	"github.com/pders01/zpost/internal/recommend"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	logLevel   string
	limit      int
	seed       int64
	tone       string
	template   string
	ranking    string
	noStream   bool
)

var rootCmd = &cobra.Command{
	Use:           "zpost",
	Short:         "Write social media posts about popular Zenn articles",
	Long:          "zpost finds the most popular articles of a Zenn account and drafts a short post introducing them.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var postCmd = &cobra.Command{
	Use:   "post <account>",
	Short: "Draft a post about an account's popular articles",
	Long:  "Accepts a profile URL, an organization URL, an @mention or a bare handle.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, acct, articles, err := fetchPopular(cmd, args[0])
		if err != nil || len(articles) == 0 {
			return err
		}

		postTone, err := compose.ParseTone(tone)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printed := ""
		for text := range service.Stream(cmd.Context(), articles, postTone, template) {
			fmt.Fprint(out, strings.TrimPrefix(text, printed))
			printed = text
		}
		fmt.Fprintln(out)

		debuglog.Infof("composed post for %s (%d characters)", acct, len([]rune(printed)))
		return nil
	},
}

var articlesCmd = &cobra.Command{
	Use:   "articles <account>",
	Short: "List the sampled popular articles of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, articles, err := fetchPopular(cmd, args[0])
		if err != nil || len(articles) == 0 {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), compose.RenderArticles(articles))
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <input>",
	Short: "Show the account and endpoints an input resolves to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		resolver, err := account.NewResolver(cfg.Platform.BaseURL)
		if err != nil {
			return err
		}

		acct, err := resolver.Resolve(args[0])
		if err != nil {
			return err
		}

		urls := acct.URLs()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "handle:       %s\n", acct.Handle())
		fmt.Fprintf(out, "organization: %t\n", acct.IsOrganization())
		fmt.Fprintf(out, "matched:      %s\n", resolver.Rule(args[0]))
		fmt.Fprintf(out, "profile:      %s\n", urls.Profile)
		fmt.Fprintf(out, "listing:      %s\n", urls.Listing)
		fmt.Fprintf(out, "feed:         %s\n", urls.Feed)
		fmt.Fprintf(out, "detail api:   %s\n", urls.DetailAPI)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("zpost %s\n", Version)
		fmt.Println("Popular article post composer")
		fmt.Println("github.com/pders01/zpost")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the default config file",
	Run: func(cmd *cobra.Command, args []string) {
		configFile := filepath.Join(config.Dir(), "config.toml")

		if err := config.GenerateDefaultConfig(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default configuration at: %s\n", configFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, off (overrides config)")

	for _, cmd := range []*cobra.Command{postCmd, articlesCmd} {
		cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Number of articles to sample")
		cmd.Flags().Int64Var(&seed, "seed", 0, "Sampling seed (default: current time)")
		cmd.Flags().StringVar(&ranking, "ranking", "", "Ranking strategy: likes or recency (overrides config)")
	}
	postCmd.Flags().StringVarP(&tone, "tone", "t", string(compose.Personal), "Post tone: personal or corporate")
	postCmd.Flags().StringVar(&template, "template", "", "Text placed before the post; {url} becomes the top article URL")
	postCmd.Flags().BoolVar(&noStream, "no-stream", false, "Wait for the full post instead of streaming it")

	configCmd.AddCommand(configGenCmd)
	rootCmd.AddCommand(postCmd, articlesCmd, resolveCmd, versionCmd, configCmd)
}

// loadConfig reads the config file and environment, applies flag overrides
// and sets up logging.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("ranking") {
		cfg.Ranking.Strategy = ranking
	}
	if flags.Changed("no-stream") {
		cfg.LLM.Stream = !noStream
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}

	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return nil, err
	}

	return cfg, nil
}

// fetchPopular resolves input and samples its popular articles. An empty
// result has already been reported to the user.
func fetchPopular(cmd *cobra.Command, input string) (*recommend.Service, account.Account, []article.Record, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, account.Account{}, nil, err
	}

	service, err := recommend.NewService(cfg)
	if err != nil {
		return nil, account.Account{}, nil, err
	}

	acct, err := service.Resolve(input)
	if err != nil {
		return nil, account.Account{}, nil, err
	}

	runSeed := seed
	if !cmd.Flags().Changed("seed") {
		runSeed = time.Now().UnixNano()
	}

	articles, err := service.FetchPopular(cmd.Context(), acct, limit, runSeed)
	if err != nil {
		return nil, acct, nil, err
	}
	if len(articles) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), recommend.NoArticlesMessage(acct))
	}

	return service, acct, articles, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	defer debuglog.Close()
	return rootCmd.ExecuteContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
