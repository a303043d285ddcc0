package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qanoonbuddy/backend/internal/app"
	"github.com/qanoonbuddy/backend/internal/config"
	"github.com/qanoonbuddy/backend/internal/logger"
)

const version = "0.1.0"

// options 是所有子命令共享的运行时状态
type options struct {
	apiKey  string
	verbose bool
	app     *app.App
}

// NewRootCmd builds the qanoonctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:     "qanoonctl",
		Short:   "Qanoon Buddy command-line assistant",
		Version: version,
		Long: `Run the Qanoon Buddy services in-process: search the sample Pakistani
case law catalog, ask legal questions, summarize PDF judgments and translate
between English and Urdu.`,
		Example: `  # Search the case catalog
  $ qanoonctl search khula

  # Ask a question (reads ARK_API_KEY or --api-key)
  $ qanoonctl ask "How is maintenance calculated after separation?"

  # Summarize a judgment in Urdu
  $ qanoonctl summarize judgment.pdf --lang ur`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init()
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate(fmt.Sprintf("qanoonctl version %s\n", version))

	rootCmd.PersistentFlags().StringVar(&opts.apiKey, "api-key", "", "API key used when ARK_API_KEY is not set")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log service activity to stderr")

	rootCmd.AddCommand(
		newSearchCmd(opts),
		newCasesCmd(opts),
		newAskCmd(opts),
		newSummarizeCmd(opts),
		newTranslateCmd(opts),
		newExplainCmd(opts),
	)
	return rootCmd
}

// Execute executes the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *options) init() error {
	if o.app != nil {
		return nil
	}
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zl := zap.NewNop()
	if o.verbose {
		cfg.Log.Format = "console"
		cfg.Log.Level = "debug"
		if zl, err = logger.New(cfg); err != nil {
			return err
		}
	}
	o.app = app.New(cfg, zl)
	return nil
}
