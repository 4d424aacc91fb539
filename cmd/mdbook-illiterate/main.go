package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"illiterate/internal/config"
	"illiterate/internal/logging"
	"illiterate/internal/mdbook"
	"illiterate/internal/pipeline"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "mdbook-illiterate",
		Short: "mdBook preprocessor that turns commented source files into chapters",
		Long: `mdbook-illiterate converts source chapters into Markdown: ordinary comments
become prose and everything else becomes fenced code blocks.

Run without arguments it acts as an mdBook preprocessor, reading the book JSON
on stdin and writing it to stdout.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runPreprocessor,
	}
	configPath string
	logLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the illiterate config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(supportsCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(watchCmd)
}

// loadConfig reads the config file and installs the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

var supportsCmd = &cobra.Command{
	Use:   "supports <renderer>",
	Short: "Report whether a renderer is supported (always yes)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := mdbook.NewPreprocessor(config.Default(), nil, log.Logger)
		if !p.Supports(args[0]) {
			os.Exit(1)
		}
	},
}

func runPreprocessor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	// mdBook runs preprocessors from the book root.
	cache, err := pipeline.OpenCache(cfg, ".")
	if err != nil {
		log.Warn().Err(err).Msg("conversion cache disabled")
		cache = nil
	}
	if cache != nil {
		defer cache.Close()
	}

	p := mdbook.NewPreprocessor(cfg, cache, log.Logger)
	return p.Run(ctx, os.Stdin, os.Stdout)
}
