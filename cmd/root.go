package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxbrief/internal/config"
	"github.com/teemow/inboxbrief/internal/logging"
)

// rootCmd represents the base command for the inboxbrief application
var rootCmd = &cobra.Command{
	Use:   "inboxbrief",
	Short: "Fetches recent email bodies and summarizes them",
	Long: `inboxbrief reads the newest messages of an IMAP mailbox, extracts their
plain-text bodies and produces short extractive summaries.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants (serve)
  - A standalone CLI tool (fetch, summarize)`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// version will be set by main
var version = "dev"

var (
	configPath string
	debugMode  bool
	logFormat  string

	// appConfig is populated before any subcommand runs.
	appConfig = config.Default()
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxbrief version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file. Can also use INBOXBRIEF_CONFIG env var.")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", config.LogFormatText, "Log format: text or json")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newSummarizeCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// loadConfig resolves configuration and installs the default logger.
// Flags only override file and environment values when explicitly set.
func loadConfig(cmd *cobra.Command, _ []string) error {
	path := configPath
	if !cmd.Flags().Changed("config") {
		if env := os.Getenv(config.EnvPrefix + "CONFIG"); env != "" {
			path = env
		}
	}

	cfg, err := config.Load(path, ".env")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cmd.Flags().Changed("debug") {
		cfg.Log.Debug = debugMode
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	appConfig = cfg

	// Logs go to stderr; stdout carries the stdio transport.
	slog.SetDefault(slog.New(logging.NewHandler(os.Stderr, cfg.Log.Debug, cfg.Log.Format)))
	return nil
}
