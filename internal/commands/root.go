package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/receipts/internal/buildinfo"
	"github.com/cleared-dev/receipts/internal/config"
	"github.com/cleared-dev/receipts/internal/logging"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	project   string
	logLevel  string
	logFormat string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "receipts",
		Short:   "Receipt amount parsing with cross-validated detection and pattern learning",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(g)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.project, "project", "C", ".", "project root containing receipts.yaml")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format: text, json")

	rootCmd.AddCommand(
		newInitCommand(),
		newParseCommand(g),
		newBatchCommand(g),
		newCorrectCommand(g),
		newPatternsCommand(g),
		newStatsCommand(g),
	)

	return rootCmd
}

// setupLogging applies the flags, falling back to the project's logging settings.
func setupLogging(g *globalFlags) error {
	level, format := g.logLevel, g.logFormat
	if level == "" || format == "" {
		cfg := config.Default()
		if _, err := os.Stat(filepath.Join(g.project, config.FileName)); err == nil {
			if loaded, err := config.Load(filepath.Join(g.project, config.FileName)); err == nil {
				cfg = loaded
			}
		}
		if level == "" {
			level = cfg.Logging.Level
		}
		if format == "" {
			format = cfg.Logging.Format
		}
	}
	return logging.Setup(level, format)
}
