package cmd

import (
	"fmt"
	"os"

	"github.com/msalah0e/protoviz/internal/config"
	"github.com/msalah0e/protoviz/internal/logging"
	"github.com/msalah0e/protoviz/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "0.3.0"

var (
	cfgPath   string
	logLevel  string
	logFormat string

	cfg    = config.Default()
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "protoviz",
	Short: "protoviz: lay out and highlight protein interaction networks",
	Long: ui.Brand.Sprint(ui.Mark+" protoviz") + ": lay out, inspect and highlight biological networks\n" +
		ui.Subtle.Sprint("Force-directed and hierarchical layouts, component previews and token highlighting"),
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = loadConfig()
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if logFormat != "" {
			cfg.Log.Format = logFormat
		}
		l, err := logging.New(cfg.Log)
		if err != nil {
			ui.Warn.Fprintf(os.Stderr, "  %s %v, logging disabled\n", ui.WarnIcon(), err)
			l = zap.NewNop()
		}
		logger = l
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func loadConfig() *config.Config {
	if cfgPath == "" {
		return config.Load()
	}
	c, err := config.LoadFile(cfgPath)
	if err != nil {
		ui.Warn.Fprintf(os.Stderr, "  %s config: %v, using defaults\n", ui.WarnIcon(), err)
		return config.Default()
	}
	return c
}

func init() {
	rootCmd.SetVersionTemplate("protoviz {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default $XDG_CONFIG_HOME/protoviz/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console, json")

	rootCmd.AddCommand(
		componentsCmd(),
		highlightCmd(),
		layoutCmd(),
		layoutsCmd(),
		exportCmd(),
		viewCmd(),
		statsCmd(),
		searchCmd(),
		configCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// fail prints an error the way every command does and exits.
func fail(format string, args ...any) {
	ui.Bad.Fprintf(os.Stderr, "  %s %s\n", ui.StatusIcon(false), fmt.Sprintf(format, args...))
	os.Exit(1)
}
