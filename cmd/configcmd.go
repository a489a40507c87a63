package cmd

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/msalah0e/protoviz/internal/config"
	"github.com/msalah0e/protoviz/internal/ui"
	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Run: func(cmd *cobra.Command, args []string) {
			path := cfgPath
			if path == "" {
				path = config.Path()
			}
			ui.Subtle.Printf("  # %s\n", path)
			if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
				fail("%v", err)
			}
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default config file if none exists",
		Run: func(cmd *cobra.Command, args []string) {
			if err := config.EnsureExists(); err != nil {
				fail("Failed to write config: %v", err)
			}
			ui.Good.Printf("  %s %s\n", ui.StatusIcon(true), config.Path())
		},
	})
	return cmd
}
