package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/msalah0e/protoviz/internal/config"
	"github.com/msalah0e/protoviz/internal/graph"
	"github.com/msalah0e/protoviz/internal/layout"
	"github.com/msalah0e/protoviz/internal/orchestrator"
	"github.com/msalah0e/protoviz/internal/parallel"
	"github.com/msalah0e/protoviz/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func layoutCmd() *cobra.Command {
	var name, out, suffix string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "layout <graph.json>...",
		Short: "Compute node positions and write them back to the graph file",
		Long: "Runs a layout over one or more graph files. Force-directed layouts run in a\n" +
			"background worker with a watchdog; a run that exceeds the timeout falls back\n" +
			"to a grid. Several files are laid out concurrently.",
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if out != "" && len(args) > 1 {
				fail("--out needs a single input file")
			}
			if name == "" {
				name = cfg.Layout.Default
			}
			if _, err := layout.Lookup(name); err != nil {
				fail("%v (see `protoviz layouts`)", err)
			}
			c := *cfg
			if timeout > 0 {
				c.Layout.Timeout = config.Duration{Duration: timeout}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			ui.Banner(os.Stdout, "layout "+name)
			tasks := make([]parallel.Task, 0, len(args))
			for _, path := range args {
				dest := out
				if dest == "" {
					dest = outputPath(path, suffix)
				}
				tasks = append(tasks, parallel.Task{
					Name: filepath.Base(path),
					Fn: func(ctx context.Context) (string, error) {
						return layoutFile(ctx, path, dest, name, &c, logger)
					},
				})
			}

			concurrency := 1
			if cfg.Parallel.Enabled {
				concurrency = cfg.Parallel.Concurrency
			}
			results := parallel.Run(ctx, os.Stdout, tasks, concurrency)
			for _, r := range results {
				if r.OK && r.Output != "" {
					fmt.Printf("    %s\n", ui.Subtle.Sprint(r.Output))
				}
			}
			if failed := parallel.Failed(results); failed > 0 {
				fmt.Println()
				fail("%d of %d layouts failed", failed, len(results))
			}
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Layout name (default from config)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (single input only)")
	cmd.Flags().StringVar(&suffix, "suffix", "", "Write <name><suffix>.json next to each input instead of overwriting")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Watchdog budget for force-directed runs (default from config)")
	return cmd
}

func outputPath(in, suffix string) string {
	if suffix == "" {
		return in
	}
	ext := filepath.Ext(in)
	return strings.TrimSuffix(in, ext) + suffix + ext
}

// layoutFile loads path, runs the layout and saves the result to dest.
// A timed-out run still saves its grid fallback and reports the advisory.
func layoutFile(ctx context.Context, path, dest, name string, c *config.Config, log *zap.Logger) (string, error) {
	s, err := openSession(path, c, log)
	if err != nil {
		return "", err
	}
	defer s.close()

	start := time.Now()
	outcome, err := s.layout(ctx, name)
	if err != nil {
		return "", err
	}
	switch outcome.Status {
	case orchestrator.StatusFailed:
		return "", outcome.Err
	case orchestrator.StatusSkipped:
		return "empty graph, nothing to do", nil
	}

	if err := graph.Save(s.graph, dest); err != nil {
		return "", fmt.Errorf("save %s: %w", dest, err)
	}
	size := uint64(0)
	if fi, err := os.Stat(dest); err == nil {
		size = uint64(fi.Size())
	}

	summary := fmt.Sprintf("%s nodes → %s (%s, %s)",
		humanize.Comma(int64(s.graph.Order())), dest, humanize.Bytes(size), time.Since(start).Round(time.Millisecond))
	if outcome.Status == orchestrator.StatusTimedOut {
		summary += "\n    " + ui.WarnIcon() + " layout timed out, grid fallback saved"
	}
	for _, a := range s.notices() {
		summary += "\n    " + ui.WarnIcon() + " " + a.Message
	}
	return summary, nil
}

func layoutsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List available layouts",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner(os.Stdout, "layouts")
			var rows [][]string
			for _, a := range layout.All() {
				n := a.Name
				if n == cfg.Layout.Default {
					n += " *"
				}
				rows = append(rows, []string{n, a.Family.String(), a.Description})
			}
			ui.Table(os.Stdout, []string{"NAME", "FAMILY", "DESCRIPTION"}, rows)
		},
	}
}
