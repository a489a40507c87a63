package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/msalah0e/protoviz/internal/orchestrator"
	"github.com/msalah0e/protoviz/internal/render"
	"github.com/msalah0e/protoviz/internal/ui"
	"github.com/spf13/cobra"
)

// renderFlags is the common pipeline of export and view: optional layout,
// optional highlight, optional component focus, then a render backend.
type renderFlags struct {
	layout    string
	selection selectionFlags
	preview   int
	pin       int
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.layout, "layout", "l", "", "Run a layout before rendering")
	cmd.Flags().IntVar(&f.preview, "preview", -1, "Preview component id (hover state)")
	cmd.Flags().IntVar(&f.pin, "pin", -1, "Pin component id (click state)")
	f.selection.register(cmd, true)
}

func renderGraph(ctx context.Context, path, format string, f renderFlags) ([]byte, *session, error) {
	r, err := render.Lookup(format)
	if err != nil {
		return nil, nil, err
	}
	s, err := openSession(path, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	defer s.close()

	if f.layout != "" {
		out, err := s.layout(ctx, f.layout)
		if err != nil {
			return nil, nil, err
		}
		if out.Status == orchestrator.StatusFailed {
			return nil, nil, out.Err
		}
	}
	if len(f.selection.tokens) > 0 {
		if _, err := s.highlight(f.selection); err != nil {
			return nil, nil, err
		}
	}
	s.focus(f.preview, f.pin)

	var buf bytes.Buffer
	if err := r.Render(&buf, s.graph); err != nil {
		return nil, nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), s, nil
}

func exportCmd() *cobra.Command {
	var format, out string
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "export <graph.json>",
		Short: "Render the graph for a drawing backend (dot, json, cytoscape, html)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, s, err := renderGraph(cmd.Context(), args[0], format, flags)
			if err != nil {
				fail("%v", err)
			}
			for _, a := range s.notices() {
				ui.Warn.Fprintf(os.Stderr, "  %s %s\n", ui.WarnIcon(), a.Message)
			}

			if out == "" {
				os.Stdout.Write(data)
				return
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				fail("Failed to write %s: %v", out, err)
			}
			ui.Good.Printf("  %s Wrote %s (%s)\n", ui.StatusIcon(true), out, humanize.Bytes(uint64(len(data))))
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: dot, json, cytoscape, html")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	flags.register(cmd)
	return cmd
}

func viewCmd() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "view <graph.json>",
		Short: "Open the graph in the browser",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, s, err := renderGraph(cmd.Context(), args[0], "html", flags)
			if err != nil {
				fail("%v", err)
			}
			if s.graph.Order() == 0 {
				fmt.Println("  Empty graph, nothing to show")
				return
			}

			htmlPath := filepath.Join(os.TempDir(), "protoviz-"+filepath.Base(args[0])+".html")
			if err := os.WriteFile(htmlPath, data, 0o644); err != nil {
				fail("Failed to write HTML: %v", err)
			}

			var openCmd *exec.Cmd
			switch runtime.GOOS {
			case "darwin":
				openCmd = exec.Command("open", htmlPath)
			case "linux":
				openCmd = exec.Command("xdg-open", htmlPath)
			default:
				openCmd = exec.Command("cmd", "/c", "start", htmlPath)
			}

			if err := openCmd.Start(); err != nil {
				fmt.Printf("  HTML written to: %s\n", htmlPath)
				fmt.Println("  Open it in your browser to see the graph")
				return
			}

			ui.Good.Printf("  %s Opened graph view (%s nodes, %s edges)\n",
				ui.StatusIcon(true), humanize.Comma(int64(s.graph.Order())), humanize.Comma(int64(s.graph.Size())))
			ui.Subtle.Printf("  %s\n", htmlPath)
		},
	}

	flags.register(cmd)
	return cmd
}
