package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/msalah0e/protoviz/internal/ui"
	"github.com/spf13/cobra"
)

func (f *selectionFlags) register(cmd *cobra.Command, tokensFlag bool) {
	if tokensFlag {
		cmd.Flags().StringSliceVar(&f.tokens, "highlight", nil, "Protein tokens to highlight")
	}
	cmd.Flags().StringVar(&f.mode, "mode", "or", "Match mode: and, or")
	cmd.Flags().BoolVar(&f.filter, "filter", false, "Hide everything not connected to a match")
	cmd.Flags().StringVar(&f.by, "by", "label", "Match tokens against: label, id")
}

func highlightCmd() *cobra.Command {
	var flags selectionFlags

	cmd := &cobra.Command{
		Use:   "highlight <graph.json> <token>...",
		Short: "Highlight proteins by label token and show what is dimmed or hidden",
		Args:  cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			flags.tokens = args[1:]
			s, err := openSession(args[0], cfg, logger)
			if err != nil {
				fail("%v", err)
			}
			defer s.close()

			res, err := s.highlight(flags)
			if err != nil {
				fail("%v", err)
			}

			ui.Banner(os.Stdout, "highlight "+strings.Join(flags.tokens, " "))
			printLoadReport(s.report)
			if len(res.Hits) == 0 {
				fmt.Println("  No matching nodes")
			}
			for _, n := range s.graph.Nodes() {
				st := s.graph.Style(n.ID)
				if st.Hidden {
					continue
				}
				fmt.Printf("  %s  %s\n", ui.Node(fmt.Sprintf("%-12s", n.ID), st.Highlighted, st.Hover, st.Dimmed), ui.Subtle.Sprint(n.Label))
			}
			fmt.Println()
			fmt.Printf("  %s hits, %s dimmed", ui.Brand.Sprint(humanize.Comma(int64(len(res.Hits)))), humanize.Comma(int64(res.Dimmed)))
			if flags.filter {
				fmt.Printf(", %s nodes and %s edges hidden", humanize.Comma(int64(res.HiddenNodes)), humanize.Comma(int64(res.HiddenEdges)))
			}
			fmt.Println()
		},
	}

	flags.register(cmd, false)
	return cmd
}
