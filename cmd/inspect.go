package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/msalah0e/protoviz/internal/graph"
	"github.com/msalah0e/protoviz/internal/ui"
	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <graph.json>",
		Short: "Show graph summary counts",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			g, rep, err := graph.Load(args[0])
			if err != nil {
				fail("Failed to load graph: %v", err)
			}
			st := g.GetStats()

			ui.Banner(os.Stdout, "stats")
			printLoadReport(rep)
			row := func(k string, v int) {
				fmt.Printf("  %s  %s\n", ui.Brand.Sprintf("%-16s", k), humanize.Comma(int64(v)))
			}
			row("Nodes", st.Nodes)
			row("Edges", st.Edges)
			row("Components", st.Components)
			row("Tokens", st.Tokens)
			row("Types", st.Types)
			row("Positioned", st.Positioned)
		},
	}
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <graph.json> <query>",
		Short: "Find nodes by token, id, label or type",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			g, _, err := graph.Load(args[0])
			if err != nil {
				fail("Failed to load graph: %v", err)
			}
			results := g.Search(args[1])
			if len(results) == 0 {
				fmt.Printf("  No nodes matching %q\n", args[1])
				return
			}
			comps := graph.ComputeComponents(g)
			var rows [][]string
			for _, r := range results {
				cid, _ := comps.Of(r.Node.ID)
				rows = append(rows, []string{r.Node.ID, r.Node.Label, r.Node.Type, strconv.Itoa(cid), strconv.Itoa(r.Score)})
			}
			ui.Table(os.Stdout, []string{"ID", "LABEL", "TYPE", "COMPONENT", "SCORE"}, rows)
		},
	}
}
