package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/msalah0e/protoviz/internal/graph"
	"github.com/msalah0e/protoviz/internal/ui"
	"github.com/spf13/cobra"
)

func componentsCmd() *cobra.Command {
	var asJSON bool
	var limit int

	cmd := &cobra.Command{
		Use:     "components <graph.json>",
		Short:   "List connected components with their deterministic ids",
		Aliases: []string{"comp", "cc"},
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			g, rep, err := graph.Load(args[0])
			if err != nil {
				fail("Failed to load graph: %v", err)
			}
			comps := graph.ComputeComponents(g)

			if asJSON {
				data, _ := json.MarshalIndent(componentsJSON(comps), "", "  ")
				fmt.Println(string(data))
				return
			}

			ui.Banner(os.Stdout, "components")
			printLoadReport(rep)
			fmt.Printf("  %s components over %s nodes\n\n",
				ui.Brand.Sprint(humanize.Comma(int64(comps.Count()))),
				humanize.Comma(int64(g.Order())))
			ui.Table(os.Stdout, []string{"ID", "SIZE", "MEMBERS"}, componentRows(comps, limit))
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print nidToCid and cidToNodeIds as JSON")
	cmd.Flags().IntVar(&limit, "members", 8, "Members shown per component")
	return cmd
}

type componentsDoc struct {
	NidToCid     map[string]int      `json:"nidToCid"`
	CidToNodeIDs map[string][]string `json:"cidToNodeIds"`
}

func componentsJSON(c graph.Components) componentsDoc {
	doc := componentsDoc{NidToCid: c.NidToCid, CidToNodeIDs: make(map[string][]string, c.Count())}
	for cid, ids := range c.CidToNodeIDs {
		doc.CidToNodeIDs[strconv.Itoa(cid)] = ids
	}
	return doc
}

func componentRows(c graph.Components, limit int) [][]string {
	rows := make([][]string, 0, c.Count())
	for cid := 0; cid < c.Count(); cid++ {
		members := c.Members(cid)
		shown := members
		if limit > 0 && len(shown) > limit {
			shown = shown[:limit]
		}
		text := strings.Join(shown, " ")
		if len(shown) < len(members) {
			text += fmt.Sprintf(" … +%d", len(members)-len(shown))
		}
		rows = append(rows, []string{strconv.Itoa(cid), humanize.Comma(int64(len(members))), text})
	}
	return rows
}

func printLoadReport(rep graph.LoadReport) {
	if rep.DroppedEdges > 0 {
		ui.Warn.Printf("  %s dropped %s edges with missing endpoints\n", ui.WarnIcon(), humanize.Comma(int64(rep.DroppedEdges)))
	}
	if rep.DuplicateNodes > 0 {
		ui.Warn.Printf("  %s skipped %s duplicate or empty node ids\n", ui.WarnIcon(), humanize.Comma(int64(rep.DuplicateNodes)))
	}
}
