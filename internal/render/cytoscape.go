package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/msalah0e/protoviz/internal/graph"
)

// CytoscapeElements is the Cytoscape.js elements format.
type CytoscapeElements struct {
	Nodes []CytoscapeNode `json:"nodes"`
	Edges []CytoscapeEdge `json:"edges"`
}

// CytoscapeNode is a node element with a preset position.
type CytoscapeNode struct {
	Data     CytoscapeNodeData `json:"data"`
	Position *graph.Point      `json:"position,omitempty"`
	Classes  string            `json:"classes,omitempty"`
}

// CytoscapeNodeData holds the node fields read by stylesheets.
type CytoscapeNodeData struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Type      string `json:"type,omitempty"`
	Component int    `json:"component"`
}

// CytoscapeEdge is an edge element.
type CytoscapeEdge struct {
	Data    CytoscapeEdgeData `json:"data"`
	Classes string            `json:"classes,omitempty"`
}

// CytoscapeEdgeData holds the edge fields.
type CytoscapeEdgeData struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight,omitempty"`
}

// ToCytoscape converts a view to Cytoscape.js elements. Positions are meant
// for the "preset" layout.
func ToCytoscape(v View) CytoscapeElements {
	el := CytoscapeElements{
		Nodes: make([]CytoscapeNode, 0, len(v.Nodes)),
		Edges: make([]CytoscapeEdge, 0, len(v.Edges)),
	}
	for _, n := range v.Nodes {
		cn := CytoscapeNode{
			Data:    CytoscapeNodeData{ID: n.ID, Label: n.Label, Type: n.Type, Component: n.Component},
			Classes: strings.Join(n.Classes, " "),
		}
		if n.X != nil && n.Y != nil {
			cn.Position = &graph.Point{X: *n.X, Y: *n.Y}
		}
		el.Nodes = append(el.Nodes, cn)
	}
	for _, e := range v.Edges {
		ce := CytoscapeEdge{Data: CytoscapeEdgeData{ID: e.ID, Source: e.Source, Target: e.Target, Weight: e.Weight}}
		if e.Hidden {
			ce.Classes = "hidden"
		}
		el.Edges = append(el.Edges, ce)
	}
	return el
}

type cytoscapeRenderer struct{}

func (cytoscapeRenderer) Name() string { return "cytoscape" }

func (cytoscapeRenderer) Render(w io.Writer, g *graph.Graph) error {
	data, err := json.Marshal(ToCytoscape(BuildView(g)))
	if err != nil {
		return fmt.Errorf("marshaling Cytoscape elements to JSON: %w", err)
	}
	_, err = w.Write(data)
	return err
}
