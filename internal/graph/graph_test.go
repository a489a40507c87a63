package graph

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
)

func newTestGraph(t *testing.T, ids []string, edges [][2]string) *Graph {
	t.Helper()
	g := New()
	for _, id := range ids {
		if err := g.AddNode(Node{ID: id, Label: id}); err != nil {
			t.Fatalf("AddNode(%s) failed: %v", id, err)
		}
	}
	for _, e := range edges {
		if _, err := g.AddEdge(Edge{Source: e[0], Target: e[1]}); err != nil {
			t.Fatalf("AddEdge(%s-%s) failed: %v", e[0], e[1], err)
		}
	}
	return g
}

func TestAddNodeDuplicate(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{ID: "n1"}); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	err := g.AddNode(Node{ID: "n1"})
	if !errors.Is(err, ErrNodeExists) {
		t.Fatalf("expected ErrNodeExists, got %v", err)
	}
}

func TestAddNodeEmptyID(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestAddEdgeMissingEndpoint(t *testing.T) {
	g := newTestGraph(t, []string{"a"}, nil)
	_, err := g.AddEdge(Edge{Source: "a", Target: "zz"})
	if !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestAddEdgeGeneratesIDs(t *testing.T) {
	g := newTestGraph(t, []string{"a", "b", "c"}, nil)
	if _, err := g.AddEdge(Edge{ID: "e0", Source: "a", Target: "b"}); err != nil {
		t.Fatal(err)
	}
	id, err := g.AddEdge(Edge{Source: "b", Target: "c"})
	if err != nil {
		t.Fatal(err)
	}
	if id != "e1" {
		t.Errorf("expected generated id e1 (e0 taken), got %q", id)
	}
}

func TestRemoveNodeCascades(t *testing.T) {
	g := newTestGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
	g.SetPosition("b", Point{X: 1, Y: 1})
	g.SetHover([]string{"b"})

	if err := g.RemoveNode("b"); err != nil {
		t.Fatalf("RemoveNode failed: %v", err)
	}
	if g.Size() != 0 {
		t.Errorf("expected 0 edges after cascade, got %d", g.Size())
	}
	if _, ok := g.Position("b"); ok {
		t.Error("position should be removed with the node")
	}
	if g.Hovered("b") {
		t.Error("hover attribute should be removed with the node")
	}
}

func TestRemoveEdgeNotFound(t *testing.T) {
	g := New()
	if err := g.RemoveEdge("nope"); !errors.Is(err, ErrEdgeNotFound) {
		t.Fatalf("expected ErrEdgeNotFound, got %v", err)
	}
}

func TestNilAndDestroyedGraph(t *testing.T) {
	var g *Graph
	if g.Usable() {
		t.Error("nil graph should not be usable")
	}
	if len(g.NodeIDs()) != 0 || g.Order() != 0 {
		t.Error("nil graph should look empty")
	}
	if err := g.AddNode(Node{ID: "x"}); !errors.Is(err, ErrDestroyed) {
		t.Errorf("expected ErrDestroyed on nil graph, got %v", err)
	}

	g2 := newTestGraph(t, []string{"a"}, nil)
	g2.Destroy()
	if g2.Usable() {
		t.Error("destroyed graph should not be usable")
	}
	if g2.Order() != 0 {
		t.Errorf("destroyed graph should be empty, got %d nodes", g2.Order())
	}
	if err := g2.AddNode(Node{ID: "b"}); !errors.Is(err, ErrDestroyed) {
		t.Errorf("expected ErrDestroyed, got %v", err)
	}
}

func TestApplyPositionsSkipsUnknownAndNonFinite(t *testing.T) {
	g := newTestGraph(t, []string{"a", "b"}, nil)
	n := g.ApplyPositions(map[string]Point{
		"a":    {X: 1, Y: 2},
		"b":    {X: math.NaN(), Y: 0},
		"gone": {X: 3, Y: 3},
	})
	if n != 1 {
		t.Fatalf("expected 1 applied position, got %d", n)
	}
	if p, _ := g.Position("a"); p != (Point{X: 1, Y: 2}) {
		t.Errorf("unexpected position for a: %+v", p)
	}
	if _, ok := g.Position("b"); ok {
		t.Error("NaN position must not be stored")
	}
}

func TestDragWinsOverLayout(t *testing.T) {
	g := newTestGraph(t, []string{"a", "b"}, nil)
	g.BeginDrag("a")
	g.DragTo("a", Point{X: 10, Y: 10})

	g.ApplyPositions(map[string]Point{"a": {X: 0, Y: 0}, "b": {X: 5, Y: 5}})

	if p, _ := g.Position("a"); p != (Point{X: 10, Y: 10}) {
		t.Errorf("dragged node should keep user position, got %+v", p)
	}
	if p, _ := g.Position("b"); p != (Point{X: 5, Y: 5}) {
		t.Errorf("other nodes should take layout position, got %+v", p)
	}

	g.EndDrag("a")
	g.ApplyPositions(map[string]Point{"a": {X: 0, Y: 0}})
	if p, _ := g.Position("a"); p != (Point{}) {
		t.Errorf("released node should take layout position, got %+v", p)
	}
}

func TestBoundingBox(t *testing.T) {
	g := newTestGraph(t, []string{"a", "b", "c"}, nil)
	if _, ok := g.BoundingBox(); ok {
		t.Error("no positions means no bounding box")
	}
	g.SetPosition("a", Point{X: -1, Y: 2})
	g.SetPosition("b", Point{X: 3, Y: -4})
	r, ok := g.BoundingBox()
	if !ok {
		t.Fatal("expected a bounding box")
	}
	if r != (Rect{MinX: -1, MinY: -4, MaxX: 3, MaxY: 2}) {
		t.Errorf("unexpected box %+v", r)
	}
	r, _ = g.BoundingBox("a")
	if r.Width() != 0 || r.Height() != 0 {
		t.Errorf("single node box should be degenerate, got %+v", r)
	}
}

func TestStylePersistentWinsOverHover(t *testing.T) {
	g := newTestGraph(t, []string{"a", "b", "c"}, nil)
	g.ReplaceMarks(map[string]Marks{
		"a": {Highlighted: true},
		"b": {Dimmed: true},
		"c": {Dimmed: true, Hidden: true},
	}, nil)
	g.SetHover([]string{"a", "b", "c"})

	if s := g.Style("a"); !s.Highlighted || s.Hover {
		t.Errorf("persistent highlight should win, got %+v", s)
	}
	if s := g.Style("b"); !s.Hover || s.Dimmed {
		t.Errorf("hover should lift a dimmed node, got %+v", s)
	}
	if s := g.Style("c"); !s.Hidden || s.Hover {
		t.Errorf("hidden node must stay hidden, got %+v", s)
	}
}

func TestReplaceMarksOverwrites(t *testing.T) {
	g := newTestGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}})
	g.ReplaceMarks(map[string]Marks{"a": {Highlighted: true}}, map[string]bool{"e0": true})
	g.ReplaceMarks(map[string]Marks{"b": {Dimmed: true}}, nil)

	if g.Marks("a") != (Marks{}) {
		t.Errorf("stale marks should be gone, got %+v", g.Marks("a"))
	}
	if g.EdgeHidden("e0") {
		t.Error("stale hidden edge should be gone")
	}
	if !g.Marks("b").Dimmed {
		t.Error("expected b dimmed")
	}
}

func TestDecodeDropsDanglingEdges(t *testing.T) {
	input := `{
		"nodes": [{"id": "n1", "label": "P1 P2", "x": 1, "y": 2}, {"id": "n2"}, {"id": "n1"}],
		"edges": [{"source": "n1", "target": "n2", "weight": 2}, {"source": "n1", "target": "ghost"}]
	}`
	g, rep, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if rep.Nodes != 2 || rep.DuplicateNodes != 1 {
		t.Errorf("unexpected node report %+v", rep)
	}
	if rep.Edges != 1 || rep.DroppedEdges != 1 {
		t.Errorf("unexpected edge report %+v", rep)
	}
	if p, ok := g.Position("n1"); !ok || p != (Point{X: 1, Y: 2}) {
		t.Errorf("expected ingested position, got %+v %v", p, ok)
	}
	if _, ok := g.Position("n2"); ok {
		t.Error("n2 had no coordinates")
	}
}

func TestDecodeInvalid(t *testing.T) {
	if _, _, err := Decode(strings.NewReader("{not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveAndLoad(t *testing.T) {
	g := newTestGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}})
	g.SetPosition("a", Point{X: 4, Y: 5})
	path := filepath.Join(t.TempDir(), "out", "graph.json")

	if err := Save(g, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, rep, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rep.Nodes != 2 || rep.Edges != 1 {
		t.Errorf("unexpected report %+v", rep)
	}
	if p, _ := loaded.Position("a"); p != (Point{X: 4, Y: 5}) {
		t.Errorf("position not round-tripped: %+v", p)
	}
}

func TestExportDOTOmitsHidden(t *testing.T) {
	g := newTestGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
	g.ReplaceMarks(map[string]Marks{"c": {Hidden: true, Dimmed: true}}, map[string]bool{"e1": true})

	dot := g.ExportDOT()
	if !strings.HasPrefix(dot, "graph protoviz {") {
		t.Errorf("unexpected header: %q", dot)
	}
	if strings.Contains(dot, `"c" [`) {
		t.Error("hidden node should not be exported")
	}
	if !strings.Contains(dot, `"a" -- "b"`) || strings.Contains(dot, `"b" -- "c"`) {
		t.Errorf("edge visibility wrong:\n%s", dot)
	}
}

func TestSearchAndStats(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "n1", Label: "TP53 MDM2", Type: "protein"})
	g.AddNode(Node{ID: "n2", Label: "TP53BP1", Type: "protein"})
	g.AddNode(Node{ID: "n3", Label: "BRCA1", Type: "gene"})
	g.AddEdge(Edge{Source: "n1", Target: "n2"})

	results := g.Search("tp53")
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Node.ID != "n1" {
		t.Errorf("exact token match should rank first, got %s", results[0].Node.ID)
	}

	s := g.GetStats()
	if s.Nodes != 3 || s.Edges != 1 || s.Components != 2 || s.Tokens != 4 || s.Types != 2 {
		t.Errorf("unexpected stats %+v", s)
	}
}
