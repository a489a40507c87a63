// Package highlight derives the persistent highlight, dim and filter state of a
// graph from the user's protein selection.
//
// Recompute is a pure function of (graph, selection): it owns no state and
// overwrites everything it derived on the previous call, so calling it twice
// with unchanged inputs is a no-op. Callers re-invoke it after any structural
// mutation or label change.
package highlight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/msalah0e/protoviz/internal/graph"
	"go.uber.org/zap"
)

// Mode selects how multiple selector tokens combine.
type Mode int

const (
	// ModeOr matches nodes carrying at least one selected token.
	ModeOr Mode = iota
	// ModeAnd matches nodes carrying every selected token.
	ModeAnd
)

func (m Mode) String() string {
	if m == ModeAnd {
		return "AND"
	}
	return "OR"
}

// ParseMode accepts "and" or "or" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "or":
		return ModeOr, nil
	case "and":
		return ModeAnd, nil
	}
	return ModeOr, fmt.Errorf("unknown match mode %q (want and|or)", s)
}

// Selection is the user's highlight request.
type Selection struct {
	Tokens []string
	Mode   Mode
	// Filter hides everything not connected to a matching node.
	Filter bool
}

// Toggle adds token to the selection, or removes it if already present.
func (s Selection) Toggle(token string) Selection {
	out := Selection{Mode: s.Mode, Filter: s.Filter}
	found := false
	for _, t := range s.Tokens {
		if t == token {
			found = true
			continue
		}
		out.Tokens = append(out.Tokens, t)
	}
	if !found {
		out.Tokens = append(out.Tokens, token)
	}
	return out
}

// normalized returns the distinct non-empty tokens, sorted.
func (s Selection) normalized() []string {
	set := make(map[string]bool)
	for _, t := range s.Tokens {
		for _, f := range graph.Tokens(t) {
			set[f] = true
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// LabelFunc yields the text whose tokens are matched, e.g. the display name
// in the current display-name mode.
type LabelFunc func(graph.Node) string

// ByLabel matches on the node label.
func ByLabel(n graph.Node) string { return n.Label }

// ByID matches on the node id.
func ByID(n graph.Node) string { return n.ID }

// Result summarizes one recomputation.
type Result struct {
	Hits        []string
	Dimmed      int
	HiddenNodes int
	HiddenEdges int
}

// Engine recomputes highlight state.
type Engine struct {
	label  LabelFunc
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLabelFunc changes the text tokens are extracted from.
func WithLabelFunc(fn LabelFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.label = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine matching on node labels.
func New(opts ...Option) *Engine {
	e := &Engine{label: ByLabel, logger: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Recompute applies sel to g with the default engine.
func Recompute(g *graph.Graph, sel Selection) Result {
	return New().Recompute(g, sel)
}

// Recompute overwrites the highlight namespace of g from sel.
func (e *Engine) Recompute(g *graph.Graph, sel Selection) Result {
	if !g.Usable() {
		return Result{}
	}
	want := sel.normalized()
	if len(want) == 0 {
		g.ReplaceMarks(nil, nil)
		return Result{}
	}

	var res Result
	nodes := g.Nodes()
	marks := make(map[string]graph.Marks, len(nodes))
	for _, n := range nodes {
		if e.hits(n, want, sel.Mode) {
			marks[n.ID] = graph.Marks{Highlighted: true}
			res.Hits = append(res.Hits, n.ID)
		} else {
			marks[n.ID] = graph.Marks{Dimmed: true}
			res.Dimmed++
		}
	}

	var hiddenEdges map[string]bool
	if sel.Filter {
		reach := graph.Reachable(g, res.Hits)
		for _, n := range nodes {
			if !reach[n.ID] {
				m := marks[n.ID]
				m.Hidden = true
				marks[n.ID] = m
				res.HiddenNodes++
			}
		}
		hiddenEdges = make(map[string]bool)
		for _, edge := range g.Edges() {
			if !reach[edge.Source] || !reach[edge.Target] {
				hiddenEdges[edge.ID] = true
				res.HiddenEdges++
			}
		}
	}

	g.ReplaceMarks(marks, hiddenEdges)
	e.logger.Debug("highlight recomputed",
		zap.Strings("tokens", want),
		zap.Stringer("mode", sel.Mode),
		zap.Bool("filter", sel.Filter),
		zap.Int("hits", len(res.Hits)),
		zap.Int("hiddenNodes", res.HiddenNodes))
	return res
}

// hits reports whether n matches. A label function that panics makes the
// node a miss instead of aborting the whole pass.
func (e *Engine) hits(n graph.Node, want []string, mode Mode) (hit bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("label extraction failed", zap.String("node", n.ID), zap.Any("panic", r))
			hit = false
		}
	}()
	have := graph.TokenSet(e.label(n))
	if mode == ModeAnd {
		for _, t := range want {
			if !have[t] {
				return false
			}
		}
		return true
	}
	for _, t := range want {
		if have[t] {
			return true
		}
	}
	return false
}
