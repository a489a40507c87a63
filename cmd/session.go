package cmd

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/msalah0e/protoviz/internal/config"
	"github.com/msalah0e/protoviz/internal/graph"
	"github.com/msalah0e/protoviz/internal/highlight"
	"github.com/msalah0e/protoviz/internal/hover"
	"github.com/msalah0e/protoviz/internal/layout"
	"github.com/msalah0e/protoviz/internal/orchestrator"
	"github.com/msalah0e/protoviz/internal/viewport"
	"go.uber.org/zap"
)

// session wires the engine pieces around one loaded graph, the way a
// rendering layer would.
type session struct {
	path   string
	graph  *graph.Graph
	report graph.LoadReport
	view   *viewport.Viewport
	orch   *orchestrator.Orchestrator
	hover  *hover.Controller
	log    *zap.Logger

	mu         sync.Mutex
	advisories []orchestrator.Advisory
}

func openSession(path string, c *config.Config, log *zap.Logger) (*session, error) {
	g, rep, err := graph.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	s := &session{path: path, graph: g, report: rep}
	s.view = viewport.New(c.Viewport.Width, c.Viewport.Height)
	log = log.With(zap.String("graph", path))

	static := layout.DefaultStaticOptions()
	static.Seed = c.Layout.Seed
	if c.Layout.Spacing > 0 {
		static.Spacing = c.Layout.Spacing
	}
	s.orch = orchestrator.New(g, s.view,
		orchestrator.WithTimeout(c.Layout.Timeout.Duration),
		orchestrator.WithStopGrace(c.Layout.StopGrace.Duration),
		orchestrator.WithChunkSize(c.Layout.ChunkSize),
		orchestrator.WithIterations(c.Layout.Iterations),
		orchestrator.WithStaticOptions(static),
		orchestrator.WithFitPadding(c.Hover.FitPadding),
		orchestrator.WithLogger(log),
		orchestrator.OnAdvisory(func(a orchestrator.Advisory) {
			s.mu.Lock()
			s.advisories = append(s.advisories, a)
			s.mu.Unlock()
		}))
	s.hover = hover.New(g, s.view,
		hover.WithDebounce(c.Hover.Debounce.Duration),
		hover.WithPadding(c.Hover.FitPadding),
		hover.WithLogger(log))
	s.log = log
	return s, nil
}

// layout runs the named layout to completion.
func (s *session) layout(ctx context.Context, name string) (orchestrator.Outcome, error) {
	run, err := s.orch.RunLayout(name)
	if err != nil {
		return orchestrator.Outcome{}, err
	}
	out, err := run.Wait(ctx)
	if err != nil {
		s.orch.Stop()
		return out, err
	}
	s.orch.ResetView()
	return out, nil
}

// highlight recomputes the persistent highlight from the flags.
func (s *session) highlight(f selectionFlags) (highlight.Result, error) {
	sel, err := f.selection()
	if err != nil {
		return highlight.Result{}, err
	}
	eng, err := f.engine(s.log)
	if err != nil {
		return highlight.Result{}, err
	}
	return eng.Recompute(s.graph, sel), nil
}

// focus applies --preview/--pin component flags through the hover controller.
func (s *session) focus(preview, pin int) {
	if pin >= 0 {
		s.hover.HighlightComponent(pin)
	}
	if preview >= 0 {
		s.hover.PreviewComponent(preview)
	}
}

// notices returns the advisories raised so far.
func (s *session) notices() []orchestrator.Advisory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]orchestrator.Advisory(nil), s.advisories...)
}

func (s *session) close() {
	s.orch.Close()
}

// selectionFlags is shared by every command that highlights.
type selectionFlags struct {
	tokens []string
	mode   string
	filter bool
	by     string
}

func (f selectionFlags) selection() (highlight.Selection, error) {
	mode, err := highlight.ParseMode(f.mode)
	if err != nil {
		return highlight.Selection{}, err
	}
	return highlight.Selection{Tokens: f.tokens, Mode: mode, Filter: f.filter}, nil
}

func (f selectionFlags) engine(log *zap.Logger) (*highlight.Engine, error) {
	switch strings.ToLower(f.by) {
	case "", "label":
		return highlight.New(highlight.WithLogger(log)), nil
	case "id":
		return highlight.New(highlight.WithLabelFunc(highlight.ByID), highlight.WithLogger(log)), nil
	}
	return nil, fmt.Errorf("unknown label source %q (want label|id)", f.by)
}
