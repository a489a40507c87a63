// Package orchestrator turns a layout name into positions on a graph.
//
// Static layouts are computed on the caller's goroutine. Force-directed
// layouts run in a single layout.Worker per orchestrator; its ticks are
// copied onto the graph as they arrive and a watchdog replaces a run that
// never finishes with a grid so the view is never left half arranged.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/msalah0e/protoviz/internal/graph"
	"github.com/msalah0e/protoviz/internal/layout"
	"github.com/msalah0e/protoviz/internal/viewport"
	"go.uber.org/zap"
	"k8s.io/utils/clock"
)

var (
	// ErrClosed is returned by RunLayout after Close.
	ErrClosed = errors.New("orchestrator closed")
	// ErrTimeout is the outcome error of a run cut short by the watchdog.
	ErrTimeout = errors.New("layout timed out")
	// ErrWorker wraps the reason reported by a failing worker.
	ErrWorker = errors.New("layout worker failed")
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultStopGrace = 2 * time.Second
	DefaultChunkSize = 50
)

// Status is how a run ended.
type Status int

const (
	StatusRunning Status = iota
	StatusDone
	StatusStopped
	StatusFailed
	StatusTimedOut
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusStopped:
		return "stopped"
	case StatusFailed:
		return "failed"
	case StatusTimedOut:
		return "timed out"
	case StatusSkipped:
		return "skipped"
	}
	return "unknown"
}

// Outcome is the resolution of a run.
type Outcome struct {
	Status Status
	Err    error
}

// Advisory is a non-fatal signal for the UI layer, such as a timed-out layout.
type Advisory struct {
	RunID   string
	Layout  string
	Status  Status
	Message string
}

// Run is the handle of one runLayout call.
type Run struct {
	ID     string
	Layout string
	Family layout.Family

	mu       sync.Mutex
	done     chan struct{}
	outcome  Outcome
	progress float64
}

func newRun(name string, family layout.Family) *Run {
	return &Run{ID: uuid.NewString(), Layout: name, Family: family, done: make(chan struct{})}
}

// Done is closed once the run has resolved.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run resolves or ctx ends.
func (r *Run) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-r.done:
		return r.Outcome(), nil
	case <-ctx.Done():
		return Outcome{Status: StatusRunning}, ctx.Err()
	}
}

// Outcome returns the current outcome; Status is StatusRunning until resolved.
func (r *Run) Outcome() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcome
}

// Progress is the last reported percentage.
func (r *Run) Progress() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

func (r *Run) setProgress(p float64) {
	r.mu.Lock()
	r.progress = p
	r.mu.Unlock()
}

// resolve records the first outcome only.
func (r *Run) resolve(o Outcome) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcome.Status != StatusRunning {
		return false
	}
	r.outcome = o
	if o.Status == StatusDone {
		r.progress = 100
	}
	close(r.done)
	return true
}

// active is the live worker handle.
type active struct {
	run      *Run
	worker   layout.Worker
	watchdog clock.Timer
	finished bool
	pumped   chan struct{}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSpawner replaces the ForceAtlas2 worker factory.
func WithSpawner(s layout.Spawner) Option { return func(o *Orchestrator) { o.spawn = s } }

// WithClock replaces the real clock used by the watchdog and stop grace.
func WithClock(c clock.WithDelayedExecution) Option { return func(o *Orchestrator) { o.clock = c } }

// WithTimeout sets the watchdog budget of force-directed runs.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithStopGrace sets how long a stopped worker may take to acknowledge before it is killed.
func WithStopGrace(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.stopGrace = d
		}
	}
}

// WithChunkSize sets iterations per tick.
func WithChunkSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithIterations fixes the iteration budget. Zero derives it from graph size.
func WithIterations(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.iterations = n
		}
	}
}

// WithStaticOptions tunes the synchronous layouts and the timeout fallback.
func WithStaticOptions(s layout.StaticOptions) Option {
	return func(o *Orchestrator) { o.static = s }
}

// WithFitPadding sets the padding used by ResetView.
func WithFitPadding(p float64) Option { return func(o *Orchestrator) { o.padding = p } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// OnAdvisory registers the UI hook for timeouts and failures.
func OnAdvisory(fn func(Advisory)) Option { return func(o *Orchestrator) { o.onAdvisory = fn } }

// OnProgress registers a hook called after each applied tick.
func OnProgress(fn func(runID string, percent float64)) Option {
	return func(o *Orchestrator) { o.onProgress = fn }
}

// Orchestrator owns the single layout worker of one graph view.
type Orchestrator struct {
	graph *graph.Graph
	view  *viewport.Viewport

	spawn      layout.Spawner
	clock      clock.WithDelayedExecution
	timeout    time.Duration
	stopGrace  time.Duration
	chunkSize  int
	iterations int
	static     layout.StaticOptions
	padding    float64
	logger     *zap.Logger
	onAdvisory func(Advisory)
	onProgress func(string, float64)

	// ctl serializes RunLayout, Stop and Close: they take exclusive ownership of the worker slot.
	ctl sync.Mutex

	// mu guards current and closed, and orders position writes between the pump and the watchdog.
	mu      sync.Mutex
	current *active
	closed  bool
}

// New creates an orchestrator for g, fitting view on ResetView.
func New(g *graph.Graph, view *viewport.Viewport, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		graph:     g,
		view:      view,
		clock:     clock.RealClock{},
		timeout:   DefaultTimeout,
		stopGrace: DefaultStopGrace,
		chunkSize: DefaultChunkSize,
		static:    layout.DefaultStaticOptions(),
		padding:   40,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.spawn == nil {
		o.spawn = layout.NewSpawner(o.logger)
	}
	return o
}

// Running reports whether a worker-based run is in flight.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current != nil
}

// RunLayout starts the named layout. A run already in flight is stopped first.
// Static layouts are applied before RunLayout returns; force-directed runs
// resolve asynchronously through the returned handle.
func (o *Orchestrator) RunLayout(name string) (*Run, error) {
	alg, err := layout.Lookup(name)
	if err != nil {
		return nil, err
	}

	o.ctl.Lock()
	defer o.ctl.Unlock()

	o.mu.Lock()
	closed, prev := o.closed, o.current
	o.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	run := newRun(alg.Name, alg.Family)
	log := o.logger.With(zap.String("run", run.ID), zap.String("layout", alg.Name))

	if prev != nil {
		o.retire(prev, "replaced")
	}

	if !o.graph.Usable() || o.graph.Order() == 0 {
		log.Debug("empty graph, nothing to lay out")
		run.resolve(Outcome{Status: StatusSkipped})
		return run, nil
	}

	if alg.Family == layout.FamilyStatic {
		o.mu.Lock()
		applied := o.graph.ApplyPositions(alg.Static(o.graph, o.static))
		o.mu.Unlock()
		log.Debug("static layout applied", zap.Int("nodes", applied))
		run.resolve(Outcome{Status: StatusDone})
		return run, nil
	}

	return o.startWorker(run, alg, log)
}

func (o *Orchestrator) startWorker(run *Run, alg layout.Algorithm, log *zap.Logger) (*Run, error) {
	snap := o.graph.Snapshot()
	if len(snap.Nodes) == 0 {
		run.resolve(Outcome{Status: StatusSkipped})
		return run, nil
	}
	cmd := buildCommand(snap, o.chunkSize, o.iterations, alg)

	a := &active{run: run, worker: o.spawn(), pumped: make(chan struct{})}
	if err := a.worker.Post(cmd); err != nil {
		a.worker.Terminate()
		run.resolve(Outcome{Status: StatusFailed, Err: fmt.Errorf("post run: %w", err)})
		return run, nil
	}

	o.mu.Lock()
	o.current = a
	o.mu.Unlock()

	// The watchdog callback takes o.mu, so the timer is created without holding it.
	wd := o.clock.AfterFunc(o.timeout, func() { o.expire(a) })
	o.mu.Lock()
	a.watchdog = wd
	finished := a.finished
	o.mu.Unlock()
	if finished {
		wd.Stop()
	}

	go o.pump(a, log)

	log.Info("layout started",
		zap.Int("nodes", len(cmd.Nodes)),
		zap.Int("edges", len(cmd.Edges)),
		zap.Int("iterations", cmd.Iterations),
		zap.Duration("timeout", o.timeout))
	return run, nil
}

// buildCommand converts a graph snapshot into a worker run. Unusable weights
// are left nil so the worker uses its default influence.
func buildCommand(snap graph.Snapshot, chunkSize, iterations int, alg layout.Algorithm) layout.RunCommand {
	order := len(snap.Nodes)
	if iterations <= 0 {
		iterations = layout.Iterations(order)
	}
	cmd := layout.RunCommand{
		Iterations: iterations,
		ChunkSize:  chunkSize,
		Settings:   alg.Settings(order),
		Nodes:      make([]layout.NodeInput, 0, order),
		Edges:      make([]layout.EdgeInput, 0, len(snap.Edges)),
	}
	for _, n := range snap.Nodes {
		in := layout.NodeInput{ID: n.ID}
		if n.HasPos {
			x, y := n.X, n.Y
			in.X, in.Y = &x, &y
		}
		cmd.Nodes = append(cmd.Nodes, in)
	}
	for _, e := range snap.Edges {
		in := layout.EdgeInput{Source: e.Source, Target: e.Target}
		if w := e.Weight; w > 0 && !math.IsInf(w, 0) && !math.IsNaN(w) {
			in.Weight = &w
		}
		cmd.Edges = append(cmd.Edges, in)
	}
	return cmd
}

// pump applies worker output in receipt order until the worker's stream closes.
func (o *Orchestrator) pump(a *active, log *zap.Logger) {
	defer close(a.pumped)
	for msg := range a.worker.Messages() {
		switch m := msg.(type) {
		case layout.TickMessage:
			if o.apply(a, m.Positions) {
				a.run.setProgress(m.Progress)
				if o.onProgress != nil {
					o.onProgress(a.run.ID, m.Progress)
				}
			}
		case layout.DoneMessage:
			o.apply(a, m.Positions)
			o.finish(a, Outcome{Status: StatusDone})
			log.Info("layout done")
		case layout.StoppedMessage:
			o.finish(a, Outcome{Status: StatusStopped})
			log.Debug("layout stopped")
		case layout.ErrorMessage:
			err := fmt.Errorf("%w: %s", ErrWorker, m.Message)
			if o.claim(a) {
				log.Warn("layout failed", zap.String("reason", m.Message))
				// Advisories are delivered before waiters wake.
				o.advise(Advisory{RunID: a.run.ID, Layout: a.run.Layout, Status: StatusFailed, Message: err.Error()})
				a.run.resolve(Outcome{Status: StatusFailed, Err: err})
			}
		}
		if layout.Terminal(msg) {
			a.worker.Terminate()
		}
	}
	// Stream closed without a terminal message: the worker was killed.
	o.finish(a, Outcome{Status: StatusStopped})
}

// apply copies positions onto the graph if a is still the live run.
func (o *Orchestrator) apply(a *active, positions []layout.Position) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current != a || a.finished {
		return false
	}
	update := make(map[string]graph.Point, len(positions))
	for _, p := range positions {
		update[p.ID] = graph.Point{X: p.X, Y: p.Y}
	}
	o.graph.ApplyPositions(update)
	return true
}

// finish resolves a once and frees the worker slot. It reports whether this call resolved it.
func (o *Orchestrator) finish(a *active, out Outcome) bool {
	if !o.claim(a) {
		return false
	}
	return a.run.resolve(out)
}

// claim marks a finished, frees the worker slot and kills the worker without
// resolving the run. Only the first caller gets true.
func (o *Orchestrator) claim(a *active) bool {
	o.mu.Lock()
	if a.finished {
		o.mu.Unlock()
		return false
	}
	a.finished = true
	if o.current == a {
		o.current = nil
	}
	wd := a.watchdog
	o.mu.Unlock()

	if wd != nil {
		wd.Stop()
	}
	a.worker.Terminate()
	return true
}

// expire is the watchdog: kill the worker, fall back to a grid and tell the UI.
func (o *Orchestrator) expire(a *active) {
	o.mu.Lock()
	if a.finished {
		o.mu.Unlock()
		return
	}
	a.finished = true
	if o.current == a {
		o.current = nil
	}
	_ = a.worker.Post(layout.StopCommand{})
	a.worker.Terminate()
	applied := o.graph.ApplyPositions(layout.Grid(o.graph, o.static))
	o.mu.Unlock()

	o.logger.Warn("layout timed out, grid fallback applied",
		zap.String("run", a.run.ID),
		zap.String("layout", a.run.Layout),
		zap.Duration("timeout", o.timeout),
		zap.Int("nodes", applied))
	o.advise(Advisory{
		RunID:   a.run.ID,
		Layout:  a.run.Layout,
		Status:  StatusTimedOut,
		Message: fmt.Sprintf("%s timed out after %s; consider a lighter layout or a smaller graph", a.run.Layout, o.timeout),
	})
	a.run.resolve(Outcome{Status: StatusTimedOut, Err: ErrTimeout})
}

// retire stops a, waiting up to the stop grace for the acknowledgement before killing it.
func (o *Orchestrator) retire(a *active, reason string) {
	o.mu.Lock()
	if o.current == a {
		o.current = nil
	}
	o.mu.Unlock()

	if err := a.worker.Post(layout.StopCommand{}); err != nil {
		o.logger.Debug("stop not delivered", zap.String("run", a.run.ID), zap.Error(err))
	}
	grace := o.clock.NewTimer(o.stopGrace)
	select {
	case <-a.pumped:
		grace.Stop()
	case <-grace.C():
		o.logger.Warn("worker ignored stop, terminating", zap.String("run", a.run.ID), zap.Duration("grace", o.stopGrace))
	}
	o.finish(a, Outcome{Status: StatusStopped})
	o.logger.Debug("layout retired", zap.String("run", a.run.ID), zap.String("reason", reason))
}

func (o *Orchestrator) advise(a Advisory) {
	if o.onAdvisory != nil {
		o.onAdvisory(a)
	}
}

// Stop cancels the run in flight, if any.
func (o *Orchestrator) Stop() {
	o.ctl.Lock()
	defer o.ctl.Unlock()
	o.mu.Lock()
	a := o.current
	o.mu.Unlock()
	if a != nil {
		o.retire(a, "stopped")
	}
}

// ResetView fits the viewport to every positioned node. It reports whether the camera moved.
func (o *Orchestrator) ResetView() bool {
	return o.view.FitNodes(o.graph, o.padding)
}

// Close stops any run and rejects later ones.
func (o *Orchestrator) Close() {
	o.ctl.Lock()
	defer o.ctl.Unlock()
	o.mu.Lock()
	o.closed = true
	a := o.current
	o.mu.Unlock()
	if a != nil {
		o.retire(a, "closed")
	}
}
