package hover

import (
	"sync"
	"time"

	"github.com/msalah0e/protoviz/internal/graph"
	"github.com/msalah0e/protoviz/internal/viewport"
	"go.uber.org/zap"
	"k8s.io/utils/clock"
)

// DefaultDebounce delays the revert after the pointer leaves an affordance.
const DefaultDebounce = 150 * time.Millisecond

// Phase of the preview state machine.
type Phase int

const (
	Idle Phase = iota
	Previewing
)

func (p Phase) String() string {
	if p == Previewing {
		return "previewing"
	}
	return "idle"
}

// Controller shows a transient, auto-reverting preview of one component.
// It writes only the hover attribute of the graph and the viewport camera.
type Controller struct {
	mu       sync.Mutex
	graph    *graph.Graph
	view     *viewport.Viewport
	clock    clock.WithDelayedExecution
	debounce time.Duration
	padding  float64
	logger   *zap.Logger

	phase   Phase
	current int
	saved   *viewport.State

	// pending is the single revert slot; generation invalidates fired-but-cancelled timers.
	pending    clock.Timer
	generation uint64

	pinned []string
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the real clock, mainly for tests.
func WithClock(c clock.WithDelayedExecution) Option {
	return func(h *Controller) { h.clock = c }
}

// WithDebounce sets the revert delay.
func WithDebounce(d time.Duration) Option {
	return func(h *Controller) {
		if d >= 0 {
			h.debounce = d
		}
	}
}

// WithPadding sets the screen padding used when fitting a component.
func WithPadding(p float64) Option {
	return func(h *Controller) { h.padding = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Controller) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates an idle controller over g and view.
func New(g *graph.Graph, view *viewport.Viewport, opts ...Option) *Controller {
	c := &Controller{
		graph:    g,
		view:     view,
		clock:    clock.RealClock{},
		debounce: DefaultDebounce,
		padding:  40,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns the phase and, while previewing, the previewed component.
func (c *Controller) State() (Phase, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase, c.current
}

// RevertPending reports whether a debounced revert is scheduled.
func (c *Controller) RevertPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

func (c *Controller) usableLocked() bool {
	if c.graph.Usable() && c.view.Usable() {
		return true
	}
	// Handles went away: forget the session so the next good call starts fresh.
	c.cancelLocked()
	c.phase = Idle
	c.saved = nil
	c.pinned = nil
	return false
}

func (c *Controller) cancelLocked() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.generation++
}

// PreviewComponent highlights component id and fits the camera to it.
// The camera is saved only on the first preview of a session, so the
// eventual revert returns to the pre-hover view.
func (c *Controller) PreviewComponent(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.usableLocked() {
		return
	}
	// An unknown id leaves any scheduled revert in place.
	members := graph.ComputeComponents(c.graph).Members(id)
	if len(members) == 0 {
		c.logger.Debug("preview of unknown component", zap.Int("component", id))
		return
	}
	c.cancelLocked()
	if c.phase == Idle {
		s := c.view.State()
		c.saved = &s
	}
	c.graph.ClearHover()
	c.graph.SetHover(members)
	c.view.FitNodes(c.graph, c.padding, members...)
	c.view.Pulse(members)
	c.phase = Previewing
	c.current = id
}

// ClearHoverPreview schedules the revert of a preview of component id after
// the debounce delay. A preview started before then cancels it.
func (c *Controller) ClearHoverPreview(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.usableLocked() || c.phase != Previewing {
		return
	}
	c.cancelLocked()
	gen := c.generation
	c.pending = c.clock.AfterFunc(c.debounce, func() { c.revert(id, gen) })
}

func (c *Controller) revert(id int, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.pending = nil
	if !c.usableLocked() || c.phase != Previewing || c.current != id {
		return
	}
	c.graph.SetHover(c.pinned)
	if c.saved != nil {
		c.view.Restore(*c.saved)
	}
	c.saved = nil
	c.phase = Idle
}

// HighlightComponent pins component id, e.g. on click. It supersedes any
// preview: the pending revert is cancelled and the saved camera forgotten.
func (c *Controller) HighlightComponent(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.usableLocked() {
		return
	}
	c.cancelLocked()
	c.saved = nil
	c.phase = Idle

	members := graph.ComputeComponents(c.graph).Members(id)
	if len(members) == 0 {
		return
	}
	c.pinned = members
	c.graph.SetHover(members)
	c.view.FitNodes(c.graph, c.padding, members...)
}

// ClearHighlight drops the pinned component.
func (c *Controller) ClearHighlight() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pinned = nil
	if c.phase == Idle && c.graph.Usable() {
		c.graph.ClearHover()
	}
}
