package viewport

import (
	"math"
	"sync"

	"github.com/msalah0e/protoviz/internal/graph"
)

// State is a camera: the world point at the screen center and a zoom factor.
type State struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

const (
	MinZoom = 0.05
	MaxZoom = 4.0
)

// Viewport is the renderer's camera. A nil or destroyed Viewport ignores every call.
type Viewport struct {
	mu        sync.Mutex
	width     float64
	height    float64
	state     State
	destroyed bool
	pulses    int
	onPulse   func(ids []string)
}

// New creates a viewport of the given screen size centered on the origin.
func New(width, height float64) *Viewport {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return &Viewport{width: width, height: height, state: State{Zoom: 1}}
}

// OnPulse registers a hook called whenever a pulse is played.
func (v *Viewport) OnPulse(fn func(ids []string)) {
	if v == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onPulse = fn
}

// Usable reports whether the viewport still accepts calls.
func (v *Viewport) Usable() bool {
	if v == nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.destroyed
}

// Destroy detaches the viewport from its renderer.
func (v *Viewport) Destroy() {
	if v == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.destroyed = true
}

// Size returns the screen size.
func (v *Viewport) Size() (float64, float64) {
	if v == nil {
		return 0, 0
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width, v.height
}

// State returns the current camera.
func (v *Viewport) State() State {
	if v == nil {
		return State{}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Restore puts back a camera previously returned by State.
func (v *Viewport) Restore(s State) {
	if v == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed || s.Zoom <= 0 || math.IsNaN(s.Zoom) {
		return
	}
	v.state = s
}

// Fit centers the camera on r and zooms so it fills the screen minus padding.
func (v *Viewport) Fit(r graph.Rect, padding float64) {
	if v == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed {
		return
	}
	w := math.Max(v.width-2*padding, 1)
	h := math.Max(v.height-2*padding, 1)
	zoom := MaxZoom
	if r.Width() > 0 {
		zoom = math.Min(zoom, w/r.Width())
	}
	if r.Height() > 0 {
		zoom = math.Min(zoom, h/r.Height())
	}
	v.state = State{
		X:    (r.MinX + r.MaxX) / 2,
		Y:    (r.MinY + r.MaxY) / 2,
		Zoom: math.Max(MinZoom, zoom),
	}
}

// FitNodes fits the camera to the positioned nodes among ids (all nodes when ids is empty).
func (v *Viewport) FitNodes(g *graph.Graph, padding float64, ids ...string) bool {
	if !v.Usable() || !g.Usable() {
		return false
	}
	r, ok := g.BoundingBox(ids...)
	if !ok {
		return false
	}
	v.Fit(r, padding)
	return true
}

// Pulse plays a short cosmetic emphasis on the given nodes.
func (v *Viewport) Pulse(ids []string) {
	if v == nil {
		return
	}
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return
	}
	v.pulses++
	hook := v.onPulse
	v.mu.Unlock()
	if hook != nil {
		hook(ids)
	}
}

// Pulses is the number of pulses played so far.
func (v *Viewport) Pulses() int {
	if v == nil {
		return 0
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pulses
}
