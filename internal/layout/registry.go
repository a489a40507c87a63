package layout

import (
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrUnknownLayout is returned for a layout name that is not registered.
var ErrUnknownLayout = errors.New("unknown layout")

// Family says how a layout is computed.
type Family int

const (
	// FamilyForce layouts iterate in a worker and report progress.
	FamilyForce Family = iota
	// FamilyStatic layouts are computed synchronously on the caller.
	FamilyStatic
)

func (f Family) String() string {
	switch f {
	case FamilyForce:
		return "force-directed"
	case FamilyStatic:
		return "static"
	}
	return "unknown"
}

// Algorithm describes one selectable layout.
type Algorithm struct {
	Name        string
	Family      Family
	Description string

	// Settings derives ForceAtlas2 parameters from graph order (FamilyForce).
	Settings func(order int) Settings
	// Static computes positions directly (FamilyStatic).
	Static StaticFunc
}

// Iterations is the default iteration budget for a graph of the given order.
func Iterations(order int) int {
	switch {
	case order <= 100:
		return 500
	case order <= 1000:
		return 300
	default:
		return 150
	}
}

var algorithms = orderedmap.New[string, Algorithm]()

func register(a Algorithm) {
	algorithms.Set(a.Name, a)
}

func init() {
	register(Algorithm{
		Name:        "forceatlas2",
		Family:      FamilyForce,
		Description: "ForceAtlas2, parameters inferred from graph size",
		Settings:    InferSettings,
	})
	register(Algorithm{
		Name:        "forceatlas2-linlog",
		Family:      FamilyForce,
		Description: "ForceAtlas2 in LinLog mode, tighter clusters",
		Settings: func(order int) Settings {
			s := InferSettings(order)
			s.LinLogMode = true
			s.OutboundAttractionDistribution = true
			return s
		},
	})
	register(Algorithm{
		Name:        "forceatlas2-barneshut",
		Family:      FamilyForce,
		Description: "ForceAtlas2 with Barnes-Hut approximation forced on",
		Settings: func(order int) Settings {
			s := InferSettings(order)
			s.BarnesHutOptimize = true
			s.BarnesHutTheta = 0.6
			return s
		},
	})
	register(Algorithm{Name: "breadthfirst", Family: FamilyStatic, Description: "Hierarchical layers by BFS depth per component", Static: BreadthFirst})
	register(Algorithm{Name: "concentric", Family: FamilyStatic, Description: "Rings by node degree", Static: Concentric})
	register(Algorithm{Name: "circle", Family: FamilyStatic, Description: "All nodes on one ring", Static: Circle})
	register(Algorithm{Name: "grid", Family: FamilyStatic, Description: "Near-square grid in id order", Static: Grid})
	register(Algorithm{Name: "random", Family: FamilyStatic, Description: "Seeded uniform scatter", Static: Random})
}

// Lookup returns the named layout.
func Lookup(name string) (Algorithm, error) {
	a, ok := algorithms.Get(name)
	if !ok {
		return Algorithm{}, fmt.Errorf("%w: %s", ErrUnknownLayout, name)
	}
	return a, nil
}

// All returns every layout in registration order.
func All() []Algorithm {
	out := make([]Algorithm, 0, algorithms.Len())
	for pair := algorithms.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Names returns the layout names in registration order.
func Names() []string {
	var names []string
	for _, a := range All() {
		names = append(names, a.Name)
	}
	return names
}
