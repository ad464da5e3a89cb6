package goods

import "fmt"

// TransportType says how a good may leave the location that produced it.
type TransportType uint8

const (
	TransportNone TransportType = iota // immobile — never trades across locations
	TransportLand                      // moves by caravan
	TransportSea                       // moves by ship along coastal routes
)

// TransportName returns a human-readable transport type name.
func TransportName(t TransportType) string {
	switch t {
	case TransportNone:
		return "none"
	case TransportLand:
		return "land"
	case TransportSea:
		return "sea"
	}
	return "unknown"
}

// Good describes one tradeable good. Bulk and weight are per logical unit,
// in micro-units; DecayRate is the fraction of the stock lost per turn,
// also in micro-units (e.g. 50_000 = 5%).
type Good struct {
	Name      string        `json:"name"`
	Bulk      Amount        `json:"bulk"`
	Weight    Amount        `json:"weight"`
	DecayRate Amount        `json:"decay_rate"`
	Transport TransportType `json:"transport"`
}

// Mobile reports whether the good trades across locations.
func (g Good) Mobile() bool {
	return g.Transport != TransportNone
}

// Registry is the append-only catalogue of goods for one game world. It is
// owned by the world object and passed into markets and solvers explicitly;
// there is no process-wide goods table.
type Registry struct {
	byName map[string]Good
	order  []string // registration order, for deterministic listing
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Good)}
}

// Register adds a good. Registration is append-only: registering a name
// twice is an error, mobile goods must declare positive bulk and weight,
// and decay must stay inside [0, Unit).
func (r *Registry) Register(g Good) error {
	if g.Name == "" {
		return fmt.Errorf("register good: empty name")
	}
	if _, ok := r.byName[g.Name]; ok {
		return fmt.Errorf("register good %q: already registered", g.Name)
	}
	if g.Mobile() && (g.Bulk <= 0 || g.Weight <= 0) {
		return fmt.Errorf("register good %q: mobile goods need positive bulk and weight", g.Name)
	}
	if g.DecayRate < 0 || g.DecayRate >= Unit {
		return fmt.Errorf("register good %q: decay rate %d outside [0, %d)", g.Name, g.DecayRate, Unit)
	}
	r.byName[g.Name] = g
	r.order = append(r.order, g.Name)
	return nil
}

// Get looks a good up by name.
func (r *Registry) Get(name string) (Good, bool) {
	g, ok := r.byName[name]
	return g, ok
}

// Names returns all registered names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered goods.
func (r *Registry) Len() int {
	return len(r.byName)
}

// RetentionRates returns the per-good multiplier (Unit - decay) applied to
// stored stock each turn. Feed it to Container.MulEach after FindPrices.
func (r *Registry) RetentionRates() Container {
	out := make(Container, len(r.byName))
	for name, g := range r.byName {
		out[name] = Unit - g.DecayRate
	}
	return out
}
