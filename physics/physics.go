package physics

import (
	"fmt"
	"math"

	"github.com/TFMV/cognilink/models"
	"gonum.org/v1/gonum/spatial/r2"
)

// LayoutAlgorithm defines an interface for layout algorithms.
//
// Positions live on the graph's nodes; Advance mutates them in place and is
// meant to be called once per animation frame with the elapsed time.
type LayoutAlgorithm interface {
	Initialize(graph *models.Graph)
	Advance(dt float64) bool // Returns true once the layout has settled
	Wake()                   // Resume stepping after the graph was disturbed
	Settled() bool
	GetName() string
}

// Parameters tunes the force simulation. Distances are graph units and
// times are seconds.
type Parameters struct {
	Repulsion       float64 // Pairwise repulsion, F = Repulsion / d²
	SpringConstant  float64 // Edge spring stiffness, F = k * (d - SpringLength)
	SpringLength    float64 // Rest length of an edge
	Gravity         float64 // Pull toward Center, F = Gravity * (Center - p)
	DampingFactor   float64 // Velocity kept per ReferenceStep
	ReferenceStep   float64 // Time step DampingFactor is expressed against
	MinDistance     float64 // Distances below this are clamped
	MaxSpeed        float64 // Upper bound on node speed
	MaxSubStep      float64 // Longest single integration step
	MaxFrame        float64 // Longer frames are truncated to this
	EnergyThreshold float64 // Mean kinetic energy below which the layout is at rest
	SettleTime      float64 // Simulated time at rest before the layout settles
	Center          r2.Vec
}

// DefaultParameters returns parameters tuned for graphs of tens of nodes
// seeded on a circle of models.DefaultSeedRadius.
func DefaultParameters() Parameters {
	return Parameters{
		Repulsion:       120000,
		SpringConstant:  4,
		SpringLength:    80,
		Gravity:         0.5,
		DampingFactor:   0.9,
		ReferenceStep:   1.0 / 60,
		MinDistance:     1,
		MaxSpeed:        2000,
		MaxSubStep:      1.0 / 60,
		MaxFrame:        0.25,
		EnergyThreshold: 0.5,
		SettleTime:      0.25,
	}
}

// spring is one logical edge; A->B and B->A share a single spring.
type spring struct {
	a, b int
}

// ForceDirectedLayout implements a spring-electrical layout integrated with
// semi-implicit Euler steps.
//
// All iteration is over slices in id order, so identical graphs, seeds and
// dt sequences give bit-identical trajectories.
type ForceDirectedLayout struct {
	params     Parameters
	graph      *models.Graph
	springs    []spring
	forces     []r2.Vec
	energy     float64
	quiet      float64 // Simulated seconds spent below EnergyThreshold
	settled    bool
	iterations int
}

// NewForceDirectedLayout creates a new force-directed layout
func NewForceDirectedLayout(params Parameters) *ForceDirectedLayout {
	def := DefaultParameters()
	if params.MinDistance <= 0 {
		params.MinDistance = def.MinDistance
	}
	if params.MaxSubStep <= 0 {
		params.MaxSubStep = def.MaxSubStep
	}
	if params.ReferenceStep <= 0 {
		params.ReferenceStep = def.ReferenceStep
	}
	if params.MaxFrame <= 0 {
		params.MaxFrame = def.MaxFrame
	}
	if params.MaxSpeed <= 0 {
		params.MaxSpeed = def.MaxSpeed
	}
	if params.SettleTime <= 0 {
		params.SettleTime = def.SettleTime
	}
	if params.DampingFactor <= 0 || params.DampingFactor > 1 {
		params.DampingFactor = def.DampingFactor
	}
	return &ForceDirectedLayout{params: params}
}

// GetName returns the name of the layout algorithm
func (fd *ForceDirectedLayout) GetName() string {
	return "Force-Directed Layout"
}

// Parameters returns the parameters the layout runs with
func (fd *ForceDirectedLayout) Parameters() Parameters {
	return fd.params
}

// Initialize binds the layout to graph and restarts the simulation
func (fd *ForceDirectedLayout) Initialize(graph *models.Graph) {
	fd.graph = graph
	fd.iterations = 0
	fd.energy = 0
	fd.quiet = 0
	fd.settled = false
	fd.springs = fd.springs[:0]
	fd.forces = make([]r2.Vec, graph.Len())

	if graph == nil {
		return
	}

	// Non-finite seed positions would poison every force they touch.
	for i := range graph.Nodes {
		n := &graph.Nodes[i]
		if !finite(n.Position) {
			n.Position = fd.params.Center
		}
		if !finite(n.Velocity) {
			n.Velocity = r2.Vec{}
		}
	}

	seen := make(map[spring]bool, len(graph.Edges))
	for _, e := range graph.Edges {
		if e.Source == e.Target || !graph.Valid(e.Source) || !graph.Valid(e.Target) {
			continue
		}
		key := spring{a: min(e.Source, e.Target), b: max(e.Source, e.Target)}
		if seen[key] {
			continue
		}
		seen[key] = true
		fd.springs = append(fd.springs, key)
	}
}

// Wake resumes stepping after the layout has settled
func (fd *ForceDirectedLayout) Wake() {
	fd.settled = false
	fd.quiet = 0
}

// Settled reports whether the layout has come to rest
func (fd *ForceDirectedLayout) Settled() bool {
	return fd.settled
}

// Energy returns the mean kinetic energy per node after the last step
func (fd *ForceDirectedLayout) Energy() float64 {
	return fd.energy
}

// Iterations returns the number of Advance calls that moved the layout
func (fd *ForceDirectedLayout) Iterations() int {
	return fd.iterations
}

// Advance moves every unpinned node forward by dt seconds. Frames longer
// than MaxSubStep are split into equal sub-steps so the result does not
// depend on the frame rate. The layout settles once its energy has stayed
// below EnergyThreshold for SettleTime of simulated time, however that time
// was split into frames. It returns true once the layout has settled.
func (fd *ForceDirectedLayout) Advance(dt float64) bool {
	if fd.graph == nil || fd.graph.Len() == 0 {
		fd.settled = true
		return true
	}
	if fd.settled {
		return true
	}
	// Also rejects NaN.
	if !(dt > 0) {
		return false
	}
	dt = math.Min(dt, fd.params.MaxFrame)

	steps := int(math.Ceil(dt / fd.params.MaxSubStep))
	h := dt / float64(steps)
	for s := 0; s < steps; s++ {
		fd.step(h)
	}

	fd.iterations++
	if fd.energy < fd.params.EnergyThreshold {
		fd.quiet += dt
	} else {
		fd.quiet = 0
	}
	fd.settled = fd.quiet >= fd.params.SettleTime
	return fd.settled
}

func (fd *ForceDirectedLayout) step(h float64) {
	nodes := fd.graph.Nodes
	fd.computeForces()

	damping := math.Pow(fd.params.DampingFactor, h/fd.params.ReferenceStep)
	total := 0.0
	for i := range nodes {
		n := &nodes[i]
		if n.Pinned {
			n.Velocity = r2.Vec{}
			continue
		}

		v := r2.Add(n.Velocity, r2.Scale(h, fd.forces[i]))
		v = r2.Scale(damping, v)
		if speed := r2.Norm(v); speed > fd.params.MaxSpeed {
			v = r2.Scale(fd.params.MaxSpeed/speed, v)
		}
		p := r2.Add(n.Position, r2.Scale(h, v))

		if !finite(v) || !finite(p) {
			n.Velocity = r2.Vec{}
			continue
		}
		n.Velocity = v
		n.Position = p
		total += 0.5 * r2.Norm2(v)
	}
	fd.energy = total / float64(len(nodes))
}

func (fd *ForceDirectedLayout) computeForces() {
	nodes := fd.graph.Nodes
	p := fd.params
	for i := range fd.forces {
		fd.forces[i] = r2.Scale(p.Gravity, r2.Sub(p.Center, nodes[i].Position))
	}

	// Repulsion between every pair; pinned nodes still push others away.
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			delta := r2.Sub(nodes[i].Position, nodes[j].Position)
			d := r2.Norm(delta)

			var dir r2.Vec
			if d > 0 {
				dir = r2.Scale(1/d, delta)
			} else {
				dir = separation(i, j)
			}
			d = math.Max(d, p.MinDistance)

			f := r2.Scale(p.Repulsion/(d*d), dir)
			fd.forces[i] = r2.Add(fd.forces[i], f)
			fd.forces[j] = r2.Sub(fd.forces[j], f)
		}
	}

	for _, s := range fd.springs {
		delta := r2.Sub(nodes[s.b].Position, nodes[s.a].Position)
		d := r2.Norm(delta)
		if d == 0 {
			// Repulsion separates coincident endpoints first.
			continue
		}
		f := r2.Scale(p.SpringConstant*(d-p.SpringLength)/d, delta)
		fd.forces[s.a] = r2.Add(fd.forces[s.a], f)
		fd.forces[s.b] = r2.Sub(fd.forces[s.b], f)
	}
}

// separation picks a repeatable unit direction for two coincident nodes.
func separation(i, j int) r2.Vec {
	angle := float64(i*31+j*17) * 0.618
	return r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
}

func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// FrozenLayout keeps nodes at their seeded positions. It is useful for
// static exports where the layout should match the seed exactly.
type FrozenLayout struct{}

// GetName returns the name of the layout algorithm
func (FrozenLayout) GetName() string { return "Frozen Layout" }

// Initialize is a no-op
func (FrozenLayout) Initialize(*models.Graph) {}

// Advance never moves anything
func (FrozenLayout) Advance(float64) bool { return true }

// Wake is a no-op
func (FrozenLayout) Wake() {}

// Settled always reports true
func (FrozenLayout) Settled() bool { return true }

// Settle advances l with a fixed step until it settles or maxSteps is
// reached and returns the number of steps taken
func Settle(l LayoutAlgorithm, maxSteps int, dt float64) int {
	for i := 0; i < maxSteps; i++ {
		if l.Advance(dt) {
			return i + 1
		}
	}
	return maxSteps
}

// GetLayoutAlgorithm returns a layout algorithm by name
func GetLayoutAlgorithm(name string, params Parameters) (LayoutAlgorithm, error) {
	switch name {
	case "", "force":
		return NewForceDirectedLayout(params), nil
	case "frozen":
		return FrozenLayout{}, nil
	default:
		return nil, fmt.Errorf("unknown layout algorithm: %s", name)
	}
}
