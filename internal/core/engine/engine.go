package engine

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/crowdflow/crowdflow/internal/core/avoidance"
	"github.com/crowdflow/crowdflow/internal/core/crowd"
	"github.com/crowdflow/crowdflow/internal/core/geometry"
	"github.com/crowdflow/crowdflow/internal/core/observability/log"
)

// maxTimeStep is the stability bound of the explicit integration
// scheme: a tick never advances simulated time by more than this, no
// matter what the host passes in.
const maxTimeStep = 0.05

// goalDeadZone stops the preferred-velocity direction from being
// derived inside this distance of the goal, where normalizing the
// offset becomes unstable.
const goalDeadZone = 1.0

var _ Model = (*Engine)(nil)

// Engine is the reciprocal-velocity-obstacle agent model. It owns its
// agents exclusively; see Model for the serialization contract.
type Engine struct {
	params crowd.Params
	width  float64
	height float64
	seed   int64

	agents []*crowd.Agent
	rng    *rand.Rand

	ticks    uint64
	lastTick time.Duration

	log log.Log
}

// New builds an engine for a width by height arena and seeds the
// scenario immediately. The scenario name determines the RNG seed, so
// equal names reproduce identical crowds. A nil logger disables
// logging.
func New(params crowd.Params, width, height float64, scenario string, logger log.Log) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	e := &Engine{
		params: params,
		width:  width,
		height: height,
		seed:   crowd.SeedFromName(scenario),
		log:    logger.With(zap.String("scenario", scenario)),
	}
	e.reseed()
	return e
}

// Update advances the simulation one tick. The pipeline is strictly
// two-phase: every agent's next velocity is computed against the
// crowd's current state before any position or velocity is written, so
// results do not depend on agent order.
func (e *Engine) Update(elapsedSeconds float64) {
	if elapsedSeconds <= 0 || len(e.agents) == 0 {
		return
	}
	if elapsedSeconds > maxTimeStep {
		elapsedSeconds = maxTimeStep
	}
	start := time.Now()

	rangeSq := e.params.NeighborRadius * e.params.NeighborRadius
	neighbors := avoidance.ComputeNeighbors(e.agents, rangeSq, e.params.MaxNeighbors)

	invTimeHorizon := 1 / e.params.TimeHorizon
	invTimeStep := 1 / elapsedSeconds

	next := make([]geometry.Vector2, len(e.agents))
	for i, a := range e.agents {
		if a.AtGoal() {
			a.FlipGoal()
		}

		toGoal := a.Goal().Sub(a.Position)
		if toGoal.Length() < goalDeadZone {
			a.PrefVelocity = geometry.Vector2{}
		} else {
			a.PrefVelocity = toGoal.Normalize().Scale(a.PrefSpeed)
		}

		lines := make([]avoidance.Line, 0, len(neighbors[i]))
		for _, ref := range neighbors[i] {
			lines = append(lines, avoidance.ConstraintLine(a, e.agents[ref.Index], invTimeHorizon, invTimeStep))
		}

		next[i] = avoidance.SolveVelocity(lines, a.MaxSpeed, a.PrefVelocity).Limit(a.MaxSpeed)
	}

	for i, a := range e.agents {
		a.Velocity = next[i]
		a.Position = a.Position.Add(next[i].Scale(elapsedSeconds))
	}

	e.ticks++
	e.lastTick = time.Since(start)
}

// Configure merges named numeric overrides into the parameters.
// Unknown keys are logged and ignored. Changes that only matter at
// seeding time (agentCount, radius bounds) take effect on the next
// Reset or Resize.
func (e *Engine) Configure(overrides map[string]float64) {
	unknown := e.params.Merge(overrides)
	if len(unknown) > 0 {
		e.log.Warn("ignoring unknown parameter overrides", zap.Strings("keys", unknown))
	}
	e.log.Debug("parameters updated",
		zap.Float64("neighbor_radius", e.params.NeighborRadius),
		zap.Float64("time_horizon", e.params.TimeHorizon),
		zap.Int("max_neighbors", e.params.MaxNeighbors))
}

// Resize sets new arena dimensions and reseeds the scenario.
func (e *Engine) Resize(width, height float64) {
	e.width = width
	e.height = height
	e.reseed()
}

// Reset reseeds the scenario in the current arena. The crowd is
// regenerated from the scenario seed, independent of any prior ticks.
func (e *Engine) Reset() {
	e.reseed()
}

func (e *Engine) reseed() {
	e.rng = rand.New(rand.NewSource(e.seed))
	e.agents = crowd.SeedRing(e.params, e.width, e.height, e.rng)
	e.ticks = 0
	e.log.Info("scenario seeded",
		zap.Int("agents", len(e.agents)),
		zap.Float64("width", e.width),
		zap.Float64("height", e.height))
}

// Agents returns the read surface snapshot for the rendering side.
func (e *Engine) Agents() []AgentView {
	views := make([]AgentView, len(e.agents))
	for i, a := range e.agents {
		views[i] = AgentView{
			ID:       a.ID.String(),
			Position: a.Position,
			Velocity: a.Velocity,
			Radius:   a.Radius,
			Color:    a.Color,
		}
	}
	return views
}

// Stats returns engine counters for the control surface.
func (e *Engine) Stats() map[string]any {
	return map[string]any{
		"agents":         len(e.agents),
		"ticks":          e.ticks,
		"last_tick":      e.lastTick.String(),
		"arena_width":    e.width,
		"arena_height":   e.height,
		"neighborRadius": e.params.NeighborRadius,
		"timeHorizon":    e.params.TimeHorizon,
		"maxNeighbors":   e.params.MaxNeighbors,
	}
}
