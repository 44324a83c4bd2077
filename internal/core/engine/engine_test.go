package engine

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/crowdflow/crowdflow/internal/core/crowd"
	"github.com/crowdflow/crowdflow/internal/core/geometry"
)

func testParams() crowd.Params {
	p := crowd.DefaultParams()
	p.AgentCount = 8
	return p
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(testParams(), 400, 400, "test-arena", nil)
	require.NotEmpty(t, e.agents)
	return e
}

// pairAgent builds one of two agents set up to cross the arena.
func pairAgent(start, goal geometry.Vector2, radius, prefSpeed float64) *crowd.Agent {
	return &crowd.Agent{
		ID:        uuid.New(),
		Position:  start,
		Radius:    radius,
		PrefSpeed: prefSpeed,
		MaxSpeed:  prefSpeed * 1.5,
		Goals:     [2]geometry.Vector2{goal, start},
	}
}

func TestUpdate_NoOp(t *testing.T) {
	e := newTestEngine(t)
	before := e.Agents()

	e.Update(0)
	e.Update(-1)

	after := e.Agents()
	for i := range before {
		require.Equal(t, before[i].Position, after[i].Position)
		require.Equal(t, geometry.Vector2{}, after[i].Velocity)
	}

	empty := New(testParams(), 0, 0, "empty", nil)
	require.Empty(t, empty.Agents())
	empty.Update(0.025) // must not panic on an empty crowd
}

func TestUpdate_VelocityRespectsMaxSpeed(t *testing.T) {
	e := newTestEngine(t)
	for tick := 0; tick < 200; tick++ {
		e.Update(0.025)
		for _, a := range e.agents {
			require.LessOrEqual(t, a.Velocity.Length(), a.MaxSpeed+1e-9)
		}
	}
}

func TestUpdate_ClampsElapsedTime(t *testing.T) {
	e := newTestEngine(t)
	before := e.Agents()

	e.Update(10) // clamped to 0.05s internally

	after := e.Agents()
	for i := range before {
		moved := after[i].Position.Dist(before[i].Position)
		require.LessOrEqual(t, moved, e.agents[i].MaxSpeed*maxTimeStep+1e-9)
	}
}

func TestUpdate_HeadOnPairNeverCollides(t *testing.T) {
	e := New(testParams(), 400, 400, "head-on", nil)
	a := pairAgent(geometry.Vector2{X: 0, Y: 0}, geometry.Vector2{X: 400, Y: 0}, 10, 50)
	b := pairAgent(geometry.Vector2{X: 400, Y: 1}, geometry.Vector2{X: 0, Y: 1}, 10, 50)
	e.agents = []*crowd.Agent{a, b}

	combined := a.Radius + b.Radius
	closestA := a.Position.Dist(a.Goals[0])
	closestB := b.Position.Dist(b.Goals[0])
	for tick := 0; tick < 800; tick++ {
		e.Update(0.025)
		require.GreaterOrEqualf(t, a.Position.Dist(b.Position), combined-1e-3,
			"agents collided at tick %d", tick)
		closestA = math.Min(closestA, a.Position.Dist(a.Goals[0]))
		closestB = math.Min(closestB, b.Position.Dist(b.Goals[0]))
	}

	// Both should have made it across at some point.
	require.Less(t, closestA, 15.0)
	require.Less(t, closestB, 15.0)
}

func TestGoalOscillation(t *testing.T) {
	e := New(testParams(), 400, 400, "goals", nil)
	a := pairAgent(geometry.Vector2{X: 0, Y: 0}, geometry.Vector2{X: 100, Y: 0}, 5, 50)
	e.agents = []*crowd.Agent{a}

	reachedFirst := false
	for tick := 0; tick < 400; tick++ {
		e.Update(0.025)
		if a.GoalIndex == 1 {
			reachedFirst = true
			break
		}
	}
	require.True(t, reachedFirst, "agent never reached its first anchor")

	// After flipping, the agent heads back toward its start.
	for tick := 0; tick < 400 && a.GoalIndex == 1; tick++ {
		e.Update(0.025)
	}
	require.Equal(t, 0, a.GoalIndex, "agent never bounced back")
}

func TestReset_Deterministic(t *testing.T) {
	e := newTestEngine(t)
	initial := e.Agents()

	for tick := 0; tick < 50; tick++ {
		e.Update(0.025)
	}
	e.Reset()
	e.Update(0)

	fresh := New(testParams(), 400, 400, "test-arena", nil)
	after := e.Agents()
	freshViews := fresh.Agents()

	require.Len(t, after, len(initial))
	for i := range after {
		require.Equal(t, initial[i].Position, after[i].Position)
		require.Equal(t, freshViews[i].Position, after[i].Position)
		require.Equal(t, geometry.Vector2{}, after[i].Velocity)
		require.Equal(t, freshViews[i].Radius, after[i].Radius)
	}
}

func TestResize_Reseeds(t *testing.T) {
	e := newTestEngine(t)
	e.Resize(800, 600)

	center := geometry.Vector2{X: 400, Y: 300}
	ring := 0.4 * 600.0
	for _, a := range e.agents {
		require.InDelta(t, ring, a.Position.Dist(center), 1e-9)
	}
}

func TestConfigure_MergesOverrides(t *testing.T) {
	e := newTestEngine(t)
	e.Configure(map[string]float64{
		"neighborRadius": 123,
		"timeHorizon":    7,
		"bogusKey":       1,
	})

	require.Equal(t, 123.0, e.params.NeighborRadius)
	require.Equal(t, 7.0, e.params.TimeHorizon)
}

func TestCrossingCrowd_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("long-running crowd simulation")
	}

	e := newTestEngine(t)

	// Remember each agent's first target anchor before any goal flips.
	targets := make([]geometry.Vector2, len(e.agents))
	combined := make([][]float64, len(e.agents))
	for i, a := range e.agents {
		targets[i] = a.Goals[0]
		combined[i] = make([]float64, len(e.agents))
		for j, b := range e.agents {
			combined[i][j] = a.Radius + b.Radius
		}
	}

	closest := make([]float64, len(e.agents))
	for i, a := range e.agents {
		closest[i] = a.Position.Dist(targets[i])
	}

	for tick := 0; tick < 2400; tick++ {
		e.Update(0.025)

		for i, a := range e.agents {
			if d := a.Position.Dist(targets[i]); d < closest[i] {
				closest[i] = d
			}
			for j := i + 1; j < len(e.agents); j++ {
				sep := a.Position.Dist(e.agents[j].Position)
				require.GreaterOrEqualf(t, sep, combined[i][j]-1e-3,
					"agents %d and %d collided at tick %d", i, j, tick)
			}
		}
	}

	// Every agent must have come within goal-switch range of the
	// anchor across the arena at some point during the run.
	for i := range e.agents {
		require.Lessf(t, closest[i], 15.0, "agent %d never reached its target anchor", i)
	}
}
