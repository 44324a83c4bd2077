// Package crowd holds the per-agent simulation state and the scenario
// seeding that places a crowd into an arena. The engine owns the agent
// slice exclusively; nothing here is safe for concurrent mutation.
package crowd

import (
	"github.com/google/uuid"

	"github.com/crowdflow/crowdflow/internal/core/geometry"
)

// Agent is the full kinematic and configuration state of one agent.
type Agent struct {
	// ID identifies the agent across reseeds of the same scenario run.
	ID uuid.UUID

	Position geometry.Vector2
	Velocity geometry.Vector2

	// PrefVelocity is derived from the active goal each tick before the
	// avoidance solve. It is scratch state, never persisted.
	PrefVelocity geometry.Vector2

	// Radius is the agent's collision radius. Always > 0.
	Radius float64

	// PrefSpeed is the cruising speed used to scale the preferred
	// velocity. MaxSpeed >= PrefSpeed bounds the solved velocity.
	PrefSpeed float64
	MaxSpeed  float64

	// Goals are the two anchor points the agent oscillates between.
	// GoalIndex selects the active one (0 or 1).
	Goals     [2]geometry.Vector2
	GoalIndex int

	// Color is an opaque display attribute for the rendering
	// collaborator. The core never interprets it.
	Color string
}

// Goal returns the currently active anchor point.
func (a *Agent) Goal() geometry.Vector2 {
	return a.Goals[a.GoalIndex]
}

// FlipGoal switches the active anchor to the other one.
func (a *Agent) FlipGoal() {
	a.GoalIndex = 1 - a.GoalIndex
}

// goalSwitchDistance is how close an agent must get to its active
// anchor before the anchors swap. Scaled with the agent radius but
// never below 6 distance units, so small agents do not orbit a goal
// they can never exactly reach.
func (a *Agent) goalSwitchDistance() float64 {
	d := a.Radius * 0.8
	if d < 6 {
		d = 6
	}
	return d
}

// AtGoal reports whether the agent is within goal-switch range of its
// active anchor.
func (a *Agent) AtGoal() bool {
	return a.Position.Dist(a.Goal()) < a.goalSwitchDistance()
}
