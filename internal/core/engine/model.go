// Package engine drives the simulation: it owns the agents, runs the
// per-tick pipeline (neighbor search, constraint construction, velocity
// solve, integration) and exposes the read surface the rendering side
// consumes.
package engine

import "github.com/crowdflow/crowdflow/internal/core/geometry"

// Model is the contract shared by every agent model variant. The host
// loop drives Update at its own cadence and must serialize all calls;
// no method may be invoked while another is in progress.
type Model interface {
	// Update advances one tick. Non-positive elapsed seconds and an
	// empty crowd are no-ops; elapsed time is clamped internally.
	Update(elapsedSeconds float64)

	// Configure merges named numeric overrides into the current
	// parameters; they take effect on the next tick.
	Configure(overrides map[string]float64)

	// Resize changes the arena dimensions and reseeds the scenario.
	Resize(width, height float64)

	// Reset reseeds the scenario in the current arena.
	Reset()

	// Agents returns a snapshot of the read surface: one view per
	// agent, decoupled from the engine's own state.
	Agents() []AgentView
}

// AgentView is the per-agent read surface: everything a renderer may
// see, and nothing it could mutate.
type AgentView struct {
	ID       string           `json:"id"`
	Position geometry.Vector2 `json:"position"`
	Velocity geometry.Vector2 `json:"velocity"`
	Radius   float64          `json:"radius"`
	Color    string           `json:"color"`
}
