package crowd

import "fmt"

// Params are the tunable simulation parameters. All of them are plain
// numbers so they can be merged from a flat override map at runtime.
type Params struct {
	// AgentCount is the number of agents seeded on reset.
	AgentCount int `json:"agent_count" yaml:"agent_count"`

	// NeighborRadius bounds the neighbor search; agents farther apart
	// than this never constrain each other.
	NeighborRadius float64 `json:"neighbor_radius" yaml:"neighbor_radius"`

	// MaxNeighbors caps how many nearest agents contribute constraints.
	MaxNeighbors int `json:"max_neighbors" yaml:"max_neighbors"`

	// TimeHorizon is the look-ahead window (seconds) for preempting
	// collisions with agents not yet overlapping.
	TimeHorizon float64 `json:"time_horizon" yaml:"time_horizon"`

	// MinRadius and MaxRadius bound the per-agent collision radius
	// drawn at seeding time.
	MinRadius float64 `json:"min_radius" yaml:"min_radius"`
	MaxRadius float64 `json:"max_radius" yaml:"max_radius"`

	// MinPrefSpeed and MaxPrefSpeed bound the per-agent cruising speed
	// drawn at seeding time. MaxSpeedFactor scales the hard speed cap
	// above the preferred speed; it is clamped to >= 1.
	MinPrefSpeed   float64 `json:"min_pref_speed" yaml:"min_pref_speed"`
	MaxPrefSpeed   float64 `json:"max_pref_speed" yaml:"max_pref_speed"`
	MaxSpeedFactor float64 `json:"max_speed_factor" yaml:"max_speed_factor"`
}

// DefaultParams returns the parameter set used when no config or
// overrides are supplied.
func DefaultParams() Params {
	return Params{
		AgentCount:     24,
		NeighborRadius: 200,
		MaxNeighbors:   10,
		TimeHorizon:    20,
		MinRadius:      8,
		MaxRadius:      14,
		MinPrefSpeed:   40,
		MaxPrefSpeed:   70,
		MaxSpeedFactor: 1.5,
	}
}

// Validate rejects parameter sets the seeder or solver cannot work with.
func (p Params) Validate() error {
	if p.AgentCount < 0 {
		return fmt.Errorf("agent_count must be >= 0, got %d", p.AgentCount)
	}
	if p.NeighborRadius <= 0 {
		return fmt.Errorf("neighbor_radius must be > 0, got %g", p.NeighborRadius)
	}
	if p.MaxNeighbors <= 0 {
		return fmt.Errorf("max_neighbors must be > 0, got %d", p.MaxNeighbors)
	}
	if p.TimeHorizon <= 0 {
		return fmt.Errorf("time_horizon must be > 0, got %g", p.TimeHorizon)
	}
	if p.MinRadius <= 0 || p.MaxRadius < p.MinRadius {
		return fmt.Errorf("radius bounds must satisfy 0 < min <= max, got [%g, %g]", p.MinRadius, p.MaxRadius)
	}
	if p.MinPrefSpeed <= 0 || p.MaxPrefSpeed < p.MinPrefSpeed {
		return fmt.Errorf("pref speed bounds must satisfy 0 < min <= max, got [%g, %g]", p.MinPrefSpeed, p.MaxPrefSpeed)
	}
	if p.MaxSpeedFactor < 1 {
		return fmt.Errorf("max_speed_factor must be >= 1, got %g", p.MaxSpeedFactor)
	}
	return nil
}

// Merge applies named numeric overrides in place. Unknown keys are
// returned so the caller can log them; known keys take effect on the
// next tick with no derived state to invalidate.
func (p *Params) Merge(overrides map[string]float64) []string {
	var unknown []string
	for key, value := range overrides {
		switch key {
		case "agentCount":
			p.AgentCount = int(value)
		case "neighborRadius":
			p.NeighborRadius = value
		case "maxNeighbors":
			p.MaxNeighbors = int(value)
		case "timeHorizon":
			p.TimeHorizon = value
		case "minRadius":
			p.MinRadius = value
		case "maxRadius":
			p.MaxRadius = value
		case "minPrefSpeed":
			p.MinPrefSpeed = value
		case "maxPrefSpeed":
			p.MaxPrefSpeed = value
		case "maxSpeedFactor":
			p.MaxSpeedFactor = value
		default:
			unknown = append(unknown, key)
		}
	}
	return unknown
}
