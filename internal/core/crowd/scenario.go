package crowd

import (
	"math"
	"math/rand"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/crowdflow/crowdflow/internal/core/geometry"
)

// palette cycles through display colors for seeded agents. Opaque to
// the core; only the rendering collaborator interprets it.
var palette = []string{
	"#e74c3c", "#3498db", "#2ecc71", "#f1c40f",
	"#9b59b6", "#e67e22", "#1abc9c", "#34495e",
}

// SeedFromName derives a deterministic RNG seed from a scenario name,
// so runs are reproducible without threading magic numbers around.
func SeedFromName(name string) int64 {
	return int64(xxhash.Sum64String(name))
}

// SeedRing places count agents evenly on a ring centered in a width by
// height arena. Each agent's anchor pair is its antipodal point on the
// ring and its own starting point, so every straight-line path crosses
// the arena center and the crowd must continually resolve conflicts.
//
// All randomness (radius and speed jitter) comes from rng; two calls
// with equally-seeded generators produce identical crowds.
func SeedRing(params Params, width, height float64, rng *rand.Rand) []*Agent {
	count := params.AgentCount
	if count <= 0 || width <= 0 || height <= 0 {
		return nil
	}

	center := geometry.Vector2{X: width / 2, Y: height / 2}
	ring := 0.4 * math.Min(width, height)

	agents := make([]*Agent, 0, count)
	for i := 0; i < count; i++ {
		angle := 2 * math.Pi * float64(i) / float64(count)
		offset := geometry.Vector2{X: math.Cos(angle), Y: math.Sin(angle)}.Scale(ring)
		start := center.Add(offset)

		radius := params.MinRadius + rng.Float64()*(params.MaxRadius-params.MinRadius)
		prefSpeed := params.MinPrefSpeed + rng.Float64()*(params.MaxPrefSpeed-params.MinPrefSpeed)

		agents = append(agents, &Agent{
			ID:        uuid.New(),
			Position:  start,
			Radius:    radius,
			PrefSpeed: prefSpeed,
			MaxSpeed:  prefSpeed * params.MaxSpeedFactor,
			Goals:     [2]geometry.Vector2{center.Sub(offset), start},
			Color:     palette[i%len(palette)],
		})
	}
	return agents
}
