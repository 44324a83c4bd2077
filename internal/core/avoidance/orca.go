package avoidance

import (
	"math"

	"github.com/crowdflow/crowdflow/internal/core/crowd"
	"github.com/crowdflow/crowdflow/internal/core/geometry"
)

// Line is a half-plane velocity constraint: the permitted velocities
// lie on the left side of the directed line through Point along
// Direction. Direction is always unit length (or the fixed fallback
// direction when the underlying geometry degenerates).
type Line struct {
	Point     geometry.Vector2
	Direction geometry.Vector2
}

// ConstraintLine derives the half-plane constraint agent a must honor
// against neighbor b, assuming b takes the reciprocal half of the
// avoidance effort.
//
// When the agents are not yet overlapping, the forbidden region is the
// velocity-obstacle cone truncated at the time horizon: invTimeHorizon
// is 1/τ. When they already overlap, invTimeStep (1/dt) takes its
// place so the constraint forces separation within the current tick.
func ConstraintLine(a, b *crowd.Agent, invTimeHorizon, invTimeStep float64) Line {
	relPos := b.Position.Sub(a.Position)
	relVel := a.Velocity.Sub(b.Velocity)
	distSq := relPos.LengthSq()
	combinedRadius := a.Radius + b.Radius
	combinedRadiusSq := combinedRadius * combinedRadius

	var direction, u geometry.Vector2

	if distSq > combinedRadiusSq {
		w := relVel.Sub(relPos.Scale(invTimeHorizon))
		wLengthSq := w.LengthSq()

		dotProduct := w.Dot(relPos)
		if dotProduct < 0 && dotProduct*dotProduct > combinedRadiusSq*wLengthSq {
			// Relative velocity projects onto the cone's circular cap.
			wLength := math.Sqrt(wLengthSq)
			unitW := w.Normalize()

			direction = unitW.Perp()
			u = unitW.Scale(combinedRadius*invTimeHorizon - wLength)
		} else {
			// Relative velocity is nearest one of the cone's legs.
			leg := math.Sqrt(distSq - combinedRadiusSq)

			if relPos.Det(w) > 0 {
				// Left leg.
				direction = geometry.Vector2{
					X: relPos.X*leg - relPos.Y*combinedRadius,
					Y: relPos.X*combinedRadius + relPos.Y*leg,
				}.Scale(1 / distSq)
			} else {
				// Right leg.
				direction = geometry.Vector2{
					X: relPos.X*leg + relPos.Y*combinedRadius,
					Y: -relPos.X*combinedRadius + relPos.Y*leg,
				}.Scale(-1 / distSq)
			}

			u = direction.Scale(relVel.Dot(direction)).Sub(relVel)
		}
	} else {
		// Already overlapping: cut the collision on the current step.
		w := relVel.Sub(relPos.Scale(invTimeStep))
		wLength := w.Length()
		unitW := w.Normalize()

		direction = unitW.Perp()
		u = unitW.Scale(combinedRadius*invTimeStep - wLength)
	}

	return Line{
		// Reciprocity: a takes half the adjustment, b the other half.
		Point:     a.Velocity.Add(u.Scale(0.5)),
		Direction: direction.Normalize(),
	}
}
