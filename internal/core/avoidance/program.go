package avoidance

import (
	"math"

	"github.com/crowdflow/crowdflow/internal/core/geometry"
)

// SolveVelocity returns the velocity closest to prefVelocity that
// satisfies every constraint in lines and has magnitude at most
// maxSpeed. It is total: when the constraint set is jointly infeasible
// the projective fallback finds the least-violating velocity instead of
// failing. All constraints here come from agent pairs; the obstacle
// prefix passed to the fallback is therefore always empty.
func SolveVelocity(lines []Line, maxSpeed float64, prefVelocity geometry.Vector2) geometry.Vector2 {
	failed, result := solveIncremental(lines, maxSpeed, prefVelocity, false)
	if failed < len(lines) {
		result = solveInfeasible(lines, 0, failed, maxSpeed, result)
	}
	return result
}

// solveLine optimizes along constraint line lineNo, restricted to the
// speed disk and the half-planes of all previously accepted lines.
//
// In point-optimization mode (directionOpt false) it returns the point
// on the clipped interval closest to optVelocity; in direction mode it
// returns the interval's extremal point along optVelocity, which must
// then be a unit vector. The boolean is false when the interval is
// empty, i.e. line lineNo cannot be satisfied together with its
// predecessors inside the disk.
func solveLine(lines []Line, lineNo int, radius float64, optVelocity geometry.Vector2, directionOpt bool) (geometry.Vector2, bool) {
	line := lines[lineNo]
	dotProduct := line.Point.Dot(line.Direction)
	discriminant := dotProduct*dotProduct + radius*radius - line.Point.LengthSq()

	if discriminant < 0 {
		// The speed disk does not reach this line at all.
		return geometry.Vector2{}, false
	}

	sqrtDiscriminant := math.Sqrt(discriminant)
	tLeft := -dotProduct - sqrtDiscriminant
	tRight := -dotProduct + sqrtDiscriminant

	for i := 0; i < lineNo; i++ {
		denominator := line.Direction.Det(lines[i].Direction)
		numerator := lines[i].Direction.Det(line.Point.Sub(lines[i].Point))

		if math.Abs(denominator) <= geometry.Epsilon {
			// Near-parallel lines: compatible only if this line lies on
			// the permitted side of line i.
			if numerator < 0 {
				return geometry.Vector2{}, false
			}
			continue
		}

		t := numerator / denominator
		if denominator >= 0 {
			tRight = math.Min(tRight, t)
		} else {
			tLeft = math.Max(tLeft, t)
		}

		if tLeft > tRight {
			return geometry.Vector2{}, false
		}
	}

	if directionOpt {
		if optVelocity.Dot(line.Direction) > 0 {
			return line.Point.Add(line.Direction.Scale(tRight)), true
		}
		return line.Point.Add(line.Direction.Scale(tLeft)), true
	}

	// Project the preferred velocity onto the clipped interval.
	t := line.Direction.Dot(optVelocity.Sub(line.Point))
	if t < tLeft {
		t = tLeft
	} else if t > tRight {
		t = tRight
	}
	return line.Point.Add(line.Direction.Scale(t)), true
}

// solveIncremental processes the constraints one at a time, re-solving
// on each violated line restricted to its predecessors. It returns
// len(lines) and the optimum on success, or the index of the first
// infeasible line together with the best candidate found before it.
func solveIncremental(lines []Line, radius float64, optVelocity geometry.Vector2, directionOpt bool) (int, geometry.Vector2) {
	var result geometry.Vector2
	switch {
	case directionOpt:
		// optVelocity is a unit direction; start at the disk boundary.
		result = optVelocity.Scale(radius)
	case optVelocity.LengthSq() > radius*radius:
		result = optVelocity.Normalize().Scale(radius)
	default:
		result = optVelocity
	}

	for i, line := range lines {
		if line.Direction.Det(line.Point.Sub(result)) > 0 {
			// Current candidate violates line i.
			next, ok := solveLine(lines, i, radius, optVelocity, directionOpt)
			if !ok {
				return i, result
			}
			result = next
		}
	}
	return len(lines), result
}

// solveInfeasible resolves a jointly infeasible constraint set,
// starting from the first failing line. For each violated line it
// projects all earlier non-obstacle lines onto it (pairwise
// intersections, or midpoints for parallel opposing pairs) and
// re-solves optimizing along the line's outward perpendicular. Agent
// constraints alone can never surround the origin of velocity space,
// so the inner solve always succeeds and the result converges to the
// velocity with minimal maximum violation.
//
// obstaclePrefix counts leading hard constraints that are kept verbatim
// in every projected set. Agent-only simulations pass 0; the parameter
// exists so the slicing contract is explicit.
func solveInfeasible(lines []Line, obstaclePrefix, beginLine int, radius float64, result geometry.Vector2) geometry.Vector2 {
	distance := 0.0

	for i := beginLine; i < len(lines); i++ {
		if lines[i].Direction.Det(lines[i].Point.Sub(result)) <= distance {
			// Already within the accumulated violation tolerance.
			continue
		}

		projLines := make([]Line, obstaclePrefix, i)
		copy(projLines, lines[:obstaclePrefix])

		for j := obstaclePrefix; j < i; j++ {
			var line Line

			determinant := lines[i].Direction.Det(lines[j].Direction)
			if math.Abs(determinant) <= geometry.Epsilon {
				if lines[i].Direction.Dot(lines[j].Direction) > 0 {
					// Parallel lines pointing the same way: line j is
					// redundant with line i here.
					continue
				}
				// Parallel opposing lines meet in their midpoint.
				line.Point = lines[i].Point.Add(lines[j].Point).Scale(0.5)
			} else {
				offset := lines[j].Direction.Det(lines[i].Point.Sub(lines[j].Point)) / determinant
				line.Point = lines[i].Point.Add(lines[i].Direction.Scale(offset))
			}

			line.Direction = lines[j].Direction.Sub(lines[i].Direction).Normalize()
			projLines = append(projLines, line)
		}

		tempResult := result
		failed, next := solveIncremental(projLines, radius, geometry.Vector2{X: -lines[i].Direction.Y, Y: lines[i].Direction.X}, true)
		if failed < len(projLines) {
			// Cannot happen for agent-only constraints; keep the last
			// good candidate if floating point says otherwise.
			result = tempResult
		} else {
			result = next
		}

		distance = lines[i].Direction.Det(lines[i].Point.Sub(result))
	}
	return result
}
