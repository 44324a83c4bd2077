// Package avoidance implements reciprocal collision avoidance: neighbor
// search, per-pair half-plane constraint construction, and the
// incremental linear program that picks each agent's next velocity.
package avoidance

import (
	"github.com/crowdflow/crowdflow/internal/core/crowd"
)

// NeighborRef points at another agent by slice index, together with the
// squared distance that ranked it. Neighbor lists are rebuilt every
// tick and never persisted.
type NeighborRef struct {
	Index  int
	DistSq float64
}

// ComputeNeighbors returns, for every agent, up to maxNeighbors other
// agents strictly within rangeSq, ascending by squared distance.
//
// The search is exhaustive over pairs, which is fine at crowd scale;
// each pair's distance is computed once and credited to both agents'
// lists. An agent is never its own neighbor.
func ComputeNeighbors(agents []*crowd.Agent, rangeSq float64, maxNeighbors int) [][]NeighborRef {
	lists := make([][]NeighborRef, len(agents))
	if maxNeighbors <= 0 {
		return lists
	}
	for i := 0; i < len(agents); i++ {
		for j := i + 1; j < len(agents); j++ {
			distSq := agents[j].Position.Sub(agents[i].Position).LengthSq()
			if distSq >= rangeSq {
				continue
			}
			lists[i] = insertNeighbor(lists[i], NeighborRef{Index: j, DistSq: distSq}, maxNeighbors)
			lists[j] = insertNeighbor(lists[j], NeighborRef{Index: i, DistSq: distSq}, maxNeighbors)
		}
	}
	return lists
}

// insertNeighbor places ref into list keeping it sorted ascending by
// DistSq, evicting the farthest entry once the list would exceed limit.
func insertNeighbor(list []NeighborRef, ref NeighborRef, limit int) []NeighborRef {
	if len(list) < limit {
		list = append(list, ref)
	} else if ref.DistSq >= list[len(list)-1].DistSq {
		return list
	} else {
		list[len(list)-1] = ref
	}
	i := len(list) - 1
	for i > 0 && list[i-1].DistSq > ref.DistSq {
		list[i] = list[i-1]
		i--
	}
	list[i] = ref
	return list
}
