package pbase

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Vertex enumeration caps (spec §9 "Warp vertex enumeration... keep the
// hard cap (VX_MAXDIM=30) and the tapered blending factor for dims in
// (VX_CUTOFFDIM, VX_MAXDIM]; above the cap, skip the warp entirely").
const (
	VXCutoffDim = 8
	VXMaxDim    = 30
)

// adjustVertexWarp blends the plain (dim-1)-DoF convex mass point already
// written into massPoint[children] with an N-DoF correction derived from
// the feasible hyper-pyramid's extreme vertices (spec §4.2 Stage 4 step 3).
//
// Only children whose local hull has not already collapsed to a point
// ("active" dimensions) participate; the sum-to-1 constraint pins the last
// active dimension given the rest, so only 2^(nActive-1) vertices need
// enumerating. Each vertex's weight is (target-sigma)^(nActive-1) with a
// sign flip per "up" choice, matching the hyper-pyramid volume weighting of
// the feasible region's extreme points. Per-dimension contributions are
// accumulated with gonum's mat.VecDense since this is exactly a small dense
// weighted-sum contraction.
func adjustVertexWarp(children []int, lo, up, massPoint []float64) {
	var active []int
	fixedSum := 0.0
	for _, v := range children {
		if up[v]-lo[v] > Eps {
			active = append(active, v)
		} else {
			fixedSum += massPoint[v]
		}
	}
	nAct := len(active)
	if nAct < 2 || nAct > VXMaxDim {
		return
	}

	factor := 0.5
	if nAct > VXCutoffDim {
		factor = 0.5 * (1 - float64(nAct-VXCutoffDim)/float64(VXMaxDim-VXCutoffDim))
		if factor < 0 {
			return
		}
	}

	target := 1.0 - fixedSum
	nFree := nAct - 1
	last := active[nAct-1]

	contrib := mat.NewVecDense(nAct, nil)
	sum2 := 0.0
	numVerts := 1 << uint(nFree)
	for mask := 0; mask < numVerts; mask++ {
		sigma := 0.0
		upCount := 0
		choice := make([]bool, nFree)
		for j := 0; j < nFree; j++ {
			bit := (mask>>uint(j))&1 == 1
			choice[j] = bit
			idx := active[j]
			if bit {
				sigma += up[idx]
				upCount++
			} else {
				sigma += lo[idx]
			}
		}
		lastVal := target - sigma
		if lastVal < lo[last]-Eps || lastVal > up[last]+Eps {
			continue // vertex outside the last dimension's box, infeasible
		}
		sPow := math.Pow(lastVal, float64(nAct-1))
		sign := 1.0
		if upCount%2 == 1 {
			sign = -1
		}
		sum2 += sign * sPow

		for j := 0; j < nFree; j++ {
			idx := active[j]
			c := lo[idx]
			if choice[j] {
				c = up[idx]
			}
			contrib.SetVec(j, contrib.AtVec(j)+sign*sPow*(float64(nAct)*c+lastVal))
		}
	}

	if math.Abs(sum2) < Eps {
		return
	}
	freeSum := 0.0
	for j := 0; j < nFree; j++ {
		idx := active[j]
		warpVal := contrib.AtVec(j) / (float64(nAct) * sum2)
		freeSum += warpVal
		massPoint[idx] = (1-factor)*massPoint[idx] + factor*warpVal
	}
	massPoint[last] = (1-factor)*massPoint[last] + factor*(target-freeSum)
}
