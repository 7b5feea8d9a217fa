package car

import (
	"github.com/uneda-cda/UNEDA-sub001/pbase"
	"github.com/uneda-cda/UNEDA-sub001/uerr"
	"github.com/uneda-cda/UNEDA-sub001/vbase"
)

// RankWBase generates a ranking vector from a strict descending ordering
// and a "distance" (spec §4.5 rank_W_base): dist>0 widens gaps between
// neighbors' bounds, dist<0 lets them overlap, via
// dfact = (dist+1)/2 blending each rank's crc value with its neighbor's.
func (e *Engine) RankWBase(ordCrit []int, dist float64) error {
	const op = "car.RankWBase"
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return uerr.New(uerr.StateError, op, "CAR is not initialized")
	}
	if e.phullOpen {
		return uerr.New(uerr.NotAllowed, op, "partial hull is open")
	}
	if dist < -1 || dist > 1 {
		return uerr.New(uerr.InputError, op, "distance %.4f outside [-1,1]", dist)
	}
	n := len(ordCrit)
	if n < 1 {
		return uerr.New(uerr.InputError, op, "need at least 1 criterion")
	}

	crc, err := Generate(e.method, n, 0, n)
	if err != nil {
		return err
	}
	lo, up := rankBounds(crc, dist)

	if err := e.rebuildWFrame(op, n); err != nil {
		return err
	}
	before := e.wBase.CountStatements()
	for k := 0; k < n; k++ {
		if err := e.wBase.AddStatement(pbase.Statement{Alt: 0, Node: k + 1, Lobo: lo[k], Upbo: up[k]}); err != nil {
			e.rollbackWStatements(before)
			return err
		}
	}
	e.ordCrit = append([]int(nil), ordCrit...)
	e.nCrit = n
	return nil
}

// rankBounds derives each rank's [lobo, upbo] per spec §4.5's blending
// rule, with endpoint ranks using their single available neighbor.
func rankBounds(crc []float64, dist float64) (lo, up []float64) {
	n := len(crc)
	dfact := (dist + 1) / 2
	lo, up = make([]float64, n), make([]float64, n)
	for k := 0; k < n; k++ {
		switch {
		case k < n-1:
			lo[k] = dfact*crc[k] + (1-dfact)*crc[k+1]
		default:
			lo[k] = crc[k]
		}
		switch {
		case k > 0:
			up[k] = dfact*crc[k] + (1-dfact)*crc[k-1]
		default:
			up[k] = crc[k]
		}
		if lo[k] > up[k] {
			lo[k], up[k] = up[k], lo[k]
		}
	}
	return lo, up
}

// RankPBase is rank_W_base's analog for a probability base under a specific
// (alternative, subtree parent): it ranks parent's children by distance
// instead of by relation steps, reusing rankBounds exactly as RankWBase does
// for the synthetic weight frame (spec §4.5 "Distance ranking (rank_W_base,
// rank_P_base)").
func (e *Engine) RankPBase(pb *pbase.Base, alt, parent int, children []int, dist float64) error {
	const op = "car.RankPBase"
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return uerr.New(uerr.StateError, op, "CAR is not initialized")
	}
	if dist < -1 || dist > 1 {
		return uerr.New(uerr.InputError, op, "distance %.4f outside [-1,1]", dist)
	}
	n := len(children)
	if n < 1 {
		return uerr.New(uerr.InputError, op, "need at least 1 child")
	}

	crc, err := Generate(e.method, n, 0, n)
	if err != nil {
		return err
	}
	lo, up := rankBounds(crc, dist)

	before := pb.CountStatements()
	for i, node := range children {
		if err := pb.AddStatement(pbase.Statement{Alt: alt, Node: node, Lobo: lo[i], Upbo: up[i]}); err != nil {
			for pb.CountStatements() > before {
				_ = pb.DeleteStatement(pb.CountStatements() - 1)
			}
			return err
		}
	}
	return nil
}

// SetPBase is set_W_base's analog for a probability base under a specific
// (alternative, subtree parent): it emits single-term statements on
// parent's children from an ordinal ranking with relation steps, exactly
// as SetWBase does for the synthetic weight frame (spec §4.5).
func (e *Engine) SetPBase(pb *pbase.Base, alt, parent int, children []int, rel []int) error {
	const op = "car.SetPBase"
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return uerr.New(uerr.StateError, op, "CAR is not initialized")
	}
	n := len(children)
	if n < 1 {
		return uerr.New(uerr.InputError, op, "need at least 1 child")
	}
	if len(rel) != n-1 && n > 1 {
		return uerr.New(uerr.InputError, op, "rel must have n-1=%d entries", n-1)
	}

	activeCount := n
	cumulative := make([]int, n)
	cumulative[0] = 1
	for i := 1; i < n; i++ {
		if rel[i-1] == -1 {
			activeCount = i
			break
		}
		cumulative[i] = cumulative[i-1] + rel[i-1]
	}
	tot := 1
	if activeCount > 0 {
		tot = cumulative[activeCount-1]
	}
	crc, err := Generate(e.method, tot, 0, activeCount)
	if err != nil {
		return err
	}
	vals := make([]float64, activeCount)
	for i := 0; i < activeCount; i++ {
		vals[i] = crc[cumulative[i]-1]
	}
	loBand, upBand := bandIntervals(vals)

	before := pb.CountStatements()
	for i, node := range children {
		var lo, up float64
		if i < activeCount {
			lo, up = loBand[i], upBand[i]
		}
		if err := pb.AddStatement(pbase.Statement{Alt: alt, Node: node, Lobo: lo, Upbo: up}); err != nil {
			for pb.CountStatements() > before {
				_ = pb.DeleteStatement(pb.CountStatements() - 1)
			}
			return err
		}
	}
	return nil
}

// SetVBase takes a full joint ranking across a criterion's leaves (spec
// §4.5 "set_V_base... full joint ranking across all leaves"). An empty
// ranking (tot=0) maps every value to 0.5 and returns ErrSameRankings
// (V_DEGEN_SCALE, spec §9 open question 2): the degenerate-flat-scale rule
// is applied uniformly whenever the relation steps sum to 0, not only when
// every leaf value is literally equal.
func (e *Engine) SetVBase(vb *vbase.Base, alt int, leaves []int, rel []int) error {
	const op = "car.SetVBase"
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return uerr.New(uerr.StateError, op, "CAR is not initialized")
	}
	n := len(leaves)
	if n < 1 {
		return uerr.New(uerr.InputError, op, "need at least 1 leaf")
	}
	if len(rel) != n-1 && n > 1 {
		return uerr.New(uerr.InputError, op, "rel must have n-1=%d entries", n-1)
	}

	tot := 0
	for _, r := range rel {
		tot += r
	}
	if tot == 0 {
		for _, leaf := range leaves {
			if err := vb.SetMidpoint(alt, leaf, 0.5); err != nil {
				return err
			}
		}
		return uerr.New(uerr.SameRankings, op, "empty ranking maps every leaf to 0.5")
	}

	cumulative := make([]int, n)
	cumulative[0] = 1
	for i := 1; i < n; i++ {
		cumulative[i] = cumulative[i-1] + rel[i-1]
	}
	slots := cumulative[n-1]
	crc, err := Generate(e.method, slots, 0, n)
	if err != nil {
		return err
	}
	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		vals[i] = crc[cumulative[i]-1]
	}
	loBand, upBand := bandIntervals(vals)
	for i, leaf := range leaves {
		if err := vb.AddStatement(vbase.Statement{Alt: alt, Node: leaf, Lobo: loBand[i], Upbo: upBand[i]}); err != nil {
			return err
		}
	}
	return nil
}
