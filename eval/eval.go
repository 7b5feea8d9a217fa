// Package eval implements the evaluation kernel (spec §4.4): OMEGA, PSI,
// DELTA, GAMMA, DIGAMMA expected-value methods, plus security-level deficits
// and NEMO moments. It is read-only with respect to the frame and bases it
// is given — every exported function takes them as arguments rather than
// holding package-level scratch state, so concurrent evaluators over
// distinct frames never interfere (spec §5's "module-wide scratch... must
// not be re-entered" becomes per-call local state here instead).
package eval

import (
	"sort"

	"github.com/uneda-cda/UNEDA-sub001/frame"
	"github.com/uneda-cda/UNEDA-sub001/pbase"
	"github.com/uneda-cda/UNEDA-sub001/uerr"
	"github.com/uneda-cda/UNEDA-sub001/vbase"
)

// Result holds a method's min/mid/max triple (spec §8 invariant 6:
// min <= mid <= max always).
type Result struct {
	Min, Mid, Max float64
}

// OMEGA computes the point expected value at the midpoint: the global mass
// point weighted sum of leaf values.
func OMEGA(f *frame.Frame, pb *pbase.Base, vb *vbase.Base, alt int) (float64, error) {
	const op = "eval.OMEGA"
	leaves, err := f.RealLeaves(alt)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, leaf := range leaves {
		p, err := pb.MassPoint(alt, leaf)
		if err != nil {
			return 0, uerr.New(uerr.StateError, op, "%v", err)
		}
		v, err := vb.Mid(alt, leaf)
		if err != nil {
			return 0, uerr.New(uerr.StateError, op, "%v", err)
		}
		sum += p * v
	}
	return sum, nil
}

// PSI computes the min/mid/max expected value for one alternative (spec
// §4.4): min at V_lobo via the greedy extremal assignment, max at V_upbo,
// mid is OMEGA.
func PSI(f *frame.Frame, pb *pbase.Base, vb *vbase.Base, alt int) (Result, error) {
	mid, err := OMEGA(f, pb, vb, alt)
	if err != nil {
		return Result{}, err
	}
	min, err := extremalEV(f, pb, vb, alt, false)
	if err != nil {
		return Result{}, err
	}
	max, err := extremalEV(f, pb, vb, alt, true)
	if err != nil {
		return Result{}, err
	}
	return Result{Min: min, Mid: mid, Max: max}, nil
}

// DELTA computes the interval of EV_i - EV_j (spec §4.4): the pairwise
// difference's min is min_i - max_j, max is max_i - min_j.
func DELTA(f *frame.Frame, pb *pbase.Base, vb *vbase.Base, ai, aj int) (Result, error) {
	pi, err := PSI(f, pb, vb, ai)
	if err != nil {
		return Result{}, err
	}
	pj, err := PSI(f, pb, vb, aj)
	if err != nil {
		return Result{}, err
	}
	return Result{Min: pi.Min - pj.Max, Mid: pi.Mid - pj.Mid, Max: pi.Max - pj.Min}, nil
}

// GAMMA computes EV_i - average(EV_j, j != i) (spec §4.4), applied
// consistently per min/mid/max.
func GAMMA(f *frame.Frame, pb *pbase.Base, vb *vbase.Base, ai int) (Result, error) {
	const op = "eval.GAMMA"
	n := f.NAlts()
	if n < 2 {
		return Result{}, uerr.New(uerr.InputError, op, "GAMMA requires at least 2 alternatives")
	}
	mask := 0
	for j := 0; j < n; j++ {
		if j != ai {
			mask |= 1 << uint(j)
		}
	}
	return digamma(f, pb, vb, ai, mask)
}

// DIGAMMA computes GAMMA against an arbitrary subset of alternatives given
// as a bitmask. An empty subset returns PSI (the "digamma-psi" rule, spec
// §4.4).
func DIGAMMA(f *frame.Frame, pb *pbase.Base, vb *vbase.Base, ai int, subset int) (Result, error) {
	return digamma(f, pb, vb, ai, subset)
}

func digamma(f *frame.Frame, pb *pbase.Base, vb *vbase.Base, ai int, subset int) (Result, error) {
	const op = "eval.DIGAMMA"
	if subset == 0 {
		return PSI(f, pb, vb, ai)
	}
	pi, err := PSI(f, pb, vb, ai)
	if err != nil {
		return Result{}, err
	}
	var sumMin, sumMid, sumMax float64
	count := 0
	for j := 0; j < f.NAlts(); j++ {
		if subset&(1<<uint(j)) == 0 {
			continue
		}
		if j == ai {
			return Result{}, uerr.New(uerr.InputError, op, "subset must not include the evaluated alternative %d", ai)
		}
		pj, err := PSI(f, pb, vb, j)
		if err != nil {
			return Result{}, err
		}
		sumMin += pj.Min
		sumMid += pj.Mid
		sumMax += pj.Max
		count++
	}
	return Result{
		Min: pi.Min - sumMax/float64(count),
		Mid: pi.Mid - sumMid/float64(count),
		Max: pi.Max - sumMin/float64(count),
	}, nil
}

type childInfo struct {
	node   int
	v      float64
	lo, up float64
}

// extremalEV implements eval_P_min/eval_P_max (spec §4.4): recursive local
// greedy assignment of the slack probability mass to the most favorable
// children first.
func extremalEV(f *frame.Frame, pb *pbase.Base, vb *vbase.Base, alt int, useUpper bool) (float64, error) {
	return localV(f, pb, vb, alt, 0, useUpper)
}

func localV(f *frame.Frame, pb *pbase.Base, vb *vbase.Base, alt, node int, useUpper bool) (float64, error) {
	real, err := f.IsReal(alt, node)
	if err != nil {
		return 0, err
	}
	if real {
		lo, up, err := vb.Hull(alt, node)
		if err != nil {
			return 0, err
		}
		if useUpper {
			return up, nil
		}
		return lo, nil
	}

	children, err := f.Children(alt, node)
	if err != nil {
		return 0, err
	}
	infos := make([]childInfo, 0, len(children))
	for _, c := range children {
		v, err := localV(f, pb, vb, alt, c, useUpper)
		if err != nil {
			return 0, err
		}
		lo, up, err := pb.LocalHull(alt, c)
		if err != nil {
			return 0, err
		}
		infos = append(infos, childInfo{node: c, v: v, lo: lo, up: up})
	}

	sort.SliceStable(infos, func(i, j int) bool {
		if useUpper {
			return infos[i].v > infos[j].v
		}
		return infos[i].v < infos[j].v
	})

	ev, pmass := 0.0, 1.0
	for _, c := range infos {
		ev += c.lo * c.v
		pmass -= c.lo
	}
	for _, c := range infos {
		if pmass <= 0 {
			break
		}
		room := c.up - c.lo
		take := room
		if take > pmass {
			take = pmass
		}
		ev += take * c.v
		pmass -= take
	}
	return ev, nil
}
