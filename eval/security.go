package eval

import (
	"sort"

	"github.com/uneda-cda/UNEDA-sub001/frame"
	"github.com/uneda-cda/UNEDA-sub001/pbase"
	"github.com/uneda-cda/UNEDA-sub001/vbase"
)

// SecurityLevel reports how much probability mass an alternative can put on
// "dangerous" outcomes — real leaves whose value falls below a threshold
// (spec §4.4 "security level"). Strong is the minimum dangerous probability
// feasible under the current hulls (ixset_P_min — unavoidable even in the
// best case); Weak is the maximum feasible (ixset_P_max — the worst case
// the hulls permit); Marked is the dangerous probability at the current
// mass point.
type SecurityLevel struct {
	Strong float64
	Marked float64
	Weak   float64
}

// Security computes the security level of alt against threshold x.
func Security(f *frame.Frame, pb *pbase.Base, vb *vbase.Base, alt int, x float64) (SecurityLevel, error) {
	leaves, err := f.RealLeaves(alt)
	if err != nil {
		return SecurityLevel{}, err
	}
	dangerous := make(map[int]bool, len(leaves))
	for _, leaf := range leaves {
		mid, err := vb.Mid(alt, leaf)
		if err != nil {
			return SecurityLevel{}, err
		}
		dangerous[leaf] = mid < x
	}

	marked := 0.0
	for leaf, isDangerous := range dangerous {
		if !isDangerous {
			continue
		}
		p, err := pb.MassPoint(alt, leaf)
		if err != nil {
			return SecurityLevel{}, err
		}
		marked += p
	}

	weak, err := ixsetExtremal(f, pb, alt, dangerous, true)
	if err != nil {
		return SecurityLevel{}, err
	}
	strong, err := ixsetExtremal(f, pb, alt, dangerous, false)
	if err != nil {
		return SecurityLevel{}, err
	}
	return SecurityLevel{Strong: strong, Marked: marked, Weak: weak}, nil
}

// ixsetExtremal computes the maximum (useUpper) or minimum feasible
// probability the dangerous index-set can receive, by the same local
// greedy hull-packing rule as extremalEV but with a {0,1} indicator in
// place of a value (spec §4.4's "propagate upward the max-feasible
// probability... using hull bounds").
func ixsetExtremal(f *frame.Frame, pb *pbase.Base, alt int, dangerous map[int]bool, useUpper bool) (float64, error) {
	return indicatorV(f, pb, alt, 0, dangerous, useUpper)
}

func indicatorV(f *frame.Frame, pb *pbase.Base, alt, node int, dangerous map[int]bool, useUpper bool) (float64, error) {
	real, err := f.IsReal(alt, node)
	if err != nil {
		return 0, err
	}
	if real {
		if dangerous[node] {
			return 1, nil
		}
		return 0, nil
	}

	children, err := f.Children(alt, node)
	if err != nil {
		return 0, err
	}
	infos := make([]childInfo, 0, len(children))
	for _, c := range children {
		v, err := indicatorV(f, pb, alt, c, dangerous, useUpper)
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
