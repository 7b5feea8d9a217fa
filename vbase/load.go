package vbase

import (
	"math"

	"github.com/uneda-cda/UNEDA-sub001/uerr"
)

// reload recomputes every alternative's box/hull from the current
// statement set; unlike pbase there is no tree-sum-to-1 recursion (spec
// §4.3: "no tree-wise normalization step").
func (b *Base) reload(op string) error {
	for alt := range b.alts {
		if err := b.loadAlt(op, alt); err != nil {
			b.loaded = false
			return err
		}
	}
	b.loaded = true
	return nil
}

func (b *Base) loadAlt(op string, alt int) error {
	a := &b.alts[alt]
	n := len(a.boxLo)
	for v := 1; v < n; v++ {
		lo, up := 0.0, 1.0
		if a.explicitLo[v] != AbsentBox {
			lo = math.Max(lo, a.explicitLo[v])
		}
		if a.explicitUp[v] != AbsentBox {
			up = math.Min(up, a.explicitUp[v])
		}
		a.boxLo[v], a.boxUp[v] = lo, up
	}
	for _, s := range b.stmts {
		if s.Alt != alt {
			continue
		}
		a.boxLo[s.Node] = math.Max(a.boxLo[s.Node], s.Lobo)
		a.boxUp[s.Node] = math.Min(a.boxUp[s.Node], s.Upbo)
	}
	for v := 1; v < n; v++ {
		if a.boxUp[v] < a.boxLo[v]-Eps {
			return uerr.New(uerr.Inconsistent, op, "alternative %d node %d value box is empty [%.6f,%.6f]", alt, v, a.boxLo[v], a.boxUp[v])
		}
		a.hullLo[v], a.hullUp[v] = a.boxLo[v], a.boxUp[v]
		if a.loMidbox[v] != AbsentBox {
			a.hullLo[v] = math.Max(a.hullLo[v], a.loMidbox[v])
		}
		if a.upMidbox[v] != AbsentBox {
			a.hullUp[v] = math.Min(a.hullUp[v], a.upMidbox[v])
		}
		// Keep the declared mid clamped inside the (possibly narrowed) hull.
		if a.mid[v] < a.hullLo[v] {
			a.mid[v] = a.hullLo[v]
		}
		if a.mid[v] > a.hullUp[v] {
			a.mid[v] = a.hullUp[v]
		}
	}
	return nil
}
