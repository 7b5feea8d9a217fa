package pbase

import (
	"math"

	"github.com/uneda-cda/UNEDA-sub001/uerr"
)

// reload runs the full four-stage load (spec §4.2) for every alternative,
// writing into shadow-free in-place arrays; callers that need atomicity
// snapshot the statement slice before calling this (see base.go's rollback).
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
	if err := b.stage1Box(op, alt, a); err != nil {
		return err
	}
	if err := b.hullRecursion(op, alt, 0, a.boxLo, a.boxUp, 1, 1, a.lHullLo, a.lHullUp, a.hullLo, a.hullUp); err != nil {
		return err
	}
	if err := b.stage3Midbox(op, alt, a); err != nil {
		return err
	}
	if err := b.hullRecursion(op, alt, 0, a.mboxLoScratch, a.mboxUpScratch, 1, 1, a.lmHullLo, a.lmHullUp, a.mHullLo, a.mHullUp); err != nil {
		return err
	}
	if err := b.stage4MassPoint(op, alt, 0, a, 1); err != nil {
		return err
	}
	return nil
}

// stage1Box intersects [0,1], the explicit range box, and every statement
// targeting each node.
func (b *Base) stage1Box(op string, alt int, a *altArrays) error {
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
			return uerr.New(uerr.Inconsistent, op, "alternative %d node %d box is empty [%.6f,%.6f]", alt, v, a.boxLo[v], a.boxUp[v])
		}
		if MinWidth > 0 && a.boxUp[v]-a.boxLo[v] < MinWidth {
			return uerr.New(uerr.TooNarrowStmt, op, "alternative %d node %d box narrower than MinWidth", alt, v)
		}
	}
	return nil
}

// hullRecursion implements Stage 2 (when src is the box) and Stage 3 (when
// src is the midpoint box): a single sibling-normalization tightening
// applied top-down with the ancestor probability window carried as
// (pLo, pUp).
func (b *Base) hullRecursion(op string, alt, parent int, srcLo, srcUp []float64, pLo, pUp float64, lLo, lUp, gLo, gUp []float64) error {
	children, err := b.f.Children(alt, parent)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}
	pmin, pmax := 0.0, 0.0
	for _, c := range children {
		pmin += srcLo[c]
		pmax += srcUp[c]
	}
	if pmin > 1+EpsHull || pmax < 1-EpsHull {
		return uerr.New(uerr.Inconsistent, op, "alternative %d node %d siblings sum range [%.6f,%.6f] excludes 1", alt, parent, pmin, pmax)
	}
	if pmin > 1 {
		pmin = 1
	}
	if pmax < 1 {
		pmax = 1
	}
	for _, v := range children {
		lLo[v] = math.Max(srcLo[v], srcUp[v]+1-pmax)
		lUp[v] = math.Min(srcUp[v], srcLo[v]+1-pmin)
		gLo[v] = lLo[v] * pLo
		gUp[v] = lUp[v] * pUp
	}
	for _, v := range children {
		real, err := b.f.IsReal(alt, v)
		if err != nil {
			return err
		}
		if real {
			continue
		}
		if err := b.hullRecursion(op, alt, v, srcLo, srcUp, gLo[v], gUp[v], lLo, lUp, gLo, gUp); err != nil {
			return err
		}
	}
	return nil
}

// stage3Midbox fills the scratch mbox arrays: the user midpoint box where
// set (validated to lie within L_hull), else L_hull itself.
func (b *Base) stage3Midbox(op string, alt int, a *altArrays) error {
	n := len(a.boxLo)
	if a.mboxLoScratch == nil {
		a.mboxLoScratch = make([]float64, n)
		a.mboxUpScratch = make([]float64, n)
	}
	for v := 1; v < n; v++ {
		lo, up := a.lHullLo[v], a.lHullUp[v]
		if a.loMidbox[v] != AbsentBox {
			if a.loMidbox[v] < a.lHullLo[v]-Eps || a.loMidbox[v] > a.lHullUp[v]+Eps {
				return uerr.New(uerr.Inconsistent, op, "alternative %d node %d midpoint lo outside local hull", alt, v)
			}
			lo = a.loMidbox[v]
		}
		if a.upMidbox[v] != AbsentBox {
			if a.upMidbox[v] < a.lHullLo[v]-Eps || a.upMidbox[v] > a.lHullUp[v]+Eps {
				return uerr.New(uerr.Inconsistent, op, "alternative %d node %d midpoint up outside local hull", alt, v)
			}
			up = a.upMidbox[v]
		}
		if up < lo-Eps {
			return uerr.New(uerr.Inconsistent, op, "alternative %d node %d midpoint box inverted", alt, v)
		}
		a.mboxLoScratch[v], a.mboxUpScratch[v] = lo, up
	}
	return nil
}

// stage4MassPoint derives the canonical feasible point level by level,
// applying the vertex/warp correction at each sibling group (spec §4.2
// Stage 4), then recursing into intermediate children with the
// product-normalized mass point as the new ancestor scale.
func (b *Base) stage4MassPoint(op string, alt, parent int, a *altArrays, norm float64) error {
	children, err := b.f.Children(alt, parent)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}
	pmin, pmax := 0.0, 0.0
	for _, c := range children {
		pmin += a.lmHullLo[c]
		pmax += a.lmHullUp[c]
	}
	var lofrac, upfrac float64
	switch {
	case pmin >= 1:
		lofrac, upfrac = 1, 0
	case pmax <= 1:
		lofrac, upfrac = 0, 1
	case pmax > pmin+Eps:
		lofrac = (pmax - 1) / (pmax - pmin)
		upfrac = 1 - lofrac
	default:
		lofrac, upfrac = 0.5, 0.5
	}
	for _, v := range children {
		a.lMassPoint[v] = lofrac*a.lmHullLo[v] + upfrac*a.lmHullUp[v]
	}
	adjustVertexWarp(children, a.lmHullLo, a.lmHullUp, a.lMassPoint)

	sum := 0.0
	for _, v := range children {
		a.massPoint[v] = norm * a.lMassPoint[v]
		sum += a.lMassPoint[v]
	}
	if math.Abs(sum-1) > 100*EpsMass {
		return uerr.New(uerr.Inconsistent, op, "alternative %d node %d mass point sums to %.9f, not 1", alt, parent, sum)
	}
	for _, v := range children {
		real, err := b.f.IsReal(alt, v)
		if err != nil {
			return err
		}
		if real {
			continue
		}
		if err := b.stage4MassPoint(op, alt, v, a, a.massPoint[v]); err != nil {
			return err
		}
	}
	return nil
}
