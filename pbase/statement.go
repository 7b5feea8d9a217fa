// Package pbase implements the probability base (spec §4.2): interval
// probability statements over a frame's nodes, the staged box/hull/mass-point
// load algorithm, and accessors for the result addressed by (alt, node).
// There are no B1- or B2-indexed accessors; callers convert with the frame's
// index functions.
//
// A Base is loaded against exactly one *frame.Frame; it holds no topology of
// its own, only statement and derived-array state keyed by that frame's A1
// (alt, node) coordinates, avoiding a frame<->pbase import cycle (frame never
// references pbase).
package pbase

import (
	"math"

	"github.com/uneda-cda/UNEDA-sub001/uerr"
)

// Numeric tolerances shared by the staged load (spec §4.2, §8's quantified
// invariants).
const (
	Eps        = 1e-9
	EpsHull    = 1e-6
	EpsMass    = 1e-6
	MinWidth   = 0.0 // "too narrow" rejection is opt-in; 0 disables it
	AbsentBox  = -1.0
	SkipMidbox = -2.0
)

// Statement is a single-term probability-interval constraint on one node
// (spec §3 "A single-term statement records {alt, node, sign=+1, lobo,
// upbo}"). Sign is always +1 for pbase; the signed two-term form lives only
// in the CAR partial-hull layer (car package).
type Statement struct {
	Alt  int
	Node int // A1 pre-order index within Alt
	Lobo float64
	Upbo float64
}

func (s Statement) validate(op string) error {
	if s.Lobo < 0 || s.Upbo > 1 || s.Lobo > s.Upbo {
		return uerr.New(uerr.InputError, op, "statement bounds [%.6f,%.6f] outside [0,1] or inverted", s.Lobo, s.Upbo)
	}
	if math.IsNaN(s.Lobo) || math.IsNaN(s.Upbo) {
		return uerr.New(uerr.InputError, op, "statement bounds must not be NaN")
	}
	return nil
}
