// Package vbase implements the value base (spec §4.3): interval value
// statements on a [0,1] internal scale, with hulls formed by simple box
// intersection rather than P-Base's tree-sum-to-1 normalization. Values at
// intermediate nodes are computed by the evaluator, not declared here, so
// vbase only ever stores and intersects bounds at the nodes a client
// actually states — typically the real leaves of a criterion's tree.
package vbase

import (
	"math"
	"sync"

	"github.com/uneda-cda/UNEDA-sub001/frame"
	"github.com/uneda-cda/UNEDA-sub001/uerr"
)

const (
	Eps       = 1e-9
	AbsentBox = -1.0
)

// Statement is a single-term value-interval constraint on one node,
// structurally identical to pbase.Statement (spec §3).
type Statement struct {
	Alt  int
	Node int
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

type altArrays struct {
	boxLo, boxUp           []float64
	explicitLo, explicitUp []float64
	loMidbox, upMidbox     []float64
	hullLo, hullUp         []float64
	mid                    []float64
}

func newAltArrays(totCons int) altArrays {
	n := totCons + 1
	a := altArrays{
		boxLo: make([]float64, n), boxUp: make([]float64, n),
		explicitLo: make([]float64, n), explicitUp: make([]float64, n),
		loMidbox: make([]float64, n), upMidbox: make([]float64, n),
		hullLo: make([]float64, n), hullUp: make([]float64, n),
		mid: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		a.explicitLo[i], a.explicitUp[i] = AbsentBox, AbsentBox
		a.loMidbox[i], a.upMidbox[i] = AbsentBox, AbsentBox
		a.boxUp[i], a.hullUp[i] = 1, 1
		a.mid[i] = 0.5
	}
	return a
}

// Base is the value base attached to one frame, one instance per criterion
// in the multi-criteria setting (spec §4.3 "attached to each
// criterion/frame"). External presentation scales by VLo/VUp; the internal
// scale is always [0,1].
type Base struct {
	mu     sync.RWMutex
	f      *frame.Frame
	stmts  []Statement
	alts   []altArrays
	loaded bool
	vLo    float64
	vUp    float64
}

// New creates an unloaded value base over an attached frame, with the
// default external presentation scale [0,1].
func New(f *frame.Frame) (*Base, error) {
	const op = "vbase.New"
	if f == nil || !f.Attached() {
		return nil, uerr.New(uerr.FrameNotLoaded, op, "frame must be attached before a base can be created")
	}
	b := &Base{f: f, vLo: 0, vUp: 1}
	stats := f.Stats()
	b.alts = make([]altArrays, len(stats))
	for i, s := range stats {
		b.alts[i] = newAltArrays(s.TotCons)
	}
	return b, nil
}

// SetScale sets the external presentation scale [lo, up] for ExternalValue.
func (b *Base) SetScale(lo, up float64) error {
	const op = "vbase.SetScale"
	if up <= lo {
		return uerr.New(uerr.InputError, op, "scale [%.6f,%.6f] must be increasing", lo, up)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vLo, b.vUp = lo, up
	return nil
}

// ExternalValue maps an internal [0,1] value to the external [VLo,VUp] scale.
func (b *Base) ExternalValue(internal float64) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.vLo + internal*(b.vUp-b.vLo)
}

// CountStatements returns the number of statements in the base.
func (b *Base) CountStatements() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.stmts)
}

// AddStatement appends a statement and reloads, rolling back on failure.
func (b *Base) AddStatement(s Statement) error {
	const op = "vbase.AddStatement"
	if err := s.validate(op); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.boundsCheck(op, s.Alt, s.Node); err != nil {
		return err
	}
	if len(b.stmts) >= frame.MaxStmts {
		return uerr.New(uerr.TooManyStmts, op, "statement count %d reached MaxStmts=%d", len(b.stmts), frame.MaxStmts)
	}
	snapshot := append([]Statement(nil), b.stmts...)
	b.stmts = append(b.stmts, s)
	if err := b.reload(op); err != nil {
		b.stmts = snapshot
		_ = b.reload(op)
		return err
	}
	return nil
}

// DeleteStatement removes the statement at index i and reloads.
func (b *Base) DeleteStatement(i int) error {
	const op = "vbase.DeleteStatement"
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.stmts) {
		return uerr.New(uerr.InputError, op, "statement index %d out of range [0,%d)", i, len(b.stmts))
	}
	snapshot := append([]Statement(nil), b.stmts...)
	b.stmts = append(b.stmts[:i:i], b.stmts[i+1:]...)
	if err := b.reload(op); err != nil {
		b.stmts = snapshot
		_ = b.reload(op)
		return err
	}
	return nil
}

// ReplaceStatement overwrites the statement at index i and reloads.
func (b *Base) ReplaceStatement(i int, s Statement) error {
	const op = "vbase.ReplaceStatement"
	if err := s.validate(op); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.stmts) {
		return uerr.New(uerr.InputError, op, "statement index %d out of range [0,%d)", i, len(b.stmts))
	}
	if err := b.boundsCheck(op, s.Alt, s.Node); err != nil {
		return err
	}
	snapshot := append([]Statement(nil), b.stmts...)
	b.stmts[i] = s
	if err := b.reload(op); err != nil {
		b.stmts = snapshot
		_ = b.reload(op)
		return err
	}
	return nil
}

// SetMidpoint sets a node's declared midpoint (spec §4.3's
// "declared mid" used by NEMO's triangular-distribution moments).
func (b *Base) SetMidpoint(alt, node int, mid float64) error {
	const op = "vbase.SetMidpoint"
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.boundsCheck(op, alt, node); err != nil {
		return err
	}
	a := &b.alts[alt]
	if mid < a.hullLo[node]-Eps || mid > a.hullUp[node]+Eps {
		return uerr.New(uerr.Inconsistent, op, "midpoint %.6f outside hull [%.6f,%.6f]", mid, a.hullLo[node], a.hullUp[node])
	}
	a.mid[node] = mid
	return nil
}

// SetRangeBox installs an explicit per-variable box narrower than [0,1].
func (b *Base) SetRangeBox(alt, node int, lo, up float64) error {
	const op = "vbase.SetRangeBox"
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.boundsCheck(op, alt, node); err != nil {
		return err
	}
	if lo < 0 || up > 1 || lo > up {
		return uerr.New(uerr.InputError, op, "range box [%.6f,%.6f] invalid", lo, up)
	}
	a := &b.alts[alt]
	prevLo, prevUp := a.explicitLo[node], a.explicitUp[node]
	a.explicitLo[node], a.explicitUp[node] = lo, up
	if err := b.reload(op); err != nil {
		a.explicitLo[node], a.explicitUp[node] = prevLo, prevUp
		_ = b.reload(op)
		return err
	}
	return nil
}

// Load forces a recompute of box/hull state from the current statements.
func (b *Base) Load() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reload("vbase.Load")
}

func (b *Base) boundsCheck(op string, alt, node int) error {
	if alt < 0 || alt >= len(b.alts) {
		return uerr.New(uerr.AltUnknown, op, "alternative %d unknown", alt)
	}
	if node < 1 || node >= len(b.alts[alt].boxLo) {
		return uerr.New(uerr.InputError, op, "node %d out of range for alternative %d", node, alt)
	}
	return nil
}

// Hull returns the intersected [lo, up] for (alt, node) on the internal
// [0,1] scale.
func (b *Base) Hull(alt, node int) (lo, up float64, err error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.boundsCheck("vbase.Hull", alt, node); err != nil {
		return 0, 0, err
	}
	a := b.alts[alt]
	return a.hullLo[node], a.hullUp[node], nil
}

// Mid returns the declared or default midpoint for (alt, node).
func (b *Base) Mid(alt, node int) (float64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.boundsCheck("vbase.Mid", alt, node); err != nil {
		return 0, err
	}
	return b.alts[alt].mid[node], nil
}
