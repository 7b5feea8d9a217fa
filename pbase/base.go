package pbase

import (
	"sync"

	"github.com/uneda-cda/UNEDA-sub001/frame"
	"github.com/uneda-cda/UNEDA-sub001/uerr"
)

// altArrays holds every per-node derived array for one alternative, indexed
// by A1 node (1..totCons); index 0 is unused padding so node indices can be
// used directly as slice indices.
type altArrays struct {
	boxLo, boxUp         []float64
	explicitLo, explicitUp []float64 // AbsentBox sentinel when unset
	loMidbox, upMidbox   []float64   // AbsentBox sentinel when unset
	lHullLo, lHullUp     []float64
	hullLo, hullUp       []float64
	lmHullLo, lmHullUp   []float64
	mHullLo, mHullUp     []float64
	lMassPoint           []float64
	massPoint            []float64

	mboxLoScratch, mboxUpScratch []float64 // Stage 3 working arrays
}

func newAltArrays(totCons int) altArrays {
	n := totCons + 1
	a := altArrays{
		boxLo: make([]float64, n), boxUp: make([]float64, n),
		explicitLo: make([]float64, n), explicitUp: make([]float64, n),
		loMidbox: make([]float64, n), upMidbox: make([]float64, n),
		lHullLo: make([]float64, n), lHullUp: make([]float64, n),
		hullLo: make([]float64, n), hullUp: make([]float64, n),
		lmHullLo: make([]float64, n), lmHullUp: make([]float64, n),
		mHullLo: make([]float64, n), mHullUp: make([]float64, n),
		lMassPoint: make([]float64, n), massPoint: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		a.explicitLo[i], a.explicitUp[i] = AbsentBox, AbsentBox
		a.loMidbox[i], a.upMidbox[i] = AbsentBox, AbsentBox
		a.boxUp[i] = 1
		a.lHullUp[i], a.hullUp[i] = 1, 1
		a.lmHullUp[i], a.mHullUp[i] = 1, 1
	}
	return a
}

// Base is the probability base attached to one frame (spec §4.2). It is
// safe for concurrent read access once Load has returned; mutation methods
// hold an exclusive lock for the duration of their reload, matching the
// teacher's segmented sync.RWMutex discipline (core.Graph).
type Base struct {
	mu     sync.RWMutex
	f      *frame.Frame
	stmts  []Statement
	alts   []altArrays
	loaded bool
}

// New creates an unloaded probability base over an attached frame. Call
// Load (or AddStatement, which loads implicitly) before querying hulls.
func New(f *frame.Frame) (*Base, error) {
	const op = "pbase.New"
	if f == nil || !f.Attached() {
		return nil, uerr.New(uerr.FrameNotLoaded, op, "frame must be attached before a base can be created")
	}
	b := &Base{f: f}
	stats := f.Stats()
	b.alts = make([]altArrays, len(stats))
	for i, s := range stats {
		b.alts[i] = newAltArrays(s.TotCons)
	}
	return b, nil
}

// CountStatements returns the number of statements currently in the base.
func (b *Base) CountStatements() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.stmts)
}

// AddStatement appends a statement and reloads. On failure the statement set
// is restored to its pre-call state (spec §5's transactional mutation
// contract) and the error is returned.
func (b *Base) AddStatement(s Statement) error {
	const op = "pbase.AddStatement"
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
		return b.rollback(op, snapshot, err)
	}
	return nil
}

// DeleteStatement removes the statement at index i and reloads, with the
// same rollback-on-failure contract as AddStatement.
func (b *Base) DeleteStatement(i int) error {
	const op = "pbase.DeleteStatement"
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.stmts) {
		return uerr.New(uerr.InputError, op, "statement index %d out of range [0,%d)", i, len(b.stmts))
	}
	snapshot := append([]Statement(nil), b.stmts...)
	b.stmts = append(b.stmts[:i:i], b.stmts[i+1:]...)
	if err := b.reload(op); err != nil {
		return b.rollback(op, snapshot, err)
	}
	return nil
}

// ReplaceStatement overwrites the statement at index i and reloads.
func (b *Base) ReplaceStatement(i int, s Statement) error {
	const op = "pbase.ReplaceStatement"
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
		return b.rollback(op, snapshot, err)
	}
	return nil
}

// rollback restores stmts to snapshot and retries a reload; if the retry
// also fails the frame is forced detached per spec §5's "double load
// failure" fatal path, and the original error is returned to the caller.
func (b *Base) rollback(op string, snapshot []Statement, cause error) error {
	b.stmts = snapshot
	if err := b.reload(op); err != nil {
		_ = b.f.Detach()
		b.loaded = false
	}
	return cause
}

// SetMidpoint sets or clears a variable's midpoint box, one side per
// argument: SkipMidbox (-2.0) leaves that side unchanged and AbsentBox
// (-1.0) clears that side (spec §6's sentinel convention).
func (b *Base) SetMidpoint(alt, node int, lo, up float64) error {
	const op = "pbase.SetMidpoint"
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.boundsCheck(op, alt, node); err != nil {
		return err
	}
	a := &b.alts[alt]
	prevLo, prevUp := a.loMidbox[node], a.upMidbox[node]
	if lo != SkipMidbox {
		a.loMidbox[node] = lo
	}
	if up != SkipMidbox {
		a.upMidbox[node] = up
	}
	if err := b.reload(op); err != nil {
		a.loMidbox[node], a.upMidbox[node] = prevLo, prevUp
		_ = b.reload(op)
		return err
	}
	return nil
}

// SetRangeBox installs an explicit per-variable box narrower than [0,1]
// ahead of statement intersection (spec §3 "optional explicit range box").
func (b *Base) SetRangeBox(alt, node int, lo, up float64) error {
	const op = "pbase.SetRangeBox"
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.boundsCheck(op, alt, node); err != nil {
		return err
	}
	if lo < 0 || up > 1 || lo > up {
		return uerr.New(uerr.InputError, op, "range box [%.6f,%.6f] invalid", lo, up)
	}
	a := &b.alts[alt]
	snapshotLo, snapshotUp := a.explicitLo[node], a.explicitUp[node]
	a.explicitLo[node], a.explicitUp[node] = lo, up
	if err := b.reload(op); err != nil {
		a.explicitLo[node], a.explicitUp[node] = snapshotLo, snapshotUp
		_ = b.reload(op)
		return err
	}
	return nil
}

// Load forces a recompute of box/hull/mass-point state from the current
// statement set, without mutating statements.
func (b *Base) Load() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reload("pbase.Load")
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

// Hull returns the global hull for (alt, node).
func (b *Base) Hull(alt, node int) (lo, up float64, err error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.boundsCheck("pbase.Hull", alt, node); err != nil {
		return 0, 0, err
	}
	a := b.alts[alt]
	return a.hullLo[node], a.hullUp[node], nil
}

// LocalHull returns the local (within-parent) hull for (alt, node).
func (b *Base) LocalHull(alt, node int) (lo, up float64, err error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.boundsCheck("pbase.LocalHull", alt, node); err != nil {
		return 0, 0, err
	}
	a := b.alts[alt]
	return a.lHullLo[node], a.lHullUp[node], nil
}

// MassPoint returns the global mass point for (alt, node).
func (b *Base) MassPoint(alt, node int) (float64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.boundsCheck("pbase.MassPoint", alt, node); err != nil {
		return 0, err
	}
	return b.alts[alt].massPoint[node], nil
}

// LocalMassPoint returns the local mass point for (alt, node).
func (b *Base) LocalMassPoint(alt, node int) (float64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.boundsCheck("pbase.LocalMassPoint", alt, node); err != nil {
		return 0, err
	}
	return b.alts[alt].lMassPoint[node], nil
}

// Box returns the Stage-1 intersected box for (alt, node).
func (b *Base) Box(alt, node int) (lo, up float64, err error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.boundsCheck("pbase.Box", alt, node); err != nil {
		return 0, 0, err
	}
	a := b.alts[alt]
	return a.boxLo[node], a.boxUp[node], nil
}
