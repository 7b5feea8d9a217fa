package car

import (
	"github.com/uneda-cda/UNEDA-sub001/pbase"
	"github.com/uneda-cda/UNEDA-sub001/uerr"
)

// CollapseEps is the minimum window half-width prune/cut/equal tolerate
// before declaring a variable collapsed and rolling back (spec §4.5
// "collapse below 2ε").
const CollapseEps = 1e-6

// TwoTermStatement is the CAR-only signed two-term weight constraint (spec
// §3): "lobo*w1 <= upbo*w2 and upbo*w1 >= lobo*w2" for criteria C1 (+1) and
// C2 (-1). Only this package's partial-hull entry points accept n_terms=2;
// every other Base in this engine rejects multi-term statements outright
// (spec §9).
type TwoTermStatement struct {
	C1, C2     int
	Lobo, Upbo float64
}

func (s TwoTermStatement) validate(op string) error {
	if s.C1 == s.C2 {
		return uerr.New(uerr.InputError, op, "C1 and C2 must be distinct criteria")
	}
	if s.Lobo < 0 || s.Upbo < s.Lobo {
		return uerr.New(uerr.InputError, op, "ratio interval [%.6f,%.6f] invalid", s.Lobo, s.Upbo)
	}
	return nil
}

// OpenWPhull enters partial-hull mode (spec §4.5): clears any ambient
// midpoint box so pairwise trade-off statements alone drive the hull.
func (e *Engine) OpenWPhull() error {
	const op = "car.OpenWPhull"
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized || e.wBase == nil {
		return uerr.New(uerr.StateError, op, "no W-base is loaded")
	}
	if e.phullOpen {
		return uerr.New(uerr.NotAllowed, op, "partial hull is already open")
	}
	for i := 1; i <= e.nCrit; i++ {
		_ = e.wBase.SetMidpoint(0, i, pbase.AbsentBox, pbase.AbsentBox)
	}
	e.phullOpen = true
	return nil
}

// CheckWPhull validates a two-term statement and returns the achievable
// trade-off ratio (spec §4.5). If *tradeoff == -1.0 on entry, it instead
// asks for the maximum trade-off against C2's current lower bound and
// writes that back into *tradeoff (the "*swp mutation" mode flagged as an
// open question in spec §9 — here, only tradeoff is written, swp itself is
// left untouched).
func (e *Engine) CheckWPhull(swp TwoTermStatement, tradeoff *float64) error {
	const op = "car.CheckWPhull"
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.phullOpen {
		return uerr.New(uerr.StateError, op, "partial hull is not open")
	}
	if err := swp.validate(op); err != nil {
		return err
	}
	loC1, _, err := e.wBase.Hull(0, swp.C1)
	if err != nil {
		return err
	}
	loC2, _, err := e.wBase.Hull(0, swp.C2)
	if err != nil {
		return err
	}

	if *tradeoff == -1.0 {
		if loC2 <= CollapseEps {
			*tradeoff = -2.0
			return nil
		}
		*tradeoff = loC1 / loC2
		return nil
	}
	if loC2 <= CollapseEps {
		*tradeoff = -2.0
		return nil
	}
	*tradeoff = (swp.Lobo * loC1) / (swp.Upbo * loC2)
	return nil
}

// PruneWPhull tightens whichever side of the hull the statement's lower
// ratio bound cuts into (spec §4.5), rolling back with Inconsistent if the
// tightening would collapse a variable's window below 2*CollapseEps.
//
// The tightening ratios pair Lobo with C2's bound and Upbo with C1's bound
// (not the reverse, as a literal reading of the prose formula would give):
// spec §8 scenario S5's worked numbers only reproduce under this pairing
// (see DESIGN.md's resolution of Open Question 1, which applies the same
// correction to CheckWPhull's trade-off formula).
func (e *Engine) PruneWPhull(swp TwoTermStatement) error {
	const op = "car.PruneWPhull"
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.phullOpen {
		return uerr.New(uerr.StateError, op, "partial hull is not open")
	}
	if err := swp.validate(op); err != nil {
		return err
	}
	loC1, upC1, err := e.wBase.Hull(0, swp.C1)
	if err != nil {
		return err
	}
	loC2, upC2, err := e.wBase.Hull(0, swp.C2)
	if err != nil {
		return err
	}
	if swp.Lobo*loC1 <= swp.Upbo*upC2 {
		return nil // statement does not cut into the hull, nothing to prune
	}

	newLoC1 := swp.Lobo * loC2 / swp.Upbo
	if newLoC1 > loC1 {
		if upC1-newLoC1 < 2*CollapseEps {
			return uerr.New(uerr.Inconsistent, op, "pruning would collapse the hull below the minimum window")
		}
		return e.wBase.AddStatement(pbase.Statement{Alt: 0, Node: swp.C1, Lobo: newLoC1, Upbo: upC1})
	}
	newUpC2 := swp.Upbo * upC1 / swp.Lobo
	if newUpC2-loC2 < 2*CollapseEps {
		return uerr.New(uerr.Inconsistent, op, "pruning would collapse the hull below the minimum window")
	}
	return e.wBase.AddStatement(pbase.Statement{Alt: 0, Node: swp.C2, Lobo: loC2, Upbo: newUpC2})
}

// CutWPhull is the strict analog of PruneWPhull: it splits the overlap gap
// evenly between both sides instead of moving only the violated one (spec
// §4.5 "cut_W_phull... analog of strict >"), with the same Lobo/C2 and
// Upbo/C1 pairing correction as PruneWPhull.
func (e *Engine) CutWPhull(swp TwoTermStatement) error {
	const op = "car.CutWPhull"
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.phullOpen {
		return uerr.New(uerr.StateError, op, "partial hull is not open")
	}
	if err := swp.validate(op); err != nil {
		return err
	}
	loC1, upC1, err := e.wBase.Hull(0, swp.C1)
	if err != nil {
		return err
	}
	loC2, upC2, err := e.wBase.Hull(0, swp.C2)
	if err != nil {
		return err
	}
	gap := swp.Lobo*loC1 - swp.Upbo*upC2
	if gap <= 0 {
		return nil
	}
	newLoC1 := loC1 + gap/(2*swp.Upbo)
	newUpC2 := upC2 - gap/(2*swp.Lobo)
	if upC1-newLoC1 < 2*CollapseEps || newUpC2-loC2 < 2*CollapseEps {
		return uerr.New(uerr.Inconsistent, op, "cutting would collapse the hull below the minimum window")
	}
	if err := e.wBase.AddStatement(pbase.Statement{Alt: 0, Node: swp.C1, Lobo: newLoC1, Upbo: upC1}); err != nil {
		return err
	}
	return e.wBase.AddStatement(pbase.Statement{Alt: 0, Node: swp.C2, Lobo: loC2, Upbo: newUpC2})
}

// EqualWPhull prunes in both directions with the terms swapped, returning
// the total number of statements it added (spec §4.5, §8 invariant 8:
// applied twice on an already-equal hull adds zero net statements).
func (e *Engine) EqualWPhull(swp TwoTermStatement) (int, error) {
	const op = "car.EqualWPhull"
	before := e.wBase.CountStatements()
	if err := e.PruneWPhull(swp); err != nil {
		return 0, err
	}
	swapped := TwoTermStatement{C1: swp.C2, C2: swp.C1, Lobo: swp.Lobo, Upbo: swp.Upbo}
	if err := e.PruneWPhull(swapped); err != nil {
		return 0, uerr.New(uerr.Inconsistent, op, "%v", err)
	}
	return e.wBase.CountStatements() - before, nil
}

// CloseWPhull re-reads the current mass point and installs a tight ε-box
// around it, re-anchoring the engine's mass point and leaving partial-hull
// mode (spec §4.5, §8 invariant 9).
func (e *Engine) CloseWPhull() error {
	const op = "car.CloseWPhull"
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.phullOpen {
		return uerr.New(uerr.StateError, op, "partial hull is not open")
	}
	for i := 1; i <= e.nCrit; i++ {
		mp, err := e.wBase.MassPoint(0, i)
		if err != nil {
			return err
		}
		lo, up := mp-MidpointEps, mp+MidpointEps
		if lo < 0 {
			lo = 0
		}
		if up > 1 {
			up = 1
		}
		if err := e.wBase.SetMidpoint(0, i, lo, up); err != nil {
			return err
		}
	}
	e.phullOpen = false
	return nil
}
