package car

import (
	"sync"

	"github.com/uneda-cda/UNEDA-sub001/frame"
	"github.com/uneda-cda/UNEDA-sub001/pbase"
	"github.com/uneda-cda/UNEDA-sub001/uerr"
)

// Mode bits (spec §4.5): bit 0 Excel-compat weights, bit 1 Excel-compat
// values, bit 2 "light" (no midpoints).
type Mode int

const (
	ModeExcelWeights Mode = 1 << 0
	ModeExcelValues  Mode = 1 << 1
	ModeLight        Mode = 1 << 2
)

// MidpointEps is the tight half-width CAR installs around its synthesized
// point when not running in light mode (spec §4.5, §8 invariant 9).
const MidpointEps = 1e-4

// Engine is the stateful CAR layer (spec §4.5): exactly one Init before any
// use, followed by Exit; double-init and init-while-frame-loaded are
// errors. It sits strictly above the frame/pbase/vbase engine, returning
// their errors verbatim and adding its own only for CAR-specific
// preconditions (spec §7).
type Engine struct {
	mu          sync.Mutex
	initialized bool
	method      Method
	mode        Mode
	wUnc, vUnc  float64

	// wFrame/wBase synthesize a weight base by reusing pbase.Base over a
	// synthetic flat frame whose alt 0 holds the criteria as sibling
	// leaves (summing to 1 is exactly pbase's tree-normalization); alt 1
	// is an unused single-leaf placeholder so the frame satisfies the
	// underlying 2-alternative minimum without meaning anything on its
	// own (an explicit, documented reuse compromise, not a modeling claim
	// about a second alternative).
	wFrame *frame.Frame
	wBase  *pbase.Base

	phullOpen bool
	ordCrit   []int
	nCrit     int
}

// Init starts a CAR session. Calling Init twice, or calling it while a W-base
// frame is still loaded, is an error.
func (e *Engine) Init(method Method, mode Mode) error {
	const op = "car.Init"
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return uerr.New(uerr.StateError, op, "CAR is already initialized")
	}
	if e.wFrame != nil {
		return uerr.New(uerr.StateError, op, "cannot init while a W-base frame is loaded")
	}
	e.method = method
	e.mode = mode
	e.wUnc, e.vUnc = 0.05, 0.02
	e.initialized = true
	return nil
}

// Exit ends the CAR session, releasing any W-base frame.
func (e *Engine) Exit() error {
	const op = "car.Exit"
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return uerr.New(uerr.StateError, op, "CAR is not initialized")
	}
	if e.wFrame != nil {
		_ = e.wFrame.Dispose()
	}
	e.initialized = false
	e.wFrame, e.wBase = nil, nil
	e.phullOpen = false
	return nil
}

// SetCompat sets the Excel-compatibility uncertainty bands (spec §6).
func (e *Engine) SetCompat(wUnc, vUnc float64) error {
	const op = "car.SetCompat"
	if wUnc < 0.02 || wUnc > 0.20 {
		return uerr.New(uerr.InputError, op, "w_unc %.4f outside [0.02,0.20]", wUnc)
	}
	if vUnc < 0.01 || vUnc > 0.10 {
		return uerr.New(uerr.InputError, op, "v_unc %.4f outside [0.01,0.10]", vUnc)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return uerr.New(uerr.StateError, op, "CAR is not initialized")
	}
	e.wUnc, e.vUnc = wUnc, vUnc
	return nil
}

// GetWOrdinal returns the ordering of criteria last supplied to SetWBase.
func (e *Engine) GetWOrdinal() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.ordCrit...)
}

// WBase returns the underlying probability base synthesized by SetWBase, or
// nil if none has been set yet.
func (e *Engine) WBase() *pbase.Base {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wBase
}

// SetWBase synthesizes weight-interval statements from an ordinal ranking
// with relation steps (spec §4.5). ordCrit[i] names criterion i's identity
// (caller-defined, unused internally beyond length); rel[k] (k=0..n-2) is
// the number of "more-important" steps between criterion k and k+1, 0
// meaning equal, -1 a nullifier that terminates the active prefix (any
// criteria after it receive [0,0]).
func (e *Engine) SetWBase(ordCrit []int, rel []int) error {
	const op = "car.SetWBase"
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return uerr.New(uerr.StateError, op, "CAR is not initialized")
	}
	if e.phullOpen {
		return uerr.New(uerr.NotAllowed, op, "partial hull is open")
	}
	n := len(ordCrit)
	if n < 1 {
		return uerr.New(uerr.InputError, op, "need at least 1 criterion")
	}
	if len(rel) != n-1 && n > 1 {
		return uerr.New(uerr.InputError, op, "rel must have n-1=%d entries, got %d", n-1, len(rel))
	}
	for _, r := range rel {
		if r < -1 || r > MaxStepsPW {
			return uerr.New(uerr.InputError, op, "relation step %d out of range", r)
		}
	}

	activeCount := n
	cumulative := make([]int, n) // 1-based position within generated slots
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

	nAct := activeCount
	crc, err := Generate(e.method, tot, 0, nAct)
	if err != nil {
		return err
	}

	vals := make([]float64, activeCount)
	for i := 0; i < activeCount; i++ {
		vals[i] = crc[cumulative[i]-1]
	}
	loBand, upBand := bandIntervals(vals)

	if err := e.rebuildWFrame(op, n); err != nil {
		return err
	}
	before := e.wBase.CountStatements()
	for i := 0; i < n; i++ {
		node := i + 1
		var lo, up float64
		if i < activeCount {
			lo, up = loBand[i], upBand[i]
		}
		if err := e.wBase.AddStatement(pbase.Statement{Alt: 0, Node: node, Lobo: lo, Upbo: up}); err != nil {
			e.rollbackWStatements(before)
			return err
		}
	}

	e.ordCrit = append([]int(nil), ordCrit...)
	e.nCrit = n

	if e.mode&ModeLight == 0 {
		for i := 0; i < activeCount; i++ {
			mid := vals[i] / activeSum(vals)
			_ = e.wBase.SetMidpoint(0, i+1, mid-MidpointEps, mid+MidpointEps)
		}
	}
	return nil
}

// bandIntervals derives each active criterion's [lo, up] band as the
// midpoint toward each neighbor (spec §4.5 "midpoint toward each neighbor
// ... divided by the active-sum"), with asymmetric extrapolation at the
// two ends using the adjacent interior gap.
func bandIntervals(vals []float64) (lo, up []float64) {
	n := len(vals)
	lo, up = make([]float64, n), make([]float64, n)
	sum := activeSum(vals)
	for i := 0; i < n; i++ {
		var loNeighbor, upNeighbor float64
		switch {
		case n == 1:
			loNeighbor, upNeighbor = vals[i], vals[i]
		case i == 0:
			upNeighbor = vals[i] + (vals[i]-vals[i+1])/2
			loNeighbor = (vals[i] + vals[i+1]) / 2
		case i == n-1:
			loNeighbor = vals[i] - (vals[i-1]-vals[i])/2
			upNeighbor = (vals[i-1] + vals[i]) / 2
		default:
			upNeighbor = (vals[i-1] + vals[i]) / 2
			loNeighbor = (vals[i] + vals[i+1]) / 2
		}
		if loNeighbor < 0 {
			loNeighbor = 0
		}
		if upNeighbor > 1 {
			upNeighbor = 1
		}
		lo[i], up[i] = loNeighbor/sum, upNeighbor/sum
		if lo[i] > up[i] {
			lo[i], up[i] = up[i], lo[i]
		}
	}
	return lo, up
}

func activeSum(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	if sum <= 0 {
		return 1
	}
	return sum
}

func (e *Engine) rebuildWFrame(op string, nCrit int) error {
	if e.wFrame != nil {
		_ = e.wFrame.Dispose()
	}
	f, err := frame.CreateFlat([]int{nCrit, 1})
	if err != nil {
		return err
	}
	if err := f.Attach(); err != nil {
		return err
	}
	b, err := pbase.New(f)
	if err != nil {
		return err
	}
	e.wFrame, e.wBase = f, b
	return nil
}

func (e *Engine) rollbackWStatements(target int) {
	for e.wBase.CountStatements() > target {
		_ = e.wBase.DeleteStatement(e.wBase.CountStatements() - 1)
	}
}
