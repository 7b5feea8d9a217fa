package frame

import "github.com/uneda-cda/UNEDA-sub001/uerr"

// Attach builds the B1/B2 flat-index tables over the frame's current
// topology (spec §3's four index encodings). A frame must be attached
// before pbase.New or vbase.New accepts it; Attach is
// idempotent-safe to call again after Detach but fails if already attached.
//
// Complexity: O(Σ totCons[alt]).
func (f *Frame) Attach() error {
	const op = "frame.Attach"
	if f.disposed {
		return opErr(op, uerr.StateError, "frame is disposed")
	}
	if f.attached {
		return opErr(op, uerr.StateError, "frame is already attached")
	}

	nAlts := len(f.alts)
	f.b1Offset = make([]int, nAlts)
	f.b2RealOffset = make([]int, nAlts)
	f.b2IntermOffset = make([]int, nAlts)

	b1, b2r, b2i := 0, 0, 0
	for i := range f.alts {
		a := &f.alts[i]
		f.b1Offset[i] = b1
		f.b2RealOffset[i] = b2r
		f.b2IntermOffset[i] = b2i

		a.realRank = make([]int, a.TotCons+1)
		a.intermRank = make([]int, a.TotCons+1)
		rr, ir := 0, 0
		for n := 1; n <= a.TotCons; n++ {
			if a.Nodes[n].Down == 0 {
				rr++
				a.realRank[n] = rr
			} else {
				ir++
				a.intermRank[n] = ir
			}
		}

		b1 += a.TotCons
		b2r += a.NCons
		b2i += a.ImCons
	}
	f.totalB1 = b1
	f.totalB2Real = b2r
	f.totalB2Interm = b2i
	f.attached = true
	return nil
}

// Detach releases the index tables without discarding topology, allowing a
// subsequent Attach. It does not invalidate pbase/vbase statement bases
// built against the prior attachment; callers that Detach+Attach on a
// structurally unchanged frame get identical indices back.
func (f *Frame) Detach() error {
	const op = "frame.Detach"
	if !f.attached {
		return opErr(op, uerr.StateError, "frame is not attached")
	}
	f.attached = false
	return nil
}

// Dispose permanently retires the frame; no further Attach is possible.
func (f *Frame) Dispose() error {
	const op = "frame.Dispose"
	if f.disposed {
		return opErr(op, uerr.StateError, "frame is already disposed")
	}
	f.attached = false
	f.disposed = true
	return nil
}

// TotalB1 returns the flat pre-order index space size across all
// alternatives (requires Attach).
func (f *Frame) TotalB1() (int, error) {
	if !f.Attached() {
		return 0, opErr("frame.TotalB1", uerr.FrameNotLoaded, "frame is not attached")
	}
	return f.totalB1, nil
}

// TotalB2 returns the sizes of the real and intermediate flat index spaces
// (requires Attach).
func (f *Frame) TotalB2() (real, interm int, err error) {
	if !f.Attached() {
		return 0, 0, opErr("frame.TotalB2", uerr.FrameNotLoaded, "frame is not attached")
	}
	return f.totalB2Real, f.totalB2Interm, nil
}

// A1ToB1 converts (alt, pre-order node index) to the flat B1 index.
func (f *Frame) A1ToB1(alt, n int) (int, error) {
	const op = "frame.A1ToB1"
	if !f.Attached() {
		return 0, opErr(op, uerr.FrameNotLoaded, "frame is not attached")
	}
	a, err := f.alt(op, alt)
	if err != nil {
		return 0, err
	}
	if err := validNode(a, op, alt, n); err != nil {
		return 0, err
	}
	return f.b1Offset[alt] + n - 1, nil
}

// B1ToA1 converts a flat B1 index back to (alt, pre-order node index).
func (f *Frame) B1ToA1(b1 int) (alt, n int, err error) {
	const op = "frame.B1ToA1"
	if !f.Attached() {
		return 0, 0, opErr(op, uerr.FrameNotLoaded, "frame is not attached")
	}
	if b1 < 0 || b1 >= f.totalB1 {
		return 0, 0, opErr(op, uerr.InputError, "b1 index %d out of range [0,%d)", b1, f.totalB1)
	}
	alt = searchOffset(f.b1Offset, b1)
	n = b1 - f.b1Offset[alt] + 1
	return alt, n, nil
}

// A1ToA2 converts (alt, pre-order node index) to (alt, class rank), also
// returning whether the node is real.
func (f *Frame) A1ToA2(alt, n int) (rank int, real bool, err error) {
	const op = "frame.A1ToA2"
	a, err := f.alt(op, alt)
	if err != nil {
		return 0, false, err
	}
	if err := validNode(a, op, alt, n); err != nil {
		return 0, false, err
	}
	if a.Nodes[n].Down == 0 {
		return a.realRank[n], true, nil
	}
	return a.intermRank[n], false, nil
}

// A2ToA1 converts (alt, class rank, real) back to the pre-order node index.
func (f *Frame) A2ToA1(alt, rank int, real bool) (int, error) {
	const op = "frame.A2ToA1"
	a, err := f.alt(op, alt)
	if err != nil {
		return 0, err
	}
	table := a.intermRank
	if real {
		table = a.realRank
	}
	for n := 1; n <= a.TotCons; n++ {
		if table[n] == rank {
			return n, nil
		}
	}
	return 0, opErr(op, uerr.InputError, "alternative %d has no rank %d in the requested class", alt, rank)
}

// A1ToB2 converts (alt, pre-order node index) to its flat real or
// intermediate B2 index.
func (f *Frame) A1ToB2(alt, n int) (b2 int, real bool, err error) {
	const op = "frame.A1ToB2"
	if !f.Attached() {
		return 0, false, opErr(op, uerr.FrameNotLoaded, "frame is not attached")
	}
	rank, real, err := f.A1ToA2(alt, n)
	if err != nil {
		return 0, false, err
	}
	if real {
		return f.b2RealOffset[alt] + rank - 1, true, nil
	}
	return f.b2IntermOffset[alt] + rank - 1, false, nil
}

// B2ToA1 converts a flat real or intermediate B2 index back to (alt,
// pre-order node index).
func (f *Frame) B2ToA1(b2 int, real bool) (alt, n int, err error) {
	const op = "frame.B2ToA1"
	if !f.Attached() {
		return 0, 0, opErr(op, uerr.FrameNotLoaded, "frame is not attached")
	}
	offsets, total := f.b2RealOffset, f.totalB2Real
	if !real {
		offsets, total = f.b2IntermOffset, f.totalB2Interm
	}
	if b2 < 0 || b2 >= total {
		return 0, 0, opErr(op, uerr.InputError, "b2 index %d out of range [0,%d)", b2, total)
	}
	alt = searchOffset(offsets, b2)
	rank := b2 - offsets[alt] + 1
	n, err = f.A2ToA1(alt, rank, real)
	return alt, n, err
}

// searchOffset finds the largest i such that offsets[i] <= v, assuming
// offsets is non-decreasing and offsets[0] == 0.
func searchOffset(offsets []int, v int) int {
	lo, hi := 0, len(offsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if offsets[mid] <= v {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// RealIndex returns node n's 1-based rank among its alternative's real
// nodes, or 0 if n is intermediate.
func (f *Frame) RealIndex(alt, n int) (int, error) {
	const op = "frame.RealIndex"
	a, err := f.alt(op, alt)
	if err != nil {
		return 0, err
	}
	if err := validNode(a, op, alt, n); err != nil {
		return 0, err
	}
	return a.realRank[n], nil
}

// TotalIndex returns node n's 1-based rank among its alternative's
// intermediate nodes, or 0 if n is real.
func (f *Frame) TotalIndex(alt, n int) (int, error) {
	const op = "frame.TotalIndex"
	a, err := f.alt(op, alt)
	if err != nil {
		return 0, err
	}
	if err := validNode(a, op, alt, n); err != nil {
		return 0, err
	}
	return a.intermRank[n], nil
}

// Clone returns a deep copy of the frame's topology, detached and
// un-disposed regardless of the receiver's state, grounded on
// core.Graph.Clone's deep-copy-then-fresh-lifecycle pattern.
func (f *Frame) Clone() *Frame {
	out := &Frame{name: f.name, alts: make([]altTopology, len(f.alts))}
	for i, a := range f.alts {
		na := altTopology{
			Name:    a.Name,
			Nodes:   append([]node(nil), a.Nodes...),
			NCons:   a.NCons,
			ImCons:  a.ImCons,
			TotCons: a.TotCons,
		}
		if a.realRank != nil {
			na.realRank = append([]int(nil), a.realRank...)
			na.intermRank = append([]int(nil), a.intermRank...)
		}
		out.alts[i] = na
	}
	return out
}
