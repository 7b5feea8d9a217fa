package frame

import (
	"github.com/uneda-cda/UNEDA-sub001/uerr"
)

// CreateFlat builds a Frame whose alternatives are two-level trees: an
// implicit root with nCons[i] real children and no intermediate nodes
// (spec §4.1 "create flat (list of per-alt leaf counts)").
//
// Complexity: O(Σ nCons[i]).
func CreateFlat(nCons []int, opts ...FrameOption) (*Frame, error) {
	const op = "frame.CreateFlat"
	if len(nCons) < 2 {
		return nil, opErr(op, uerr.TooFewAlts, "need at least 2 alternatives, got %d", len(nCons))
	}
	if len(nCons) > MaxAlts {
		return nil, opErr(op, uerr.TooManyAlts, "%d alternatives exceeds MaxAlts=%d", len(nCons), MaxAlts)
	}

	f := &Frame{alts: make([]altTopology, len(nCons))}
	for i, n := range nCons {
		if n < 1 {
			return nil, opErr(op, uerr.TreeError, "alternative %d has no leaves", i)
		}
		if n > MaxCopa {
			return nil, opErr(op, uerr.TooManyCons, "alternative %d has %d leaves, exceeds MaxCopa=%d", i, n, MaxCopa)
		}

		nodes := make([]node, n+1) // index 0 = virtual root
		nodes[0].Down = 1
		for k := 1; k <= n; k++ {
			nodes[k].Up = 0
			if k > 1 {
				nodes[k].Prev = k - 1
			}
			if k < n {
				nodes[k].Next = k + 1
			}
		}
		f.alts[i] = altTopology{
			Nodes:   nodes,
			NCons:   n,
			ImCons:  0,
			TotCons: n,
		}
	}

	if err := checkTotalCons(f, op); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// CreateTree builds a Frame from explicit per-alternative next/down arrays
// (spec §4.1 "create tree"). next[alt] and down[alt] must have length
// totCons[alt]+1; index 0 represents the implicit root (down[alt][0] is its
// first child, spec §3's "down[i][0]=1" invariant). Validates contiguous
// pre-order numbering, absence of lonely intermediates, and that counts
// derived from the topology match totCons.
//
// Complexity: O(Σ totCons[alt]).
func CreateTree(totCons []int, next, down [][]int, opts ...FrameOption) (*Frame, error) {
	const op = "frame.CreateTree"
	nAlts := len(totCons)
	if nAlts < 2 {
		return nil, opErr(op, uerr.TooFewAlts, "need at least 2 alternatives, got %d", nAlts)
	}
	if nAlts > MaxAlts {
		return nil, opErr(op, uerr.TooManyAlts, "%d alternatives exceeds MaxAlts=%d", nAlts, MaxAlts)
	}
	if len(next) != nAlts || len(down) != nAlts {
		return nil, opErr(op, uerr.InputError, "next/down must have one entry per alternative")
	}

	f := &Frame{alts: make([]altTopology, nAlts)}
	for i := 0; i < nAlts; i++ {
		tc := totCons[i]
		if tc < 1 || tc > MaxNopa {
			return nil, opErr(op, uerr.TreeError, "alternative %d: tot_cons=%d out of range", i, tc)
		}
		if len(next[i]) != tc+1 || len(down[i]) != tc+1 {
			return nil, opErr(op, uerr.InputError, "alternative %d: next/down must have length tot_cons+1", i)
		}

		nodes := make([]node, tc+1)
		for k := 0; k <= tc; k++ {
			nodes[k].Down = down[i][k]
			nodes[k].Next = next[i][k]
		}
		// Derive Up/Prev by walking each node's declared children via
		// Down/Next; this also performs most of the contiguity validation.
		if err := deriveParentLinks(nodes, tc, op, i); err != nil {
			return nil, err
		}

		order, err := preOrderCheck(nodes, tc, op, i)
		if err != nil {
			return nil, err
		}
		_ = order

		nCons, imCons, err := classifyAndValidate(nodes, tc, op, i)
		if err != nil {
			return nil, err
		}
		if nCons+imCons != tc {
			return nil, opErr(op, uerr.TreeError, "alternative %d: declared tot_cons=%d but topology has %d", i, tc, nCons+imCons)
		}
		if nCons > MaxCopa {
			return nil, opErr(op, uerr.TooManyCons, "alternative %d has %d real leaves, exceeds MaxCopa=%d", i, nCons, MaxCopa)
		}

		f.alts[i] = altTopology{Nodes: nodes, NCons: nCons, ImCons: imCons, TotCons: tc}
	}

	if err := checkTotalCons(f, op); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// deriveParentLinks walks Down/Next chains from the root and fills Up/Prev.
// It also catches structurally invalid input (a child index out of range,
// or a child claimed by more than one parent) before the heavier pre-order
// and purity checks run.
func deriveParentLinks(nodes []node, tc int, op string, alt int) error {
	seen := make([]bool, tc+1)
	var walk func(parent int) error
	walk = func(parent int) error {
		child := nodes[parent].Down
		prev := 0
		for child != 0 {
			if child < 1 || child > tc {
				return opErr(op, uerr.TreeError, "alternative %d: node %d has out-of-range child %d", alt, parent, child)
			}
			if seen[child] {
				return opErr(op, uerr.TreeError, "alternative %d: node %d claimed by more than one parent", alt, child)
			}
			seen[child] = true
			nodes[child].Up = parent
			nodes[child].Prev = prev
			prev = child
			child = nodes[child].Next
		}
		// Recurse into this parent's children that are themselves parents.
		c := nodes[parent].Down
		for c != 0 {
			if nodes[c].Down != 0 {
				if err := walk(c); err != nil {
					return err
				}
			}
			c = nodes[c].Next
		}
		return nil
	}
	if err := walk(0); err != nil {
		return err
	}
	for k := 1; k <= tc; k++ {
		if !seen[k] {
			return opErr(op, uerr.TreeError, "alternative %d: node %d is unreachable from the root", alt, k)
		}
	}
	return nil
}

// preOrderCheck verifies that node indices already ARE their pre-order
// visitation rank (spec §3: "node indices... are a contiguous numbering in
// pre-order"), returning the visitation order for reuse if ever needed.
func preOrderCheck(nodes []node, tc int, op string, alt int) ([]int, error) {
	order := make([]int, 0, tc)
	var walk func(n int)
	walk = func(n int) {
		c := nodes[n].Down
		for c != 0 {
			order = append(order, c)
			walk(c)
			c = nodes[c].Next
		}
	}
	walk(0)
	if len(order) != tc {
		return nil, opErr(op, uerr.TreeError, "alternative %d: pre-order walk visited %d nodes, expected %d", alt, len(order), tc)
	}
	for idx, n := range order {
		if n != idx+1 {
			return nil, opErr(op, uerr.TreeError, "alternative %d: node %d is not in pre-order position (want %d)", alt, n, idx+1)
		}
	}
	return order, nil
}

// classifyAndValidate counts real vs intermediate nodes and rejects any
// "lonely intermediate" (an intermediate with fewer than two children).
func classifyAndValidate(nodes []node, tc int, op string, alt int) (nCons, imCons int, err error) {
	for k := 1; k <= tc; k++ {
		if nodes[k].Down == 0 {
			nCons++
			continue
		}
		imCons++
		childCount := 0
		c := nodes[k].Down
		for c != 0 {
			childCount++
			c = nodes[c].Next
		}
		if childCount < 2 {
			return 0, 0, opErr(op, uerr.TreeError, "alternative %d: node %d is a lonely intermediate (%d child)", alt, k, childCount)
		}
	}
	return nCons, imCons, nil
}

// checkTotalCons enforces the global MAX_CONS cap (total real leaves across
// every alternative).
func checkTotalCons(f *Frame, op string) error {
	total := 0
	for _, a := range f.alts {
		total += a.NCons
	}
	if total > MaxCons {
		return opErr(op, uerr.TooManyCons, "%d total real leaves exceeds MaxCons=%d", total, MaxCons)
	}
	return nil
}

// IsPureTree reports whether every intermediate node's children are all
// real or all intermediate (never mixed), for the given alternative.
func (f *Frame) IsPureTree(alt int) (bool, error) {
	const op = "frame.IsPureTree"
	a, err := f.alt(op, alt)
	if err != nil {
		return false, err
	}
	for k := 1; k <= a.TotCons; k++ {
		if a.Nodes[k].Down == 0 {
			continue
		}
		sawReal, sawInterm := false, false
		c := a.Nodes[k].Down
		for c != 0 {
			if a.Nodes[c].Down == 0 {
				sawReal = true
			} else {
				sawInterm = true
			}
			c = a.Nodes[c].Next
		}
		if sawReal && sawInterm {
			return false, nil
		}
	}
	return true, nil
}

// SameParent reports whether n1 and n2 (both in pre-order A1 form for alt)
// share the same parent.
func (f *Frame) SameParent(alt, n1, n2 int) (bool, error) {
	const op = "frame.SameParent"
	a, err := f.alt(op, alt)
	if err != nil {
		return false, err
	}
	if err := validNode(a, op, alt, n1); err != nil {
		return false, err
	}
	if err := validNode(a, op, alt, n2); err != nil {
		return false, err
	}
	return a.Nodes[n1].Up == a.Nodes[n2].Up, nil
}

// SiblingCount returns the number of children of node's parent (i.e. the
// size of node's own sibling group, including itself).
func (f *Frame) SiblingCount(alt, n int) (int, error) {
	const op = "frame.SiblingCount"
	a, err := f.alt(op, alt)
	if err != nil {
		return 0, err
	}
	if err := validNode(a, op, alt, n); err != nil {
		return 0, err
	}
	parent := a.Nodes[n].Up
	count := 0
	c := a.Nodes[parent].Down
	for c != 0 {
		count++
		c = a.Nodes[c].Next
	}
	return count, nil
}

// Children returns the pre-order indices of node's direct children (empty
// for real nodes).
func (f *Frame) Children(alt, n int) ([]int, error) {
	const op = "frame.Children"
	a, err := f.alt(op, alt)
	if err != nil {
		return nil, err
	}
	if err := validNode(a, op, alt, n); err != nil {
		return nil, err
	}
	var out []int
	c := a.Nodes[n].Down
	for c != 0 {
		out = append(out, c)
		c = a.Nodes[c].Next
	}
	return out, nil
}

// IsReal reports whether node n of alt is a real (leaf) node.
func (f *Frame) IsReal(alt, n int) (bool, error) {
	const op = "frame.IsReal"
	a, err := f.alt(op, alt)
	if err != nil {
		return false, err
	}
	if err := validNode(a, op, alt, n); err != nil {
		return false, err
	}
	return a.Nodes[n].Down == 0, nil
}

// Parent returns the pre-order index of n's parent (0 for a top-level node,
// meaning its parent is the alternative's implicit root).
func (f *Frame) Parent(alt, n int) (int, error) {
	const op = "frame.Parent"
	a, err := f.alt(op, alt)
	if err != nil {
		return 0, err
	}
	if err := validNode(a, op, alt, n); err != nil {
		return 0, err
	}
	return a.Nodes[n].Up, nil
}

// RealLeaves returns the pre-order indices of every real (leaf) node of alt.
func (f *Frame) RealLeaves(alt int) ([]int, error) {
	const op = "frame.RealLeaves"
	a, err := f.alt(op, alt)
	if err != nil {
		return nil, err
	}
	var out []int
	for n := 1; n <= a.TotCons; n++ {
		if a.Nodes[n].Down == 0 {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *Frame) alt(op string, alt int) (*altTopology, error) {
	if alt < 0 || alt >= len(f.alts) {
		return nil, opErr(op, uerr.AltUnknown, "alternative %d out of range [0,%d)", alt, len(f.alts))
	}
	return &f.alts[alt], nil
}

// validNode accepts 0 (the alternative's implicit root, a valid parent
// reference for Children/recursion entry points) through TotCons.
func validNode(a *altTopology, op string, alt, n int) error {
	if n < 0 || n > a.TotCons {
		return opErr(op, uerr.InputError, "alternative %d: node %d out of range [0,%d]", alt, n, a.TotCons)
	}
	return nil
}
