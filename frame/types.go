// Package frame implements the decision-frame data model: alternatives, each
// owning a rooted ordered tree of probability/value nodes, plus the four
// index encodings (A1, A2, B1, B2) used throughout the engine to address a
// variable by (alternative, node-in-pre-order), by (alternative, rank within
// its real/intermediate class), or by a flat position across every
// alternative (spec §3).
//
// Lifecycle: Create (flat or tree) -> Attach (index tables built) -> mutate
// via the pbase/vbase packages, which hold their own statement bases keyed
// by this Frame's A1 (alt, node) coordinates -> Detach -> Dispose. Frame itself owns only
// topology; it has no P-Base/V-Base pointer, so pbase and vbase can each
// depend on frame without a cycle back (spec §9's note that the
// single-attached-frame contract is a policy, not a language constraint).
package frame

import (
	"github.com/uneda-cda/UNEDA-sub001/uerr"
)

// Limits mirror spec §3's global caps. They are variables, not consts, so a
// lighter build can lower them (spec §9 "warp vertex enumeration... expose
// the cap as a compile-time constant to allow a lighter variant" applies the
// same idea here).
var (
	MaxAlts  = 64
	MaxCons  = 4096
	MaxCopa  = 1024 // per-alternative real leaves
	MaxNopa  = 2048 // per-alternative total nodes
	MaxStmts = 8192
)

// node holds one alternative's tree node at position [1..totCons]. Index 0
// is the implicit root: down[0] is its first child, next/up/prev at 0 are
// unused. Real nodes have Down == 0; intermediate nodes have Down != 0 and
// at least two children (no lonely intermediate, spec §3).
type node struct {
	Down int // first child, 0 if real (leaf)
	Next int // next sibling, 0 if last
	Up   int // parent, 0 for top-level nodes (parent is the implicit root)
	Prev int // previous sibling, 0 if first
}

// altTopology is one alternative's validated tree plus its derived counts
// and per-node classification, built once by CreateFlat/CreateTree and
// never mutated afterward (topology is immutable; only statements change).
type altTopology struct {
	Name     string
	Nodes    []node // index 0 is the virtual root; len == TotCons+1
	NCons    int    // real leaves
	ImCons   int    // intermediate nodes
	TotCons  int    // NCons + ImCons

	realRank   []int // per node index -> 1-based rank among real nodes, 0 if not real
	intermRank []int // per node index -> 1-based rank among intermediate nodes, 0 if not intermediate
}

// Frame owns the topology of every alternative in one decision problem.
// It is safe to read concurrently once Attach has returned; Frame carries no
// mutable statement state itself (pbase.Base / vbase.Base do).
type Frame struct {
	name     string
	alts     []altTopology
	attached bool
	disposed bool

	// B1 is a flat pre-order index across all alternatives: b1Offset[alt]
	// is the B1 of that alternative's node 1.
	b1Offset []int
	totalB1  int

	// B2 separates the flat index into a real sequence and an intermediate
	// sequence, each concatenated alt-by-alt in rank order.
	b2RealOffset   []int
	b2IntermOffset []int
	totalB2Real    int
	totalB2Interm  int
}

// NAlts reports the number of alternatives.
func (f *Frame) NAlts() int { return len(f.alts) }

// Name returns the frame's display name (empty unless set via WithName).
func (f *Frame) Name() string { return f.name }

// Attached reports whether Attach has succeeded and Detach/Dispose have not
// since been called.
func (f *Frame) Attached() bool { return f.attached && !f.disposed }

// FrameOption configures a Frame at construction time, mirroring the
// teacher's functional-option constructors (core.GraphOption).
type FrameOption func(*Frame)

// WithName sets the frame's display name.
func WithName(name string) FrameOption {
	return func(f *Frame) { f.name = name }
}

// AltStats summarizes one alternative's topology (spec §3 counts), returned
// by Frame.Stats for read-only diagnostics — not part of spec.md's literal
// surface, grounded on core.Graph.Stats's O(V+E) snapshot pattern.
type AltStats struct {
	Name    string
	NCons   int
	ImCons  int
	TotCons int
}

// Stats returns a read-only snapshot of every alternative's counts.
// Complexity: O(n_alts).
func (f *Frame) Stats() []AltStats {
	out := make([]AltStats, len(f.alts))
	for i, a := range f.alts {
		out[i] = AltStats{Name: a.Name, NCons: a.NCons, ImCons: a.ImCons, TotCons: a.TotCons}
	}
	return out
}

func opErr(op string, kind uerr.Kind, format string, args ...interface{}) error {
	return uerr.New(kind, op, format, args...)
}
