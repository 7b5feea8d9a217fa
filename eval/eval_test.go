package eval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/uneda-cda/UNEDA-sub001/frame"
	"github.com/uneda-cda/UNEDA-sub001/pbase"
	"github.com/uneda-cda/UNEDA-sub001/vbase"
)

func buildTreeFixture(t *testing.T) (*frame.Frame, *pbase.Base, *vbase.Base) {
	t.Helper()
	// pre-order: 1=A, 2=A1, 3=A2, 4=B; alt 1 is a plain two-leaf alternative
	next := [][]int{{1, 0, 3, 4, 0}, {0, 2, 0}}
	down := [][]int{{1, 2, 0, 0, 0}, {1, 0, 0}}
	f, err := frame.CreateTree([]int{4, 2}, next, down)
	require.NoError(t, err)
	require.NoError(t, f.Attach())

	pb, err := pbase.New(f)
	require.NoError(t, err)
	require.NoError(t, pb.AddStatement(pbase.Statement{Alt: 0, Node: 1, Lobo: 0.6, Upbo: 0.8}))
	require.NoError(t, pb.AddStatement(pbase.Statement{Alt: 0, Node: 2, Lobo: 0.3, Upbo: 0.5}))

	vb, err := vbase.New(f)
	require.NoError(t, err)
	require.NoError(t, vb.Load())
	return f, pb, vb
}

// S6: all V leaves at midpoint 0.5 => OMEGA = 0.5.
func TestOmegaAllMidpointsHalf(t *testing.T) {
	f, pb, vb := buildTreeFixture(t)
	ev, err := OMEGA(f, pb, vb, 0)
	require.NoError(t, err)
	require.InDelta(t, 0.5, ev, 1e-6)
}

// S6: PSI with V leaves at the full [0,1] hull => min=0, max=1, mid=0.5.
func TestPSIFullHullGivesZeroOneHalf(t *testing.T) {
	f, pb, vb := buildTreeFixture(t)
	res, err := PSI(f, pb, vb, 0)
	require.NoError(t, err)
	require.InDelta(t, 0, res.Min, 1e-6)
	require.InDelta(t, 1, res.Max, 1e-6)
	require.InDelta(t, 0.5, res.Mid, 1e-6)
	require.LessOrEqual(t, res.Min, res.Mid)
	require.LessOrEqual(t, res.Mid, res.Max)
}

func TestDeltaOrderingInvariant(t *testing.T) {
	f, err := frame.CreateFlat([]int{2, 2})
	require.NoError(t, err)
	require.NoError(t, f.Attach())
	pb, err := pbase.New(f)
	require.NoError(t, err)
	require.NoError(t, pb.Load())
	vb, err := vbase.New(f)
	require.NoError(t, err)
	require.NoError(t, vb.Load())

	res, err := DELTA(f, pb, vb, 0, 1)
	require.NoError(t, err)
	require.LessOrEqual(t, res.Min, res.Mid)
	require.LessOrEqual(t, res.Mid, res.Max)
	require.InDelta(t, -1, res.Min, 1e-6)
	require.InDelta(t, 1, res.Max, 1e-6)
}

func TestGammaAgainstTwoAlternatives(t *testing.T) {
	f, err := frame.CreateFlat([]int{2, 2, 2})
	require.NoError(t, err)
	require.NoError(t, f.Attach())
	pb, err := pbase.New(f)
	require.NoError(t, err)
	require.NoError(t, pb.Load())
	vb, err := vbase.New(f)
	require.NoError(t, err)
	require.NoError(t, vb.Load())

	res, err := GAMMA(f, pb, vb, 0)
	require.NoError(t, err)
	require.LessOrEqual(t, res.Min, res.Mid)
	require.LessOrEqual(t, res.Mid, res.Max)
}

func TestDigammaEmptySubsetIsPSI(t *testing.T) {
	f, pb, vb := buildTreeFixture(t)
	psi, err := PSI(f, pb, vb, 0)
	require.NoError(t, err)
	di, err := DIGAMMA(f, pb, vb, 0, 0)
	require.NoError(t, err)
	require.Equal(t, psi, di)
}

func TestSecurityLevelOrdering(t *testing.T) {
	f, pb, vb := buildTreeFixture(t)
	sec, err := Security(f, pb, vb, 0, 0.5)
	require.NoError(t, err)
	require.LessOrEqual(t, sec.Strong, sec.Weak+1e-9)
}
