package eval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/uneda-cda/UNEDA-sub001/frame"
	"github.com/uneda-cda/UNEDA-sub001/pbase"
	"github.com/uneda-cda/UNEDA-sub001/vbase"
)

// Two siblings with lobo/upbo/mid chosen so lambda != 1, exercising the
// generalized-Dirichlet scale term rather than the lambda=1 fallback.
func TestPGroupMomentsTwoSiblingFixture(t *testing.T) {
	out := PGroupMoments([]float64{0.2, 0.3}, []float64{0.5, 0.6}, []float64{0.35, 0.45})
	require.Len(t, out, 2)
	require.InDelta(t, 0.35, out[0].Mean, 1e-9)
	require.InDelta(t, 0.0093068182, out[0].Variance, 1e-9)
	require.InDelta(t, 0.0050113636, out[0].CovTerm, 1e-9)
	require.InDelta(t, 0.45, out[1].Mean, 1e-9)
	require.InDelta(t, 0.010125, out[1].Variance, 1e-9)
	require.InDelta(t, 0.0082840909, out[1].CovTerm, 1e-9)
}

func TestVNodeMomentWithinClipRange(t *testing.T) {
	m := VNodeMoment(0.2, 0.8, 0.5)
	require.InDelta(t, 0.5, m.Mean, 1e-9)
	require.InDelta(t, 0.015, m.Variance, 1e-9)
	require.InDelta(t, 0, m.ThirdCentralMoment, 1e-9)
}

// declaredMid below loClip=(2*lo+up)/3 gets clipped up before averaging.
func TestVNodeMomentClipsDeclaredMid(t *testing.T) {
	m := VNodeMoment(0.3, 0.9, 0.3)
	loClip := (2*0.3 + 0.9) / 3
	require.InDelta(t, (loClip+0.3)/2, m.Mean, 1e-9)
}

func TestProductMomentsFixture(t *testing.T) {
	p := PMoment{Mean: 0.4, Variance: 0.01, CovTerm: 0.04}
	v := VMoment{Mean: 0.5, Variance: 0.015, ThirdCentralMoment: 0}
	pm := ProductMoments(p, v)
	require.InDelta(t, 0.2, pm.Mean, 1e-9)
	require.InDelta(t, 0.00505, pm.Variance, 1e-9)
	require.InDelta(t, 0.1, pm.Cov, 1e-9)
	require.InDelta(t, 0, pm.ThirdCentralMoment, 1e-9)
}

// Two real leaves, no P-base statements (default hull [0,1], mass point 0.5
// each, per pbase's documented flat-no-statement default) and explicit V-base
// hulls: leaf 1 is [0.2,0.8] at its default declared mid 0.5, leaf 2 is the
// full [0,1] box at its default declared mid 0.5. Every intermediate figure
// below is hand-derived independently of AlternativeMoments' own code path.
func buildMomentsFixture(t *testing.T) (*frame.Frame, *pbase.Base, *vbase.Base) {
	t.Helper()
	f, err := frame.CreateFlat([]int{2, 2})
	require.NoError(t, err)
	require.NoError(t, f.Attach())

	pb, err := pbase.New(f)
	require.NoError(t, err)
	require.NoError(t, pb.Load())

	vb, err := vbase.New(f)
	require.NoError(t, err)
	require.NoError(t, vb.AddStatement(vbase.Statement{Alt: 0, Node: 1, Lobo: 0.2, Upbo: 0.8}))
	require.NoError(t, vb.Load())
	return f, pb, vb
}

// Hand-derivation: lambda = sumT/(1-sumLo) = (1+1)/(1-0) = 2, so each leaf's
// P-moment is {Mean:0.5, Variance:1/12, CovTerm:1/12}. Leaf 1's V-moment is
// {Mean:0.5, Variance:0.015, TCM:0} (VNodeMoment(0.2,0.8,0.5), see above).
// Leaf 2's V-moment (full [0,1] box, declared mid 0.5) is {Mean:0.5,
// Variance:1/24, TCM:0}. Each leaf's product variance is
// p.Var*v.Var + p.Var*v.Mean^2 + p.Mean^2*v.Var: leaf 1 gives 31/1200, leaf 2
// gives 5/144. The sibling covariance term is -(cov_1*cov_2) with
// cov_i = sqrt(p.CovTerm)*v.Mean = 0.25/sqrt(3) for both leaves (same v.Mean),
// so crossSum = -1/48 and the alternative variance is
// 31/1200 + 5/144 - 2/48 = 17/900.
func TestAlternativeMomentsTwoLeafFixture(t *testing.T) {
	f, pb, vb := buildMomentsFixture(t)
	res, err := AlternativeMoments(f, pb, vb, 0)
	require.NoError(t, err)
	require.InDelta(t, 0.5, res.Mean, 1e-9)
	require.InDelta(t, 17.0/900.0, res.Variance, 1e-9)
	require.InDelta(t, 0, res.ThirdCentralMoment, 1e-9)
}

// VariableStdDevs drops the sibling-covariance cross term AlternativeMoments
// applies, so each entry is just sqrt of that single leaf's own product
// variance (31/1200 and 5/144 above), not derivable from res.Variance.
func TestVariableStdDevsMatchesPerLeafProductVariance(t *testing.T) {
	f, pb, vb := buildMomentsFixture(t)
	sds, err := VariableStdDevs(f, pb, vb, 0)
	require.NoError(t, err)
	require.Len(t, sds, 2)
	require.InDelta(t, math.Sqrt(31.0/1200.0), sds[0], 1e-9)
	require.InDelta(t, math.Sqrt(5.0/144.0), sds[1], 1e-9)
}

// The fixture's second alternative has no V-base statements at all, so every
// leaf sits at its default declared mid 0.5 with the full [0,1] hull,
// giving the same per-leaf moments as fixture leaf 2 above on both sides.
func TestAlternativeMomentsSymmetricAlternative(t *testing.T) {
	f, pb, vb := buildMomentsFixture(t)
	res, err := AlternativeMoments(f, pb, vb, 1)
	require.NoError(t, err)
	require.InDelta(t, 0.5, res.Mean, 1e-9)
	require.InDelta(t, 0, res.ThirdCentralMoment, 1e-9)
}
