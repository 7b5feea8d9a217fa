package car

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/uneda-cda/UNEDA-sub001/frame"
	"github.com/uneda-cda/UNEDA-sub001/pbase"
)

func TestGeneratorsSumToOneAndNonIncreasing(t *testing.T) {
	for _, method := range []Method{MethodRX, MethodRS, MethodRR, MethodROC, MethodSR, MethodXR} {
		for slots := 1; slots <= 8; slots++ {
			crc, err := Generate(method, slots, 0, slots)
			require.NoError(t, err)
			sum := 0.0
			for i, v := range crc {
				sum += v
				if i > 0 {
					require.GreaterOrEqual(t, crc[i-1]+1e-9, v, "method %d slot %d not non-increasing", method, i)
				}
			}
			require.InDelta(t, 1.0, sum, 1e-9)
		}
	}
}

func TestGenerateWithOffsetRenormalizes(t *testing.T) {
	crc, err := Generate(MethodRX, 3, 2, 3)
	require.NoError(t, err)
	require.Len(t, crc, 3)
	sum := 0.0
	for _, v := range crc {
		sum += v
	}
	require.InDelta(t, 1.0, sum, 1e-9)
}

// S4: init(0,0), set_W_base ord=[1,2,3], rel=[1,1]: the three weight
// windows have strictly decreasing midpoints.
func TestSetWBaseProducesDecreasingWindows(t *testing.T) {
	e := &Engine{}
	require.NoError(t, e.Init(MethodRX, 0))
	require.NoError(t, e.SetWBase([]int{1, 2, 3}, []int{1, 1}))

	wb := e.WBase()
	lo1, up1, err := wb.Hull(0, 1)
	require.NoError(t, err)
	lo2, up2, err := wb.Hull(0, 2)
	require.NoError(t, err)
	lo3, up3, err := wb.Hull(0, 3)
	require.NoError(t, err)

	mid1, mid2, mid3 := (lo1+up1)/2, (lo2+up2)/2, (lo3+up3)/2
	require.Greater(t, mid1, mid2)
	require.Greater(t, mid2, mid3)
}

// S5: open_W_phull; check(w1 > 2*w2) against hulls [0.3,0.5]/[0.1,0.3];
// trade-off returns 2*0.3/0.1 = 6.0.
func TestPartialHullCheckTradeoff(t *testing.T) {
	e := &Engine{}
	require.NoError(t, e.Init(MethodRX, int(ModeLight)))
	// A third, unconstrained criterion absorbs the remaining weight: two
	// weights in [0.3,0.5] and [0.1,0.3] alone cannot sum to 1.
	require.NoError(t, e.rebuildWFrame("test", 3))
	require.NoError(t, e.wBase.AddStatement(pbase.Statement{Alt: 0, Node: 1, Lobo: 0.3, Upbo: 0.5}))
	require.NoError(t, e.wBase.AddStatement(pbase.Statement{Alt: 0, Node: 2, Lobo: 0.1, Upbo: 0.3}))
	e.nCrit = 3
	require.NoError(t, e.OpenWPhull())

	tradeoff := 2.0
	swp := TwoTermStatement{C1: 1, C2: 2, Lobo: 2, Upbo: 1}
	require.NoError(t, e.CheckWPhull(swp, &tradeoff))
	require.InDelta(t, 6.0, tradeoff, 1e-9)
}

// S5: the prune half — same statement as TestPartialHullCheckTradeoff
// tightens w2.up to 0.5/2 = 0.25, leaving w1 untouched.
func TestPartialHullPruneTightensC2Upbo(t *testing.T) {
	e := &Engine{}
	require.NoError(t, e.Init(MethodRX, int(ModeLight)))
	// A third, unconstrained criterion absorbs the remaining weight: two
	// weights in [0.3,0.5] and [0.1,0.3] alone cannot sum to 1.
	require.NoError(t, e.rebuildWFrame("test", 3))
	require.NoError(t, e.wBase.AddStatement(pbase.Statement{Alt: 0, Node: 1, Lobo: 0.3, Upbo: 0.5}))
	require.NoError(t, e.wBase.AddStatement(pbase.Statement{Alt: 0, Node: 2, Lobo: 0.1, Upbo: 0.3}))
	e.nCrit = 3
	require.NoError(t, e.OpenWPhull())

	swp := TwoTermStatement{C1: 1, C2: 2, Lobo: 2, Upbo: 1}
	require.NoError(t, e.PruneWPhull(swp))

	lo1, up1, err := e.wBase.Hull(0, 1)
	require.NoError(t, err)
	lo2, up2, err := e.wBase.Hull(0, 2)
	require.NoError(t, err)
	require.InDelta(t, 0.3, lo1, 1e-9)
	require.InDelta(t, 0.5, up1, 1e-9)
	require.InDelta(t, 0.1, lo2, 1e-9)
	require.InDelta(t, 0.25, up2, 1e-9)
}

// CutWPhull is the strict analog of PruneWPhull: against the same violating
// statement it narrows both sides at once instead of only one.
func TestPartialHullCutNarrowsBothSides(t *testing.T) {
	e := &Engine{}
	require.NoError(t, e.Init(MethodRX, int(ModeLight)))
	// A third, unconstrained criterion absorbs the remaining weight: two
	// weights in [0.3,0.5] and [0.1,0.3] alone cannot sum to 1.
	require.NoError(t, e.rebuildWFrame("test", 3))
	require.NoError(t, e.wBase.AddStatement(pbase.Statement{Alt: 0, Node: 1, Lobo: 0.3, Upbo: 0.5}))
	require.NoError(t, e.wBase.AddStatement(pbase.Statement{Alt: 0, Node: 2, Lobo: 0.1, Upbo: 0.3}))
	e.nCrit = 3
	require.NoError(t, e.OpenWPhull())

	swp := TwoTermStatement{C1: 1, C2: 2, Lobo: 2, Upbo: 1}
	require.NoError(t, e.CutWPhull(swp))

	lo1, up1, err := e.wBase.Hull(0, 1)
	require.NoError(t, err)
	lo2, up2, err := e.wBase.Hull(0, 2)
	require.NoError(t, err)
	require.InDelta(t, 0.45, lo1, 1e-9)
	require.InDelta(t, 0.5, up1, 1e-9)
	require.InDelta(t, 0.1, lo2, 1e-9)
	require.InDelta(t, 0.225, up2, 1e-9)
}

// CutWPhull against an already-consistent hull is a no-op, mirroring
// PruneWPhull's idempotence on equal hulls.
func TestPartialHullCutNoopWhenNotViolated(t *testing.T) {
	e := &Engine{}
	require.NoError(t, e.Init(MethodRX, int(ModeLight)))
	require.NoError(t, e.rebuildWFrame("test", 2))
	require.NoError(t, e.wBase.AddStatement(pbase.Statement{Alt: 0, Node: 1, Lobo: 0.5, Upbo: 0.5}))
	require.NoError(t, e.wBase.AddStatement(pbase.Statement{Alt: 0, Node: 2, Lobo: 0.5, Upbo: 0.5}))
	e.nCrit = 2
	require.NoError(t, e.OpenWPhull())

	before := e.wBase.CountStatements()
	swp := TwoTermStatement{C1: 1, C2: 2, Lobo: 1, Upbo: 1}
	require.NoError(t, e.CutWPhull(swp))
	require.Equal(t, before, e.wBase.CountStatements())
}

func TestEqualWPhullIdempotentOnAlreadyEqualHull(t *testing.T) {
	e := &Engine{}
	require.NoError(t, e.Init(MethodRX, int(ModeLight)))
	require.NoError(t, e.rebuildWFrame("test", 2))
	require.NoError(t, e.wBase.AddStatement(pbase.Statement{Alt: 0, Node: 1, Lobo: 0.5, Upbo: 0.5}))
	require.NoError(t, e.wBase.AddStatement(pbase.Statement{Alt: 0, Node: 2, Lobo: 0.5, Upbo: 0.5}))
	e.nCrit = 2
	require.NoError(t, e.OpenWPhull())

	swp := TwoTermStatement{C1: 1, C2: 2, Lobo: 1, Upbo: 1}
	n, err := e.EqualWPhull(swp)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestRankPBaseProducesDecreasingWindows(t *testing.T) {
	f, err := frame.CreateFlat([]int{3, 3})
	require.NoError(t, err)
	require.NoError(t, f.Attach())
	pb, err := pbase.New(f)
	require.NoError(t, err)

	e := &Engine{}
	require.NoError(t, e.Init(MethodRX, 0))
	require.NoError(t, e.RankPBase(pb, 0, 0, []int{1, 2, 3}, 0))

	lo1, up1, err := pb.Hull(0, 1)
	require.NoError(t, err)
	lo2, up2, err := pb.Hull(0, 2)
	require.NoError(t, err)
	lo3, up3, err := pb.Hull(0, 3)
	require.NoError(t, err)

	mid1, mid2, mid3 := (lo1+up1)/2, (lo2+up2)/2, (lo3+up3)/2
	require.GreaterOrEqual(t, mid1, mid2)
	require.GreaterOrEqual(t, mid2, mid3)
}

func TestInitTwiceFails(t *testing.T) {
	e := &Engine{}
	require.NoError(t, e.Init(MethodRX, 0))
	err := e.Init(MethodRX, 0)
	require.Error(t, err)
}
