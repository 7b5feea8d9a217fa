package pbase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/uneda-cda/UNEDA-sub001/frame"
	"github.com/uneda-cda/UNEDA-sub001/uerr"
)

// S1: flat frame, 3 alternatives each with 2 leaves, no statements.
func TestLoadFlatFrameNoStatements(t *testing.T) {
	f, err := frame.CreateFlat([]int{2, 2, 2})
	require.NoError(t, err)
	require.NoError(t, f.Attach())

	b, err := New(f)
	require.NoError(t, err)
	require.NoError(t, b.Load())

	for alt := 0; alt < 3; alt++ {
		lo, up, err := b.Hull(alt, 1)
		require.NoError(t, err)
		require.InDelta(t, 0, lo, EpsHull)
		require.InDelta(t, 1, up, EpsHull)

		mp, err := b.MassPoint(alt, 1)
		require.NoError(t, err)
		require.InDelta(t, 0.5, mp, 1e-3)
	}
}

// S2: tree frame, alt 0 is root -> {A, B}; A -> {A1, A2}. Alt 1 is a plain
// two-leaf alternative, since a frame needs at least two alternatives.
func buildS2(t *testing.T) (*frame.Frame, *Base, int, int, int, int) {
	t.Helper()
	// pre-order: 1=A, 2=A1, 3=A2, 4=B
	next := [][]int{{1, 0, 3, 4, 0}, {0, 2, 0}}
	down := [][]int{{1, 2, 0, 0, 0}, {1, 0, 0}}
	f, err := frame.CreateTree([]int{4, 2}, next, down)
	require.NoError(t, err)
	require.NoError(t, f.Attach())

	b, err := New(f)
	require.NoError(t, err)
	require.NoError(t, b.AddStatement(Statement{Alt: 0, Node: 1, Lobo: 0.6, Upbo: 0.8})) // P(A)
	require.NoError(t, b.AddStatement(Statement{Alt: 0, Node: 2, Lobo: 0.3, Upbo: 0.5})) // P(A1) local within A
	return f, b, 1, 2, 3, 4
}

func TestLoadTreeFrameHullsMatchScenario(t *testing.T) {
	_, b, _, a1, a2, bNode := buildS2(t)

	loA1, upA1, err := b.Hull(0, a1)
	require.NoError(t, err)
	require.InDelta(t, 0.18, loA1, 1e-2)
	require.InDelta(t, 0.40, upA1, 1e-2)

	loA2, upA2, err := b.Hull(0, a2)
	require.NoError(t, err)
	require.InDelta(t, 0.30, loA2, 1e-2)
	require.InDelta(t, 0.56, upA2, 1e-2)

	loB, upB, err := b.Hull(0, bNode)
	require.NoError(t, err)
	require.InDelta(t, 0.20, loB, 1e-2)
	require.InDelta(t, 0.40, upB, 1e-2)
}

func TestMassPointSumsToOnePerLevel(t *testing.T) {
	_, b, aNode, a1, a2, bNode := buildS2(t)

	mpA, err := b.MassPoint(0, aNode)
	require.NoError(t, err)
	mpB, err := b.MassPoint(0, bNode)
	require.NoError(t, err)
	require.InDelta(t, 1.0, mpA+mpB, 1e-6)

	mpA1, err := b.LocalMassPoint(0, a1)
	require.NoError(t, err)
	mpA2, err := b.LocalMassPoint(0, a2)
	require.NoError(t, err)
	require.InDelta(t, 1.0, mpA1+mpA2, 1e-6)
}

// S3: inconsistent siblings, both [0.6,1.0].
func TestInconsistentSiblingsRestoresStatements(t *testing.T) {
	f, err := frame.CreateFlat([]int{2, 2})
	require.NoError(t, err)
	require.NoError(t, f.Attach())
	b, err := New(f)
	require.NoError(t, err)

	require.NoError(t, b.AddStatement(Statement{Alt: 0, Node: 1, Lobo: 0.6, Upbo: 1.0}))
	before := b.CountStatements()

	err = b.AddStatement(Statement{Alt: 0, Node: 2, Lobo: 0.6, Upbo: 1.0})
	require.Error(t, err)
	require.True(t, errors.Is(err, uerr.ErrInconsistent))
	require.Equal(t, before, b.CountStatements())
	require.True(t, f.Attached(), "frame must remain attached after a single rollback")
}

func TestSetMidpointOutsideHullRejected(t *testing.T) {
	f, err := frame.CreateFlat([]int{2, 2})
	require.NoError(t, err)
	require.NoError(t, f.Attach())
	b, err := New(f)
	require.NoError(t, err)
	require.NoError(t, b.Load())

	err = b.SetMidpoint(0, 1, -0.5, SkipMidbox)
	require.Error(t, err)
}
