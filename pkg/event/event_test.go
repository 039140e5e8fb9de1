package event

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/itreeclock/itc/pkg/id"
	"github.com/itreeclock/itc/pkg/itcerr"
)

func TestNewIsZeroLeaf(t *testing.T) {
	e := New()
	require.True(t, e.IsLeaf())
	require.Equal(t, uint64(0), e.Count())
}

func TestValidateRejectsNil(t *testing.T) {
	err := Validate(nil)
	require.ErrorIs(t, err, itcerr.ErrInvalidParam)
}

func TestValidateRejectsInteriorWithNilChild(t *testing.T) {
	e := &Event{left: leafC(0), right: nil}
	err := Validate(e)
	require.ErrorIs(t, err, itcerr.ErrCorruptEvent)
}

func TestNormalizeCollapsesEqualLeafChildren(t *testing.T) {
	e := interiorC(2, leafC(3), leafC(3))
	got, err := Normalize(e)
	require.NoError(t, err)
	require.True(t, got.IsLeaf())
	require.Equal(t, uint64(5), got.Count())
}

func TestNormalizeLiftsCommonBase(t *testing.T) {
	// (0,2,2): both children carry a common base of 2 above the node's own
	// counter 0, so the whole tree collapses to the leaf 0+2 = 2.
	e := interiorC(0, leafC(2), leafC(2))
	got, err := Normalize(e)
	require.NoError(t, err)
	require.True(t, got.IsLeaf())
	require.Equal(t, uint64(2), got.Count())
}

func TestJoinIsCommutative(t *testing.T) {
	a := interiorC(1, leafC(0), leafC(2))
	b := interiorC(0, leafC(3), leafC(1))
	ab, err := Join(a, b)
	require.NoError(t, err)
	ba, err := Join(b, a)
	require.NoError(t, err)
	require.True(t, Equal(ab, ba))
}

func TestJoinIsIdempotent(t *testing.T) {
	a := interiorC(1, leafC(0), leafC(2))
	aa, err := Join(a, a)
	require.NoError(t, err)
	an, err := Normalize(a)
	require.NoError(t, err)
	require.True(t, Equal(aa, an))
}

func TestLeqReflexive(t *testing.T) {
	a := interiorC(1, leafC(0), leafC(2))
	ok, err := Leq(a, a)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLeqAntisymmetricForDistinctHistories(t *testing.T) {
	smaller := leafC(1)
	bigger := leafC(2)
	ok, err := Leq(smaller, bigger)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = Leq(bigger, smaller)
	require.NoError(t, err)
	require.False(t, ok)
}

// join((0,1,0), (0,0,1)) normalizes to leaf 1, spec.md section 8 scenario 6.
func TestJoinScenario6(t *testing.T) {
	eL := interiorC(0, leafC(1), leafC(0))
	eR := interiorC(0, leafC(0), leafC(1))
	got, err := Join(eL, eR)
	require.NoError(t, err)
	require.True(t, got.IsLeaf())
	require.Equal(t, uint64(1), got.Count())
}

func TestMaximizeReturnsLeafAtMaxHeight(t *testing.T) {
	e := interiorC(1, leafC(2), leafC(5))
	got, err := Maximize(e)
	require.NoError(t, err)
	require.True(t, got.IsLeaf())
	require.Equal(t, uint64(6), got.Count())
}

func TestFillOverSeedIdMaximizes(t *testing.T) {
	e := interiorC(1, leafC(2), leafC(5))
	got, filled, err := Fill(e, id.Seed())
	require.NoError(t, err)
	require.True(t, filled)
	require.True(t, got.IsLeaf())
	require.Equal(t, uint64(6), got.Count())
}

func TestFillOverNullIdIsNoop(t *testing.T) {
	e := interiorC(1, leafC(2), leafC(5))
	got, filled, err := Fill(e, id.Null())
	require.NoError(t, err)
	require.False(t, filled)
	require.True(t, Equal(e, got))
}

func TestAdvanceStrictlyDominates(t *testing.T) {
	e := New()
	advanced, err := Advance(e, id.Seed())
	require.NoError(t, err)

	before, err := Leq(e, advanced)
	require.NoError(t, err)
	require.True(t, before)

	after, err := Leq(advanced, e)
	require.NoError(t, err)
	require.False(t, after)
}

func TestAdvancePeekIsNoop(t *testing.T) {
	e := interiorC(1, leafC(2), leafC(5))
	got, err := Advance(e, id.Null())
	require.NoError(t, err)
	require.True(t, Equal(e, got))
}

func TestAddCheckedOverflow(t *testing.T) {
	_, err := addChecked(MaxCounter, 1)
	require.ErrorIs(t, err, itcerr.ErrEventCounterOverflow)
}

func TestSubCheckedUnderflow(t *testing.T) {
	_, err := subChecked(0, 1)
	require.ErrorIs(t, err, itcerr.ErrEventCounterUnderflow)
}

func TestLeafAndInteriorConstructors(t *testing.T) {
	l := Leaf(7)
	require.True(t, l.IsLeaf())
	require.Equal(t, uint64(7), l.Count())

	n, err := Interior(1, Leaf(2), Leaf(3))
	require.NoError(t, err)
	require.False(t, n.IsLeaf())
	require.Equal(t, uint64(1), n.Count())
	require.True(t, Equal(Leaf(2), n.Left()))
	require.True(t, Equal(Leaf(3), n.Right()))
}

func TestInteriorRejectsNilChild(t *testing.T) {
	_, err := Interior(1, nil, Leaf(3))
	require.ErrorIs(t, err, itcerr.ErrInvalidParam)
}

func TestNormalizeRejectsCorruptEvent(t *testing.T) {
	bad := &Event{}
	_, err := Normalize(bad)
	require.ErrorIs(t, err, itcerr.ErrCorruptEvent)
}

func TestStringNotation(t *testing.T) {
	require.Equal(t, "0", New().String())
	n := interiorC(1, leafC(2), leafC(3))
	require.Equal(t, "(1,2,3)", n.String())
}

func TestCloneIsIndependent(t *testing.T) {
	e := interiorC(1, leafC(2), leafC(3))
	c := Clone(e)
	require.True(t, Equal(e, c))
	require.NotSame(t, e, c)
	require.NotSame(t, e.Left(), c.Left())
}
