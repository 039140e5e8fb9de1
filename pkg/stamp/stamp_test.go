package stamp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/itreeclock/itc/pkg/itcerr"
)

func TestNewSeed(t *testing.T) {
	s := NewSeed()
	require.Equal(t, "1", s.Id().String())
	require.Equal(t, "0", s.Event().String())
}

func TestForkProducesDisjointIdsSharedHistory(t *testing.T) {
	s := NewSeed()
	a, b, err := Fork(s)
	require.NoError(t, err)
	require.Equal(t, "(1,0)", a.Id().String())
	require.Equal(t, "(0,1)", b.Id().String())
	require.Equal(t, a.Event().String(), b.Event().String())
}

func TestEventThenComparePutsForkedStampBefore(t *testing.T) {
	s := NewSeed()
	a, b, err := Fork(s)
	require.NoError(t, err)

	a2, err := Event(a)
	require.NoError(t, err)

	order, err := Compare(b, a2)
	require.NoError(t, err)
	require.Equal(t, Before, order)

	order, err = Compare(a2, b)
	require.NoError(t, err)
	require.Equal(t, After, order)
}

func TestJoinReunitesForkedStamps(t *testing.T) {
	s := NewSeed()
	a, b, err := Fork(s)
	require.NoError(t, err)

	a2, err := Event(a)
	require.NoError(t, err)
	b2, err := Event(b)
	require.NoError(t, err)

	joined, err := Join(a2, b2)
	require.NoError(t, err)
	require.Equal(t, "1", joined.Id().String())

	order, err := Compare(a2, joined)
	require.NoError(t, err)
	require.Equal(t, Before, order)
	order, err = Compare(b2, joined)
	require.NoError(t, err)
	require.Equal(t, Before, order)
}

func TestConcurrentStampsAreConcurrent(t *testing.T) {
	s := NewSeed()
	a, b, err := Fork(s)
	require.NoError(t, err)

	a2, err := Event(a)
	require.NoError(t, err)
	b2, err := Event(b)
	require.NoError(t, err)

	order, err := Compare(a2, b2)
	require.NoError(t, err)
	require.Equal(t, Concurrent, order)
}

func TestEqualStampsCompareEqual(t *testing.T) {
	s := NewSeed()
	order, err := Compare(s, s)
	require.NoError(t, err)
	require.Equal(t, Equal, order)
}

func TestPeekEventIsNoop(t *testing.T) {
	s := NewSeed()
	peek, err := NewPeek(s)
	require.NoError(t, err)
	require.Equal(t, "0", peek.Id().String())

	advanced, err := Event(peek)
	require.NoError(t, err)
	require.Equal(t, peek.Event().String(), advanced.Event().String())
}

func TestPeekObservesHistory(t *testing.T) {
	s := NewSeed()
	s2, err := Event(s)
	require.NoError(t, err)
	peek, err := NewPeek(s2)
	require.NoError(t, err)

	order, err := Compare(peek, s2)
	require.NoError(t, err)
	require.Equal(t, Equal, order)
}

func TestJoinRejectsOverlappingIds(t *testing.T) {
	s := NewSeed()
	clone, err := Clone(s)
	require.NoError(t, err)
	_, err = Join(s, clone)
	require.ErrorIs(t, err, itcerr.ErrCorruptId)
}

func TestFromDecodedValidatesInputs(t *testing.T) {
	_, err := FromDecoded(nil, nil)
	require.ErrorIs(t, err, itcerr.ErrCorruptStamp)
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewSeed()
	c, err := Clone(s)
	require.NoError(t, err)
	require.Equal(t, s.String(), c.String())
}

func TestStringNotation(t *testing.T) {
	s := NewSeed()
	require.Equal(t, "id=1 event=0", s.String())
}
