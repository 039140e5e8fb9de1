// Package stamp implements the Stamp abstraction of an Interval Tree
// Clock: the (Id, Event) pair a participant holds, exposing fork, event,
// join, peek and compare on top of the id and event packages' tree
// algebra.
//
// A Stamp is a plain value, not a handle into shared state: every
// operation here returns a new Stamp built from fresh trees (sharing
// unchanged substructure where that's safe, exactly like the id and event
// packages do). Concurrent mutation of a single Stamp is a caller error —
// see spec.md section 5 — but operations on distinct Stamps, or read-only
// operations on the same Stamp, may run in parallel freely.
package stamp

import (
	"github.com/itreeclock/itc/pkg/event"
	"github.com/itreeclock/itc/pkg/id"
	"github.com/itreeclock/itc/pkg/itcerr"
)

// Order is the result of Compare: the causal relationship between two
// Stamps' event histories.
type Order int

const (
	// Concurrent means neither stamp's history happened-before the
	// other's.
	Concurrent Order = iota
	// Equal means both stamps have observed exactly the same events.
	Equal
	// Before means a happened-before b.
	Before
	// After means b happened-before a.
	After
)

func (o Order) String() string {
	switch o {
	case Equal:
		return "EQ"
	case Before:
		return "LT"
	case After:
		return "GT"
	default:
		return "CONCURRENT"
	}
}

// Stamp is the (id, event) pair held by one participant.
type Stamp struct {
	id    *id.Id
	event *event.Event
}

func validateStamp(s *Stamp) error {
	if s == nil || s.id == nil || s.event == nil {
		return itcerr.New(itcerr.CorruptStamp, "stamp has a nil id or event")
	}
	return nil
}

// NewSeed returns the initial stamp: id = leaf 1 (full ownership), event =
// leaf 0 (no history).
func NewSeed() *Stamp {
	return &Stamp{id: id.Seed(), event: event.New()}
}

// NewPeek returns a read-only observer derived from s: id = leaf 0, event
// = a clone of s's history. Advancing a peek stamp with Event is a no-op,
// since it owns no region of the identity interval.
func NewPeek(s *Stamp) (*Stamp, error) {
	if err := validateStamp(s); err != nil {
		return nil, err
	}
	return &Stamp{id: id.Null(), event: event.Clone(s.event)}, nil
}

// Clone returns a deep, independent copy of s.
func Clone(s *Stamp) (*Stamp, error) {
	if err := validateStamp(s); err != nil {
		return nil, err
	}
	return &Stamp{id: id.Clone(s.id), event: event.Clone(s.event)}, nil
}

// Id returns a clone of s's identity share.
func (s *Stamp) Id() *id.Id {
	if s == nil {
		return nil
	}
	return id.Clone(s.id)
}

// Event returns a clone of s's causal history.
func (s *Stamp) Event() *event.Event {
	if s == nil {
		return nil
	}
	return event.Clone(s.event)
}

// Fork splits s into two stamps with disjoint ids and a shared (cloned)
// event history. s is left unchanged.
func Fork(s *Stamp) (*Stamp, *Stamp, error) {
	if err := validateStamp(s); err != nil {
		return nil, nil, err
	}
	i1, i2, err := id.Split(s.id)
	if err != nil {
		return nil, nil, err
	}
	return &Stamp{id: i1, event: event.Clone(s.event)},
		&Stamp{id: i2, event: event.Clone(s.event)},
		nil
}

// Event advances s by inflating its history in the region s's id owns,
// per the "event" operation described in spec.md section 4.2. On a peek
// stamp (id = leaf 0) this is a no-op: there is no owned region to
// inflate, so the same history is returned.
func Event(s *Stamp) (*Stamp, error) {
	if err := validateStamp(s); err != nil {
		return nil, err
	}
	advanced, err := event.Advance(s.event, s.id)
	if err != nil {
		return nil, err
	}
	return &Stamp{id: id.Clone(s.id), event: advanced}, nil
}

// Join merges a and b: the resulting id is the disjoint union of their
// ids (Sum) and the resulting event is the least upper bound of their
// histories (Join). It fails with a CorruptId error if a and b's ids
// overlap.
func Join(a, b *Stamp) (*Stamp, error) {
	if err := validateStamp(a); err != nil {
		return nil, err
	}
	if err := validateStamp(b); err != nil {
		return nil, err
	}
	sumID, err := id.Sum(a.id, b.id)
	if err != nil {
		return nil, err
	}
	joinedEvent, err := event.Join(a.event, b.event)
	if err != nil {
		return nil, err
	}
	return &Stamp{id: sumID, event: joinedEvent}, nil
}

// Compare derives the causal relationship between a and b from their
// event histories alone (a Stamp's id plays no part in causality, only
// in which region future events may be attributed to). It never returns
// an ordering for a corrupt stamp; it returns the error instead.
func Compare(a, b *Stamp) (Order, error) {
	if err := validateStamp(a); err != nil {
		return 0, err
	}
	if err := validateStamp(b); err != nil {
		return 0, err
	}
	aLeqB, err := event.Leq(a.event, b.event)
	if err != nil {
		return 0, err
	}
	bLeqA, err := event.Leq(b.event, a.event)
	if err != nil {
		return 0, err
	}
	switch {
	case aLeqB && bLeqA:
		return Equal, nil
	case aLeqB:
		return Before, nil
	case bLeqA:
		return After, nil
	default:
		return Concurrent, nil
	}
}

// FromDecoded builds a Stamp from an id and event that a decoder has
// already validated. It exists so the serdes package can reconstruct a
// Stamp without going through the gated extended-construction API in
// extended.go: wire deserialization is core functionality (spec.md
// section 4.4 is never gated), whereas FromId/FromParts in extended.go
// are the optional, user-facing "construct a non-standard stamp"
// conveniences spec.md section 4.3 explicitly marks as opt-in. Callers
// outside this module's own packages should not normally need this;
// prefer NewSeed, Fork, Join and the serdes package instead.
func FromDecoded(decodedID *id.Id, decodedEvent *event.Event) (*Stamp, error) {
	s := &Stamp{id: decodedID, event: decodedEvent}
	if err := validateStamp(s); err != nil {
		return nil, err
	}
	return s, nil
}

// String renders s using the id and event packages' compact notations,
// e.g. "id=1 event=0".
func (s *Stamp) String() string {
	if s == nil {
		return "<nil>"
	}
	return "id=" + s.id.String() + " event=" + s.event.String()
}
