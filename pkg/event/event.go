// Package event implements the Event tree algebra of an Interval Tree
// Clock: a binary tree of monotonic counters encoding a participant's
// causal history.
//
// An Event is either a leaf carrying a counter, or an interior node with
// its own base counter and two children. A child's effective height is
// its own counter plus every ancestor's base counter — the "lift/sink"
// machinery in Normalize, Join and Leq exists entirely to keep that
// effective height consistent as the tree is reshaped.
//
// As with the id package, every exported function treats its arguments as
// immutable and returns freshly built trees; unchanged subtrees may be
// shared between an input and its result (the same structural-sharing
// discipline gaissmai-interval's treap uses for its immutable Insert),
// which is safe here because nothing in this package ever mutates a node
// after it is constructed.
package event

import (
	"strings"

	"github.com/itreeclock/itc/pkg/id"
	"github.com/itreeclock/itc/pkg/itcerr"
)

// growPenalty biases Grow toward whichever branch needs fewer additional
// levels of recursion, without claiming the resulting tree is minimal —
// spec.md's own design notes say the exact constant is unimportant for
// correctness. One unit per level of recursion is enough to prefer a
// shallower grow over a deeper one while never overflowing a uint64 cost
// accumulator in practice.
const growPenalty uint64 = 1 << 20

// Event is a node in the Event tree. The zero value is not valid; use New
// or the output of Clone/Normalize/Join/Fill/Grow.
type Event struct {
	leaf  bool
	count Counter

	left  *Event // meaningful only when leaf is false
	right *Event
}

func leafC(n Counter) *Event {
	return &Event{leaf: true, count: n}
}

func interiorC(n Counter, l, r *Event) *Event {
	return &Event{count: n, left: l, right: r}
}

// New returns the leaf `0`, the event history of a freshly seeded Stamp.
func New() *Event { return leafC(0) }

// Leaf builds a leaf node carrying n. It is a low-level constructor the
// serdes package's decoder uses to rebuild a tree node by node from the
// wire format.
func Leaf(n uint64) *Event { return leafC(Counter(n)) }

// Interior builds an interior node directly from a base counter and two
// already-built children, analogous to Leaf. Ordinary callers building
// new events should go through New, Join, Fill and Grow instead, which
// maintain the normalization discipline this constructor does not.
func Interior(n uint64, l, r *Event) (*Event, error) {
	if l == nil || r == nil {
		return nil, itcerr.New(itcerr.InvalidParam, "nil child passed to Interior")
	}
	return interiorC(Counter(n), l, r), nil
}

// IsLeaf reports whether e is a leaf node.
func (e *Event) IsLeaf() bool { return e != nil && e.leaf }

// Count returns a leaf's counter, or an interior node's base counter.
func (e *Event) Count() uint64 {
	if e == nil {
		return 0
	}
	return uint64(e.count)
}

// Left and Right expose an interior node's children.
func (e *Event) Left() *Event {
	if e == nil || e.leaf {
		return nil
	}
	return e.left
}

func (e *Event) Right() *Event {
	if e == nil || e.leaf {
		return nil
	}
	return e.right
}

// Clone returns a deep, independent copy of e.
func Clone(e *Event) *Event {
	if e == nil {
		return nil
	}
	if e.leaf {
		return leafC(e.count)
	}
	return interiorC(e.count, Clone(e.left), Clone(e.right))
}

// Equal reports whether a and b have the same shape and counters, without
// normalizing first.
func Equal(a, b *Event) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.leaf != b.leaf || a.count != b.count {
		return false
	}
	if a.leaf {
		return true
	}
	return Equal(a.left, b.left) && Equal(a.right, b.right)
}

// Validate checks structural invariant 2 from spec.md section 3: every
// interior node has two non-nil children. Counters are always
// non-negative by construction (Counter is unsigned), so there is
// nothing further to check there.
func Validate(e *Event) error {
	if e == nil {
		return itcerr.New(itcerr.InvalidParam, "nil event")
	}
	return validate(e)
}

func validate(e *Event) error {
	if e.leaf {
		return nil
	}
	if e.left == nil || e.right == nil {
		return itcerr.New(itcerr.CorruptEvent, "interior node with a nil child")
	}
	if err := validate(e.left); err != nil {
		return err
	}
	return validate(e.right)
}

func addChecked(a, b Counter) (Counter, error) {
	sum := a + b
	if sum < a { // wrapped past MaxCounter
		return 0, itcerr.New(itcerr.EventCounterOverflow, "counter addition overflow")
	}
	return sum, nil
}

func subChecked(a, b Counter) (Counter, error) {
	if b > a {
		return 0, itcerr.New(itcerr.EventCounterUnderflow, "counter subtraction underflow")
	}
	return a - b, nil
}

// lift adds d to e's own root counter, leaving its children untouched;
// because a child's effective height is its counter plus every ancestor's
// base, this single addition inflates the whole subtree uniformly.
func lift(e *Event, d Counter) (*Event, error) {
	if d == 0 {
		return e, nil
	}
	nc, err := addChecked(e.count, d)
	if err != nil {
		return nil, err
	}
	if e.leaf {
		return leafC(nc), nil
	}
	return interiorC(nc, e.left, e.right), nil
}

// sink subtracts d from e's own root counter. Callers must only sink by
// an amount already proven not to exceed e's counter (e.g. the minimum
// across siblings computed by Normalize).
func sink(e *Event, d Counter) (*Event, error) {
	if d == 0 {
		return e, nil
	}
	nc, err := subChecked(e.count, d)
	if err != nil {
		return nil, err
	}
	if e.leaf {
		return leafC(nc), nil
	}
	return interiorC(nc, e.left, e.right), nil
}

// promote rewrites a leaf n as the equivalent interior shape (n, 0, 0),
// used wherever an algorithm needs to treat a leaf uniformly with an
// interior node of the same effective history.
func promote(e *Event) *Event {
	return interiorC(e.count, leafC(0), leafC(0))
}

// Normalize reduces e to canonical form: bottom-up, any interior node
// whose children end up equal leaves collapses into a single leaf, and
// any common base shared by both children is lifted into the node's own
// counter. Normalize is idempotent.
func Normalize(e *Event) (*Event, error) {
	if err := Validate(e); err != nil {
		return nil, err
	}
	return normalize(e)
}

func normalize(e *Event) (*Event, error) {
	if e.leaf {
		return leafC(e.count), nil
	}
	l, err := normalize(e.left)
	if err != nil {
		return nil, err
	}
	r, err := normalize(e.right)
	if err != nil {
		return nil, err
	}
	n := e.count

	if l.leaf && r.leaf && l.count == r.count {
		sum, err := addChecked(n, l.count)
		if err != nil {
			return nil, err
		}
		return leafC(sum), nil
	}

	m := l.count
	if r.count < m {
		m = r.count
	}
	if m > 0 {
		n, err = addChecked(n, m)
		if err != nil {
			return nil, err
		}
		l, err = sink(l, m)
		if err != nil {
			return nil, err
		}
		r, err = sink(r, m)
		if err != nil {
			return nil, err
		}
		if l.leaf && r.leaf && l.count == r.count {
			sum, err := addChecked(n, l.count)
			if err != nil {
				return nil, err
			}
			return leafC(sum), nil
		}
	}
	return interiorC(n, l, r), nil
}

// effectiveMax returns the maximum effective height reachable in e: a
// leaf's own counter, or an interior node's counter plus the larger of
// its two children's effective maxima.
func effectiveMax(e *Event) (Counter, error) {
	if e.leaf {
		return e.count, nil
	}
	lm, err := effectiveMax(e.left)
	if err != nil {
		return 0, err
	}
	rm, err := effectiveMax(e.right)
	if err != nil {
		return 0, err
	}
	m := lm
	if rm > m {
		m = rm
	}
	return addChecked(e.count, m)
}

// Maximize collapses e to a single leaf carrying the maximum effective
// height reachable anywhere in e.
func Maximize(e *Event) (*Event, error) {
	if err := Validate(e); err != nil {
		return nil, err
	}
	h, err := effectiveMax(e)
	if err != nil {
		return nil, err
	}
	return leafC(h), nil
}

// Join computes the least upper bound of two causal histories: the
// smallest event that is >= both a and b under Leq. Join is commutative,
// associative and idempotent.
func Join(a, b *Event) (*Event, error) {
	if err := Validate(a); err != nil {
		return nil, err
	}
	if err := Validate(b); err != nil {
		return nil, err
	}
	j, err := join(a, b)
	if err != nil {
		return nil, err
	}
	return normalize(j)
}

func join(a, b *Event) (*Event, error) {
	if a.leaf && b.leaf {
		m := a.count
		if b.count > m {
			m = b.count
		}
		return leafC(m), nil
	}
	if a.leaf {
		a = promote(a)
	}
	if b.leaf {
		b = promote(b)
	}
	if a.count > b.count {
		return join(b, a)
	}
	d := b.count - a.count
	bl, err := lift(b.left, d)
	if err != nil {
		return nil, err
	}
	br, err := lift(b.right, d)
	if err != nil {
		return nil, err
	}
	jl, err := join(a.left, bl)
	if err != nil {
		return nil, err
	}
	jr, err := join(a.right, br)
	if err != nil {
		return nil, err
	}
	return interiorC(a.count, jl, jr), nil
}

// Leq reports whether a happened-before-or-equal b: every event recorded
// in a is also recorded in b.
func Leq(a, b *Event) (bool, error) {
	if err := Validate(a); err != nil {
		return false, err
	}
	if err := Validate(b); err != nil {
		return false, err
	}
	return leq(a, b)
}

func leq(a, b *Event) (bool, error) {
	if a.leaf {
		return a.count <= rootCounter(b), nil
	}
	if b.leaf {
		if a.count > b.count {
			return false, nil
		}
		ll, err := lift(a.left, a.count)
		if err != nil {
			return false, err
		}
		rl, err := lift(a.right, a.count)
		if err != nil {
			return false, err
		}
		leftOK, err := leq(ll, b)
		if err != nil || !leftOK {
			return false, err
		}
		return leq(rl, b)
	}
	if a.count > b.count {
		return false, nil
	}
	ll, err := lift(a.left, a.count)
	if err != nil {
		return false, err
	}
	rl, err := lift(a.right, a.count)
	if err != nil {
		return false, err
	}
	l2l, err := lift(b.left, b.count)
	if err != nil {
		return false, err
	}
	r2l, err := lift(b.right, b.count)
	if err != nil {
		return false, err
	}
	leftOK, err := leq(ll, l2l)
	if err != nil || !leftOK {
		return false, err
	}
	return leq(rl, r2l)
}

func rootCounter(e *Event) Counter { return e.count }

// Fill inflates ev in the region d marks as owned, without growing the
// tree's shape. It reports whether any inflation actually occurred; when
// it did not, the caller should fall back to Grow.
func Fill(ev *Event, d *id.Id) (*Event, bool, error) {
	if err := Validate(ev); err != nil {
		return nil, false, err
	}
	if err := id.Validate(d, true); err != nil {
		return nil, false, err
	}
	return fill(ev, d)
}

func fill(ev *Event, d *id.Id) (*Event, bool, error) {
	if d.IsLeaf() && !d.Owned() {
		// fill(0, e) = e
		return ev, false, nil
	}
	if d.IsLeaf() && d.Owned() {
		// fill(1, e) = max(e); it inflates only when e's normal form is
		// not already that single leaf.
		maxed, err := Maximize(ev)
		if err != nil {
			return nil, false, err
		}
		norm, err := normalize(ev)
		if err != nil {
			return nil, false, err
		}
		return maxed, !Equal(norm, maxed), nil
	}
	if ev.leaf {
		// interior id over a leaf event: nothing left to simplify.
		return ev, false, nil
	}

	left, right := d.Left(), d.Right()
	switch {
	case left.IsLeaf() && left.Owned():
		// fill((1, ir), (n, el, er)) =
		//   norm((n, max(max(el), min(er')), er')), er' = fill(ir, er)
		erPrime, filledRight, err := fill(ev.right, right)
		if err != nil {
			return nil, false, err
		}
		elMaxed, err := Maximize(ev.left)
		if err != nil {
			return nil, false, err
		}
		changedByMax := !ev.left.leaf
		finalLeft := elMaxed.count
		bumped := false
		if finalLeft < erPrime.count {
			finalLeft = erPrime.count
			bumped = true
		}
		normalized, err := normalize(interiorC(ev.count, leafC(finalLeft), erPrime))
		if err != nil {
			return nil, false, err
		}
		return normalized, changedByMax || bumped || filledRight, nil

	case right.IsLeaf() && right.Owned():
		// fill((il, 1), (n, el, er)) =
		//   norm((n, el', max(max(er), min(el')))), el' = fill(il, el)
		elPrime, filledLeft, err := fill(ev.left, left)
		if err != nil {
			return nil, false, err
		}
		erMaxed, err := Maximize(ev.right)
		if err != nil {
			return nil, false, err
		}
		changedByMax := !ev.right.leaf
		finalRight := erMaxed.count
		bumped := false
		if finalRight < elPrime.count {
			finalRight = elPrime.count
			bumped = true
		}
		normalized, err := normalize(interiorC(ev.count, elPrime, leafC(finalRight)))
		if err != nil {
			return nil, false, err
		}
		return normalized, changedByMax || bumped || filledLeft, nil

	default:
		elPrime, filledLeft, err := fill(ev.left, left)
		if err != nil {
			return nil, false, err
		}
		erPrime, filledRight, err := fill(ev.right, right)
		if err != nil {
			return nil, false, err
		}
		normalized, err := normalize(interiorC(ev.count, elPrime, erPrime))
		if err != nil {
			return nil, false, err
		}
		return normalized, filledLeft || filledRight, nil
	}
}

// Grow extends ev's shape by exactly one new event, used when Fill could
// not advance because d owns no leaf-1 region that helps. It returns the
// new event and an implementation-defined, non-minimal cost used only to
// choose between two otherwise-equal branches.
func Grow(ev *Event, d *id.Id) (*Event, uint64, error) {
	if err := Validate(ev); err != nil {
		return nil, 0, err
	}
	if err := id.Validate(d, true); err != nil {
		return nil, 0, err
	}
	return grow(ev, d)
}

func grow(ev *Event, d *id.Id) (*Event, uint64, error) {
	if d.IsLeaf() {
		if !d.Owned() {
			return nil, 0, itcerr.New(itcerr.InvalidParam, "grow called against a null id region")
		}
		if ev.leaf {
			nc, err := addChecked(ev.count, 1)
			if err != nil {
				return nil, 0, err
			}
			return leafC(nc), 0, nil
		}
		// Unreachable given the fill-first contract: a seed id region
		// whose event is still an interior node implies fill would have
		// maximized it already. Handled defensively rather than
		// panicking, so a caller that skips Fill still gets a sound
		// (if not minimal) result.
		h, err := effectiveMax(ev)
		if err != nil {
			return nil, 0, err
		}
		nc, err := addChecked(h, 1)
		if err != nil {
			return nil, 0, err
		}
		return leafC(nc), 0, nil
	}

	if ev.leaf {
		return grow(promote(ev), d)
	}

	leftNull := d.Left().IsLeaf() && !d.Left().Owned()
	rightNull := d.Right().IsLeaf() && !d.Right().Owned()
	if leftNull && rightNull {
		return nil, 0, itcerr.New(itcerr.CorruptId, "interior id with both children null")
	}

	type candidate struct {
		event *Event
		cost  uint64
		left  bool
	}
	var candidates []candidate

	if !leftNull {
		le, lc, err := grow(ev.left, d.Left())
		if err != nil {
			return nil, 0, err
		}
		candidates = append(candidates, candidate{le, lc + growPenalty, true})
	}
	if !rightNull {
		re, rc, err := grow(ev.right, d.Right())
		if err != nil {
			return nil, 0, err
		}
		candidates = append(candidates, candidate{re, rc + growPenalty, false})
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.cost < best.cost {
			best = c
		}
	}

	var newEvent *Event
	if best.left {
		newEvent = interiorC(ev.count, best.event, ev.right)
	} else {
		newEvent = interiorC(ev.count, ev.left, best.event)
	}
	normalized, err := normalize(newEvent)
	if err != nil {
		return nil, 0, err
	}
	return normalized, best.cost, nil
}

// Advance is the public "event" operation from spec.md section 4.2: it
// tries Fill, and only invokes Grow when Fill made no progress. The
// result always strictly dominates the input: Leq(old, new) holds and
// Leq(new, old) does not, except when d owns nothing at all (a peek's
// null id), in which case Advance is a no-op and returns ev unchanged.
func Advance(ev *Event, d *id.Id) (*Event, error) {
	if d.IsLeaf() && !d.Owned() {
		return ev, nil
	}
	afterFill, didFill, err := Fill(ev, d)
	if err != nil {
		return nil, err
	}
	if !didFill {
		afterFill, _, err = Grow(afterFill, d)
		if err != nil {
			return nil, err
		}
	}
	return afterFill, nil
}

// String renders e in the compact notation used by spec.md's scenario
// tables: a bare integer for a leaf, or "(n,left,right)" for an interior
// node.
func (e *Event) String() string {
	if e == nil {
		return "<nil>"
	}
	if e.leaf {
		return itoa(uint64(e.count))
	}
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(itoa(uint64(e.count)))
	b.WriteByte(',')
	b.WriteString(e.left.String())
	b.WriteByte(',')
	b.WriteString(e.right.String())
	b.WriteByte(')')
	return b.String()
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
