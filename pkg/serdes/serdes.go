// Package serdes implements the compact, self-describing binary codec for
// Id, Event and Stamp values described in spec.md section 4.4.
//
// Every artifact (a standalone Id, a standalone Event, or a Stamp) begins
// with a single version byte; decoders reject a mismatched major version
// with SerdesIncompatibleLibVersion before attempting to parse anything
// else. There are no magic bytes, checksums or length framing beyond
// what each artifact's own shape requires — the version tag is the only
// compatibility control, per spec.md section 6.
//
// Two API layers are exposed, mirroring the teacher's pkg/cowbtree
// adapter (a fixed-header binary layout) combined with its
// pkg/encoding varint helpers:
//
//   - EncodeId/EncodeEvent/EncodeStamp write into a caller-supplied
//     buffer and report InsufficientResources on overflow, the literal
//     realization of spec.md's buffer-capacity contract.
//   - MarshalId/MarshalEvent/MarshalStamp (and Unmarshal*) are
//     convenience wrappers that size the payload and pull the scratch
//     buffer from an alloc.Allocator (alloc.NewDefault() unless a
//     *With variant is given one explicitly) before delegating to the
//     Encode* functions above — the one place in this module where the
//     pluggable allocator from spec.md section 5 is actually exercised.
package serdes

import (
	"github.com/itreeclock/itc/internal/varint"
	"github.com/itreeclock/itc/pkg/alloc"
	"github.com/itreeclock/itc/pkg/event"
	"github.com/itreeclock/itc/pkg/id"
	"github.com/itreeclock/itc/pkg/itcerr"
	"github.com/itreeclock/itc/pkg/stamp"
)

// CurrentMajorVersion is the single compatibility control for the wire
// format. Bumping it is a breaking change; decoders built against an
// older CurrentMajorVersion reject artifacts produced by a newer one and
// vice versa.
const CurrentMajorVersion byte = 1

// Id tag bytes: one per node, distinguishing the three shapes spec.md
// section 4.4 names.
const (
	idTagLeafUnowned byte = 0x00
	idTagLeafOwned   byte = 0x01
	idTagInterior    byte = 0x02
)

// Event header byte layout: bit 7 flags an interior node, the low 7 bits
// carry the counter's big-endian byte length (0 means "counter = 0").
const (
	eventInteriorFlag byte = 0x80
	eventLenMask      byte = 0x7F
)

// maxLengthLen is the widest length-length the Stamp header allows
// (spec.md: "at most the width of a 32-bit length").
const maxLengthLen = 4

// ---- Id -------------------------------------------------------------

// idEncodedLen returns the number of bytes EncodeId would write for n,
// without writing anything.
func idEncodedLen(n *id.Id) int {
	if n.IsLeaf() {
		return 1
	}
	return 1 + idEncodedLen(n.Left()) + idEncodedLen(n.Right())
}

// EncodeId writes n's raw tree encoding (no version byte) into dst and
// returns the number of bytes written. n must already be normalized; use
// id.Normalize first if it might not be.
func EncodeId(dst []byte, n *id.Id) (int, error) {
	if err := id.Validate(n, true); err != nil {
		return 0, err
	}
	need := idEncodedLen(n)
	if len(dst) < need {
		return 0, itcerr.Newf(itcerr.InsufficientResources, "id encoding needs %d bytes, have %d", need, len(dst))
	}
	w := encodeIdInto(dst, n)
	return w, nil
}

func encodeIdInto(dst []byte, n *id.Id) int {
	if n.IsLeaf() {
		if n.Owned() {
			dst[0] = idTagLeafOwned
		} else {
			dst[0] = idTagLeafUnowned
		}
		return 1
	}
	dst[0] = idTagInterior
	w := 1
	w += encodeIdInto(dst[w:], n.Left())
	w += encodeIdInto(dst[w:], n.Right())
	return w
}

// DecodeId parses a raw Id tree encoding (no version byte) from the
// front of src and returns the decoded Id along with the number of bytes
// consumed. It does not itself enforce normalization; callers that need
// that (every top-level decoder in this package does) call id.Validate
// afterwards.
func DecodeId(src []byte) (*id.Id, int, error) {
	if len(src) == 0 {
		return nil, 0, itcerr.New(itcerr.CorruptId, "truncated id encoding")
	}
	switch src[0] {
	case idTagLeafUnowned:
		return id.Null(), 1, nil
	case idTagLeafOwned:
		return id.Seed(), 1, nil
	case idTagInterior:
		left, ln, err := DecodeId(src[1:])
		if err != nil {
			return nil, 0, err
		}
		right, rn, err := DecodeId(src[1+ln:])
		if err != nil {
			return nil, 0, err
		}
		interior, err := id.NewInterior(left, right)
		if err != nil {
			return nil, 0, err
		}
		return interior, 1 + ln + rn, nil
	default:
		return nil, 0, itcerr.Newf(itcerr.CorruptId, "unknown id tag byte 0x%02x", src[0])
	}
}

// MarshalId encodes n (version byte then tree) into a freshly allocated
// buffer, obtained from alloc.NewDefault().
func MarshalId(n *id.Id) ([]byte, error) {
	return MarshalIdWith(alloc.NewDefault(), n)
}

// MarshalIdWith is MarshalId with an explicit allocator for the output
// buffer.
func MarshalIdWith(a alloc.Allocator, n *id.Id) ([]byte, error) {
	if err := id.Validate(n, true); err != nil {
		return nil, err
	}
	buf, err := a.Allocate(1 + idEncodedLen(n))
	if err != nil {
		return nil, err
	}
	buf[0] = CurrentMajorVersion
	encodeIdInto(buf[1:], n)
	return buf, nil
}

// UnmarshalId decodes a complete, version-tagged Id artifact. It rejects
// a version mismatch, a malformed tree, a non-normalized tree, and any
// trailing bytes after the tree.
func UnmarshalId(src []byte) (*id.Id, error) {
	if len(src) < 1 {
		return nil, itcerr.New(itcerr.InvalidParam, "empty id artifact")
	}
	if src[0] != CurrentMajorVersion {
		return nil, itcerr.Newf(itcerr.SerdesIncompatibleLibVersion, "id artifact version %d, library version %d", src[0], CurrentMajorVersion)
	}
	n, consumed, err := DecodeId(src[1:])
	if err != nil {
		return nil, err
	}
	if 1+consumed != len(src) {
		return nil, itcerr.New(itcerr.InvalidParam, "trailing bytes after id artifact")
	}
	if err := id.Validate(n, true); err != nil {
		return nil, err
	}
	return n, nil
}

// ---- Event ------------------------------------------------------------

func eventEncodedLen(e *event.Event) int {
	n := 1 + varint.ByteLen(e.Count())
	if !e.IsLeaf() {
		n += eventEncodedLen(e.Left()) + eventEncodedLen(e.Right())
	}
	return n
}

// EncodeEvent writes e's raw tree encoding (no version byte) into dst.
func EncodeEvent(dst []byte, e *event.Event) (int, error) {
	if err := event.Validate(e); err != nil {
		return 0, err
	}
	need := eventEncodedLen(e)
	if len(dst) < need {
		return 0, itcerr.Newf(itcerr.InsufficientResources, "event encoding needs %d bytes, have %d", need, len(dst))
	}
	return encodeEventInto(dst, e), nil
}

func encodeEventInto(dst []byte, e *event.Event) int {
	count := e.Count()
	n := varint.ByteLen(count)
	var header byte = byte(n)
	if !e.IsLeaf() {
		header |= eventInteriorFlag
	}
	dst[0] = header
	w := 1
	if n > 0 {
		varint.Put(dst[w:w+n], count, n)
		w += n
	}
	if !e.IsLeaf() {
		w += encodeEventInto(dst[w:], e.Left())
		w += encodeEventInto(dst[w:], e.Right())
	}
	return w
}

// DecodeEvent parses a raw Event tree encoding (no version byte) from the
// front of src.
func DecodeEvent(src []byte) (*event.Event, int, error) {
	if len(src) == 0 {
		return nil, 0, itcerr.New(itcerr.CorruptEvent, "truncated event encoding")
	}
	header := src[0]
	isInterior := header&eventInteriorFlag != 0
	counterLen := int(header & eventLenMask)
	if counterLen > event.CounterByteWidth {
		return nil, 0, itcerr.Newf(itcerr.EventUnsupportedCounterSize, "counter byte length %d exceeds supported width %d", counterLen, event.CounterByteWidth)
	}
	if len(src) < 1+counterLen {
		return nil, 0, itcerr.New(itcerr.CorruptEvent, "truncated event counter")
	}
	count := varint.Get(src[1:1+counterLen], counterLen)
	offset := 1 + counterLen

	if !isInterior {
		return event.Leaf(count), offset, nil
	}

	left, ln, err := DecodeEvent(src[offset:])
	if err != nil {
		return nil, 0, err
	}
	offset += ln
	right, rn, err := DecodeEvent(src[offset:])
	if err != nil {
		return nil, 0, err
	}
	offset += rn
	n, err := event.Interior(count, left, right)
	if err != nil {
		return nil, 0, err
	}
	return n, offset, nil
}

// MarshalEvent encodes e (version byte then tree) into a freshly
// allocated buffer, obtained from alloc.NewDefault().
func MarshalEvent(e *event.Event) ([]byte, error) {
	return MarshalEventWith(alloc.NewDefault(), e)
}

// MarshalEventWith is MarshalEvent with an explicit allocator for the
// output buffer.
func MarshalEventWith(a alloc.Allocator, e *event.Event) ([]byte, error) {
	if err := event.Validate(e); err != nil {
		return nil, err
	}
	buf, err := a.Allocate(1 + eventEncodedLen(e))
	if err != nil {
		return nil, err
	}
	buf[0] = CurrentMajorVersion
	encodeEventInto(buf[1:], e)
	return buf, nil
}

// UnmarshalEvent decodes a complete, version-tagged Event artifact. The
// decoded tree is validated structurally but, per spec.md section 4.4,
// is not required to already be normalized (a tolerant receiver).
func UnmarshalEvent(src []byte) (*event.Event, error) {
	if len(src) < 1 {
		return nil, itcerr.New(itcerr.InvalidParam, "empty event artifact")
	}
	if src[0] != CurrentMajorVersion {
		return nil, itcerr.Newf(itcerr.SerdesIncompatibleLibVersion, "event artifact version %d, library version %d", src[0], CurrentMajorVersion)
	}
	e, consumed, err := DecodeEvent(src[1:])
	if err != nil {
		return nil, err
	}
	if 1+consumed != len(src) {
		return nil, itcerr.New(itcerr.InvalidParam, "trailing bytes after event artifact")
	}
	if err := event.Validate(e); err != nil {
		return nil, err
	}
	return e, nil
}

// ---- Stamp --------------------------------------------------------

func idPayload(s *stamp.Stamp) ([]byte, error) {
	i := s.Id()
	buf := make([]byte, idEncodedLen(i))
	if _, err := EncodeId(buf, i); err != nil {
		return nil, err
	}
	return buf, nil
}

func eventPayload(s *stamp.Stamp) ([]byte, error) {
	e := s.Event()
	buf := make([]byte, eventEncodedLen(e))
	if _, err := EncodeEvent(buf, e); err != nil {
		return nil, err
	}
	return buf, nil
}

// writeStamp lays out the version byte, the combined length-length
// header and the two sub-payloads into dst, given payloads already
// computed by the caller. Both EncodeStamp and MarshalStamp funnel
// through it so the payloads are only ever encoded once.
func writeStamp(dst, idBytes, eventBytes []byte) (int, error) {
	idLL := varint.ByteLen(uint64(len(idBytes)))
	eventLL := varint.ByteLen(uint64(len(eventBytes)))
	if idLL > maxLengthLen || eventLL > maxLengthLen {
		return 0, itcerr.New(itcerr.InvalidParam, "stamp payload too large to encode its length")
	}

	need := 2 + idLL + len(idBytes) + eventLL + len(eventBytes)
	if len(dst) < need {
		return 0, itcerr.Newf(itcerr.InsufficientResources, "stamp encoding needs %d bytes, have %d", need, len(dst))
	}

	dst[0] = CurrentMajorVersion
	dst[1] = byte(idLL<<4) | byte(eventLL)
	w := 2
	varint.Put(dst[w:w+idLL], uint64(len(idBytes)), idLL)
	w += idLL
	w += copy(dst[w:], idBytes)
	varint.Put(dst[w:w+eventLL], uint64(len(eventBytes)), eventLL)
	w += eventLL
	w += copy(dst[w:], eventBytes)
	return w, nil
}

// EncodeStamp writes a version byte, the combined length-length header,
// and the id/event sub-payloads into dst.
func EncodeStamp(dst []byte, s *stamp.Stamp) (int, error) {
	idBytes, err := idPayload(s)
	if err != nil {
		return 0, err
	}
	eventBytes, err := eventPayload(s)
	if err != nil {
		return 0, err
	}
	return writeStamp(dst, idBytes, eventBytes)
}

// MarshalStamp encodes s into a freshly allocated buffer, obtained from
// alloc.NewDefault().
func MarshalStamp(s *stamp.Stamp) ([]byte, error) {
	return MarshalStampWith(alloc.NewDefault(), s)
}

// MarshalStampWith is MarshalStamp with an explicit allocator for the
// output buffer. This is the one marshal entry point most likely to be
// called on a hot path (a Stamp is what participants exchange), so it is
// the one spec.md section 5's pluggable Allocator exists to let a caller
// route through an arena or a pool instead of the garbage collector.
func MarshalStampWith(a alloc.Allocator, s *stamp.Stamp) ([]byte, error) {
	idBytes, err := idPayload(s)
	if err != nil {
		return nil, err
	}
	eventBytes, err := eventPayload(s)
	if err != nil {
		return nil, err
	}
	idLL := varint.ByteLen(uint64(len(idBytes)))
	eventLL := varint.ByteLen(uint64(len(eventBytes)))
	buf, err := a.Allocate(2 + idLL + len(idBytes) + eventLL + len(eventBytes))
	if err != nil {
		return nil, err
	}
	if _, err := writeStamp(buf, idBytes, eventBytes); err != nil {
		return nil, err
	}
	return buf, nil
}

// UnmarshalStamp decodes a complete, version-tagged Stamp artifact.
func UnmarshalStamp(src []byte) (*stamp.Stamp, error) {
	if len(src) < 2 {
		return nil, itcerr.New(itcerr.InvalidParam, "stamp artifact shorter than its header")
	}
	if src[0] != CurrentMajorVersion {
		return nil, itcerr.Newf(itcerr.SerdesIncompatibleLibVersion, "stamp artifact version %d, library version %d", src[0], CurrentMajorVersion)
	}
	header := src[1]
	idLL := int(header >> 4)
	eventLL := int(header & 0x0F)
	if idLL > maxLengthLen || eventLL > maxLengthLen {
		return nil, itcerr.New(itcerr.InvalidParam, "stamp header names an oversized length-length")
	}

	offset := 2
	if len(src) < offset+idLL {
		return nil, itcerr.New(itcerr.InvalidParam, "truncated stamp id length")
	}
	idPayloadLen := int(varint.Get(src[offset:offset+idLL], idLL))
	offset += idLL
	if len(src) < offset+idPayloadLen {
		return nil, itcerr.New(itcerr.InvalidParam, "truncated stamp id payload")
	}
	decodedID, idConsumed, err := DecodeId(src[offset : offset+idPayloadLen])
	if err != nil {
		return nil, err
	}
	if idConsumed != idPayloadLen {
		return nil, itcerr.New(itcerr.CorruptId, "trailing bytes inside stamp id payload")
	}
	if err := id.Validate(decodedID, true); err != nil {
		return nil, err
	}
	offset += idPayloadLen

	if len(src) < offset+eventLL {
		return nil, itcerr.New(itcerr.InvalidParam, "truncated stamp event length")
	}
	eventPayloadLen := int(varint.Get(src[offset:offset+eventLL], eventLL))
	offset += eventLL
	if len(src) < offset+eventPayloadLen {
		return nil, itcerr.New(itcerr.InvalidParam, "truncated stamp event payload")
	}
	decodedEvent, eventConsumed, err := DecodeEvent(src[offset : offset+eventPayloadLen])
	if err != nil {
		return nil, err
	}
	if eventConsumed != eventPayloadLen {
		return nil, itcerr.New(itcerr.CorruptEvent, "trailing bytes inside stamp event payload")
	}
	if err := event.Validate(decodedEvent); err != nil {
		return nil, err
	}
	offset += eventPayloadLen

	if offset != len(src) {
		return nil, itcerr.New(itcerr.InvalidParam, "trailing bytes after stamp artifact")
	}

	return stamp.FromDecoded(decodedID, decodedEvent)
}
