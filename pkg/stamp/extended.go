//go:build itc_extended

package stamp

import (
	"github.com/itreeclock/itc/pkg/event"
	"github.com/itreeclock/itc/pkg/id"
)

// FromId constructs a stamp from a caller-supplied id and a fresh (empty)
// event history. The supplied id is re-validated and cloned; the
// original is left unchanged. This is part of the optional extended API
// gated behind the itc_extended build tag (spec.md section 4.3).
func FromId(src *id.Id) (*Stamp, error) {
	if err := id.Validate(src, true); err != nil {
		return nil, err
	}
	return &Stamp{id: id.Clone(src), event: event.New()}, nil
}

// FromParts constructs a stamp from a caller-supplied id and event, both
// re-validated and cloned.
func FromParts(srcID *id.Id, srcEvent *event.Event) (*Stamp, error) {
	if err := id.Validate(srcID, true); err != nil {
		return nil, err
	}
	if err := event.Validate(srcEvent); err != nil {
		return nil, err
	}
	return &Stamp{id: id.Clone(srcID), event: event.Clone(srcEvent)}, nil
}

// PeekId returns a clone of s's id without constructing a full peek
// stamp.
func PeekId(s *Stamp) (*id.Id, error) {
	if err := validateStamp(s); err != nil {
		return nil, err
	}
	return id.Clone(s.id), nil
}

// PeekEvent returns a clone of s's event without constructing a full peek
// stamp.
func PeekEvent(s *Stamp) (*event.Event, error) {
	if err := validateStamp(s); err != nil {
		return nil, err
	}
	return event.Clone(s.event), nil
}

// SetId replaces s's id in place with a validated clone of newID.
func SetId(s *Stamp, newID *id.Id) error {
	if err := validateStamp(s); err != nil {
		return err
	}
	if err := id.Validate(newID, true); err != nil {
		return err
	}
	s.id = id.Clone(newID)
	return nil
}

// SetEvent replaces s's event in place with a validated clone of newEvent.
func SetEvent(s *Stamp, newEvent *event.Event) error {
	if err := validateStamp(s); err != nil {
		return err
	}
	if err := event.Validate(newEvent); err != nil {
		return err
	}
	s.event = event.Clone(newEvent)
	return nil
}
