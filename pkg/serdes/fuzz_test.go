package serdes

import (
	"testing"

	"github.com/itreeclock/itc/pkg/event"
	"github.com/itreeclock/itc/pkg/id"
	"github.com/itreeclock/itc/pkg/stamp"
)

// FuzzUnmarshalId asserts that a malformed artifact is rejected with an
// error rather than panicking (a corrupt wire artifact is expected,
// untrusted input), and that any artifact it accepts is a valid,
// normalized id.
func FuzzUnmarshalId(f *testing.F) {
	seed, err := MarshalId(id.Seed())
	if err != nil {
		f.Fatal(err)
	}
	f.Add(seed)
	f.Add([]byte{CurrentMajorVersion, idTagInterior, idTagLeafOwned, idTagLeafOwned})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		n, err := UnmarshalId(data)
		if err != nil {
			return
		}
		if err := id.Validate(n, true); err != nil {
			t.Fatalf("UnmarshalId accepted an invalid tree: %v", err)
		}
	})
}

func FuzzUnmarshalEvent(f *testing.F) {
	seed, err := MarshalEvent(event.New())
	if err != nil {
		f.Fatal(err)
	}
	f.Add(seed)
	f.Add([]byte{CurrentMajorVersion, 0x82, 0x00, 0x00})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		e, err := UnmarshalEvent(data)
		if err != nil {
			return
		}
		if err := event.Validate(e); err != nil {
			t.Fatalf("UnmarshalEvent accepted an invalid tree: %v", err)
		}
	})
}

func FuzzUnmarshalStamp(f *testing.F) {
	seed, err := MarshalStamp(stamp.NewSeed())
	if err != nil {
		f.Fatal(err)
	}
	f.Add(seed)
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		// Panicking on malformed input, not just returning an error on it,
		// is the only failure this fuzz target checks for.
		_, _ = UnmarshalStamp(data)
	})
}
