package rerr

import (
	"errors"
	"testing"
)

func TestErrorsIsSentinel(t *testing.T) {
	err := New(Timeout, "wait_for_service", errors.New("deadline exceeded"))

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected errors.Is(err, ErrTimeout) to hold")
	}
	if errors.Is(err, ErrProtocol) {
		t.Fatalf("did not expect errors.Is(err, ErrProtocol) to hold")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := New(TransportError, "dial", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected unwrap to reach cause")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		Naming:         "Naming",
		DirectoryError: "DirectoryError",
		Timeout:        "Timeout",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
