package std

import (
	"bytes"
	"testing"
)

// Message round-trip: for every
// generated type T and value v, decode(encode(v)) == v.
func TestStringRoundTrip(t *testing.T) {
	cases := []string{"", "hello", "with spaces and\nnewlines", "unicode: éè"}
	for _, data := range cases {
		var buf bytes.Buffer
		in := &String{Data: data}
		if err := in.Encode(&buf); err != nil {
			t.Fatalf("Encode(%q): %v", data, err)
		}
		out := &String{}
		if err := out.Decode(&buf); err != nil {
			t.Fatalf("Decode(%q): %v", data, err)
		}
		if out.Data != in.Data {
			t.Errorf("round trip mismatch: got %q, want %q", out.Data, in.Data)
		}
	}
}

func TestAddTwoIntsRoundTrip(t *testing.T) {
	cases := []struct{ a, b int64 }{
		{0, 0},
		{3, 4},
		{-1, 1},
		{1 << 40, -(1 << 40)},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		req := &AddTwoIntsRequest{A: c.a, B: c.b}
		if err := req.Encode(&buf); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		got := &AddTwoIntsRequest{}
		if err := got.Decode(&buf); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got.A != c.a || got.B != c.b {
			t.Errorf("round trip mismatch: got (%d,%d), want (%d,%d)", got.A, got.B, c.a, c.b)
		}
	}
}
