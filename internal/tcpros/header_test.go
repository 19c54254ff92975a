package tcpros

import (
	"bytes"
	"testing"
)

// Header round-trip: encoding a set
// of fields then decoding reproduces the same mapping.
func TestHeaderRoundTrip(t *testing.T) {
	cases := []Header{
		{},
		{"callerid": "/talker"},
		{
			"callerid": "/talker",
			"topic":    "/chatter",
			"type":     "std_msgs/String",
			"md5sum":   "992ce8a1687cec8c8bd883ec73ca41d1",
		},
	}
	for _, h := range cases {
		var buf bytes.Buffer
		if err := WriteHeader(&buf, h); err != nil {
			t.Fatalf("WriteHeader: %v", err)
		}
		got, err := ReadHeader(&buf)
		if err != nil {
			t.Fatalf("ReadHeader: %v", err)
		}
		if len(got) != len(h) {
			t.Fatalf("field count mismatch: got %d, want %d", len(got), len(h))
		}
		for k, v := range h {
			if got[k] != v {
				t.Errorf("field %q: got %q, want %q", k, got[k], v)
			}
		}
	}
}

func TestCheckCompatible(t *testing.T) {
	tests := []struct {
		name    string
		mine    Header
		theirs  Header
		wantErr bool
	}{
		{"exact match", Header{"md5sum": "aaa", "type": "Foo"}, Header{"md5sum": "aaa", "type": "Foo"}, false},
		{"md5 mismatch", Header{"md5sum": "aaa", "type": "Foo"}, Header{"md5sum": "bbb", "type": "Foo"}, true},
		{"type mismatch", Header{"md5sum": "aaa", "type": "Foo"}, Header{"md5sum": "aaa", "type": "Bar"}, true},
		{"wildcard md5 accepts", Header{"md5sum": "*", "type": "Foo"}, Header{"md5sum": "bbb", "type": "Foo"}, false},
		{"wildcard type accepts", Header{"md5sum": "aaa", "type": "*"}, Header{"md5sum": "aaa", "type": "Bar"}, false},
	}
	for _, tc := range tests {
		err := CheckCompatible(tc.mine, tc.theirs)
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: CheckCompatible() error = %v, wantErr %v", tc.name, err, tc.wantErr)
		}
	}
}
