// Package tcpros implements the peer-to-peer streaming protocol this
// module calls "TCPROS": header exchange, compatibility negotiation, and
// framing for both topic data and service request/response traffic. The
// framing idiom (length-prefixed blocks) follows the shape of a
// control-message codec, with a wire format fixed by the protocol, not
// invented here.
package tcpros

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rosgraph-go/rosnode/message"
)

// Header is a set of key=value fields exchanged at connection start.
type Header map[string]string

// WriteHeader encodes fields as a 4-byte little-endian length L,
// followed by L bytes containing the concatenation of per-field
// length-prefixed "key=value" blocks.
func WriteHeader(w io.Writer, h Header) error {
	var body bytes.Buffer
	// Deterministic field order makes header round-trip tests and wire
	// captures reproducible; the protocol itself does not require it.
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		field := k + "=" + h[k]
		if err := message.WriteString(&body, field); err != nil {
			return err
		}
	}
	return message.WriteBytes(w, body.Bytes())
}

// ReadHeader decodes a header block written by WriteHeader.
func ReadHeader(r io.Reader) (Header, error) {
	body, err := message.ReadBytes(r)
	if err != nil {
		return nil, err
	}
	buf := bytes.NewReader(body)
	h := make(Header)
	for buf.Len() > 0 {
		field, err := message.ReadString(buf)
		if err != nil {
			return nil, fmt.Errorf("tcpros: malformed header field: %w", err)
		}
		kv := strings.SplitN(field, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("tcpros: header field missing '=': %q", field)
		}
		h[kv[0]] = kv[1]
	}
	return h, nil
}

// Get returns a field's value and whether it was present.
func (h Header) Get(key string) (string, bool) {
	v, ok := h[key]
	return v, ok
}

// Error, if present, is the responder's handshake-rejection field.
func (h Header) Error() (string, bool) {
	return h.Get("error")
}
