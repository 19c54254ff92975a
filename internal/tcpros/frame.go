package tcpros

import (
	"io"

	"github.com/rosgraph-go/rosnode/message"
)

// WriteFrame writes a single length-prefixed data frame: topic data
// or a service request/response body.
func WriteFrame(w io.Writer, body []byte) error {
	return message.WriteBytes(w, body)
}

// ReadFrame reads a single length-prefixed data frame.
func ReadFrame(r io.Reader) ([]byte, error) {
	return message.ReadBytes(r)
}

// EncodeMessage serializes msg into a single frame body.
func EncodeMessage(msg message.Message) ([]byte, error) {
	var buf writeBuffer
	if err := msg.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.b, nil
}

// writeBuffer is a tiny growable io.Writer; avoids importing bytes.Buffer
// just for Write in the handful of call sites that need raw bytes back.
type writeBuffer struct{ b []byte }

func (w *writeBuffer) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}

// Status bytes for service frames.2 "Service call".
const (
	StatusError   byte = 0
	StatusSuccess byte = 1
)

// WriteStatus writes the single service-response status byte.
func WriteStatus(w io.Writer, ok bool) error {
	b := StatusError
	if ok {
		b = StatusSuccess
	}
	_, err := w.Write([]byte{b})
	return err
}

// ReadStatus reads the single service-response status byte.
func ReadStatus(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, err
	}
	return b[0] == StatusSuccess, nil
}

// ProbePersistent and ProbeOneShot are the optional client-request probe
// byte values for service connection persistence.
const (
	ProbeOneShot    byte = 0
	ProbePersistent byte = 1
)
