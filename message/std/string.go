// Package std holds a couple of hand-written message types equivalent to
// what a .msg/.srv code generator would emit (std_msgs/String, and the
// AddTwoInts example service's request and response), used by this module's
// own tests and suitable as a starting point for user code written before
// a generator exists.
package std

import (
	"io"

	"github.com/rosgraph-go/rosnode/message"
)

// String mirrors std_msgs/String: a single "data" field.
type String struct {
	Data string
}

var stringType = message.Type{
	Name:       "std_msgs/String",
	MD5Sum:     "992ce8a1687cec8c8bd883ec73ca41d1",
	Definition: "string data\n",
}

// Type implements message.Message.
func (*String) Type() message.Type { return stringType }

// Encode implements message.Message.
func (s *String) Encode(w io.Writer) error {
	return message.WriteString(w, s.Data)
}

// Decode implements message.Message.
func (s *String) Decode(r io.Reader) error {
	v, err := message.ReadString(r)
	if err != nil {
		return err
	}
	s.Data = v
	return nil
}

// NewString allocates a zero-valued String for use as a message.NewMessage.
func NewString() message.Message { return &String{} }
