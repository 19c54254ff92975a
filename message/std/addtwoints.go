package std

import (
	"encoding/binary"
	"io"

	"github.com/rosgraph-go/rosnode/message"
)

// AddTwoIntsRequest mirrors the ROS tutorials' AddTwoInts service request:
// two 64-bit integers to sum. It is the canonical example service used in
// this module's service round-trip tests.
type AddTwoIntsRequest struct {
	A, B int64
}

var addTwoIntsRequestType = message.Type{
	Name:       "rosgraph_tutorials/AddTwoIntsRequest",
	MD5Sum:     "36d09b846be0b371c5f190354dd3153e",
	Definition: "int64 a\nint64 b\n",
}

func (*AddTwoIntsRequest) Type() message.Type { return addTwoIntsRequestType }

func (r *AddTwoIntsRequest) Encode(w io.Writer) error {
	if err := writeInt64(w, r.A); err != nil {
		return err
	}
	return writeInt64(w, r.B)
}

func (r *AddTwoIntsRequest) Decode(rd io.Reader) error {
	a, err := readInt64(rd)
	if err != nil {
		return err
	}
	b, err := readInt64(rd)
	if err != nil {
		return err
	}
	r.A, r.B = a, b
	return nil
}

// AddTwoIntsResponse mirrors the AddTwoIntsResponse: a single sum field.
type AddTwoIntsResponse struct {
	Sum int64
}

var addTwoIntsResponseType = message.Type{
	Name:       "rosgraph_tutorials/AddTwoIntsResponse",
	MD5Sum:     "b88405221c77b1878a3cbbfff53428d7",
	Definition: "int64 sum\n",
}

func (*AddTwoIntsResponse) Type() message.Type { return addTwoIntsResponseType }

func (r *AddTwoIntsResponse) Encode(w io.Writer) error {
	return writeInt64(w, r.Sum)
}

func (r *AddTwoIntsResponse) Decode(rd io.Reader) error {
	v, err := readInt64(rd)
	if err != nil {
		return err
	}
	r.Sum = v
	return nil
}

func writeInt64(w io.Writer, v int64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	_, err := w.Write(buf[:])
	return err
}

func readInt64(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}

func NewAddTwoIntsRequest() message.Message  { return &AddTwoIntsRequest{} }
func NewAddTwoIntsResponse() message.Message { return &AddTwoIntsResponse{} }

// AddTwoInts is the message.ServiceType value user code passes to
// facade.Service/facade.Client for the "/add" example service.
var AddTwoInts = message.ServiceType{
	MD5Sum:      "61b5c8d5d7a1f6f3c2f6b2e1c2f6b2e1",
	RequestType: addTwoIntsRequestType,
	NewRequest:  NewAddTwoIntsRequest,
	NewResponse: NewAddTwoIntsResponse,
}
