package message

import (
	"encoding/binary"
	"io"
)

// The helpers below are the primitive encoders/decoders used
// for message bodies: little-endian fixed-width fields and
// length-prefixed strings/arrays. Generated message types compose these;
// they are exported so hand-written Message implementations (this
// module's tests, or user code working against an ad-hoc type before
// codegen exists) can use them directly instead of re-deriving the wire
// format.

// WriteUint32 writes v as a 4-byte little-endian field.
func WriteUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadUint32 reads a 4-byte little-endian field.
func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// WriteString writes s as a length-prefixed UTF-8 field.
func WriteString(w io.Writer, s string) error {
	if err := WriteUint32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadString reads a length-prefixed UTF-8 field.
func ReadString(r io.Reader) (string, error) {
	n, err := ReadUint32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteBytes writes a length-prefixed raw byte array.
func WriteBytes(w io.Writer, b []byte) error {
	if err := WriteUint32(w, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadBytes reads a length-prefixed raw byte array.
func ReadBytes(r io.Reader) ([]byte, error) {
	n, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
