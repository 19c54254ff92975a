package tcpros

import (
	"net"

	"github.com/rosgraph-go/rosnode/message"
	"github.com/rosgraph-go/rosnode/rerr"
)

// Conn is an established, handshaken data-plane connection: either a
// subscriber's link to one publisher, or a publisher's link to one
// subscriber, or a service client/server pair. ID is for log/debug
// correlation only; the wire protocol itself carries no connection
// identifier.
type Conn struct {
	ID     ConnID
	Net    net.Conn
	Remote Header
}

func (c *Conn) Close() error { return c.Net.Close() }

// DialSubscriberSide opens the subscriber's half of a topic connection:
// dial, send the initiator header, read and check the responder header.
// Subscribers open these eagerly upon a publisher-update notification.
func DialSubscriberSide(addr, callerID, topic string, t message.Type) (*Conn, error) {
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, rerr.New(rerr.TransportError, "tcpros.dial", err)
	}
	conn, err := topicClientHandshake(nc, callerID, topic, t)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return conn, nil
}

func topicClientHandshake(nc net.Conn, callerID, topic string, t message.Type) (*Conn, error) {
	mine := TopicInitiatorFields(callerID, topic, t, true)
	if err := WriteHeader(nc, mine); err != nil {
		return nil, rerr.New(rerr.TransportError, "tcpros.handshake.write", err)
	}
	theirs, err := ReadHeader(nc)
	if err != nil {
		return nil, rerr.New(rerr.TransportError, "tcpros.handshake.read", err)
	}
	if reason, ok := theirs.Error(); ok {
		return nil, rerr.New(rerr.Protocol, "tcpros.handshake", rejectionError(reason))
	}
	if err := CheckCompatible(mine, theirs); err != nil {
		return nil, rerr.New(rerr.Protocol, "tcpros.handshake", err)
	}
	return &Conn{ID: NewConnID(), Net: nc, Remote: theirs}, nil
}

// AcceptPublisherSide completes the publisher's half of a handshake on an
// already-accepted subscriber connection: read the initiator header, check
// compatibility, and either answer with the responder header or reject.
// On rejection it writes the error field, closes nc itself, and returns a
// non-nil error; the caller must not use nc further either way.
func AcceptPublisherSide(nc net.Conn, callerID string, t message.Type, latching bool) (*Conn, error) {
	theirs, err := ReadHeader(nc)
	if err != nil {
		nc.Close()
		return nil, rerr.New(rerr.TransportError, "tcpros.handshake.read", err)
	}
	mine := TopicResponderFields(callerID, t, latching)
	if err := CheckCompatible(mine, theirs); err != nil {
		RejectHandshake(nc, err.Error())
		nc.Close()
		return nil, rerr.New(rerr.Protocol, "tcpros.handshake", err)
	}
	if err := WriteHeader(nc, mine); err != nil {
		nc.Close()
		return nil, rerr.New(rerr.TransportError, "tcpros.handshake.write", err)
	}
	return &Conn{ID: NewConnID(), Net: nc, Remote: theirs}, nil
}

// DialServiceSide opens a service client's connection: dial, send the
// initiator header, read the responder header (or rejection).
func DialServiceSide(addr, callerID, service string, req message.Type, persistent bool) (*Conn, error) {
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, rerr.New(rerr.TransportError, "tcpros.dial", err)
	}
	mine := ServiceInitiatorFields(callerID, service, req, persistent)
	if err := WriteHeader(nc, mine); err != nil {
		nc.Close()
		return nil, rerr.New(rerr.TransportError, "tcpros.handshake.write", err)
	}
	theirs, err := ReadHeader(nc)
	if err != nil {
		nc.Close()
		return nil, rerr.New(rerr.TransportError, "tcpros.handshake.read", err)
	}
	if reason, ok := theirs.Error(); ok {
		nc.Close()
		return nil, rerr.New(rerr.Protocol, "tcpros.handshake", rejectionError(reason))
	}
	if err := CheckCompatible(mine, theirs); err != nil {
		nc.Close()
		return nil, rerr.New(rerr.Protocol, "tcpros.handshake", err)
	}
	return &Conn{ID: NewConnID(), Net: nc, Remote: theirs}, nil
}

// AcceptServiceSide completes a service server's half of a handshake on an
// already-accepted client connection.
func AcceptServiceSide(nc net.Conn, callerID string, req message.Type) (*Conn, error) {
	theirs, err := ReadHeader(nc)
	if err != nil {
		nc.Close()
		return nil, rerr.New(rerr.TransportError, "tcpros.handshake.read", err)
	}
	mine := ServiceResponderFields(callerID, req)
	if err := CheckCompatible(mine, theirs); err != nil {
		RejectHandshake(nc, err.Error())
		nc.Close()
		return nil, rerr.New(rerr.Protocol, "tcpros.handshake", err)
	}
	if err := WriteHeader(nc, mine); err != nil {
		nc.Close()
		return nil, rerr.New(rerr.TransportError, "tcpros.handshake.write", err)
	}
	return &Conn{ID: NewConnID(), Net: nc, Remote: theirs}, nil
}

type rejectionError string

func (e rejectionError) Error() string { return "peer rejected handshake: " + string(e) }
