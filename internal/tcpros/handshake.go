package tcpros

import (
	"fmt"
	"io"

	"github.com/pborman/uuid"
	"github.com/rosgraph-go/rosnode/message"
)

// ConnID is a per-connection identifier. The wire protocol carries no such
// ID; it exists so the debug feed (internal/slave/debug) and logs can
// correlate a handshake's open and close events with the same socket.
type ConnID string

// NewConnID mints a fresh, process-unique connection identifier.
func NewConnID() ConnID { return ConnID(uuid.NewUUID().String()) }

// TopicInitiatorFields builds the initiator's header for a topic
// connection (subscriber dialing a publisher).
func TopicInitiatorFields(callerID, topic string, t message.Type, tcpNoDelay bool) Header {
	h := Header{
		"callerid": callerID,
		"topic":    topic,
		"type":     t.Name,
		"md5sum":   t.MD5Sum,
	}
	if tcpNoDelay {
		h["tcp_nodelay"] = "1"
	}
	return h
}

// TopicResponderFields builds the responder's header for a topic
// connection (publisher answering a subscriber).
func TopicResponderFields(callerID string, t message.Type, latching bool) Header {
	h := Header{
		"callerid":           callerID,
		"type":               t.Name,
		"md5sum":             t.MD5Sum,
		"message_definition": t.Definition,
	}
	if latching {
		h["latching"] = "1"
	}
	return h
}

// ServiceInitiatorFields builds the initiator's header for a service
// connection (client dialing a server).
func ServiceInitiatorFields(callerID, service string, req message.Type, persistent bool) Header {
	h := Header{
		"callerid": callerID,
		"service":  service,
		"type":     req.Name,
		"md5sum":   req.MD5Sum,
	}
	if persistent {
		h["persistent"] = "1"
	}
	return h
}

// ServiceResponderFields builds the responder's header for a service
// connection.
func ServiceResponderFields(callerID string, req message.Type) Header {
	return Header{
		"callerid": callerID,
		"type":     req.Name,
		"md5sum":   req.MD5Sum,
	}
}

// CheckCompatible enforces the handshake compatibility check: md5sum
// equality is required unless either side sent "*"; type must also match
// unless either side sent "*".
func CheckCompatible(mine, theirs Header) error {
	if mismatch(mine["md5sum"], theirs["md5sum"]) {
		return fmt.Errorf("tcpros: md5sum mismatch: %s != %s", mine["md5sum"], theirs["md5sum"])
	}
	if mismatch(mine["type"], theirs["type"]) {
		return fmt.Errorf("tcpros: type mismatch: %s != %s", mine["type"], theirs["type"])
	}
	return nil
}

func mismatch(a, b string) bool {
	if a == "*" || b == "*" {
		return false
	}
	return a != b
}

// RejectHandshake sends the single "error=<reason>" header field in
// place of a normal responder header. The caller closes the connection
// immediately afterward.
func RejectHandshake(w io.Writer, reason string) error {
	return WriteHeader(w, Header{"error": reason})
}
