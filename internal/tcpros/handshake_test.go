package tcpros

import (
	"net"
	"testing"

	"github.com/rosgraph-go/rosnode/message"
)

// Handshake rejection: a subscriber claiming a
// mismatched md5sum gets an error= header and the connection closes; the
// publisher side reports a Protocol error rather than panicking or
// hanging.
func TestHandshakeRejectsMD5Mismatch(t *testing.T) {
	server, client := net.Pipe()
	fooType := message.Type{Name: "Foo", MD5Sum: "aaa", Definition: "int32 x\n"}

	serverErrCh := make(chan error, 1)
	go func() {
		_, err := AcceptPublisherSide(server, "/talker", fooType, false)
		serverErrCh <- err
	}()

	_, clientErr := topicClientHandshake(client, "/listener", "/chatter", message.Type{Name: "Foo", MD5Sum: "bbb"})
	if clientErr == nil {
		t.Fatal("expected client handshake to fail on md5 mismatch")
	}

	if serverErr := <-serverErrCh; serverErr == nil {
		t.Fatal("expected server handshake to report the mismatch too")
	}
}

func TestHandshakeSucceedsOnMatch(t *testing.T) {
	server, client := net.Pipe()
	fooType := message.Type{Name: "Foo", MD5Sum: "aaa", Definition: "int32 x\n"}

	serverConnCh := make(chan *Conn, 1)
	serverErrCh := make(chan error, 1)
	go func() {
		c, err := AcceptPublisherSide(server, "/talker", fooType, false)
		serverConnCh <- c
		serverErrCh <- err
	}()

	clientConn, err := topicClientHandshake(client, "/listener", "/chatter", fooType)
	if err != nil {
		t.Fatalf("client handshake: %v", err)
	}
	if err := <-serverErrCh; err != nil {
		t.Fatalf("server handshake: %v", err)
	}
	serverConn := <-serverConnCh
	if serverConn == nil || clientConn == nil {
		t.Fatal("expected both sides to return a connection")
	}
}
