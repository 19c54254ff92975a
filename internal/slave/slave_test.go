package slave

import (
	"fmt"
	"testing"
	"time"

	"github.com/rosgraph-go/rosnode/internal/logging"
	"github.com/rosgraph-go/rosnode/internal/tcpros"
	"github.com/rosgraph-go/rosnode/message"
	"github.com/rosgraph-go/rosnode/message/std"
)

func newTestSlave(t *testing.T, name string) *Slave {
	t.Helper()
	s, err := New("127.0.0.1", "http://localhost:11311/", nil, name, logging.Nop, nil)
	if err != nil {
		t.Fatalf("slave.New: %v", err)
	}
	t.Cleanup(s.Shutdown)
	return s
}

// TestPublishSubscribeSingleProcess covers single-process publish/subscribe: a
// publication's Send is observed exactly once by a directly-dialed
// subscriber stream, through the real listener and broadcast-queue path.
func TestPublishSubscribeSingleProcess(t *testing.T) {
	s := newTestSlave(t, "/talker")
	stringType := (&std.String{}).Type()

	pub, err := s.AddPublication("127.0.0.1", "/chatter", stringType)
	if err != nil {
		t.Fatalf("AddPublication: %v", err)
	}

	addr := fmt.Sprintf("127.0.0.1:%d", pub.Port())
	conn, err := tcpros.DialSubscriberSide(addr, "/listener", "/chatter", stringType)
	if err != nil {
		t.Fatalf("DialSubscriberSide: %v", err)
	}
	defer conn.Close()

	// Give the publication's accept loop a moment to register the stream.
	deadline := time.Now().Add(time.Second)
	for pub.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if pub.SubscriberCount() != 1 {
		t.Fatalf("expected 1 connected subscriber, got %d", pub.SubscriberCount())
	}

	if err := pub.Send(&std.String{Data: "hello"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	body, err := tcpros.ReadFrame(conn.Net)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	got := &std.String{}
	if err := got.Decode(bytesReader(body)); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Data != "hello" {
		t.Errorf("got %q, want %q", got.Data, "hello")
	}
}

// TestServiceRoundTrip covers a service offer/call round trip.
func TestServiceRoundTrip(t *testing.T) {
	s := newTestSlave(t, "/adder")
	srv, err := s.AddService("127.0.0.1", "/add", std.AddTwoInts, func(req message.Message) (message.Message, error) {
		r := req.(*std.AddTwoIntsRequest)
		return &std.AddTwoIntsResponse{Sum: r.A + r.B}, nil
	})
	if err != nil {
		t.Fatalf("AddService: %v", err)
	}

	host, port, err := parseHostPort(srv.URI())
	if err != nil {
		t.Fatalf("parseHostPort: %v", err)
	}
	conn, err := tcpros.DialServiceSide(fmt.Sprintf("%s:%d", host, port), "/client", "/add", std.AddTwoInts.RequestType, false)
	if err != nil {
		t.Fatalf("DialServiceSide: %v", err)
	}
	defer conn.Close()

	req := &std.AddTwoIntsRequest{A: 3, B: 4}
	body, err := tcpros.EncodeMessage(req)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	if err := tcpros.WriteFrame(conn.Net, body); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	ok, err := tcpros.ReadStatus(conn.Net)
	if err != nil {
		t.Fatalf("ReadStatus: %v", err)
	}
	if !ok {
		t.Fatal("expected success status")
	}
	respBody, err := tcpros.ReadFrame(conn.Net)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	resp := &std.AddTwoIntsResponse{}
	if err := resp.Decode(bytesReader(respBody)); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if resp.Sum != 7 {
		t.Errorf("got sum %d, want 7", resp.Sum)
	}
}

// TestPublisherUpdateOpensAndClosesConnections covers a shrinking
// publisherUpdate converging in bounded time, with requestTopic faked
// out so the test doesn't need two live XML-RPC servers talking to each
// other.
func TestPublisherUpdateOpensAndClosesConnections(t *testing.T) {
	sTalker1 := newTestSlave(t, "/talker1")
	sTalker2 := newTestSlave(t, "/talker2")
	sListener := newTestSlave(t, "/listener")

	stringType := (&std.String{}).Type()
	pub1, err := sTalker1.AddPublication("127.0.0.1", "/t", stringType)
	if err != nil {
		t.Fatalf("AddPublication 1: %v", err)
	}
	pub2, err := sTalker2.AddPublication("127.0.0.1", "/t", stringType)
	if err != nil {
		t.Fatalf("AddPublication 2: %v", err)
	}

	origCall := xmlrpcCall
	defer func() { xmlrpcCall = origCall }()
	xmlrpcCall = func(uri, method string, args ...interface{}) (interface{}, error) {
		var port int
		switch uri {
		case "uri1":
			port = pub1.Port()
		case "uri2":
			port = pub2.Port()
		default:
			return nil, fmt.Errorf("unknown peer %q", uri)
		}
		return []interface{}{1, "Success", []interface{}{"TCPROS", "127.0.0.1", port}}, nil
	}

	sub, err := sListener.AddSubscription("/t", stringType, func() message.Message { return &std.String{} }, func(message.Message) {})
	if err != nil {
		t.Fatalf("AddSubscription: %v", err)
	}

	if err := sListener.AddPublishersToSubscription("/t", []string{"uri1", "uri2"}); err != nil {
		t.Fatalf("AddPublishersToSubscription: %v", err)
	}
	waitForCount(t, func() int { return sub.UpstreamCount() }, 2)
	waitForCount(t, func() int { return pub1.SubscriberCount() }, 1)
	waitForCount(t, func() int { return pub2.SubscriberCount() }, 1)

	if err := sListener.AddPublishersToSubscription("/t", []string{"uri1"}); err != nil {
		t.Fatalf("AddPublishersToSubscription (shrink): %v", err)
	}
	waitForCount(t, func() int { return sub.UpstreamCount() }, 1)
	waitForCount(t, func() int { return pub2.SubscriberCount() }, 0)
}

func waitForCount(t *testing.T, get func() int, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if get() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for count %d, got %d", want, get())
}

func TestShutdownIsIdempotent(t *testing.T) {
	s := newTestSlave(t, "/n")
	s.Shutdown()
	s.Shutdown() // must not panic or block
}
