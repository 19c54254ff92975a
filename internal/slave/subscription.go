package slave

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/rosgraph-go/rosnode/internal/slave/debug"
	"github.com/rosgraph-go/rosnode/internal/tcpros"
	"github.com/rosgraph-go/rosnode/message"
)

// deliverQueueDepth bounds a subscription's delivery queue.
const deliverQueueDepth = 16

// Subscription is one topic this node subscribes to: its current set of
// upstream publisher connections, the user callback, and the delivery
// queue that serializes callback invocations.
type Subscription struct {
	topic    string
	typ      message.Type
	newMsg   message.NewMessage
	callback func(message.Message)
	nodeName string
	logger   logger
	feed     *debug.Feed

	mu    sync.Mutex // guards conns; mutated by publisherUpdate and by shutdown
	conns map[string]*upstreamConn // keyed by publisher URI

	deliver chan message.Message
	done    chan struct{}
	wg      sync.WaitGroup
}

type upstreamConn struct {
	conn *tcpros.Conn
	stop chan struct{}
}

// AddSubscription allocates subscription state and starts the background
// worker that drains the delivery queue into callback, in the order
// messages arrive from any upstream publisher.
func (s *Slave) AddSubscription(topic string, typ message.Type, newMsg message.NewMessage, callback func(message.Message)) (*Subscription, error) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.isShutdown() {
		return nil, shutdownErr("add_subscription")
	}
	if sub, ok := s.subs[topic]; ok {
		return sub, nil
	}
	sub := &Subscription{
		topic:    topic,
		typ:      typ,
		newMsg:   newMsg,
		callback: callback,
		nodeName: s.nodeName,
		logger:   s.logger,
		feed:     s.feed,
		conns:    make(map[string]*upstreamConn),
		deliver:  make(chan message.Message, deliverQueueDepth),
		done:     make(chan struct{}),
	}
	s.subs[topic] = sub
	sub.wg.Add(1)
	go sub.deliverLoop()
	return sub, nil
}

// Subscription looks up an existing subscription by topic.
func (s *Slave) Subscription(topic string) (*Subscription, bool) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	sub, ok := s.subs[topic]
	return sub, ok
}

// RemoveSubscription closes every upstream connection and stops the
// delivery worker.
func (s *Slave) RemoveSubscription(topic string) {
	s.subMu.Lock()
	sub, ok := s.subs[topic]
	if ok {
		delete(s.subs, topic)
	}
	s.subMu.Unlock()
	if ok {
		sub.close()
	}
}

func (sub *Subscription) deliverLoop() {
	defer sub.wg.Done()
	for {
		select {
		case msg := <-sub.deliver:
			sub.callback(msg)
		case <-sub.done:
			return
		}
	}
}

// AddPublishersToSubscription replaces the subscription's upstream
// connection set with uris: dials and handshakes every URI not already
// connected, and closes every connection no longer present. Used both by
// the initial subscribe (seeded from the directory's registerSubscriber
// response) and by publisherUpdate.
func (s *Slave) AddPublishersToSubscription(topic string, uris []string) error {
	sub, ok := s.Subscription(topic)
	if !ok {
		return rerrNoSuchTopic(topic)
	}
	want := make(map[string]bool, len(uris))
	for _, u := range uris {
		want[u] = true
	}

	sub.mu.Lock()
	var toRemove []*upstreamConn
	for uri, uc := range sub.conns {
		if !want[uri] {
			toRemove = append(toRemove, uc)
			delete(sub.conns, uri)
		}
	}
	var toAdd []string
	for _, uri := range uris {
		if _, ok := sub.conns[uri]; !ok {
			toAdd = append(toAdd, uri)
		}
	}
	sub.mu.Unlock()

	for _, uc := range toRemove {
		close(uc.stop)
		uc.conn.Close()
	}

	var firstErr error
	for _, uri := range toAdd {
		if err := sub.connectTo(uri); err != nil {
			sub.logger.Warnf("subscription %s: failed to connect to publisher %s: %v", topic, uri, err)
			if firstErr == nil {
				firstErr = err
			}
			continue // a failed peer connection doesn't fail the whole update
		}
	}
	return firstErr
}

func (sub *Subscription) connectTo(publisherURI string) error {
	host, port, err := requestTopic(publisherURI, sub.nodeName, sub.topic)
	if err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := tcpros.DialSubscriberSide(addr, sub.nodeName, sub.topic, sub.typ)
	if err != nil {
		return err
	}
	uc := &upstreamConn{conn: conn, stop: make(chan struct{})}
	sub.mu.Lock()
	if _, ok := sub.conns[publisherURI]; ok {
		sub.mu.Unlock()
		conn.Close()
		return nil
	}
	sub.conns[publisherURI] = uc
	sub.mu.Unlock()
	sub.feed.Publish(debug.Event{Kind: "publisher_connected", Topic: sub.topic, Conn: string(conn.ID), Peer: publisherURI})

	sub.wg.Add(1)
	go sub.readLoop(publisherURI, uc)
	return nil
}

func (sub *Subscription) readLoop(publisherURI string, uc *upstreamConn) {
	defer sub.wg.Done()
	defer func() {
		sub.mu.Lock()
		if existing, ok := sub.conns[publisherURI]; ok && existing == uc {
			delete(sub.conns, publisherURI)
		}
		sub.mu.Unlock()
		uc.conn.Close()
		sub.feed.Publish(debug.Event{Kind: "publisher_disconnected", Topic: sub.topic, Conn: string(uc.conn.ID)})
	}()
	for {
		body, err := tcpros.ReadFrame(uc.conn.Net)
		if err != nil {
			return // dropped silently; only a future publisherUpdate revives it
		}
		msg := sub.newMsg()
		if err := msg.Decode(bytes.NewReader(body)); err != nil {
			sub.logger.Warnf("subscription %s: bad message from %s: %v", sub.topic, publisherURI, err)
			return // BadMessage drops this connection; the subscription itself survives
		}
		select {
		case sub.deliver <- msg:
		default:
			// Delivery queue full: drop the oldest message in the
			// subscription's shared queue to make room, whichever upstream
			// connection queued it. The drop is not logged.
			select {
			case <-sub.deliver:
			default:
			}
			select {
			case sub.deliver <- msg:
			default:
			}
		}
		select {
		case <-uc.stop:
			return
		default:
		}
	}
}

func (sub *Subscription) close() {
	sub.mu.Lock()
	conns := make([]*upstreamConn, 0, len(sub.conns))
	for _, uc := range sub.conns {
		conns = append(conns, uc)
	}
	sub.conns = make(map[string]*upstreamConn)
	sub.mu.Unlock()

	for _, uc := range conns {
		close(uc.stop)
		uc.conn.Close()
	}
	close(sub.done)
	sub.wg.Wait()
}

// UpstreamCount reports how many upstream publisher connections are
// currently open; used for diagnostics and tests.
func (sub *Subscription) UpstreamCount() int {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return len(sub.conns)
}

type noSuchTopicError string

func (e noSuchTopicError) Error() string { return "no such topic: " + string(e) }

func rerrNoSuchTopic(topic string) error {
	return protocolErr("add_publishers_to_subscription", noSuchTopicError(topic))
}
