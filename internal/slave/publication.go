package slave

import (
	"net"
	"sync"

	"github.com/rosgraph-go/rosnode/internal/slave/debug"
	"github.com/rosgraph-go/rosnode/internal/tcpros"
	"github.com/rosgraph-go/rosnode/message"
)

// sendQueueDepth bounds each subscriber stream's outgoing queue.
const sendQueueDepth = 8

// Publication is one topic this node publishes: its listener accepting
// subscriber connections, the set of connected subscriber streams, and a
// send sequence counter.
type Publication struct {
	topic    string
	typ      message.Type
	hostname string
	nodeName string
	logger   logger
	feed     *debug.Feed

	listener net.Listener

	mu      sync.Mutex // finer-grained than the slave's table lock; guards streams only
	streams map[tcpros.ConnID]*subscriberStream
	seq     uint32
	closed  bool

	wg sync.WaitGroup
}

type subscriberStream struct {
	conn      *tcpros.Conn
	queue     chan []byte
	closeOnce sync.Once
}

// logger is the minimal logging dependency this file needs; satisfied by
// internal/logging.Logger.
type logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// AddPublication is idempotent on topic: a second call for an
// already-published topic returns the existing Publication.
func (s *Slave) AddPublication(hostname, topic string, typ message.Type) (*Publication, error) {
	s.pubMu.Lock()
	if s.isShutdown() {
		s.pubMu.Unlock()
		return nil, shutdownErr("add_publication")
	}
	if p, ok := s.pubs[topic]; ok {
		s.pubMu.Unlock()
		return p, nil
	}
	s.pubMu.Unlock()

	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		return nil, transportErr("add_publication", err)
	}
	p := &Publication{
		topic:    topic,
		typ:      typ,
		hostname: hostname,
		nodeName: s.nodeName,
		logger:   s.logger,
		feed:     s.feed,
		listener: ln,
		streams:  make(map[tcpros.ConnID]*subscriberStream),
	}

	s.pubMu.Lock()
	if s.isShutdown() {
		s.pubMu.Unlock()
		ln.Close()
		return nil, shutdownErr("add_publication")
	}
	if existing, ok := s.pubs[topic]; ok {
		s.pubMu.Unlock()
		ln.Close()
		return existing, nil
	}
	s.pubs[topic] = p
	s.pubMu.Unlock()

	p.wg.Add(1)
	go p.acceptLoop()
	return p, nil
}

// Publication looks up an existing publication by topic.
func (s *Slave) Publication(topic string) (*Publication, bool) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	p, ok := s.pubs[topic]
	return p, ok
}

// RemovePublication stops accepting new subscribers, closes every
// connected stream, and drops the publication's state.
func (s *Slave) RemovePublication(topic string) {
	s.pubMu.Lock()
	p, ok := s.pubs[topic]
	if ok {
		delete(s.pubs, topic)
	}
	s.pubMu.Unlock()
	if ok {
		p.close()
	}
}

// Port is the listener's assigned port, reported to peers via requestTopic.
func (p *Publication) Port() int {
	return p.listener.Addr().(*net.TCPAddr).Port
}

func (p *Publication) acceptLoop() {
	defer p.wg.Done()
	for {
		nc, err := p.listener.Accept()
		if err != nil {
			return // listener closed: cooperative shutdown
		}
		go p.acceptOne(nc)
	}
}

func (p *Publication) acceptOne(nc net.Conn) {
	conn, err := tcpros.AcceptPublisherSide(nc, p.nodeName, p.typ, false)
	if err != nil {
		p.logger.Warnf("publication %s: handshake rejected: %v", p.topic, err)
		p.feed.Publish(debug.Event{Kind: "handshake_rejected", Topic: p.topic, Peer: nc.RemoteAddr().String(), Error: err.Error()})
		return
	}
	stream := &subscriberStream{conn: conn, queue: make(chan []byte, sendQueueDepth)}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		conn.Close()
		return
	}
	p.streams[conn.ID] = stream
	p.mu.Unlock()
	p.feed.Publish(debug.Event{Kind: "subscriber_connected", Topic: p.topic, Conn: string(conn.ID), Peer: nc.RemoteAddr().String()})

	p.wg.Add(1)
	go p.writeLoop(stream)
	p.wg.Add(1)
	go p.watchForClose(stream)
}

// watchForClose detects a subscriber disconnecting without this
// publication ever writing to it: subscribers send nothing after the
// handshake, so the only signal is EOF/error on a read of a connection
// that is otherwise write-only. Dropping the stream here, rather than
// waiting for a future failed Send, is what makes a shrinking
// publisherUpdate converge in bounded time instead
// of only on the next publish.
func (p *Publication) watchForClose(stream *subscriberStream) {
	defer p.wg.Done()
	var buf [1]byte
	stream.conn.Net.Read(buf[:]) // blocks until EOF/error; subscribers never write here
	p.dropStream(stream)
}

func (p *Publication) writeLoop(stream *subscriberStream) {
	defer p.wg.Done()
	defer func() {
		p.mu.Lock()
		delete(p.streams, stream.conn.ID)
		p.mu.Unlock()
		stream.conn.Close()
		p.feed.Publish(debug.Event{Kind: "subscriber_disconnected", Topic: p.topic, Conn: string(stream.conn.ID)})
	}()
	for body := range stream.queue {
		if err := tcpros.WriteFrame(stream.conn.Net, body); err != nil {
			return // stream dropped silently per the connection lifecycle
		}
	}
}

// Send serializes msg once and enqueues it to every currently-connected
// subscriber stream: the overflow policy drops the slowest subscriber's
// connection rather than the message for everyone else, so a stream
// whose queue is already full is dropped instead of blocking.
func (p *Publication) Send(msg message.Message) error {
	body, err := tcpros.EncodeMessage(msg)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.seq++
	streams := make([]*subscriberStream, 0, len(p.streams))
	for _, st := range p.streams {
		streams = append(streams, st)
	}
	p.mu.Unlock()

	for _, st := range streams {
		select {
		case st.queue <- body:
		default:
			p.logger.Warnf("publication %s: subscriber queue full, dropping connection %s", p.topic, st.conn.ID)
			p.dropStream(st)
		}
	}
	return nil
}

func (p *Publication) dropStream(st *subscriberStream) {
	p.mu.Lock()
	if existing, ok := p.streams[st.conn.ID]; ok && existing == st {
		delete(p.streams, st.conn.ID)
	}
	p.mu.Unlock()
	st.closeOnce.Do(func() { close(st.queue) })
}

// SubscriberCount reports how many subscriber streams are currently
// connected; used only for diagnostics (getBusInfo/getBusStats).
func (p *Publication) SubscriberCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.streams)
}

func (p *Publication) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	streams := make([]*subscriberStream, 0, len(p.streams))
	for _, st := range p.streams {
		streams = append(streams, st)
	}
	p.streams = make(map[tcpros.ConnID]*subscriberStream)
	p.mu.Unlock()

	p.listener.Close()
	for _, st := range streams {
		st.conn.Close()
		st.closeOnce.Do(func() { close(st.queue) })
	}
	p.wg.Wait()
}
