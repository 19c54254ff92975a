// Package debug is the Node Runtime's optional diagnostic surface: a
// websocket feed of publication/subscription/connection lifecycle events
// for live graph inspection. It has no bearing on graph correctness —
// the structured-RPC getBusStats/getBusInfo calls are allowed to stay
// stub/empty, and this feed is the richer operator-facing alternative an
// operator can attach to instead.
package debug

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Event is one lifecycle notification: a publication accepting a new
// subscriber stream, a subscription opening or closing an upstream
// connection, a handshake rejection, and so on.
type Event struct {
	Kind  string `json:"kind"`
	Topic string `json:"topic,omitempty"`
	Name  string `json:"name,omitempty"`
	Conn  string `json:"conn,omitempty"`
	Peer  string `json:"peer,omitempty"`
	Error string `json:"error,omitempty"`
}

// Feed fans Events out to every currently-connected websocket viewer. The
// zero value is not usable; use New. A nil *Feed is valid and Publish on
// it is a no-op, so components can take a *Feed unconditionally and skip
// a nil check at every call site.
type Feed struct {
	upgrader websocket.Upgrader

	mu        sync.Mutex
	listeners map[*websocket.Conn]chan Event
}

// New returns an empty Feed ready to accept viewers via ServeHTTP and
// events via Publish.
func New() *Feed {
	return &Feed{listeners: make(map[*websocket.Conn]chan Event)}
}

// ServeHTTP upgrades the request to a websocket and streams every
// subsequent Publish call to it until the client disconnects.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f == nil {
		http.Error(w, "debug feed disabled", http.StatusNotFound)
		return
	}
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	ch := make(chan Event, 32)
	f.mu.Lock()
	f.listeners[conn] = ch
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		delete(f.listeners, conn)
		f.mu.Unlock()
		conn.Close()
	}()
	for ev := range ch {
		b, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return
		}
	}
}

// Publish fans ev out to every connected viewer. Slow viewers are dropped
// the same way a publication drops a slow subscriber: non-blocking send, evict on a full queue.
func (f *Feed) Publish(ev Event) {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn, ch := range f.listeners {
		select {
		case ch <- ev:
		default:
			delete(f.listeners, conn)
			close(ch)
			conn.Close()
		}
	}
}
