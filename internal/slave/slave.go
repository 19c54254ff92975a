// Package slave implements the Node Runtime: the authoritative container
// for a node's publications, subscriptions, and service offers, and the
// inbound control-plane endpoint the directory and peer nodes call. It
// serves the same inbound method set over the same xmlrpc.Handler, and
// the same accept-loop/shutdown shape, as a standard XML-RPC node
// endpoint.
package slave

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"

	"github.com/fetchrobotics/rosgo/xmlrpc"
	"github.com/rosgraph-go/rosnode/internal/logging"
	"github.com/rosgraph-go/rosnode/internal/master"
	"github.com/rosgraph-go/rosnode/internal/slave/debug"
	"github.com/rosgraph-go/rosnode/rerr"
)

// Slave is one node's graph-peer runtime: it owns the node's publication,
// subscription, and service tables and answers the structured-RPC calls
// the directory and other peers make on it.
type Slave struct {
	nodeName  string
	hostname  string
	masterURI string
	master    *master.Client // used only at shutdown, to unregister
	logger    logging.Logger
	feed      *debug.Feed

	// Each table is guarded by its own mutex; the mutex is never held across I/O — callers snapshot
	// what they need and release the lock before any socket or RPC call.
	pubMu sync.Mutex
	pubs  map[string]*Publication

	subMu sync.Mutex
	subs  map[string]*Subscription

	srvMu sync.Mutex
	srvs  map[string]*Service

	listener net.Listener
	handler  *xmlrpc.Handler
	uri      string

	shutdownMu sync.Mutex
	done       bool
	wg         sync.WaitGroup
}

// New binds the slave's own inbound RPC listener and starts serving it.
// masterClient is used only during Shutdown, to unregister every live
// publication/subscription/service; the Slave never calls it otherwise,
// and never refers back to the façade that constructed it.
func New(hostname, masterURI string, masterClient *master.Client, nodeName string, logger logging.Logger, feed *debug.Feed) (*Slave, error) {
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		return nil, rerr.New(rerr.TransportError, "slave.New", err)
	}
	s := &Slave{
		nodeName:  nodeName,
		hostname:  hostname,
		masterURI: masterURI,
		master:    masterClient,
		logger:    logger,
		feed:      feed,
		pubs:      make(map[string]*Publication),
		subs:      make(map[string]*Subscription),
		srvs:      make(map[string]*Service),
		listener:  listener,
	}
	_, port, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		listener.Close()
		return nil, rerr.New(rerr.TransportError, "slave.New", err)
	}
	s.uri = fmt.Sprintf("http://%s:%s/", hostname, port)
	s.handler = xmlrpc.NewHandler(s.methods())
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		http.Serve(listener, s.handler)
	}()
	return s, nil
}

// URI is the slave's own inbound RPC endpoint, advertised to the directory
// and to peers as its reach-back address.
func (s *Slave) URI() string { return s.uri }

// SetMasterClient attaches the Directory Client used only at Shutdown to
// unregister every live registration. It exists because the master client
// itself needs the slave's URI (minted by New) as its callerAPI — the
// façade constructs the slave first, then the master client, then wires
// this back in, rather than the slave depending on the façade.
func (s *Slave) SetMasterClient(c *master.Client) { s.master = c }

// Hostname is the hostname the slave advertises for data-plane listeners.
func (s *Slave) Hostname() string { return s.hostname }

func (s *Slave) isShutdown() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.done
}

// Shutdown performs the ordered teardown: stop accepting inbound RPC
// calls, unregister every live registration from the directory, close
// every data-plane socket, then wait for worker tasks to drain. It is
// idempotent.
func (s *Slave) Shutdown() {
	s.shutdownMu.Lock()
	if s.done {
		s.shutdownMu.Unlock()
		return
	}
	s.done = true
	s.shutdownMu.Unlock()

	s.listener.Close()

	s.pubMu.Lock()
	pubs := make([]*Publication, 0, len(s.pubs))
	for _, p := range s.pubs {
		pubs = append(pubs, p)
	}
	s.pubs = make(map[string]*Publication)
	s.pubMu.Unlock()
	for _, p := range pubs {
		if s.master != nil {
			if err := s.master.UnregisterPublisher(p.topic); err != nil {
				s.logger.Warnf("unregister_publisher(%s): %v", p.topic, err)
			}
		}
		p.close()
	}

	s.subMu.Lock()
	subs := make([]*Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subs = make(map[string]*Subscription)
	s.subMu.Unlock()
	for _, sub := range subs {
		if s.master != nil {
			if err := s.master.UnregisterSubscriber(sub.topic); err != nil {
				s.logger.Warnf("unregister_subscriber(%s): %v", sub.topic, err)
			}
		}
		sub.close()
	}

	s.srvMu.Lock()
	srvs := make([]*Service, 0, len(s.srvs))
	for _, srv := range s.srvs {
		srvs = append(srvs, srv)
	}
	s.srvs = make(map[string]*Service)
	s.srvMu.Unlock()
	for _, srv := range srvs {
		if s.master != nil {
			if err := s.master.UnregisterService(srv.name, srv.uri); err != nil {
				s.logger.Warnf("unregister_service(%s): %v", srv.name, err)
			}
		}
		srv.close()
	}

	s.wg.Wait()
}

// Pid is exposed for the getPid inbound call and for tests.
func Pid() int { return os.Getpid() }
