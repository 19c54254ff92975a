package slave

import (
	"bytes"
	"net"
	"sync"

	"github.com/rosgraph-go/rosnode/internal/tcpros"
	"github.com/rosgraph-go/rosnode/message"
)

// Handler runs a service request and returns its response, or an error
// whose message becomes the wire error string.
type Handler func(req message.Message) (message.Message, error)

// Service is one service this node offers: a bound listener and the
// user handler invoked for each incoming request.
type Service struct {
	name     string
	reqType  message.ServiceType
	handler  Handler
	nodeName string
	hostname string
	logger   logger

	listener net.Listener
	uri      string

	wg sync.WaitGroup
}

// AddService binds a listener and starts accepting requests; each
// incoming connection spawns handling that runs handler and returns its
// result.
func (s *Slave) AddService(hostname, name string, st message.ServiceType, handler Handler) (*Service, error) {
	s.srvMu.Lock()
	if s.isShutdown() {
		s.srvMu.Unlock()
		return nil, shutdownErr("add_service")
	}
	if srv, ok := s.srvs[name]; ok {
		s.srvMu.Unlock()
		return srv, nil
	}
	s.srvMu.Unlock()

	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		return nil, transportErr("add_service", err)
	}
	_, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		ln.Close()
		return nil, transportErr("add_service", err)
	}
	srv := &Service{
		name:     name,
		reqType:  st,
		handler:  handler,
		nodeName: s.nodeName,
		hostname: hostname,
		logger:   s.logger,
		listener: ln,
		uri:      "rosrpc://" + hostname + ":" + port,
	}

	s.srvMu.Lock()
	if s.isShutdown() {
		s.srvMu.Unlock()
		ln.Close()
		return nil, shutdownErr("add_service")
	}
	if existing, ok := s.srvs[name]; ok {
		s.srvMu.Unlock()
		ln.Close()
		return existing, nil
	}
	s.srvs[name] = srv
	s.srvMu.Unlock()

	srv.wg.Add(1)
	go srv.acceptLoop()
	return srv, nil
}

// Service looks up an existing service offer by name.
func (s *Slave) Service(name string) (*Service, bool) {
	s.srvMu.Lock()
	defer s.srvMu.Unlock()
	srv, ok := s.srvs[name]
	return srv, ok
}

// RemoveService stops accepting requests and drops the service's state.
func (s *Slave) RemoveService(name string) {
	s.srvMu.Lock()
	srv, ok := s.srvs[name]
	if ok {
		delete(s.srvs, name)
	}
	s.srvMu.Unlock()
	if ok {
		srv.close()
	}
}

// URI is the address peers dial to call this service.
func (srv *Service) URI() string { return srv.uri }

func (srv *Service) acceptLoop() {
	defer srv.wg.Done()
	for {
		nc, err := srv.listener.Accept()
		if err != nil {
			return
		}
		srv.wg.Add(1)
		go srv.serve(nc)
	}
}

func (srv *Service) serve(nc net.Conn) {
	defer srv.wg.Done()
	defer nc.Close()

	conn, err := tcpros.AcceptServiceSide(nc, srv.nodeName, srv.reqType.RequestType)
	if err != nil {
		srv.logger.Warnf("service %s: handshake rejected: %v", srv.name, err)
		return
	}
	persistent := false
	if v, ok := conn.Remote.Get("persistent"); ok && v == "1" {
		persistent = true
	}

	for {
		if err := srv.handleOne(conn); err != nil {
			return
		}
		if !persistent {
			return
		}
	}
}

func (srv *Service) handleOne(conn *tcpros.Conn) error {
	body, err := tcpros.ReadFrame(conn.Net)
	if err != nil {
		return err
	}
	req := srv.reqType.NewRequest()
	if err := req.Decode(bytes.NewReader(body)); err != nil {
		tcpros.WriteStatus(conn.Net, false)
		tcpros.WriteFrame(conn.Net, []byte("bad request: "+err.Error()))
		return nil // malformed request closes the call, not the listener
	}

	resp, err := srv.handler(req)
	if err != nil {
		if werr := tcpros.WriteStatus(conn.Net, false); werr != nil {
			return werr
		}
		return tcpros.WriteFrame(conn.Net, []byte(err.Error()))
	}
	respBody, err := tcpros.EncodeMessage(resp)
	if err != nil {
		tcpros.WriteStatus(conn.Net, false)
		tcpros.WriteFrame(conn.Net, []byte("failed to encode response: "+err.Error()))
		return nil
	}
	if err := tcpros.WriteStatus(conn.Net, true); err != nil {
		return err
	}
	return tcpros.WriteFrame(conn.Net, respBody)
}

func (srv *Service) close() {
	srv.listener.Close()
	srv.wg.Wait()
}
