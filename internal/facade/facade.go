// Package facade implements the Node Façade: the single user-facing
// handle binding the Name Resolver, Directory Client, and Node Runtime,
// with an advertise/subscribe/service rollback-on-registration-failure
// pattern and param/wait-for-service helpers.
package facade

import (
	"errors"
	"strings"
	"time"

	"github.com/rosgraph-go/rosnode/internal/bootstrap"
	"github.com/rosgraph-go/rosnode/internal/logging"
	"github.com/rosgraph-go/rosnode/internal/master"
	"github.com/rosgraph-go/rosnode/internal/naming"
	"github.com/rosgraph-go/rosnode/internal/slave"
	"github.com/rosgraph-go/rosnode/internal/slave/debug"
	"github.com/rosgraph-go/rosnode/message"
	"github.com/rosgraph-go/rosnode/rerr"
)

// newMasterClient is reassigned in tests to substitute a fake directory
// transport (mirrors internal/slave/peer.go's xmlrpcCall seam); production
// code never reassigns it.
var newMasterClient = master.New

// Facade is the user-facing graph-peer handle.
type Facade struct {
	resolver *naming.Resolver
	master   *master.Client
	slave    *slave.Slave
	hostname string
	name     string // absolute node name
	logger   logging.Logger
}

// New builds a Facade from already-known parameters, separating
// construction from environment resolution so tests don't need to touch
// the process environment. Feed may be nil to disable the diagnostic
// websocket surface.
func New(cfg bootstrap.Config, logger logging.Logger, feed *debug.Feed) (*Facade, error) {
	if logger == nil {
		logger = logging.Nop
	}
	// The leaf name must not itself be a path.
	if strings.Contains(cfg.Name, "/") {
		return nil, rerr.New(rerr.Naming, "facade.New", illegalNodeName(cfg.Name))
	}
	namespace := strings.TrimSuffix(cfg.Namespace, "/")
	nodeName := namespace + "/" + cfg.Name
	if namespace == "" {
		nodeName = "/" + cfg.Name
	}

	resolver := naming.New(namespace, nodeName)
	for _, r := range cfg.Remaps {
		if err := resolver.Map(r.Source, r.Destination); err != nil {
			return nil, err
		}
	}

	sl, err := slave.New(cfg.Hostname, cfg.MasterURI, nil, nodeName, logger, feed)
	if err != nil {
		return nil, err
	}
	m := newMasterClient(cfg.MasterURI, nodeName, sl.URI())
	sl.SetMasterClient(m)

	return &Facade{
		resolver: resolver,
		master:   m,
		slave:    sl,
		hostname: cfg.Hostname,
		name:     nodeName,
		logger:   logger,
	}, nil
}

// NewFromEnvironment resolves bootstrap.Config from the process
// environment and argument list before building the Facade.
func NewFromEnvironment(name string, args []string, logger logging.Logger, feed *debug.Feed) (*Facade, error) {
	return New(bootstrap.Resolve(name, args), logger, feed)
}

// Name returns the node's absolute name.
func (f *Facade) Name() string { return f.name }

// URI returns the node's own inbound RPC endpoint.
func (f *Facade) URI() string { return f.slave.URI() }

type illegalNodeName string

func (e illegalNodeName) Error() string { return "node name must not contain '/': " + string(e) }

// Publisher is the handle Advertise returns.
type Publisher struct {
	topic string
	typ   message.Type
	pub   *slave.Publication
	f     *Facade
}

// Publish enqueues msg to every currently-connected subscriber stream.
func (p *Publisher) Publish(msg message.Message) error {
	return p.pub.Send(msg)
}

// Shutdown drops this publication: stops accepting subscribers, closes
// every stream, and unregisters from the directory.
func (p *Publisher) Shutdown() error {
	p.f.slave.RemovePublication(p.topic)
	return p.f.master.UnregisterPublisher(p.topic)
}

// Advertise resolves topic, creates local publication state, and
// registers it with the directory. On directory failure the local
// publication is rolled back.
func (f *Facade) Advertise(topic string, t message.Type) (*Publisher, error) {
	name, err := f.resolver.Translate(topic)
	if err != nil {
		return nil, err
	}
	pub, err := f.slave.AddPublication(f.hostname, name, t)
	if err != nil {
		return nil, err
	}
	if _, err := f.master.RegisterPublisher(name, t.Name); err != nil {
		f.logger.Errorf("failed to register publisher for topic %q: %v", name, err)
		f.slave.RemovePublication(name)
		return nil, err
	}
	return &Publisher{topic: name, typ: t, pub: pub, f: f}, nil
}

// Subscription is the handle returned by Subscribe, letting callers tear
// the subscription down later.
type Subscription struct {
	topic string
	f     *Facade
}

// Shutdown closes every upstream connection and unregisters from the
// directory.
func (s *Subscription) Shutdown() error {
	s.f.slave.RemoveSubscription(s.topic)
	return s.f.master.UnregisterSubscriber(s.topic)
}

// Subscribe resolves topic, creates local subscription state, and
// registers with the directory. The directory's returned publisher set is
// then handed to the slave on a best-effort basis: a failure connecting
// to one or more publishers here is logged, not propagated, because the
// directory will re-notify via publisherUpdate. A
// directory registration failure, by contrast, rolls back the local
// subscription and propagates.
func (f *Facade) Subscribe(topic string, t message.Type, newMsg message.NewMessage, callback func(message.Message)) (*Subscription, error) {
	name, err := f.resolver.Translate(topic)
	if err != nil {
		return nil, err
	}
	if _, err := f.slave.AddSubscription(name, t, newMsg, callback); err != nil {
		return nil, err
	}
	publishers, err := f.master.RegisterSubscriber(name, t.Name)
	if err != nil {
		f.slave.RemoveSubscription(name)
		return nil, err
	}
	if err := f.slave.AddPublishersToSubscription(name, publishers); err != nil {
		f.logger.Errorf("failed to subscribe to all publishers of topic %q: %v", name, err)
	}
	return &Subscription{topic: name, f: f}, nil
}

// ServiceHandle is the handle returned by Service, letting callers tear
// the offer down later.
type ServiceHandle struct {
	name string
	f    *Facade
}

// Shutdown stops accepting requests and unregisters from the directory.
func (h *ServiceHandle) Shutdown() error {
	srv, ok := h.f.slave.Service(h.name)
	var uri string
	if ok {
		uri = srv.URI()
	}
	h.f.slave.RemoveService(h.name)
	return h.f.master.UnregisterService(h.name, uri)
}

// Service resolves name, binds a listener via the slave, and registers
// with the directory. Mirrors Advertise: on a directory registration
// failure only the local service state is torn down
// (slave.RemoveService), since a service that was never successfully
// registered has nothing to unregister from the directory.
func (f *Facade) Service(name string, st message.ServiceType, handler slave.Handler) (*ServiceHandle, error) {
	resolved, err := f.resolver.Translate(name)
	if err != nil {
		return nil, err
	}
	srv, err := f.slave.AddService(f.hostname, resolved, st, handler)
	if err != nil {
		return nil, err
	}
	if err := f.master.RegisterService(resolved, srv.URI()); err != nil {
		f.logger.Errorf("failed to register service %q: %v", resolved, err)
		f.slave.RemoveService(resolved)
		return nil, err
	}
	return &ServiceHandle{name: resolved, f: f}, nil
}

// Client resolves name, looks it up in the directory, and constructs a
// short-lived service client addressed at the returned URI.
func (f *Facade) Client(name string, st message.ServiceType) (*ServiceClient, error) {
	resolved, err := f.resolver.Translate(name)
	if err != nil {
		return nil, err
	}
	uri, err := f.master.LookupService(resolved)
	if err != nil {
		return nil, err
	}
	return &ServiceClient{name: resolved, uri: uri, callerID: f.name, st: st}, nil
}

const noProviderMessage = "no provider"

// WaitForService polls LookupService every 100ms until it succeeds,
// until a non-"no provider" error occurs, or until timeout elapses.
func (f *Facade) WaitForService(name string, timeout time.Duration) error {
	resolved, err := f.resolver.Translate(name)
	if err != nil {
		return err
	}
	deadline := time.Now().Add(timeout)
	for {
		_, err := f.master.LookupService(resolved)
		if err == nil {
			return nil
		}
		var directoryErr *rerr.Error
		if errors.As(err, &directoryErr) && directoryErr.Kind == rerr.DirectoryError && directoryErr.Cause != nil && directoryErr.Cause.Error() == noProviderMessage {
			if timeout > 0 && time.Now().After(deadline) {
				return rerr.New(rerr.Timeout, "wait_for_service", nil)
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}
		return err
	}
}

// Param returns a thin handle for the parameter named by name.
func (f *Facade) Param(name string) (Parameter, error) {
	resolved, err := f.resolver.Translate(name)
	if err != nil {
		return Parameter{}, err
	}
	return Parameter{name: resolved, master: f.master}, nil
}

// State returns a snapshot of the whole graph's publishers, subscribers,
// and services, as seen by the directory.
func (f *Facade) State() (master.SystemState, error) {
	return f.master.GetSystemState()
}

// Topics lists every topic/type pair currently known to the directory.
func (f *Facade) Topics() ([]master.Topic, error) {
	return f.master.GetTopicTypes()
}

// Parameters lists every parameter name in the store.
func (f *Facade) Parameters() ([]string, error) {
	return f.master.GetParamNames()
}

// Shutdown tears the node down: the slave's Shutdown unregisters every
// live publication/subscription/service from the directory before closing
// sockets.
func (f *Facade) Shutdown() {
	f.slave.Shutdown()
}
