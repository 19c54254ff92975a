// Package ros is the module's public surface: a thin re-export of
// internal/facade's Node Façade, the single handle for
// advertising/subscribing to topics, offering/calling services, and
// reading/writing parameters. The façade's real implementation stays
// under internal/, and this package is the only thing user code
// imports.
package ros

import (
	"time"

	"github.com/rosgraph-go/rosnode/internal/bootstrap"
	"github.com/rosgraph-go/rosnode/internal/facade"
	"github.com/rosgraph-go/rosnode/internal/logging"
	"github.com/rosgraph-go/rosnode/internal/master"
	"github.com/rosgraph-go/rosnode/internal/slave/debug"
	"github.com/rosgraph-go/rosnode/message"
)

// Node is the graph-peer handle returned by NewNode. It wraps
// internal/facade.Facade so that package ros never needs its own copy
// of the façade's logic.
type Node struct {
	f *facade.Facade
}

// Logger re-exports internal/logging.Logger so callers can supply their
// own without importing an internal package.
type Logger = logging.Logger

// DebugFeed re-exports internal/slave/debug.Feed, the optional
// websocket diagnostic surface. Pass nil to
// disable it.
type DebugFeed = debug.Feed

// NewDebugFeed constructs a DebugFeed ready to be mounted as an
// http.Handler and passed to NewNode/NewNodeFromEnvironment.
func NewDebugFeed() *DebugFeed { return debug.New() }

// Remap is a one-shot name substitution applied at construction time.
type Remap = bootstrap.Remap

// NewNode constructs a node from already-resolved parameters: name,
// namespace, master URI, hostname, and remaps. Use this in tests or
// whenever the caller already knows these values; use
// NewNodeFromEnvironment to resolve them from the process environment
// and command line instead.
func NewNode(name, namespace, masterURI, hostname string, remaps []Remap, logger Logger, feed *DebugFeed) (*Node, error) {
	cfg := bootstrap.Config{
		Name:      name,
		Namespace: namespace,
		MasterURI: masterURI,
		Hostname:  hostname,
		Remaps:    remaps,
	}
	f, err := facade.New(cfg, logger, feed)
	if err != nil {
		return nil, err
	}
	return &Node{f: f}, nil
}

// NewNodeFromEnvironment resolves ROS_MASTER_URI, ROS_NAMESPACE,
// ROS_HOSTNAME/ROS_IP, __name:=/__ns:=/__master:=-style command line
// specials, and plain src:=dst remaps before constructing the node.
// _param:= arguments are ignored.
func NewNodeFromEnvironment(name string, args []string, logger Logger, feed *DebugFeed) (*Node, error) {
	f, err := facade.NewFromEnvironment(name, args, logger, feed)
	if err != nil {
		return nil, err
	}
	return &Node{f: f}, nil
}

// Name returns the node's absolute graph name.
func (n *Node) Name() string { return n.f.Name() }

// URI returns the node's own inbound RPC endpoint.
func (n *Node) URI() string { return n.f.URI() }

// Publisher is the handle returned by Advertise.
type Publisher struct{ p *facade.Publisher }

// Publish sends msg to every currently-connected subscriber.
func (p *Publisher) Publish(msg message.Message) error { return p.p.Publish(msg) }

// Shutdown drops the publication and unregisters it from the directory.
func (p *Publisher) Shutdown() error { return p.p.Shutdown() }

// Advertise offers topic for publication under type t.
func (n *Node) Advertise(topic string, t message.Type) (*Publisher, error) {
	p, err := n.f.Advertise(topic, t)
	if err != nil {
		return nil, err
	}
	return &Publisher{p: p}, nil
}

// Subscription is the handle returned by Subscribe.
type Subscription struct{ s *facade.Subscription }

// Shutdown closes every upstream connection and unregisters from the
// directory.
func (s *Subscription) Shutdown() error { return s.s.Shutdown() }

// Subscribe subscribes to topic, delivering each decoded message to
// callback on the subscription's delivery goroutine. newMsg constructs a fresh
// zero-value message of the subscribed type for each incoming frame.
func (n *Node) Subscribe(topic string, t message.Type, newMsg message.NewMessage, callback func(message.Message)) (*Subscription, error) {
	s, err := n.f.Subscribe(topic, t, newMsg, callback)
	if err != nil {
		return nil, err
	}
	return &Subscription{s: s}, nil
}

// ServiceHandle is the handle returned by OfferService.
type ServiceHandle struct{ h *facade.ServiceHandle }

// Shutdown stops accepting requests and unregisters from the directory.
func (h *ServiceHandle) Shutdown() error { return h.h.Shutdown() }

// OfferService offers name as a service of type st, dispatching every
// incoming request to handler.
func (n *Node) OfferService(name string, st message.ServiceType, handler func(req message.Message) (message.Message, error)) (*ServiceHandle, error) {
	h, err := n.f.Service(name, st, handler)
	if err != nil {
		return nil, err
	}
	return &ServiceHandle{h: h}, nil
}

// ServiceClient is the handle returned by Client, addressed at whatever
// provider the directory resolved at construction time.
type ServiceClient struct{ c *facade.ServiceClient }

// Call sends req and returns the decoded response.
func (c *ServiceClient) Call(req message.Message) (message.Message, error) { return c.c.Call(req) }

// Client looks up name in the directory and returns a client bound to
// the resolved provider.
func (n *Node) Client(name string, st message.ServiceType) (*ServiceClient, error) {
	c, err := n.f.Client(name, st)
	if err != nil {
		return nil, err
	}
	return &ServiceClient{c: c}, nil
}

// WaitForService polls the directory for name until a provider appears,
// a non-"no provider" error occurs, or timeout elapses.
func (n *Node) WaitForService(name string, timeout time.Duration) error {
	return n.f.WaitForService(name, timeout)
}

// Parameter is a thin handle over one parameter in the directory's
// store.
type Parameter struct{ p facade.Parameter }

// Name returns the parameter's absolute name.
func (p Parameter) Name() string { return p.p.Name() }

// Get fetches the parameter's raw value.
func (p Parameter) Get() (interface{}, error) { return p.p.Get() }

// GetRaw is an alias for Get: the directory client already returns an
// untyped value, so there is no separate typed path to distinguish.
func (p Parameter) GetRaw() (interface{}, error) { return p.p.GetRaw() }

// Set assigns the parameter's value.
func (p Parameter) Set(value interface{}) error { return p.p.Set(value) }

// Delete removes the parameter.
func (p Parameter) Delete() error { return p.p.Delete() }

// Exists reports whether the parameter is currently set.
func (p Parameter) Exists() (bool, error) { return p.p.Exists() }

// Search finds the closest parameter upward in the namespace hierarchy.
func (p Parameter) Search() (string, error) { return p.p.Search() }

// Param returns a handle for the parameter named by name.
func (n *Node) Param(name string) (Parameter, error) {
	p, err := n.f.Param(name)
	return Parameter{p: p}, err
}

// SystemState re-exports internal/master.SystemState, the directory's
// snapshot of every publisher/subscriber/service in the graph.
type SystemState = master.SystemState

// Topic re-exports internal/master.Topic.
type Topic = master.Topic

// State returns a snapshot of the whole graph as seen by the directory.
func (n *Node) State() (SystemState, error) { return n.f.State() }

// Topics lists every topic/type pair currently known to the directory.
func (n *Node) Topics() ([]Topic, error) { return n.f.Topics() }

// Parameters lists every parameter name in the store.
func (n *Node) Parameters() ([]string, error) { return n.f.Parameters() }

// Shutdown tears the node down, unregistering every live publication,
// subscription, and service from the directory before closing sockets.
func (n *Node) Shutdown() { n.f.Shutdown() }
