// Package master is the Directory Client: a thin, typed wrapper over the
// structured-RPC transport used to talk to the directory ("master"),
// following fetchrobotics/rosgo's callRosAPI pattern of positional
// XML-RPC calls returning a (status, message, value) triple. Every
// directory verb gets its own Go method instead of callers building
// XML-RPC calls by hand.
package master

import (
	"fmt"

	"github.com/fetchrobotics/rosgo/xmlrpc"
	"github.com/rosgraph-go/rosnode/rerr"
)

// Transport is the structured-RPC call surface this client needs. The
// production implementation is xmlrpcTransport below; tests (in this
// package and callers wiring up fakes via NewWithTransport) substitute
// one so they don't need a live XML-RPC server.
type Transport interface {
	Call(uri, method string, args ...interface{}) (interface{}, error)
}

// transport is kept as an alias of the exported Transport for the
// existing unexported field below.
type transport = Transport

type xmlrpcTransport struct{}

func (xmlrpcTransport) Call(uri, method string, args ...interface{}) (interface{}, error) {
	return xmlrpc.Call(uri, method, args...)
}

// Client calls the directory on behalf of one node. CallerID (the
// caller's absolute node name) is attached to every call; CallerAPI (its
// own reach-back RPC URI) is attached to the publisher and subscriber
// register/unregister calls and to RegisterService.
type Client struct {
	URI       string
	CallerID  string
	CallerAPI string

	transport transport
}

// New returns a Directory Client addressed at masterURI, identifying
// itself as callerID with a reach-back RPC endpoint at callerAPI.
func New(masterURI, callerID, callerAPI string) *Client {
	return &Client{URI: masterURI, CallerID: callerID, CallerAPI: callerAPI, transport: xmlrpcTransport{}}
}

// NewWithTransport is New with an explicit Transport, letting tests
// outside this package (e.g. internal/facade's) substitute a fake
// directory without a live XML-RPC server.
func NewWithTransport(masterURI, callerID, callerAPI string, t Transport) *Client {
	return &Client{URI: masterURI, CallerID: callerID, CallerAPI: callerAPI, transport: t}
}

// call invokes method over the structured-RPC transport and unpacks the
// (status-code, status-message, value) triple the directory returns.
// Transport errors surface unchanged as TransportError; a status < 1
// surfaces as DirectoryError carrying the server-supplied message —
// neither is retried here.
func (c *Client) call(op, method string, args ...interface{}) (interface{}, error) {
	result, err := c.transport.Call(c.URI, method, args...)
	if err != nil {
		return nil, rerr.New(rerr.TransportError, op, err)
	}
	triple, ok := result.([]interface{})
	if !ok || len(triple) != 3 {
		return nil, rerr.New(rerr.TransportError, op, fmt.Errorf("malformed response: %#v", result))
	}
	status, ok := toInt(triple[0])
	if !ok {
		return nil, rerr.New(rerr.TransportError, op, fmt.Errorf("non-numeric status: %#v", triple[0]))
	}
	if status < 1 {
		msg, _ := triple[1].(string)
		return nil, rerr.New(rerr.DirectoryError, op, directoryError(msg))
	}
	return triple[2], nil
}

type directoryError string

func (e directoryError) Error() string { return string(e) }

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func toStringSlice(v interface{}) []string {
	list, _ := v.([]interface{})
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// RegisterPublisher registers the caller as a publisher of topic/typ and
// returns the directory's current list of subscriber URIs for the topic.
func (c *Client) RegisterPublisher(topic, typ string) ([]string, error) {
	v, err := c.call("master.registerPublisher", "registerPublisher", c.CallerID, topic, typ, c.CallerAPI)
	if err != nil {
		return nil, err
	}
	return toStringSlice(v), nil
}

// UnregisterPublisher removes the caller's publisher registration.
func (c *Client) UnregisterPublisher(topic string) error {
	_, err := c.call("master.unregisterPublisher", "unregisterPublisher", c.CallerID, topic, c.CallerAPI)
	return err
}

// RegisterSubscriber registers the caller as a subscriber of topic/typ and
// returns the directory's current list of publisher URIs.
func (c *Client) RegisterSubscriber(topic, typ string) ([]string, error) {
	v, err := c.call("master.registerSubscriber", "registerSubscriber", c.CallerID, topic, typ, c.CallerAPI)
	if err != nil {
		return nil, err
	}
	return toStringSlice(v), nil
}

// UnregisterSubscriber removes the caller's subscriber registration.
func (c *Client) UnregisterSubscriber(topic string) error {
	_, err := c.call("master.unregisterSubscriber", "unregisterSubscriber", c.CallerID, topic, c.CallerAPI)
	return err
}

// RegisterService registers the caller as the provider of a service,
// reachable at serviceURI.
func (c *Client) RegisterService(name, serviceURI string) error {
	_, err := c.call("master.registerService", "registerService", c.CallerID, name, serviceURI, c.CallerAPI)
	return err
}

// UnregisterService removes the caller's service registration.
func (c *Client) UnregisterService(name, serviceURI string) error {
	_, err := c.call("master.unregisterService", "unregisterService", c.CallerID, name, serviceURI)
	return err
}

// LookupService resolves a service name to its provider's URI. A service
// with no provider surfaces as DirectoryError wrapping "no provider" —
// internal/facade's WaitForService keys off that exact string.
func (c *Client) LookupService(name string) (string, error) {
	v, err := c.call("master.lookupService", "lookupService", c.CallerID, name)
	if err != nil {
		return "", err
	}
	uri, _ := v.(string)
	return uri, nil
}

// GetParam fetches a parameter's raw value.
func (c *Client) GetParam(name string) (interface{}, error) {
	return c.call("master.getParam", "getParam", c.CallerID, name)
}

// SetParam sets a parameter's value.
func (c *Client) SetParam(name string, value interface{}) error {
	_, err := c.call("master.setParam", "setParam", c.CallerID, name, value)
	return err
}

// DeleteParam removes a parameter.
func (c *Client) DeleteParam(name string) error {
	_, err := c.call("master.deleteParam", "deleteParam", c.CallerID, name)
	return err
}

// HasParam reports whether a parameter exists.
func (c *Client) HasParam(name string) (bool, error) {
	v, err := c.call("master.hasParam", "hasParam", c.CallerID, name)
	if err != nil {
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}

// SearchParam finds the closest parameter in the namespace hierarchy to
// name, the way ROS's upward parameter search works.
func (c *Client) SearchParam(name string) (string, error) {
	v, err := c.call("master.searchParam", "searchParam", c.CallerID, name)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

// GetParamNames lists every parameter name in the store.
func (c *Client) GetParamNames() ([]string, error) {
	v, err := c.call("master.getParamNames", "getParamNames", c.CallerID)
	if err != nil {
		return nil, err
	}
	return toStringSlice(v), nil
}

// SystemState is a snapshot of every publisher, subscriber, and service in
// the graph, keyed by topic/service name.
type SystemState struct {
	Publishers  map[string][]string
	Subscribers map[string][]string
	Services    map[string][]string
}

// GetSystemState fetches a full graph snapshot.
func (c *Client) GetSystemState() (SystemState, error) {
	v, err := c.call("master.getSystemState", "getSystemState", c.CallerID)
	if err != nil {
		return SystemState{}, err
	}
	triple, ok := v.([]interface{})
	if !ok || len(triple) != 3 {
		return SystemState{}, rerr.New(rerr.TransportError, "master.getSystemState", fmt.Errorf("malformed system state: %#v", v))
	}
	return SystemState{
		Publishers:  decodeNameList(triple[0]),
		Subscribers: decodeNameList(triple[1]),
		Services:    decodeNameList(triple[2]),
	}, nil
}

func decodeNameList(v interface{}) map[string][]string {
	out := make(map[string][]string)
	list, _ := v.([]interface{})
	for _, entry := range list {
		pair, ok := entry.([]interface{})
		if !ok || len(pair) != 2 {
			continue
		}
		name, _ := pair[0].(string)
		out[name] = toStringSlice(pair[1])
	}
	return out
}

// Topic is a (name, type) pair as returned by GetTopicTypes.
type Topic struct {
	Name string
	Type string
}

// GetTopicTypes lists every topic currently known to the directory along
// with its message type.
func (c *Client) GetTopicTypes() ([]Topic, error) {
	v, err := c.call("master.getTopicTypes", "getTopicTypes", c.CallerID)
	if err != nil {
		return nil, err
	}
	list, _ := v.([]interface{})
	topics := make([]Topic, 0, len(list))
	for _, entry := range list {
		pair, ok := entry.([]interface{})
		if !ok || len(pair) != 2 {
			continue
		}
		name, _ := pair[0].(string)
		typ, _ := pair[1].(string)
		topics = append(topics, Topic{Name: name, Type: typ})
	}
	return topics, nil
}
