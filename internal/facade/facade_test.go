package facade

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rosgraph-go/rosnode/internal/bootstrap"
	"github.com/rosgraph-go/rosnode/internal/master"
	"github.com/rosgraph-go/rosnode/message"
	"github.com/rosgraph-go/rosnode/message/std"
	"github.com/rosgraph-go/rosnode/rerr"
)

// fakeDirectory is an in-memory stand-in for the directory's XML-RPC
// surface, implementing master.Transport the way internal/master's own
// fakeTransport does. It keeps just enough state to drive the
// registration/lookup calls Advertise/Subscribe/Service/Client make.
type fakeDirectory struct {
	mu         sync.Mutex
	publishers map[string][]string // topic -> publisher callerAPIs
	services   map[string]string   // name -> provider URI
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		publishers: make(map[string][]string),
		services:   make(map[string]string),
	}
}

func (d *fakeDirectory) Call(uri, method string, args ...interface{}) (interface{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch method {
	case "registerPublisher":
		topic, _ := args[1].(string)
		callerAPI, _ := args[3].(string)
		d.publishers[topic] = append(d.publishers[topic], callerAPI)
		return []interface{}{1, "ok", []interface{}{}}, nil
	case "unregisterPublisher":
		topic, _ := args[1].(string)
		callerAPI, _ := args[2].(string)
		d.publishers[topic] = remove(d.publishers[topic], callerAPI)
		return []interface{}{1, "ok", 1}, nil
	case "registerSubscriber":
		topic, _ := args[1].(string)
		pubs := make([]interface{}, 0, len(d.publishers[topic]))
		for _, p := range d.publishers[topic] {
			pubs = append(pubs, p)
		}
		return []interface{}{1, "ok", pubs}, nil
	case "unregisterSubscriber":
		return []interface{}{1, "ok", 1}, nil
	case "registerService":
		name, _ := args[1].(string)
		serviceURI, _ := args[2].(string)
		d.services[name] = serviceURI
		return []interface{}{1, "ok", 1}, nil
	case "unregisterService":
		name, _ := args[1].(string)
		delete(d.services, name)
		return []interface{}{1, "ok", 1}, nil
	case "lookupService":
		name, _ := args[1].(string)
		uri, ok := d.services[name]
		if !ok {
			return []interface{}{-1, "no provider", 0}, nil
		}
		return []interface{}{1, "ok", uri}, nil
	default:
		return nil, fmt.Errorf("fakeDirectory: unhandled method %q", method)
	}
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func newTestFacade(t *testing.T, dir *fakeDirectory, name, namespace string, remaps []bootstrap.Remap) *Facade {
	t.Helper()
	prev := newMasterClient
	newMasterClient = func(masterURI, callerID, callerAPI string) *master.Client {
		return master.NewWithTransport(masterURI, callerID, callerAPI, dir)
	}
	t.Cleanup(func() { newMasterClient = prev })

	f, err := New(bootstrap.Config{
		Name:      name,
		Namespace: namespace,
		MasterURI: "http://fake-master:11311/",
		Hostname:  "127.0.0.1",
		Remaps:    remaps,
	}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(f.Shutdown)
	return f
}

// TestAdvertiseSubscribeRoundTrip drives a publish/subscribe exchange
// through the façade: Advertise registers with the directory, Subscribe looks up and
// connects to the returned publisher list, and a published message is
// delivered to the subscriber's callback.
func TestAdvertiseSubscribeRoundTrip(t *testing.T) {
	dir := newFakeDirectory()
	pubNode := newTestFacade(t, dir, "talker", "/", nil)
	subNode := newTestFacade(t, dir, "listener", "/", nil)

	stringType := std.NewString().Type()

	pub, err := pubNode.Advertise("chatter", stringType)
	if err != nil {
		t.Fatalf("Advertise: %v", err)
	}
	defer pub.Shutdown()

	received := make(chan string, 1)
	sub, err := subNode.Subscribe("/chatter", stringType, std.NewString, func(m message.Message) {
		received <- m.(*std.String).Data
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Shutdown()

	deadline := time.After(2 * time.Second)
	for {
		if err := pub.Publish(&std.String{Data: "hello"}); err != nil {
			t.Fatalf("Publish: %v", err)
		}
		select {
		case got := <-received:
			if got != "hello" {
				t.Fatalf("received %q, want %q", got, "hello")
			}
			return
		case <-time.After(50 * time.Millisecond):
			// subscriber's upstream connection may not be up yet; retry
		case <-deadline:
			t.Fatal("timed out waiting for delivery")
		}
	}
}

// TestSubscribeAppliesRemap verifies that a node started
// with a remap from "chatter" to "renamed" registers its subscription
// under the remapped name, not the literal argument passed to Subscribe.
func TestSubscribeAppliesRemap(t *testing.T) {
	dir := newFakeDirectory()
	f := newTestFacade(t, dir, "listener", "/", []bootstrap.Remap{
		{Source: "chatter", Destination: "renamed"},
	})

	sub, err := f.Subscribe("chatter", std.NewString().Type(), std.NewString, func(message.Message) {})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Shutdown()

	if sub.topic != "/renamed" {
		t.Fatalf("subscription registered under %q, want %q", sub.topic, "/renamed")
	}
}

// TestWaitForServiceTimesOutWithNoProvider verifies that polling a service with no registered provider returns a Timeout error
// once the deadline passes, rather than blocking forever or surfacing the
// directory's "no provider" error directly.
func TestWaitForServiceTimesOutWithNoProvider(t *testing.T) {
	dir := newFakeDirectory()
	f := newTestFacade(t, dir, "caller", "/", nil)

	start := time.Now()
	err := f.WaitForService("/add", 250*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !errors.Is(err, rerr.ErrTimeout) {
		t.Fatalf("expected Timeout error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 250*time.Millisecond {
		t.Fatalf("returned after %v, before the requested timeout", elapsed)
	}
}

// TestWaitForServiceSucceedsOnceRegistered exercises the success path of
// the same poll loop once a provider appears mid-wait.
func TestWaitForServiceSucceedsOnceRegistered(t *testing.T) {
	dir := newFakeDirectory()
	provider := newTestFacade(t, dir, "adder", "/", nil)
	caller := newTestFacade(t, dir, "caller", "/", nil)

	done := make(chan error, 1)
	go func() { done <- caller.WaitForService("/add", 2*time.Second) }()

	time.Sleep(150 * time.Millisecond)
	srv, err := provider.Service("/add", std.AddTwoInts, func(req message.Message) (message.Message, error) {
		return std.NewAddTwoIntsResponse(), nil
	})
	if err != nil {
		t.Fatalf("Service: %v", err)
	}
	defer srv.Shutdown()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WaitForService: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for WaitForService to return")
	}
}
