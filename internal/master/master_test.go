package master

import (
	"errors"
	"testing"

	"github.com/rosgraph-go/rosnode/rerr"
)

type fakeTransport struct {
	calls     []call
	responses map[string]interface{}
	err       error
}

type call struct {
	method string
	args   []interface{}
}

func (f *fakeTransport) Call(uri, method string, args ...interface{}) (interface{}, error) {
	f.calls = append(f.calls, call{method, args})
	if f.err != nil {
		return nil, f.err
	}
	if resp, ok := f.responses[method]; ok {
		return resp, nil
	}
	return []interface{}{1, "Success", 0}, nil
}

func newTestClient(ft *fakeTransport) *Client {
	return &Client{URI: "http://master:11311/", CallerID: "/talker", CallerAPI: "http://talker:1234/", transport: ft}
}

func TestRegisterPublisherReturnsSubscriberList(t *testing.T) {
	ft := &fakeTransport{responses: map[string]interface{}{
		"registerPublisher": []interface{}{1, "Success", []interface{}{"http://sub1:1/", "http://sub2:2/"}},
	}}
	c := newTestClient(ft)
	subs, err := c.RegisterPublisher("/chatter", "std_msgs/String")
	if err != nil {
		t.Fatalf("RegisterPublisher: %v", err)
	}
	if len(subs) != 2 || subs[0] != "http://sub1:1/" {
		t.Errorf("got %v", subs)
	}
	if len(ft.calls) != 1 || ft.calls[0].method != "registerPublisher" {
		t.Errorf("unexpected calls: %+v", ft.calls)
	}
}

func TestStatusBelowOneSurfacesAsDirectoryError(t *testing.T) {
	ft := &fakeTransport{responses: map[string]interface{}{
		"lookupService": []interface{}{0, "no provider", 0},
	}}
	c := newTestClient(ft)
	_, err := c.LookupService("/add")
	if err == nil {
		t.Fatal("expected error")
	}
	var rerrErr *rerr.Error
	if !errors.As(err, &rerrErr) || rerrErr.Kind != rerr.DirectoryError {
		t.Fatalf("expected DirectoryError, got %v", err)
	}
	if rerrErr.Cause.Error() != "no provider" {
		t.Errorf("expected cause %q, got %q", "no provider", rerrErr.Cause.Error())
	}
}

func TestTransportErrorSurfacesUnchanged(t *testing.T) {
	wantErr := errors.New("connection refused")
	ft := &fakeTransport{err: wantErr}
	c := newTestClient(ft)
	_, err := c.RegisterSubscriber("/chatter", "std_msgs/String")
	var rerrErr *rerr.Error
	if !errors.As(err, &rerrErr) || rerrErr.Kind != rerr.TransportError {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if !errors.Is(rerrErr.Cause, wantErr) && rerrErr.Cause.Error() != wantErr.Error() {
		t.Errorf("expected cause to wrap %v, got %v", wantErr, rerrErr.Cause)
	}
}
