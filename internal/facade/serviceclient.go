package facade

import (
	"bytes"
	"net/url"

	"github.com/rosgraph-go/rosnode/internal/tcpros"
	"github.com/rosgraph-go/rosnode/message"
	"github.com/rosgraph-go/rosnode/rerr"
)

// ServiceClient is the short-lived handle Client constructs: one
// service call, addressed at the URI the directory resolved at
// construction time.
type ServiceClient struct {
	name     string
	uri      string
	callerID string
	st       message.ServiceType
}

// Call opens a new connection, sends req, and returns the decoded
// response or a Protocol/TransportError/BadMessage error.
func (c *ServiceClient) Call(req message.Message) (message.Message, error) {
	addr, err := addrOf(c.uri)
	if err != nil {
		return nil, err
	}
	conn, err := tcpros.DialServiceSide(addr, c.callerID, c.name, c.st.RequestType, false)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	body, err := tcpros.EncodeMessage(req)
	if err != nil {
		return nil, err
	}
	if err := tcpros.WriteFrame(conn.Net, body); err != nil {
		return nil, rerr.New(rerr.TransportError, "serviceclient.call", err)
	}
	ok, err := tcpros.ReadStatus(conn.Net)
	if err != nil {
		return nil, rerr.New(rerr.TransportError, "serviceclient.call", err)
	}
	respBody, err := tcpros.ReadFrame(conn.Net)
	if err != nil {
		return nil, rerr.New(rerr.TransportError, "serviceclient.call", err)
	}
	if !ok {
		return nil, rerr.New(rerr.Protocol, "serviceclient.call", serverError(respBody))
	}
	resp := c.st.NewResponse()
	if err := resp.Decode(bytes.NewReader(respBody)); err != nil {
		return nil, rerr.New(rerr.BadMessage, "serviceclient.call", err)
	}
	return resp, nil
}

type serverError string

func (e serverError) Error() string { return string(e) }

func addrOf(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", rerr.New(rerr.TransportError, "serviceclient.dial", err)
	}
	return u.Hostname() + ":" + u.Port(), nil
}
