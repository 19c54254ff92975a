package slave

import (
	"fmt"

	"github.com/fetchrobotics/rosgo/xmlrpc"
)

// xmlrpcCall is a package variable so tests can substitute a fake peer
// transport without a live XML-RPC server; production code never
// reassigns it.
var xmlrpcCall = xmlrpc.Call

// requestTopic calls a remote slave's inbound requestTopic method,
// offering "TCPROS" as the only supported protocol, and returns the
// host/port it should dial for the topic's data connection.
func requestTopic(peerURI, callerID, topic string) (host string, port int, err error) {
	protocols := []interface{}{[]interface{}{"TCPROS"}}
	result, err := xmlrpcCall(peerURI, "requestTopic", callerID, topic, protocols)
	if err != nil {
		return "", 0, transportErr("requestTopic", err)
	}
	triple, ok := result.([]interface{})
	if !ok || len(triple) != 3 {
		return "", 0, transportErr("requestTopic", fmt.Errorf("malformed response: %#v", result))
	}
	status := toInt(triple[0])
	if status < 1 {
		msg, _ := triple[1].(string)
		return "", 0, transportErr("requestTopic", fmt.Errorf("%s", msg))
	}
	proto, ok := triple[2].([]interface{})
	if !ok || len(proto) < 3 {
		return "", 0, protocolErr("requestTopic", fmt.Errorf("malformed protocol tuple: %#v", triple[2]))
	}
	name, _ := proto[0].(string)
	if name != "TCPROS" {
		return "", 0, protocolErr("requestTopic", fmt.Errorf("peer offered unsupported protocol %q", name))
	}
	host, _ = proto[1].(string)
	return host, toInt(proto[2]), nil
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
