package slave

import (
	"os"

	"github.com/fetchrobotics/rosgo/xmlrpc"
)

const (
	statusError   = -1
	statusFailure = 0
	statusSuccess = 1
)

func result(status int, msg string, value interface{}) []interface{} {
	return []interface{}{status, msg, value}
}

// methods builds the inbound control-plane method table
// requires the slave to serve, in the same shape
// fetchrobotics/rosgo's defaultNode builds its xmlrpc.Handler map.
func (s *Slave) methods() map[string]xmlrpc.Method {
	return map[string]xmlrpc.Method{
		"getBusStats":      func(callerID string) (interface{}, error) { return s.getBusStats(), nil },
		"getBusInfo":       func(callerID string) (interface{}, error) { return s.getBusInfo(), nil },
		"getMasterUri":     func(callerID string) (interface{}, error) { return s.getMasterURI(), nil },
		"shutdown":         func(callerID, reason string) (interface{}, error) { return s.rpcShutdown(reason), nil },
		"getPid":           func(callerID string) (interface{}, error) { return s.getPid(), nil },
		"getSubscriptions": func(callerID string) (interface{}, error) { return s.getSubscriptions(), nil },
		"getPublications":  func(callerID string) (interface{}, error) { return s.getPublications(), nil },
		"paramUpdate": func(callerID, key string, value interface{}) (interface{}, error) {
			return s.paramUpdate(key, value), nil
		},
		"publisherUpdate": func(callerID, topic string, publishers []interface{}) (interface{}, error) {
			return s.rpcPublisherUpdate(topic, publishers), nil
		},
		"requestTopic": func(callerID, topic string, protocols []interface{}) (interface{}, error) {
			return s.rpcRequestTopic(topic, protocols), nil
		},
	}
}

// getBusStats/getBusInfo are diagnostics; allows a stub.
// Richer per-connection detail is available via the debug websocket feed
// instead (internal/slave/debug), not through this structured-RPC surface.
func (s *Slave) getBusStats() interface{} {
	return result(statusError, "not implemented; see debug feed", 0)
}

func (s *Slave) getBusInfo() interface{} {
	return result(statusError, "not implemented; see debug feed", 0)
}

func (s *Slave) getMasterURI() interface{} {
	return result(statusSuccess, "Success", s.masterURI)
}

func (s *Slave) rpcShutdown(reason string) interface{} {
	s.logger.Infof("shutdown requested: %s", reason)
	go s.Shutdown() // must not block the RPC response itself
	return result(statusSuccess, "Success", 0)
}

func (s *Slave) getPid() interface{} {
	return result(statusSuccess, "Success", os.Getpid())
}

func (s *Slave) getSubscriptions() interface{} {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	out := make([]interface{}, 0, len(s.subs))
	for topic, sub := range s.subs {
		out = append(out, []interface{}{topic, sub.typ.Name})
	}
	return result(statusSuccess, "Success", out)
}

func (s *Slave) getPublications() interface{} {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	out := make([]interface{}, 0, len(s.pubs))
	for topic, pub := range s.pubs {
		out = append(out, []interface{}{topic, pub.typ.Name})
	}
	return result(statusSuccess, "Success", out)
}

// paramUpdate is a no-op: this core defines no subscriber registry for
// parameter-change notifications, so an update
// for a key nobody is watching is simply acknowledged.
func (s *Slave) paramUpdate(key string, value interface{}) interface{} {
	return result(statusSuccess, "Success", 0)
}

func (s *Slave) rpcPublisherUpdate(topic string, publishers []interface{}) interface{} {
	if _, ok := s.Subscription(topic); !ok {
		return result(statusFailure, "No such topic", 0)
	}
	uris := make([]string, 0, len(publishers))
	for _, v := range publishers {
		if u, ok := v.(string); ok {
			uris = append(uris, u)
		}
	}
	if err := s.AddPublishersToSubscription(topic, uris); err != nil {
		s.logger.Warnf("publisherUpdate(%s): %v", topic, err)
	}
	return result(statusSuccess, "Success", 0)
}

func (s *Slave) rpcRequestTopic(topic string, protocols []interface{}) interface{} {
	pub, ok := s.Publication(topic)
	if !ok {
		return result(statusFailure, "No such topic", nil)
	}
	for _, v := range protocols {
		spec, ok := v.([]interface{})
		if !ok || len(spec) == 0 {
			continue
		}
		name, _ := spec[0].(string)
		if name == "TCPROS" {
			return result(statusSuccess, "Success", []interface{}{"TCPROS", pub.hostname, pub.Port()})
		}
	}
	return result(statusFailure, "no supported protocol", nil)
}
