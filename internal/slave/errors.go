package slave

import "github.com/rosgraph-go/rosnode/rerr"

func shutdownErr(op string) error {
	return rerr.New(rerr.Shutdown, op, nil)
}

func transportErr(op string, cause error) error {
	return rerr.New(rerr.TransportError, op, cause)
}

func protocolErr(op string, cause error) error {
	return rerr.New(rerr.Protocol, op, cause)
}
