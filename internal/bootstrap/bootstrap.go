// Package bootstrap resolves the process-wide inputs needed at façade
// construction: namespace, master URI, hostname, node name, and remap
// table. It mirrors fetchrobotics/rosgo's own bootstrap contract
// (ROS_MASTER_URI, ROS_NAMESPACE, ROS_HOSTNAME/ROS_IP, and `src:=dst`
// remap arguments) rather than inventing a new one, since this is the one
// place where following the real ROS environment contract matters more
// than inventing a cleaner one.
package bootstrap

import (
	"net"
	"os"
	"strings"
)

// Remap is a single source -> destination graph name rewrite, as typed on
// the command line in the form "source:=destination".
type Remap struct {
	Source      string
	Destination string
}

// Config carries every bootstrap input the façade constructor needs.
type Config struct {
	Namespace string
	MasterURI string
	Hostname  string
	Name      string
	Remaps    []Remap
}

const remapSeparator = ":="

// ParseArgs splits a process argument list into remappings and the
// remaining non-ROS arguments, following the "__special:=value",
// "_param:=value", "plain:=remapped" conventions real ROS CLI tools use.
// Only plain remaps (not leading with "_") are returned as Remap entries;
// "__"-prefixed specials are returned separately since they configure the
// bootstrap Config itself (name, namespace, master URI, ...) rather than
// the graph's remap table.
func ParseArgs(args []string) (remaps []Remap, specials map[string]string, rest []string) {
	specials = make(map[string]string)
	for _, arg := range args {
		parts := strings.SplitN(arg, remapSeparator, 2)
		if len(parts) != 2 {
			rest = append(rest, arg)
			continue
		}
		key, value := parts[0], parts[1]
		switch {
		case strings.HasPrefix(key, "__"):
			specials[key] = value
		case strings.HasPrefix(key, "_"):
			// Private parameter assignment; outside this core's scope
			// (the directory's parameter store is mutated directly via
			// Parameter.Set, not via the command line), but still not a
			// graph remap, so it is dropped from rest like real ROS does.
		default:
			remaps = append(remaps, Remap{Source: key, Destination: value})
		}
	}
	return remaps, specials, rest
}

// Resolve builds a Config from the process environment and argument list,
// the way rosgo's newDefaultNode does. name is the node's own requested
// leaf name; it may be overridden by a "__name:=" special.
func Resolve(name string, args []string) Config {
	remaps, specials, _ := ParseArgs(args)

	cfg := Config{
		Namespace: envOr("ROS_NAMESPACE", "/"),
		MasterURI: envOr("ROS_MASTER_URI", "http://localhost:11311/"),
		Hostname:  defaultHostname(),
		Name:      name,
		Remaps:    remaps,
	}
	if v, ok := specials["__ns"]; ok {
		cfg.Namespace = v
	}
	if v, ok := specials["__master"]; ok {
		cfg.MasterURI = v
	}
	if v, ok := specials["__name"]; ok {
		cfg.Name = v
	}
	if v, ok := specials["__hostname"]; ok {
		cfg.Hostname = v
	} else if v, ok := specials["__ip"]; ok {
		cfg.Hostname = v
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// defaultHostname picks an advertised hostname the way rosgo's
// determineHost does: prefer ROS_HOSTNAME/ROS_IP, then the machine's own
// hostname if it resolves, falling back to loopback.
func defaultHostname() string {
	if v := os.Getenv("ROS_HOSTNAME"); v != "" {
		return v
	}
	if v := os.Getenv("ROS_IP"); v != "" {
		return v
	}
	host, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	if _, err := net.LookupHost(host); err != nil {
		return "localhost"
	}
	return host
}
