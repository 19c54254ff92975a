// Package naming implements the graph name resolver: an RWMutex-guarded
// struct holding a namespace, node name, and remap table. The remap
// table is filled by Map; Translate takes the read lock and Map the
// write lock.
package naming

import (
	"strings"
	"sync"

	"github.com/rosgraph-go/rosnode/rerr"
)

// Resolver lifts relative and private names to absolute graph names and
// applies a remap table.
type Resolver struct {
	namespace string // absolute, no trailing slash; the root namespace is ""
	nodeName  string // absolute node name, e.g. "/robot/talker"

	mu     sync.RWMutex
	remaps map[string]string
}

// New creates a Resolver for a node with the given absolute namespace and
// absolute node name. namespace's trailing slash is normalized away before
// any concatenation.
func New(namespace, nodeName string) *Resolver {
	ns := strings.TrimSuffix(namespace, "/")
	return &Resolver{
		namespace: ns,
		nodeName:  nodeName,
		remaps:    make(map[string]string),
	}
}

// validComponent reports whether a single "/"-separated path component is
// legal: non-empty, and free of whitespace and "/".
func validComponent(c string) bool {
	if c == "" {
		return false
	}
	for _, r := range c {
		if r == '/' || isSpace(r) {
			return false
		}
	}
	return true
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func validateComponents(name string) error {
	trimmed := strings.TrimPrefix(name, "/")
	if trimmed == "" {
		return nil
	}
	for _, c := range strings.Split(trimmed, "/") {
		if !validComponent(c) {
			return rerr.New(rerr.Naming, "translate", illegalCharacterError{name})
		}
	}
	return nil
}

type illegalCharacterError struct{ name string }

func (e illegalCharacterError) Error() string {
	return "illegal character or empty component in name: " + e.name
}

// lift turns a relative/private/absolute name into an absolute one,
// without applying remaps. This is the half of Translate that is
// idempotent on its own: lift(lift(n)) == lift(n) for any already-absolute
// n, which is what makes the full Translate idempotent once remaps (a
// terminal rewrite, never itself producing "~") are layered on top.
func (r *Resolver) lift(name string) (string, error) {
	switch {
	case strings.HasPrefix(name, "/"):
		return name, nil
	case strings.HasPrefix(name, "~"):
		rest := strings.TrimPrefix(name, "~")
		rest = strings.TrimPrefix(rest, "/")
		if rest == "" {
			return r.nodeName, nil
		}
		return r.nodeName + "/" + rest, nil
	default:
		if r.namespace == "" || r.namespace == "/" {
			return "/" + name, nil
		}
		return r.namespace + "/" + name, nil
	}
}

// Translate resolves name to its absolute graph form and applies the remap
// table. Translate is idempotent: calling it again on its
// own output returns the same value, since an already-absolute name with
// no remap match is returned unchanged, and a remapped name is never
// itself a key in the table (remaps are applied once, by construction of
// Map, which translates both sides up front).
func (r *Resolver) Translate(name string) (string, error) {
	if err := validateComponents(name); err != nil {
		return "", err
	}
	absolute, err := r.lift(name)
	if err != nil {
		return "", err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if dst, ok := r.remaps[absolute]; ok {
		return dst, nil
	}
	return absolute, nil
}

// Map records a remap from source to destination. Both are translated
// first (so remaps may be stated in relative or private form), then stored
// under their absolute forms; insertion order is irrelevant and a repeat
// Map call for the same source overwrites the previous destination.
func (r *Resolver) Map(source, destination string) error {
	src, err := r.Translate(source)
	if err != nil {
		return err
	}
	dst, err := r.Translate(destination)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remaps[src] = dst
	return nil
}

// NodeName returns the resolver's absolute node name.
func (r *Resolver) NodeName() string { return r.nodeName }

// Namespace returns the resolver's absolute namespace (no trailing slash).
func (r *Resolver) Namespace() string { return r.namespace }
