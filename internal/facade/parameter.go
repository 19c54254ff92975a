package facade

import "github.com/rosgraph-go/rosnode/internal/master"

// Parameter is a thin handle over one absolute parameter name in the
// directory's store: the store itself lives in the directory, not here.
type Parameter struct {
	name   string
	master *master.Client
}

// Name returns the parameter's absolute name.
func (p Parameter) Name() string { return p.name }

// Get fetches the parameter's raw value.
func (p Parameter) Get() (interface{}, error) {
	return p.master.GetParam(p.name)
}

// GetRaw is an alias for Get: this module's directory client already
// returns an untyped interface{}, so there is no separate typed
// deserialization path to distinguish it from.
func (p Parameter) GetRaw() (interface{}, error) {
	return p.Get()
}

// Set assigns the parameter's value.
func (p Parameter) Set(value interface{}) error {
	return p.master.SetParam(p.name, value)
}

// Delete removes the parameter.
func (p Parameter) Delete() error {
	return p.master.DeleteParam(p.name)
}

// Exists reports whether the parameter is currently set.
func (p Parameter) Exists() (bool, error) {
	return p.master.HasParam(p.name)
}

// Search finds the closest parameter upward in the namespace hierarchy.
func (p Parameter) Search() (string, error) {
	return p.master.SearchParam(p.name)
}
