package encoding

var defaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	registerAccounts(r)
	registerEvents(r)
	return r
}

// DefaultRegistry returns the registry of all quest program records.
// It must not be modified.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
