package research

// Registry holds the constructed provider adapters, selected by tag at the
// orchestrator boundary. Adapters are built once at process start and
// injected; there is no module-level client state.
type Registry struct {
	adapters map[Provider]Adapter
}

// NewRegistry creates a registry from the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[Provider]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Provider()] = a
	}
	return &Registry{adapters: m}
}

// Get returns the adapter for a provider tag.
func (r *Registry) Get(p Provider) (Adapter, bool) {
	a, ok := r.adapters[p]
	return a, ok
}
