// Package provider keeps the static list of external identity providers
// offered to users for confirmation.
package provider

import "fmt"

// Descriptor describes a provider as shown to users.
type Descriptor struct {
	// Name is the display name, also used as the registry key.
	Name string `json:"name"`
	// Logo is a URL or asset path of the provider logo.
	Logo string `json:"logo"`
}

// Registry holds the configured providers in registration order.
// It is built once at start-up and only read afterwards.
type Registry struct {
	list   []Descriptor
	byName map[string]Descriptor
}

// NewRegistry registers the given providers. Names must be unique and non-empty.
func NewRegistry(list ...Descriptor) (*Registry, error) {
	r := &Registry{
		list:   make([]Descriptor, 0, len(list)),
		byName: make(map[string]Descriptor, len(list)),
	}
	for _, d := range list {
		if d.Name == "" {
			return nil, fmt.Errorf("provider: empty name")
		}
		if _, exists := r.byName[d.Name]; exists {
			return nil, fmt.Errorf("provider %s already registered", d.Name)
		}
		r.byName[d.Name] = d
		r.list = append(r.list, d)
	}
	return r, nil
}

// List returns a copy of the registered providers.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.list))
	copy(out, r.list)
	return out
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Przelewy24Name is the registry key of the Przelewy24 provider.
const Przelewy24Name = "Przelewy24"

// Przelewy24 returns the descriptor of the Przelewy24 provider.
func Przelewy24(logo string) Descriptor {
	return Descriptor{Name: Przelewy24Name, Logo: logo}
}
