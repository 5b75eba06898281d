package services

import (
	"fmt"

	"github.com/seismo-labs/jane/internal/core/domain"
	"github.com/seismo-labs/jane/internal/core/ports/driven"
)

// Registry holds the document types configured at startup. Lookups by
// name happen only at the ingestion boundary; query services receive
// their descriptor directly.
type Registry struct {
	types map[string]*driven.DocumentType
	order []string
}

// NewRegistry builds a registry from descriptors. Later descriptors
// with a duplicate name replace earlier ones.
func NewRegistry(types ...*driven.DocumentType) *Registry {
	r := &Registry{types: make(map[string]*driven.DocumentType)}
	for _, t := range types {
		if _, seen := r.types[t.Name]; !seen {
			r.order = append(r.order, t.Name)
		}
		r.types[t.Name] = t
	}
	return r
}

// Get returns the descriptor for a type name.
func (r *Registry) Get(name string) (*driven.DocumentType, error) {
	t, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("document type %q: %w", name, domain.ErrUnsupportedType)
	}
	return t, nil
}

// Names returns the registered type names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
