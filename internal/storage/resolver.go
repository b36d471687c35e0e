package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
	"github.com/aryandalviplx/OCR-bill/internal/port"
)

// Resolver dispatches document loads to a scheme-specific loader, keyed by
// the location's scheme (s3://, https://, file://).
type Resolver struct {
	loaders map[string]port.DocumentLoader
}

// NewResolver creates a Resolver over the given scheme -> loader mapping.
func NewResolver(loaders map[string]port.DocumentLoader) *Resolver {
	return &Resolver{loaders: loaders}
}

// Load routes the location to the loader registered for its scheme.
func (r *Resolver) Load(ctx context.Context, location string) ([]byte, error) {
	scheme, _, ok := strings.Cut(location, "://")
	if !ok {
		return nil, fmt.Errorf("%q: %w", location, domain.ErrUnsupportedLocation)
	}
	loader, ok := r.loaders[scheme]
	if !ok {
		return nil, fmt.Errorf("%q: %w", location, domain.ErrUnsupportedLocation)
	}
	return loader.Load(ctx, location)
}
