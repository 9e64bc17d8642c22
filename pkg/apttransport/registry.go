package apttransport

import (
	"context"
	"sort"
)

var _ Transport = &Registry{}

// Registry dispatches requests to the transport registered for the URI scheme
type Registry struct {
	transports map[string]Transport
}

// NewRegistry creates an empty transport registry
func NewRegistry() *Registry {
	return &Registry{
		transports: make(map[string]Transport),
	}
}

// NewDefaultRegistry creates a registry serving http, https and file URIs
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewHTTPTransport())
	r.Register(NewFileTransport())
	return r
}

// Register adds a transport for each of its schemes
func (r *Registry) Register(transport Transport) {
	for _, scheme := range transport.Schemes() {
		r.transports[scheme] = transport
	}
}

func (r *Registry) Schemes() []string {
	schemes := make([]string, 0, len(r.transports))
	for scheme := range r.transports {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

// Acquire automatically selects the appropriate transport and fetches the resource
func (r *Registry) Acquire(ctx context.Context, req *AcquireRequest) (*AcquireResponse, error) {
	transport, exists := r.transports[req.URI.Scheme]
	if !exists {
		return nil, &UnsupportedSchemeError{Scheme: req.URI.Scheme}
	}

	return transport.Acquire(ctx, req)
}
