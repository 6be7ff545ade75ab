package gateway

import (
	"context"
	"fmt"
	"sync"
)

// CredentialSource supplies the provider credentials of a tenant.
type CredentialSource interface {
	Credentials(ctx context.Context, tenantID string) (Credentials, error)
}

// Registry hands out one Gateway per tenant. Credentials are looked up on
// every call so a rotated token takes effect on the next request; the
// Gateway is rebuilt only when they change.
type Registry struct {
	source CredentialSource
	opts   []Option

	mu       sync.Mutex
	gateways map[string]*registered
}

type registered struct {
	creds Credentials
	gw    *Gateway
}

func NewRegistry(source CredentialSource, opts ...Option) *Registry {
	return &Registry{source: source, opts: opts, gateways: make(map[string]*registered)}
}

func (r *Registry) Resolve(ctx context.Context, tenantID string) (*Gateway, error) {
	creds, err := r.source.Credentials(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("resolve tenant: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.gateways[tenantID]; ok && e.creds == creds {
		return e.gw, nil
	}
	gw := New(creds, r.opts...)
	r.gateways[tenantID] = &registered{creds: creds, gw: gw}
	return gw, nil
}
