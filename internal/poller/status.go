package poller

import (
	"context"
	"log/slog"
	"time"

	"whatsapp-crm-gateway/internal/gateway"
)

// Notifier receives connection status changes.
type Notifier interface {
	NotifyStatus(tenant string, status any)
}

// GatewaySource resolves a tenant to its gateway.
type GatewaySource interface {
	Resolve(ctx context.Context, tenantID string) (*gateway.Gateway, error)
}

// DefaultInterval is used when StatusPoller.Interval is not positive.
const DefaultInterval = 15 * time.Second

// StatusPoller asks each tenant's gateway for its connection status on a
// fixed interval and publishes the result whenever the state or QR code
// changes. Cadence lives here, not in the gateway.
type StatusPoller struct {
	Gateways GatewaySource
	Tenants  func(ctx context.Context) ([]string, error)
	Notifier Notifier
	Interval time.Duration
	Logger   *slog.Logger

	last map[string]gateway.ConnectionStatus
}

// Run polls immediately, then on every tick. It returns when ctx is
// cancelled.
func (p *StatusPoller) Run(ctx context.Context) error {
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	p.last = make(map[string]gateway.ConnectionStatus)

	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	p.pollAll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.pollAll(ctx)
		}
	}
}

func (p *StatusPoller) pollAll(ctx context.Context) {
	tenants, err := p.Tenants(ctx)
	if err != nil {
		p.Logger.Warn("list tenants for status poll", "error", err)
		return
	}
	for _, id := range tenants {
		if ctx.Err() != nil {
			return
		}
		p.poll(ctx, id)
	}
}

func (p *StatusPoller) poll(ctx context.Context, tenant string) {
	gw, err := p.Gateways.Resolve(ctx, tenant)
	if err != nil {
		p.Logger.Warn("status poll skipped", "tenant", tenant, "error", err)
		return
	}
	st, err := gw.GetConnectionStatus(ctx)
	if err != nil {
		// Only cancellation ends up here.
		return
	}
	prev, seen := p.last[tenant]
	p.last[tenant] = st
	if seen && prev.State == st.State && prev.QRCode == st.QRCode {
		return
	}
	p.Logger.Info("connection status changed", "tenant", tenant, "from", prev.State, "to", st.State)
	p.Notifier.NotifyStatus(tenant, st)
}
