package poller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-crm-gateway/internal/gateway"
	"whatsapp-crm-gateway/internal/logging"
)

type recorder struct {
	mu     sync.Mutex
	events []gateway.ConnectionStatus
}

func (r *recorder) NotifyStatus(_ string, status any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, status.(gateway.ConnectionStatus))
}

func (r *recorder) States() []gateway.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []gateway.State
	for _, e := range r.events {
		out = append(out, e.State)
	}
	return out
}

type staticSource struct{ gw *gateway.Gateway }

func (s staticSource) Resolve(context.Context, string) (*gateway.Gateway, error) { return s.gw, nil }

func TestStatusPoller_PublishesOnlyChanges(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch n := polls.Add(1); {
		case n <= 2:
			w.Write([]byte(`{"instance":{"state":"connecting"}}`))
		default:
			w.Write([]byte(`{"instance":{"state":"open"}}`))
		}
	}))
	defer srv.Close()

	gw := gateway.New(gateway.Credentials{BaseURL: srv.URL, InstanceID: "shop"},
		gateway.WithHTTPClient(srv.Client()), gateway.WithRetries(0), gateway.WithLogger(logging.Discard()))

	rec := &recorder{}
	p := &StatusPoller{
		Gateways: staticSource{gw: gw},
		Tenants:  func(context.Context) ([]string, error) { return []string{"acme"}, nil },
		Notifier: rec,
		Interval: 10 * time.Millisecond,
		Logger:   logging.Discard(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return polls.Load() >= 5 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.Equal(t, []gateway.State{gateway.StateConnecting, gateway.StateConnected}, rec.States())
}

func TestStatusPoller_ZeroIntervalUsesDefault(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"instance":{"state":"open"}}`))
	}))
	defer srv.Close()

	gw := gateway.New(gateway.Credentials{BaseURL: srv.URL, InstanceID: "shop"},
		gateway.WithHTTPClient(srv.Client()), gateway.WithRetries(0), gateway.WithLogger(logging.Discard()))

	rec := &recorder{}
	p := &StatusPoller{
		Gateways: staticSource{gw: gw},
		Tenants:  func(context.Context) ([]string, error) { return []string{"acme"}, nil },
		Notifier: rec,
		Logger:   logging.Discard(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return len(rec.States()) == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.EqualValues(t, 1, polls.Load(), "no second poll before the default interval")
}
