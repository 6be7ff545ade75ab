package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"whatsapp-crm-gateway/internal/metrics"
)

const (
	DefaultAttemptTimeout = 12 * time.Second
	DefaultRetries        = 1
	DefaultPageSize       = 50
	MaxPageSize           = 500
)

var defaultHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	},
}

// Gateway is the single entry point to a tenant's provider deployment. It
// holds only immutable configuration and a shared HTTP client, so one value
// may serve concurrent requests.
type Gateway struct {
	creds          Credentials
	client         *http.Client
	table          Table
	attemptTimeout time.Duration
	retries        int
	retryInterval  time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

type Option func(*Gateway)

// WithHTTPClient sets the outbound client. Its pooled transport is shared by
// every cascade.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		if c != nil {
			g.client = c
		}
	}
}

func WithTable(t Table) Option {
	return func(g *Gateway) { g.table = t }
}

// WithAttemptTimeout bounds each candidate attempt.
func WithAttemptTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.attemptTimeout = d
		}
	}
}

// WithRetries sets how many times an exhausted cascade is re-run when one
// of its failures was at the transport level. Sends are never re-run.
func WithRetries(n int) Option {
	return func(g *Gateway) {
		if n >= 0 {
			g.retries = n
		}
	}
}

func WithRetryInterval(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.retryInterval = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithClock replaces time.Now for fallback timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

func New(creds Credentials, opts ...Option) *Gateway {
	g := &Gateway{
		creds:          creds,
		client:         defaultHTTPClient,
		table:          DefaultTable(),
		attemptTimeout: DefaultAttemptTimeout,
		retries:        DefaultRetries,
		retryInterval:  500 * time.Millisecond,
		logger:         slog.Default(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("instance", creds.InstanceID)
	return g
}

// ListContacts never fails on upstream errors: an exhausted cascade yields a
// degraded result carrying the per-candidate failures. Only a cancelled
// context is returned as an error.
func (g *Gateway) ListContacts(ctx context.Context) (ContactsResult, error) {
	params := Params{Instance: g.creds.InstanceID, Sort: SortDesc}
	body, _, err := g.cascade(ctx, OpListContacts, params, recognizeContacts, true)
	if err != nil {
		var ce *CascadeExhaustedError
		if errors.As(err, &ce) {
			g.degraded(ce)
			return ContactsResult{Contacts: []Contact{}, IsDegraded: true, Diagnostics: ce.Failures}, nil
		}
		return ContactsResult{}, err
	}
	return ContactsResult{Contacts: NormalizeContacts(body, g.now())}, nil
}

// ListMessages returns one page of a contact's history. Like ListContacts
// it degrades instead of failing when every candidate fails.
func (g *Gateway) ListMessages(ctx context.Context, contactID string, pageSize int, order SortOrder) (MessagesResult, error) {
	contactID = strings.TrimSpace(contactID)
	if contactID == "" {
		return MessagesResult{}, fmt.Errorf("list messages: empty contact id: %w", ErrInvalidArgument)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if order != SortAsc {
		order = SortDesc
	}

	params := g.addressed(contactID)
	params.Limit = pageSize
	params.Sort = order

	body, _, err := g.cascade(ctx, OpListMessages, params, recognizeMessages, true)
	if err != nil {
		var ce *CascadeExhaustedError
		if errors.As(err, &ce) {
			g.degraded(ce)
			return MessagesResult{Messages: []Message{}, IsDegraded: true, Diagnostics: ce.Failures}, nil
		}
		return MessagesResult{}, err
	}
	return MessagesResult{Messages: NormalizeMessages(body, g.now())}, nil
}

// SendMessage sends a text message. An exhausted cascade is returned as
// *CascadeExhaustedError; no placeholder is ever substituted.
func (g *Gateway) SendMessage(ctx context.Context, contactID, text string) (SendResult, error) {
	contactID = strings.TrimSpace(contactID)
	if contactID == "" {
		return SendResult{}, fmt.Errorf("send message: empty contact id: %w", ErrInvalidArgument)
	}
	if strings.TrimSpace(text) == "" {
		return SendResult{}, fmt.Errorf("send message: empty body: %w", ErrInvalidArgument)
	}

	params := g.addressed(contactID)
	params.Text = text

	body, c, err := g.cascade(ctx, OpSendMessage, params, recognizeSend, false)
	if err != nil {
		return SendResult{}, fmt.Errorf("send message: %w", err)
	}
	res := NormalizeSend(body, g.now())
	g.logger.Info("message sent", "candidate", c.String(), "message_id", res.MessageID)
	return res, nil
}

// GetConnectionStatus polls the session state once. An exhausted cascade is
// reported as StateError with the failures in Detail.
func (g *Gateway) GetConnectionStatus(ctx context.Context) (ConnectionStatus, error) {
	params := Params{Instance: g.creds.InstanceID}
	body, c, err := g.cascade(ctx, OpConnectionStatus, params, recognizeStatus, true)
	if err != nil {
		var ce *CascadeExhaustedError
		if errors.As(err, &ce) {
			return ConnectionStatus{State: StateError, Detail: ce.Error()}, nil
		}
		return ConnectionStatus{}, err
	}
	st := ResolveStatus(body)
	st.Detail = fmt.Sprintf("%s via %s", st.Detail, c)
	return st, nil
}

// Disconnect ends the provider session. Failure is returned to the caller.
func (g *Gateway) Disconnect(ctx context.Context) (DisconnectResult, error) {
	params := Params{Instance: g.creds.InstanceID}
	_, c, err := g.cascade(ctx, OpDisconnect, params, recognizeDisconnect, true)
	if err != nil {
		return DisconnectResult{Success: false}, fmt.Errorf("disconnect: %w", err)
	}
	g.logger.Info("session disconnected", "candidate", c.String())
	return DisconnectResult{Success: true}, nil
}

// Candidates exposes the probe order for op, for diagnostics.
func (g *Gateway) Candidates(op Operation) []Candidate {
	return g.table.Candidates(op)
}

// cascade probes op's candidates. With retry set, an exhausted cascade that
// saw a transport failure is re-run with exponential backoff up to
// g.retries more times.
func (g *Gateway) cascade(ctx context.Context, op Operation, params Params, recognize recognizer, retry bool) (any, Candidate, error) {
	p := &prober{client: g.client, creds: g.creds, timeout: g.attemptTimeout, logger: g.logger}
	candidates := g.table.Candidates(op)

	var (
		body    any
		matched Candidate
	)
	run := func() error {
		b, c, err := p.run(ctx, op, candidates, params, recognize)
		if err == nil {
			body, matched = b, c
			return nil
		}
		var ce *CascadeExhaustedError
		if retry && errors.As(err, &ce) && ce.HasTransportFailure() {
			g.logger.Info("cascade exhausted, retrying", "operation", op)
			return err
		}
		return backoff.Permanent(err)
	}

	if !retry || g.retries == 0 {
		err := run()
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		if err != nil {
			g.exhausted(op, err)
			return nil, Candidate{}, err
		}
		return body, matched, nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = g.retryInterval
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(g.retries)), ctx)
	if err := backoff.Retry(run, policy); err != nil {
		g.exhausted(op, err)
		return nil, Candidate{}, err
	}
	return body, matched, nil
}

func (g *Gateway) exhausted(op Operation, err error) {
	var ce *CascadeExhaustedError
	if errors.As(err, &ce) {
		metrics.IncExhausted(string(op))
		g.logger.Error("cascade exhausted", "operation", op, "failures", len(ce.Failures))
	}
}

func (g *Gateway) degraded(ce *CascadeExhaustedError) {
	metrics.IncDegraded(string(ce.Operation))
	g.logger.Warn("returning degraded result", "operation", ce.Operation, "failures", len(ce.Failures))
}

// addressed fills Number and JID from a contact identifier, which may be a
// bare phone number or a provider JID.
func (g *Gateway) addressed(contactID string) Params {
	p := Params{Instance: g.creds.InstanceID}
	if strings.Contains(contactID, "@") {
		p.JID = contactID
		p.Number = phoneFromID(contactID)
	} else {
		p.Number = digits(contactID)
		if p.Number == "" {
			p.Number = contactID
		}
		p.JID = p.Number + "@s.whatsapp.net"
	}
	return p
}
