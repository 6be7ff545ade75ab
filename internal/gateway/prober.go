package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"whatsapp-crm-gateway/internal/metrics"
)

const maxResponseBytes = 8 << 20

// recognizer reports whether a decoded 2xx body has a shape the normalizer
// understands for the operation.
type recognizer func(body any) bool

// prober runs one cascade: candidates strictly in order, first recognized
// response wins.
type prober struct {
	client  *http.Client
	creds   Credentials
	timeout time.Duration
	logger  *slog.Logger
}

// run returns the decoded body and the candidate that produced it. When all
// candidates fail it returns *CascadeExhaustedError. A cancelled parent
// context abandons the cascade and its error is returned as is.
func (p *prober) run(ctx context.Context, op Operation, candidates []Candidate, params Params, recognize recognizer) (any, Candidate, error) {
	failures := make([]Failure, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, Candidate{}, err
		}

		start := time.Now()
		body, err := p.attempt(ctx, c, params, recognize)
		elapsed := time.Since(start)

		if err == nil {
			metrics.ObserveAttempt(string(op), "success", elapsed)
			p.logger.Debug("candidate accepted",
				"operation", op, "candidate", c.String(), "duration", elapsed)
			return body, c, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			metrics.ObserveAttempt(string(op), "cancelled", elapsed)
			return nil, Candidate{}, ctxErr
		}

		f := failureFrom(err)
		f.Candidate = c.String()
		failures = append(failures, f)
		metrics.ObserveAttempt(string(op), string(f.Kind), elapsed)
		p.logger.Warn("candidate failed",
			"operation", op,
			"candidate", f.Candidate,
			"kind", f.Kind,
			"status", f.StatusCode,
			"reason", f.Reason,
			"duration", elapsed)
	}
	return nil, Candidate{}, &CascadeExhaustedError{Operation: op, Failures: failures}
}

func (p *prober) attempt(ctx context.Context, c Candidate, params Params, recognize recognizer) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	name := c.String()
	var bodyReader io.Reader
	if payload := c.BuildBody(params); payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &TransportError{Candidate: name, Err: fmt.Errorf("marshal request: %w", err)}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, c.Verb, p.creds.baseURL()+c.BuildPath(params), bodyReader)
	if err != nil {
		return nil, &TransportError{Candidate: name, Err: fmt.Errorf("create request: %w", err)}
	}
	for k, v := range p.creds.Headers() {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &TransportError{Candidate: name, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Candidate: name, Err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &UpstreamAuthError{Candidate: name, StatusCode: resp.StatusCode, Body: snippet(raw)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &HTTPStatusError{Candidate: name, StatusCode: resp.StatusCode, Body: snippet(raw)}
	}

	body := decodeBody(raw)
	if !recognize(body) {
		return nil, &StructuralMismatchError{Candidate: name, Reason: "no recognizable field in " + snippet(raw)}
	}
	return body, nil
}

// decodeBody decodes JSON when it can. Empty bodies decode to nil and
// anything else that is not JSON is kept as a string.
func decodeBody(raw []byte) any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return string(trimmed)
	}
	return v
}

const maxSnippetBytes = 200

// snippet shortens a body for diagnostics without splitting a rune.
func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > maxSnippetBytes {
		cut := maxSnippetBytes
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	if s == "" {
		return "<empty body>"
	}
	return s
}
