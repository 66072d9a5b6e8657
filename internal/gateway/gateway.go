// Package gateway wraps every outgoing API call: it attaches the bearer
// credential, stamps a request ID, and drives a one-shot transparent
// credential repair when the server answers 401.
package gateway

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/fcastdev/fcast-cli/internal/ports"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

type Gateway struct {
	httpDoer       *http.Client
	store          ports.CredentialStore
	refresher      ports.SessionRefresher
	requestTimeout time.Duration
	log            zerolog.Logger
}

type Option func(*Gateway)

func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) { g.httpDoer = client }
}

func WithRequestTimeout(timeout time.Duration) Option {
	return func(g *Gateway) { g.requestTimeout = timeout }
}

func WithLogger(log zerolog.Logger) Option {
	return func(g *Gateway) { g.log = log }
}

func New(store ports.CredentialStore, opts ...Option) *Gateway {
	g := &Gateway{
		store: store,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetRefresher installs the session refresher after construction. The
// session manager depends on the gateway for its own calls, so the cycle is
// broken here rather than in the constructor.
func (g *Gateway) SetRefresher(refresher ports.SessionRefresher) {
	g.refresher = refresher
}

// Do sends the request with bearer attach and at most one repair-and-resend
// after a 401. The retry count is threaded explicitly so the at-most-once
// guarantee is auditable rather than hidden in request state.
func (g *Gateway) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return g.send(ctx, req, 0, true)
}

// DoOnce sends without the 401 repair path. The auth endpoints themselves
// (login, register, refresh) must use this: a 401 there means the submitted
// credentials are bad, not that the session needs repair.
func (g *Gateway) DoOnce(ctx context.Context, req *http.Request) (*http.Response, error) {
	return g.send(ctx, req, 0, false)
}

func (g *Gateway) send(ctx context.Context, req *http.Request, retries int, repair bool) (*http.Response, error) {
	g.prepare(ctx, req)

	requestCtx, cancel := g.requestContext(ctx)

	resp, err := g.httpClient().Do(req.WithContext(requestCtx))
	if err != nil {
		cancel()
		return nil, err
	}
	// The timeout context must outlive the response body; cancelling here
	// would sever the stream before the caller reads it.
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}

	if !repair || resp.StatusCode != http.StatusUnauthorized || retries >= 1 {
		return resp, nil
	}
	if g.refresher == nil {
		return resp, nil
	}

	retry, ok := cloneForRetry(ctx, req)
	if !ok {
		// Body cannot be replayed; surface the 401 as-is.
		return resp, nil
	}

	g.log.Debug().Str("url", req.URL.Path).Msg("authorization failed, attempting credential repair")

	if refreshErr := g.refresher.Refresh(ctx); refreshErr != nil {
		// Repair failed: the caller sees the original 401, and the
		// refresher has already run its logout cascade.
		g.log.Debug().Err(refreshErr).Msg("credential repair failed")
		return resp, nil
	}

	_ = resp.Body.Close()
	return g.send(ctx, retry, retries+1, repair)
}

// prepare attaches the bearer token when one is stored and stamps the
// request ID. Content-Type is only defaulted for bodies that carry none:
// multipart callers compute their own boundary type and it must survive.
func (g *Gateway) prepare(ctx context.Context, req *http.Request) {
	if req.Header.Get(requestIDHeader) == "" {
		req.Header.Set(requestIDHeader, uuid.NewString())
	}

	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	creds, err := g.store.Read(ctx)
	if err != nil {
		return
	}
	if creds.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	}
}

func cloneForRetry(ctx context.Context, req *http.Request) (*http.Request, bool) {
	retry := req.Clone(ctx)
	if req.Body == nil {
		return retry, true
	}
	if req.GetBody == nil {
		return nil, false
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	retry.Body = body

	// Force a fresh token read on resend: the repair minted a new access
	// token and the stale header must not win.
	retry.Header.Del("Authorization")
	return retry, true
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func (g *Gateway) httpClient() *http.Client {
	if g.httpDoer != nil {
		return g.httpDoer
	}
	return http.DefaultClient
}

func (g *Gateway) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := g.requestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}
