// Package commerce holds the one HTTP boundary between the gateway and the
// remote commerce backend: base URL resolution, bearer-header injection
// from the session provider, and response-envelope normalization.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lmdelacruz/evride-storefront/pkg/config"
	pkgerrors "github.com/lmdelacruz/evride-storefront/pkg/errors"
	"github.com/lmdelacruz/evride-storefront/pkg/logger"
	"github.com/lmdelacruz/evride-storefront/pkg/metrics"
	"github.com/lmdelacruz/evride-storefront/pkg/session"
)

// Doer abstracts *http.Client for tests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL  *url.URL
	http     Doer
	sessions session.Provider
	logg     *logger.Logger
	metrics  *metrics.UpstreamMetrics
}

func NewClient(cfg config.UpstreamConfig, sessions session.Provider, logg *logger.Logger, m *metrics.UpstreamMetrics) (*Client, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session provider required")
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing upstream base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  parsed,
		http:     &http.Client{Timeout: timeout},
		sessions: sessions,
		logg:     logg,
		metrics:  m,
	}, nil
}

// NewClientWithDoer wires a custom transport; tests point it at httptest
// servers or stubs.
func NewClientWithDoer(cfg config.UpstreamConfig, sessions session.Provider, logg *logger.Logger, m *metrics.UpstreamMetrics, doer Doer) (*Client, error) {
	client, err := NewClient(cfg, sessions, logg, m)
	if err != nil {
		return nil, err
	}
	if doer != nil {
		client.http = doer
	}
	return client, nil
}

// Request describes one upstream call.
type Request struct {
	Method      string
	Path        string
	Route       string // metric label template, e.g. "/cart/{itemID}"; Path when empty
	Query       url.Values
	JSON        any       // marshaled when non-nil
	RawBody     io.Reader // used verbatim when JSON is nil
	ContentType string    // required alongside RawBody
	RequireAuth bool
}

// route is the bounded label the request is recorded under. Paths carry
// raw ids, which would blow up metric cardinality.
func (r Request) route() string {
	if r.Route != "" {
		return r.Route
	}
	return r.Path
}

// Response carries the raw upstream answer for callers that need the exact
// status or body, plus the normalized payload for everyone else.
type Response struct {
	StatusCode int
	Body       []byte
	Payload    Payload
}

// Token exposes the current session token; "" means guest.
func (c *Client) Token(ctx context.Context) string {
	return c.sessions.Token(ctx)
}

// Do performs the upstream call. A RequireAuth request with no token in
// scope fails immediately with an authentication error; the backend is
// never contacted. Non-2xx responses map to typed errors carrying the
// backend's message when it supplied one.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	token := c.sessions.Token(ctx)
	if req.RequireAuth && token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication required")
	}

	httpReq, err := c.build(ctx, req, token)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.ObserveRequest(req.route(), req.Method, 0, time.Since(start))
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "commerce backend unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.metrics.ObserveRequest(req.route(), req.Method, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBadResponse, err, "read upstream body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError(ctx, req, resp.StatusCode, body)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Payload:    Normalize(body),
	}, nil
}

// Forward relays a request verbatim and hands back the raw status and body
// without interpreting either. The proxy endpoints are built on this.
func (c *Client) Forward(ctx context.Context, method, path string, body io.Reader, headers http.Header) (int, []byte, error) {
	target := c.resolve(path, nil)
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build forward request")
	}
	for _, key := range []string{"Authorization", "Content-Type", "Accept"} {
		if v := headers.Get(key); v != "" {
			httpReq.Header.Set(key, v)
		}
	}
	if httpReq.Header.Get("Content-Type") == "" && body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.ObserveRequest(path, method, 0, time.Since(start))
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "commerce backend unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	c.metrics.ObserveRequest(path, method, resp.StatusCode, time.Since(start))
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeBadResponse, err, "read upstream body")
	}
	return resp.StatusCode, raw, nil
}

func (c *Client) build(ctx context.Context, req Request, token string) (*http.Request, error) {
	var body io.Reader
	contentType := req.ContentType

	if req.JSON != nil {
		encoded, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	} else if req.RawBody != nil {
		body = req.RawBody
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.resolve(req.Path, req.Query), body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upstream request")
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	ref := *c.baseURL
	ref.Path = strings.TrimRight(ref.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		ref.RawQuery = query.Encode()
	}
	return ref.String()
}

func (c *Client) statusError(ctx context.Context, req Request, status int, body []byte) error {
	message := ErrorMessage(body)
	if c.logg != nil {
		lctx := c.logg.WithUpstream(ctx, req.Path)
		lctx = c.logg.WithField(lctx, "upstream_status", status)
		c.logg.Warn(lctx, "upstream.request_failed")
	}

	switch status {
	case http.StatusUnauthorized:
		if message == "" {
			message = "Authentication required"
		}
		return pkgerrors.New(pkgerrors.CodeUnauthorized, message)
	case http.StatusNotFound:
		if message == "" {
			message = "resource not found"
		}
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if message == "" {
			message = "request rejected by commerce backend"
		}
		return pkgerrors.New(pkgerrors.CodeValidation, message)
	default:
		if message == "" {
			message = fmt.Sprintf("commerce backend returned status %d", status)
		}
		return pkgerrors.New(pkgerrors.CodeUpstream, message).WithDetails(map[string]any{"status": status})
	}
}
