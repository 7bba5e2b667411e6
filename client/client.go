package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-cloud/auth"
	"github.com/nerrad567/gray-logic-cloud/logging"
)

// requestTimeout bounds a single gateway round trip.
const requestTimeout = 8 * time.Second

// deviceRetryAttempts is the total number of attempts for a call that
// fails with ErrDeviceDisconnected. Only that error class is retried.
const deviceRetryAttempts = 2

// Client executes BSDP calls against a gateway URL.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	provider   auth.Provider
	httpClient *http.Client
	log        *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for gateway calls.
// Its timeout is overridden per request by the fixed request timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(log *logging.Logger) Option {
	return func(cl *Client) { cl.log = log }
}

// New creates a Client that authenticates through the given provider.
func New(provider auth.Provider, opts ...Option) *Client {
	c := &Client{
		provider:   provider,
		httpClient: &http.Client{},
		log:        logging.Default().With("component", "client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute performs one authenticated API call with the library retry
// policy applied.
//
// Parameters:
//   - ctx: Context for cancellation; the fixed 8 s timeout is layered on top
//   - url: Gateway URL of the endpoint the target is bound to
//   - call: BSDP request body
//
// Returns:
//   - *BRDP: Validated success envelope (code 000000)
//   - error: *APIError carrying the vendor code, matchable with
//     errors.Is against the category sentinels
func (c *Client) Execute(ctx context.Context, url string, call *Call) (*BRDP, error) {
	return c.execute(ctx, url, call, true)
}

// ExecuteUnauthenticated performs one API call without attaching a
// bearer token. The local hub accepts a small set of such calls.
func (c *Client) ExecuteUnauthenticated(ctx context.Context, url string, call *Call) (*BRDP, error) {
	return c.execute(ctx, url, call, false)
}

func (c *Client) execute(ctx context.Context, url string, call *Call, authRequired bool) (*BRDP, error) {
	var lastErr error
	for attempt := 1; attempt <= deviceRetryAttempts; attempt++ {
		brdp, err := c.once(ctx, url, call, authRequired)
		if err == nil {
			return brdp, nil
		}
		lastErr = err
		if !errors.Is(err, ErrDeviceDisconnected) {
			return nil, err
		}
		c.log.Warn("device unreachable, retrying",
			"method", call.Method,
			"target", call.TargetDevice,
			"attempt", attempt,
		)
	}
	return nil, lastErr
}

// once performs a single request/response cycle.
func (c *Client) once(ctx context.Context, url string, call *Call, authRequired bool) (*BRDP, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	body, err := json.Marshal(call)
	if err != nil {
		return nil, newRequestError(fmt.Sprintf("encoding request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, newRequestError(fmt.Sprintf("building request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	if authRequired {
		if _, err := c.provider.EnsureValid(ctx); err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", c.provider.AuthHeader())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newRequestError(fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newRequestError(fmt.Sprintf("reading response: %v", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newRequestError(fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	brdp, err := DecodeBRDP(raw)
	if err != nil {
		return nil, newRequestError(fmt.Sprintf("decoding envelope: %v", err))
	}
	if err := brdp.CheckResponse(); err != nil {
		return nil, err
	}
	return brdp, nil
}
