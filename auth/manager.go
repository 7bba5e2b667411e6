package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-cloud/logging"
)

// Expiry safety margins. A cached token is treated as stale when its
// expiry falls within the margin of "now".
const (
	// DefaultExpiryMargin suits cloud deployments where tokens live
	// for hours and a refresh costs a round trip to the region gateway.
	DefaultExpiryMargin = 5 * time.Minute

	// ClockSkewMargin suits local-hub deployments where the only
	// concern is clock drift between client and hub.
	ClockSkewMargin = 20 * time.Second

	// tokenRequestTimeout bounds a single token endpoint call.
	tokenRequestTimeout = 10 * time.Second
)

// Provider supplies access tokens to the request executor and the
// streaming subscription.
type Provider interface {
	// AccessToken returns the last cached token without network I/O.
	// It returns "" when no token has been fetched yet.
	AccessToken() string

	// EnsureValid returns a token that is valid for at least the
	// configured expiry margin, refreshing it over the network first
	// when necessary.
	EnsureValid(ctx context.Context) (string, error)

	// AuthHeader returns the Authorization header value for the
	// current cached token.
	AuthHeader() string
}

// Credential is one issued token with its absolute expiry.
// Credentials are immutable; a refresh replaces the whole value.
type Credential struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Manager implements Provider with the OAuth2 client-credentials grant.
type Manager struct {
	httpClient   *http.Client
	tokenURL     string
	clientID     string
	clientSecret string
	scope        string
	margin       time.Duration
	log          *logging.Logger

	// mu guards cred and serialises token fetches (single-flight).
	mu   sync.Mutex
	cred *Credential

	// now is replaceable for tests.
	now func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient sets the HTTP client used for token requests.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

// WithExpiryMargin sets the staleness margin applied to the cached
// token expiry. Use ClockSkewMargin for local-hub deployments.
func WithExpiryMargin(margin time.Duration) Option {
	return func(m *Manager) { m.margin = margin }
}

// WithScope sets the OAuth2 scope sent with token requests.
// The local hub requires scope "create"; the cloud ignores it.
func WithScope(scope string) Option {
	return func(m *Manager) { m.scope = scope }
}

// WithLogger sets the logger for token lifecycle events.
func WithLogger(log *logging.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// NewManager creates a Manager for the given token endpoint and
// client-credentials pair.
//
// Parameters:
//   - tokenURL: OAuth2 token endpoint (see package endpoint)
//   - clientID, clientSecret: credentials issued by the platform
//   - opts: optional configuration
//
// Returns:
//   - *Manager: Manager ready for use; no network I/O is performed here
func NewManager(tokenURL, clientID, clientSecret string, opts ...Option) *Manager {
	m := &Manager{
		httpClient:   &http.Client{Timeout: tokenRequestTimeout},
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		margin:       DefaultExpiryMargin,
		log:          logging.Default().With("component", "auth"),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AccessToken returns the last cached token, or "" when none exists.
// It never performs network I/O.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return ""
	}
	return m.cred.AccessToken
}

// AuthHeader returns the bearer Authorization header value for the
// current cached token.
func (m *Manager) AuthHeader() string {
	return "Bearer " + m.AccessToken()
}

// EnsureValid returns a valid access token, fetching a new one when no
// credential is cached or the cached expiry falls within the margin.
//
// The internal lock guarantees at most one token fetch is in flight;
// concurrent callers block and observe the single outcome. On failure
// the previous credential, if any, is kept.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - string: A token valid for at least the configured margin
//   - error: Wraps ErrAuthenticationFailed when the endpoint rejects us
func (m *Manager) EnsureValid(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid() {
		return m.cred.AccessToken, nil
	}

	cred, err := m.fetchToken(ctx)
	if err != nil {
		return "", err
	}
	m.cred = cred

	m.log.Debug("access token refreshed", "expires_at", cred.ExpiresAt)
	return cred.AccessToken, nil
}

// valid reports whether the cached credential outlives the margin.
// Callers must hold mu.
func (m *Manager) valid() bool {
	if m.cred == nil {
		return false
	}
	return m.cred.ExpiresAt.After(m.now().Add(m.margin))
}

// tokenResponse is the success body of the token endpoint.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// tokenError is the failure body of the token endpoint.
type tokenError struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// fetchToken performs one client-credentials token request.
// Callers must hold mu.
func (m *Manager) fetchToken(ctx context.Context) (*Credential, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
	}
	if m.scope != "" {
		form.Set("scope", m.scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: building token request: %w", ErrAuthenticationFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: token request: %w", ErrAuthenticationFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading token response: %w", ErrAuthenticationFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var terr tokenError
		if json.Unmarshal(body, &terr) != nil || terr.Error == "" {
			terr = tokenError{Error: "unknown", Description: "unknown error"}
		}
		m.log.Error("token request failed",
			"status", resp.StatusCode,
			"error", terr.Error,
			"description", terr.Description,
		)
		return nil, fmt.Errorf("%w: %s: %s", ErrAuthenticationFailed, terr.Error, terr.Description)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("%w: decoding token response: %w", ErrAuthenticationFailed, err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response missing access_token", ErrAuthenticationFailed)
	}

	return &Credential{
		AccessToken: tr.AccessToken,
		ExpiresAt:   m.now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}
