package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// tokenServer returns an httptest server that issues tokens and counts
// how many requests it has served.
func tokenServer(t *testing.T, count *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count.Add(1)

		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q, want client_credentials", got)
		}
		if got := r.PostForm.Get("client_id"); got != "test-id" {
			t.Errorf("client_id = %q, want test-id", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":7200}`))
	}))
}

func TestEnsureValid(t *testing.T) {
	var count atomic.Int64
	srv := tokenServer(t, &count)
	defer srv.Close()

	m := NewManager(srv.URL, "test-id", "test-secret")

	tok, err := m.EnsureValid(context.Background())
	if err != nil {
		t.Fatalf("EnsureValid() error = %v", err)
	}
	if tok != "tok-1" {
		t.Errorf("EnsureValid() = %q, want tok-1", tok)
	}
	if m.AccessToken() != "tok-1" {
		t.Errorf("AccessToken() = %q, want tok-1", m.AccessToken())
	}
	if got := m.AuthHeader(); got != "Bearer tok-1" {
		t.Errorf("AuthHeader() = %q, want Bearer tok-1", got)
	}
}

func TestEnsureValidCachesToken(t *testing.T) {
	var count atomic.Int64
	srv := tokenServer(t, &count)
	defer srv.Close()

	m := NewManager(srv.URL, "test-id", "test-secret")

	for i := 0; i < 3; i++ {
		if _, err := m.EnsureValid(context.Background()); err != nil {
			t.Fatalf("EnsureValid() error = %v", err)
		}
	}
	if got := count.Load(); got != 1 {
		t.Errorf("token fetches = %d, want 1 (cached token should be reused)", got)
	}
}

func TestEnsureValidSingleFlight(t *testing.T) {
	var count atomic.Int64
	srv := tokenServer(t, &count)
	defer srv.Close()

	m := NewManager(srv.URL, "test-id", "test-secret")

	const callers = 20
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			tok, err := m.EnsureValid(context.Background())
			if err != nil {
				t.Errorf("EnsureValid() error = %v", err)
			}
			if tok != "tok-1" {
				t.Errorf("EnsureValid() = %q, want tok-1", tok)
			}
		}()
	}
	wg.Wait()

	if got := count.Load(); got != 1 {
		t.Errorf("token fetches = %d, want 1 (single-flight)", got)
	}
}

func TestEnsureValidRefreshesNearExpiry(t *testing.T) {
	var count atomic.Int64
	srv := tokenServer(t, &count)
	defer srv.Close()

	m := NewManager(srv.URL, "test-id", "test-secret")
	if _, err := m.EnsureValid(context.Background()); err != nil {
		t.Fatalf("EnsureValid() error = %v", err)
	}

	// Advance the clock to within the expiry margin.
	m.now = func() time.Time { return time.Now().Add(7200*time.Second - time.Minute) }

	if _, err := m.EnsureValid(context.Background()); err != nil {
		t.Fatalf("EnsureValid() error = %v", err)
	}
	if got := count.Load(); got != 2 {
		t.Errorf("token fetches = %d, want 2 (near-expiry token should refresh)", got)
	}
}

func TestEnsureValidFailureKeepsStaleCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"bad secret"}`))
	}))
	defer srv.Close()

	m := NewManager(srv.URL, "test-id", "bad-secret")
	m.cred = &Credential{AccessToken: "stale", ExpiresAt: time.Now()}

	_, err := m.EnsureValid(context.Background())
	if err == nil {
		t.Fatal("EnsureValid() expected error")
	}
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("EnsureValid() error = %v, want ErrAuthenticationFailed", err)
	}
	if !strings.Contains(err.Error(), "invalid_client") {
		t.Errorf("EnsureValid() error = %v, want vendor error code in message", err)
	}
	if m.AccessToken() != "stale" {
		t.Errorf("AccessToken() = %q, stale credential should survive a failed refresh", m.AccessToken())
	}
}

func TestAccessTokenEmptyBeforeFetch(t *testing.T) {
	m := NewManager("http://127.0.0.1:0", "id", "secret")
	if got := m.AccessToken(); got != "" {
		t.Errorf("AccessToken() = %q, want empty before first fetch", got)
	}
}

func TestWithScope(t *testing.T) {
	var gotScope string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotScope = r.PostForm.Get("scope")
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":60}`))
	}))
	defer srv.Close()

	m := NewManager(srv.URL, "id", "secret", WithScope("create"), WithExpiryMargin(ClockSkewMargin))
	if _, err := m.EnsureValid(context.Background()); err != nil {
		t.Fatalf("EnsureValid() error = %v", err)
	}
	if gotScope != "create" {
		t.Errorf("scope = %q, want create", gotScope)
	}
}
