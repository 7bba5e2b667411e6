package device

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-cloud/auth"
	"github.com/nerrad567/gray-logic-cloud/client"
	"github.com/nerrad567/gray-logic-cloud/endpoint"
)

type fixedProvider struct{}

func (fixedProvider) AccessToken() string                           { return "tok" }
func (fixedProvider) EnsureValid(_ context.Context) (string, error) { return "tok", nil }
func (fixedProvider) AuthHeader() string                            { return "Bearer tok" }

var _ auth.Provider = fixedProvider{}

// gatewayFor runs a fake gateway serving Home.getDeviceList with the
// given device entries and answering getExternalData calls.
func gatewayFor(t *testing.T, devices []map[string]any, extData map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call client.Call
		if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
			t.Errorf("decoding call: %v", err)
		}

		resp := map[string]any{"code": "000000", "desc": "ok", "data": map[string]any{}}
		switch {
		case call.Method == "Home.getDeviceList":
			resp["data"] = map[string]any{"devices": devices}
		case len(call.Method) > 0 && call.TargetDevice != "":
			resp["data"] = map[string]any{"extData": extData}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

// testEndpoint binds the registry to the fake gateway. The "Local"
// name forces every device onto the same URL.
func testEndpoint(url string) endpoint.Endpoint {
	return endpoint.Endpoint{Name: "Local", URL: url, BrokerHost: "127.0.0.1", BrokerPort: 18080}
}

func testDevices() []map[string]any {
	return []map[string]any{
		{
			"deviceId":  "dev-a",
			"name":      "Front Door",
			"type":      TypeDoorSensor,
			"token":     "tok-a",
			"modelName": "YS7804-UC",
		},
		{
			"deviceId":       "dev-b",
			"name":           "Garage Leak Probe",
			"type":           TypeLeakSensor,
			"token":          "tok-b",
			"modelName":      "YS7903-UC",
			"parentDeviceId": "dev-a",
		},
		{
			"deviceId":       "dev-c",
			"name":           "Orphan",
			"type":           TypeOutlet,
			"token":          "tok-c",
			"modelName":      "YS6604-UC",
			"parentDeviceId": "null",
		},
	}
}

func newTestRegistry(t *testing.T, srv *httptest.Server, opts ...RegistryOption) *Registry {
	t.Helper()
	c := client.New(fixedProvider{})
	return NewRegistry(c, testEndpoint(srv.URL), opts...)
}

// =============================================================================
// Load and Lookup Tests
// =============================================================================

func TestLoad(t *testing.T) {
	srv := gatewayFor(t, testDevices(), nil)
	defer srv.Close()

	r := newTestRegistry(t, srv)
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}

	d, ok := r.Get("dev-a")
	if !ok {
		t.Fatal("Get(dev-a) not found")
	}
	if d.Name != "Front Door" || d.Type != TypeDoorSensor {
		t.Errorf("Get(dev-a) = %+v", d)
	}
	if d.Endpoint.URL != srv.URL {
		t.Errorf("device endpoint = %q, want session endpoint for local variant", d.Endpoint.URL)
	}
}

func TestLoadBeforeFirstLoad(t *testing.T) {
	srv := gatewayFor(t, nil, nil)
	defer srv.Close()

	r := newTestRegistry(t, srv)
	if _, ok := r.Get("dev-a"); ok {
		t.Error("Get() before Load() should report not found")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0 before Load()", r.Len())
	}
}

func TestLoadSkipsMalformedEntries(t *testing.T) {
	devices := append(testDevices(), map[string]any{"name": "no id"})
	srv := gatewayFor(t, devices, nil)
	defer srv.Close()

	r := newTestRegistry(t, srv)
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3 (malformed entry skipped)", r.Len())
	}
}

func TestLoadFetchesDepthSensorAttributes(t *testing.T) {
	devices := []map[string]any{{
		"deviceId":  "dev-depth",
		"name":      "Tank Probe",
		"type":      TypeWaterDepthSensor,
		"token":     "tok-d",
		"modelName": "YS7A01-UC",
	}}
	ext := map[string]any{"range": map[string]any{"range": float64(5), "density": float64(1)}}

	srv := gatewayFor(t, devices, ext)
	defer srv.Close()

	r := newTestRegistry(t, srv)
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	d, _ := r.Get("dev-depth")
	if d.Attributes == nil {
		t.Fatal("depth sensor Attributes not populated from getExternalData")
	}
	if _, ok := d.Attributes["range"]; !ok {
		t.Errorf("Attributes = %v, want calibration range", d.Attributes)
	}
}

func TestReloadSwapsTable(t *testing.T) {
	srv := gatewayFor(t, testDevices(), nil)
	defer srv.Close()

	r := newTestRegistry(t, srv)
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Concurrent readers during a reload must always see a complete table.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			if n := r.Len(); n != 3 {
				t.Errorf("Len() = %d during reload, want 3", n)
				return
			}
		}
	}()

	for i := 0; i < 10; i++ {
		if err := r.Load(context.Background()); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
	}
	<-done
}

// =============================================================================
// Pairing Tests
// =============================================================================

func TestPaired(t *testing.T) {
	srv := gatewayFor(t, testDevices(), nil)
	defer srv.Close()

	r := newTestRegistry(t, srv)
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	parent, ok := r.Paired("dev-b")
	if !ok {
		t.Fatal("Paired(dev-b) should resolve")
	}
	if parent.DeviceID != "dev-a" {
		t.Errorf("Paired(dev-b) = %q, want dev-a", parent.DeviceID)
	}

	if _, ok := r.Paired("dev-a"); ok {
		t.Error("Paired(dev-a) should not resolve (no parent)")
	}
	if _, ok := r.Paired("dev-c"); ok {
		t.Error("Paired(dev-c) should not resolve (null sentinel)")
	}
	if _, ok := r.Paired("missing"); ok {
		t.Error("Paired(missing) should not resolve")
	}
}

func TestPairedDanglingParent(t *testing.T) {
	devices := []map[string]any{{
		"deviceId":       "dev-x",
		"name":           "Dangling",
		"type":           TypeLeakSensor,
		"token":          "tok-x",
		"modelName":      "YS7903-UC",
		"parentDeviceId": "not-in-registry",
	}}
	srv := gatewayFor(t, devices, nil)
	defer srv.Close()

	r := newTestRegistry(t, srv)
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, ok := r.Paired("dev-x"); ok {
		t.Error("a parent outside the registry must be treated as no pairing")
	}
}

// =============================================================================
// Online Determination Tests
// =============================================================================

func TestRegistryOnline(t *testing.T) {
	store, err := OpenStateStore(":memory:")
	if err != nil {
		t.Fatalf("OpenStateStore() error = %v", err)
	}
	defer store.Close()

	srv := gatewayFor(t, testDevices(), nil)
	defer srv.Close()

	r := newTestRegistry(t, srv, WithStateStore(store))
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	ctx := context.Background()

	// Never reported: offline.
	online, err := r.Online(ctx, "dev-a")
	if err != nil {
		t.Fatalf("Online() error = %v", err)
	}
	if online {
		t.Error("Online() = true for device with no report")
	}

	// Fresh report: online.
	if err := store.RecordReport(ctx, "dev-a", map[string]any{"state": "closed"}, time.Now()); err != nil {
		t.Fatalf("RecordReport() error = %v", err)
	}
	online, err = r.Online(ctx, "dev-a")
	if err != nil {
		t.Fatalf("Online() error = %v", err)
	}
	if !online {
		t.Error("Online() = false for freshly reported device")
	}

	// Stale report: offline.
	if err := store.RecordReport(ctx, "dev-a", nil, time.Now().Add(-24*time.Hour)); err != nil {
		t.Fatalf("RecordReport() error = %v", err)
	}
	online, _ = r.Online(ctx, "dev-a")
	if online {
		t.Error("Online() = true for device silent past its keepalive")
	}

	if _, err := r.Online(ctx, "missing"); err == nil {
		t.Error("Online() expected error for unknown device")
	}
}

func TestRegistryOnlineWithoutStore(t *testing.T) {
	srv := gatewayFor(t, testDevices(), nil)
	defer srv.Close()

	r := newTestRegistry(t, srv)
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := r.Online(context.Background(), "dev-a"); err == nil {
		t.Error("Online() expected ErrNoStateStore without a configured store")
	}
}
