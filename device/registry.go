package device

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-cloud/client"
	"github.com/nerrad567/gray-logic-cloud/endpoint"
	"github.com/nerrad567/gray-logic-cloud/logging"
)

// attributeFetchTypes are device types whose descriptors need an extra
// getExternalData fetch at load time.
var attributeFetchTypes = map[string]bool{
	TypeWaterDepthSensor: true,
}

// Registry maintains the device table for one home (or local subnet).
//
// Thread Safety:
//   - Lookups read an immutable table snapshot and are safe from any
//     goroutine, including the streaming receive loop.
//   - Load replaces the whole table atomically; a concurrent reader
//     sees either the previous or the new table, never a partial one.
type Registry struct {
	client     *client.Client
	sessionEP  endpoint.Endpoint
	keepalives Keepalives
	store      *StateStore
	log        *logging.Logger

	table atomic.Pointer[map[string]*Descriptor]
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithKeepalives overrides the per-class keepalive intervals.
func WithKeepalives(k Keepalives) RegistryOption {
	return func(r *Registry) { r.keepalives = k }
}

// WithStateStore attaches a last-report state store, enabling
// Online() and RecordReport().
func WithStateStore(s *StateStore) RegistryOption {
	return func(r *Registry) { r.store = s }
}

// WithLogger sets the registry logger.
func WithLogger(log *logging.Logger) RegistryOption {
	return func(r *Registry) { r.log = log }
}

// NewRegistry creates a Registry bound to a session endpoint.
//
// For the local-hub variant (sessionEP.Name == "Local"), every device
// is bound to the session endpoint; otherwise each device resolves its
// own region from metadata.
//
// Parameters:
//   - c: Request executor for Home.getDeviceList and device calls
//   - sessionEP: Endpoint the session authenticated against
//   - opts: Optional configuration
func NewRegistry(c *client.Client, sessionEP endpoint.Endpoint, opts ...RegistryOption) *Registry {
	r := &Registry{
		client:    c,
		sessionEP: sessionEP,
		log:       logging.Default().With("component", "registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load fetches the device list and replaces the registry table.
//
// Device-attribute fetches (depth-sensor calibration) happen here;
// a failed attribute fetch is logged and leaves Attributes nil, it
// never fails the load.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - error: Request executor error when the device list fetch fails
func (r *Registry) Load(ctx context.Context) error {
	brdp, err := r.client.Execute(ctx, r.sessionEP.URL, client.NewCall("Home.getDeviceList"))
	if err != nil {
		return fmt.Errorf("fetching device list: %w", err)
	}

	rawDevices, _ := brdp.Data["devices"].([]any)

	var local *endpoint.Endpoint
	if r.sessionEP.Name == "Local" {
		local = &r.sessionEP
	}

	table := make(map[string]*Descriptor, len(rawDevices))
	for _, raw := range rawDevices {
		d, err := decodeDescriptor(raw)
		if err != nil {
			r.log.Warn("skipping malformed device entry", "error", err)
			continue
		}
		d.bindEndpoint(local)
		d.client = r.client

		if attributeFetchTypes[d.Type] {
			r.fetchAttributes(ctx, d)
		}

		table[d.DeviceID] = d
	}

	r.table.Store(&table)
	r.log.Info("device registry loaded", "devices", len(table))
	return nil
}

// decodeDescriptor converts one raw device-list entry into a Descriptor.
func decodeDescriptor(raw any) (*Descriptor, error) {
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var d Descriptor
	if err := json.Unmarshal(buf, &d); err != nil {
		return nil, err
	}
	if d.DeviceID == "" {
		return nil, fmt.Errorf("device entry missing deviceId")
	}
	return &d, nil
}

// fetchAttributes performs the lazy settings fetch for the descriptor.
func (r *Registry) fetchAttributes(ctx context.Context, d *Descriptor) {
	brdp, err := d.GetExternalData(ctx)
	if err != nil {
		r.log.Warn("device attribute fetch failed",
			"device_id", d.DeviceID,
			"type", d.Type,
			"error", err,
		)
		return
	}
	if ext, ok := brdp.Data["extData"].(map[string]any); ok {
		d.Attributes = ext
	}
}

// snapshot returns the current table, or nil before the first Load.
func (r *Registry) snapshot() map[string]*Descriptor {
	p := r.table.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Get looks up a device by id.
func (r *Registry) Get(deviceID string) (*Descriptor, bool) {
	d, ok := r.snapshot()[deviceID]
	return d, ok
}

// Devices returns every descriptor in the current table.
func (r *Registry) Devices() []*Descriptor {
	table := r.snapshot()
	out := make([]*Descriptor, 0, len(table))
	for _, d := range table {
		out = append(out, d)
	}
	return out
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	return len(r.snapshot())
}

// Paired resolves the device paired with deviceID.
//
// A parent reference that does not resolve within the same table is
// treated as no pairing.
func (r *Registry) Paired(deviceID string) (*Descriptor, bool) {
	table := r.snapshot()
	d, ok := table[deviceID]
	if !ok {
		return nil, false
	}
	parentID := d.PairedID()
	if parentID == "" {
		return nil, false
	}
	parent, ok := table[parentID]
	return parent, ok
}

// Keepalive returns the keepalive interval in seconds for a descriptor.
func (r *Registry) Keepalive(d *Descriptor) int {
	return r.keepalives.KeepaliveSeconds(Classify(d.Type, d.ModelName))
}

// RecordReport persists a state snapshot as the device's latest report.
// It is a no-op without a configured state store.
func (r *Registry) RecordReport(ctx context.Context, deviceID string, state map[string]any) error {
	if r.store == nil {
		return nil
	}
	return r.store.RecordReport(ctx, deviceID, state, time.Now())
}

// Online determines whether a device is currently reachable, using the
// persisted last-report snapshot and the class keepalive interval.
//
// Returns:
//   - bool: Online status (missing data fails safe to offline)
//   - error: ErrDeviceNotFound for unknown ids, ErrNoStateStore when
//     no store is configured, or the underlying store error
func (r *Registry) Online(ctx context.Context, deviceID string) (bool, error) {
	d, ok := r.Get(deviceID)
	if !ok {
		return false, ErrDeviceNotFound
	}
	if r.store == nil {
		return false, ErrNoStateStore
	}

	state, reportAt, ok, err := r.store.LastReport(ctx, deviceID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	class := Classify(d.Type, d.ModelName)
	return Online(class, r.keepalives.KeepaliveSeconds(class), state, reportAt, time.Now()), nil
}
