package home

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nerrad567/gray-logic-cloud/auth"
	"github.com/nerrad567/gray-logic-cloud/client"
	"github.com/nerrad567/gray-logic-cloud/config"
	"github.com/nerrad567/gray-logic-cloud/device"
	"github.com/nerrad567/gray-logic-cloud/endpoint"
	"github.com/nerrad567/gray-logic-cloud/logging"
	"github.com/nerrad567/gray-logic-cloud/resolve"
	"github.com/nerrad567/gray-logic-cloud/stream"
)

// libraryVersion is stamped into every log line.
const libraryVersion = "0.9.0"

// localTokenScope is required by the hub's token endpoint; the cloud
// endpoint ignores scopes.
const localTokenScope = "create"

// Listener receives resolved device reports.
//
// OnDeviceMessage is invoked from the subscription's receive goroutine,
// sequentially and in wire order. Implementations must not block for
// long and must not call back into Session.Setup or Session.Unload.
type Listener interface {
	OnDeviceMessage(dev *device.Descriptor, data map[string]any)
}

// Session is one authenticated connection to a home: the request
// executor, device registry and streaming subscription behind a single
// lifecycle.
//
// Thread Safety:
//   - Setup, Unload and Close are safe to call from any goroutine.
//   - Accessors may be called concurrently with message dispatch.
type Session struct {
	sessionEP endpoint.Endpoint
	netID     string // local-hub subnet id; empty for cloud sessions
	provider  auth.Provider
	client    *client.Client
	registry  *device.Registry
	stream    *stream.Client
	store     *device.StateStore
	log       *logging.Logger

	// mu guards the session lifecycle fields.
	mu       sync.Mutex
	listener Listener
	homeID   string
	active   bool
}

// SessionOption configures a Session before its collaborators are wired.
type SessionOption func(*Session)

// WithEndpoint overrides the endpoint derived from configuration.
// Intended for tests and for hosts not in the static region table.
func WithEndpoint(ep endpoint.Endpoint) SessionOption {
	return func(s *Session) { s.sessionEP = ep }
}

// WithLogger overrides the logger built from the logging configuration.
func WithLogger(log *logging.Logger) SessionOption {
	return func(s *Session) { s.log = log }
}

// NewSession wires a Session from configuration.
//
// The local-hub variant is selected when local_hub.host is set: the
// session then authenticates against the hub with the short clock-skew
// expiry margin and subscribes to the hub's subnet topic. Otherwise the
// cloud region endpoint is used.
//
// No network I/O happens here; the first request is made by Setup.
//
// Parameters:
//   - cfg: Validated configuration (see config.Load)
//   - opts: Optional overrides
//
// Returns:
//   - *Session: Session ready for Setup
//   - error: If the state store cannot be opened
func NewSession(cfg *config.Config, opts ...SessionOption) (*Session, error) {
	s := &Session{
		log: logging.New(cfg.Logging, libraryVersion),
	}

	local := cfg.LocalHub.Host != ""
	if local {
		s.sessionEP = endpoint.Local(cfg.LocalHub.Host)
		s.netID = cfg.LocalHub.NetID
	} else {
		s.sessionEP = endpoint.ForRegion(cfg.Cloud.Region)
	}

	for _, opt := range opts {
		opt(s)
	}

	if local {
		s.provider = auth.NewManager(s.sessionEP.TokenURL,
			cfg.LocalHub.ClientID, cfg.LocalHub.ClientSecret,
			auth.WithExpiryMargin(auth.ClockSkewMargin),
			auth.WithScope(localTokenScope),
			auth.WithLogger(s.log.With("component", "auth")),
		)
	} else {
		s.provider = auth.NewManager(s.sessionEP.TokenURL,
			cfg.Cloud.ClientID, cfg.Cloud.ClientSecret,
			auth.WithLogger(s.log.With("component", "auth")),
		)
	}

	s.client = client.New(s.provider,
		client.WithLogger(s.log.With("component", "client")),
	)

	registryOpts := []device.RegistryOption{
		device.WithKeepalives(device.Keepalives{
			Sensor:     cfg.Keepalive.Sensor,
			Controller: cfg.Keepalive.Controller,
			Hub:        cfg.Keepalive.Hub,
		}),
		device.WithLogger(s.log.With("component", "registry")),
	}
	if cfg.Store.Enabled {
		store, err := device.OpenStateStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("opening state store: %w", err)
		}
		s.store = store
		registryOpts = append(registryOpts, device.WithStateStore(store))
	}
	s.registry = device.NewRegistry(s.client, s.sessionEP, registryOpts...)

	streamOpts := []stream.Option{
		stream.WithBackoff(cfg.ReconnectDelay()),
		stream.WithQoS(byte(cfg.Stream.QoS)),
		stream.WithLogger(s.log.With("component", "stream")),
	}
	if local {
		streamOpts = append(streamOpts,
			stream.WithStaticCredentials(cfg.LocalHub.ClientID, cfg.LocalHub.ClientSecret))
	}
	s.stream = stream.New(s.provider, s.sessionEP, streamOpts...)

	return s, nil
}

// Setup brings the session up: authenticate, fetch the home identity,
// load the device registry and start the streaming subscription.
//
// The subscription itself is established in the background; a broker
// outage delays message delivery but never fails Setup.
//
// Parameters:
//   - ctx: Context for the bring-up requests; also parents the
//     subscription's receive loop
//   - listener: Receiver for resolved device reports (required)
//
// Returns:
//   - error: An initialization error for a missing listener,
//     ErrSessionActive for a double Setup, or the underlying
//     request error from the bring-up sequence
func (s *Session) Setup(ctx context.Context, listener Listener) error {
	if listener == nil {
		return client.NewInitializationError("message listener is required")
	}

	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return ErrSessionActive
	}
	s.active = true
	s.listener = listener
	s.mu.Unlock()

	topic, err := s.resolveTopic(ctx)
	if err != nil {
		s.reset()
		return err
	}

	if err := s.registry.Load(ctx); err != nil {
		s.reset()
		return fmt.Errorf("loading device registry: %w", err)
	}

	if err := s.stream.Connect(ctx, topic, s.dispatch); err != nil {
		s.reset()
		return err
	}

	s.log.Info("session established",
		"endpoint", s.sessionEP.Name,
		"devices", s.registry.Len(),
	)
	return nil
}

// resolveTopic determines the subscription topic for this session.
// Local sessions subscribe by subnet id; cloud sessions first resolve
// the home id from the platform.
func (s *Session) resolveTopic(ctx context.Context) (string, error) {
	if s.netID != "" {
		return stream.SubnetTopic(s.netID), nil
	}

	brdp, err := s.client.Execute(ctx, s.sessionEP.URL, client.NewCall("Home.getGeneralInfo"))
	if err != nil {
		return "", fmt.Errorf("fetching home info: %w", err)
	}
	homeID, ok := brdp.Data["id"].(string)
	if !ok || homeID == "" {
		return "", ErrHomeIDMissing
	}

	s.mu.Lock()
	s.homeID = homeID
	s.mu.Unlock()

	return stream.HomeTopic(homeID), nil
}

// Unload tears the session down. After it returns no further listener
// invocation begins; an in-flight one completes first. Idempotent.
func (s *Session) Unload() {
	s.stream.Disconnect()
	s.reset()
}

// reset clears the lifecycle state.
func (s *Session) reset() {
	s.mu.Lock()
	s.listener = nil
	s.homeID = ""
	s.active = false
	s.mu.Unlock()
}

// Close unloads the session and releases the state store, if any.
func (s *Session) Close() error {
	s.Unload()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// HomeID returns the platform's home identifier, or "" before Setup and
// for local-hub sessions.
func (s *Session) HomeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.homeID
}

// Registry exposes the device registry for lookups and device calls.
func (s *Session) Registry() *device.Registry {
	return s.registry
}

// Reload refreshes the device registry from the platform. Lookups see
// either the old table or the new one, never a mixture.
func (s *Session) Reload(ctx context.Context) error {
	return s.registry.Load(ctx)
}

// dispatch is the subscription handler: resolve the report payload,
// persist it as the device's latest report and fan it out.
//
// For a device with a paired sibling the sibling receives the state
// sub-object first, then the reporting device receives the full
// payload. Both deliveries complete before the next report.
func (s *Session) dispatch(deviceID string, envelope *client.BRDP) {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return
	}

	dev, ok := s.registry.Get(deviceID)
	if !ok {
		s.log.Debug("dropping report from unregistered device", "device_id", deviceID)
		return
	}
	data := envelope.Data
	if data == nil {
		return
	}

	s.resolvePayload(dev, envelope.Event, data)

	state, _ := data["state"].(map[string]any)
	if err := s.registry.RecordReport(context.Background(), deviceID, state); err != nil {
		s.log.Warn("recording report failed", "device_id", deviceID, "error", err)
	}

	if paired, ok := s.registry.Paired(deviceID); ok && state != nil {
		listener.OnDeviceMessage(paired, state)
	}
	listener.OnDeviceMessage(dev, data)
}

// resolvePayload applies the per-type payload normalization in place.
// Types without special handling pass through untouched.
func (s *Session) resolvePayload(dev *device.Descriptor, event string, data map[string]any) {
	switch dev.Type {
	case device.TypeSmartRemoter:
		resolve.ButtonEvent(messageType(event), data)
	case device.TypeWaterDepthSensor:
		if state, ok := data["state"].(map[string]any); ok {
			resolve.WaterDepth(state, dev.Attributes)
		}
	case device.TypeWaterMeterController:
		if state, ok := data["state"].(map[string]any); ok {
			resolve.WaterMeter(state, dev.ModelName, dev.Attributes)
		}
	case device.TypeWaterMeterMulti:
		if state, ok := data["state"].(map[string]any); ok {
			resolve.WaterMeterMulti(state, dev.ModelName, dev.Attributes)
		}
	}
}

// messageType extracts the message-type discriminator from an event
// string of the form "{Category}.{Verb}".
func messageType(event string) string {
	segments := strings.Split(event, ".")
	return segments[len(segments)-1]
}
