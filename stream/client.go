package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-cloud/auth"
	"github.com/nerrad567/gray-logic-cloud/client"
	"github.com/nerrad567/gray-logic-cloud/endpoint"
	"github.com/nerrad567/gray-logic-cloud/logging"
)

// Connection constants.
const (
	// DefaultBackoff is the wait between reconnection attempts.
	DefaultBackoff = 5 * time.Second

	// connectTimeout bounds one broker connect attempt.
	connectTimeout = 10 * time.Second

	// subscribeTimeout bounds one subscribe acknowledgment.
	subscribeTimeout = 5 * time.Second

	// disconnectQuiesce is the milliseconds granted to in-flight
	// work on graceful disconnect.
	disconnectQuiesce = 1000

	// brokerKeepAlive is the MQTT ping interval.
	brokerKeepAlive = 60 * time.Second
)

// Handler receives each decoded report: the reporting device id and
// the parsed envelope. It is invoked sequentially, in wire order.
type Handler func(deviceID string, envelope *client.BRDP)

// Client maintains the subscription to one broker.
//
// Thread Safety:
//   - Connect and Disconnect are safe to call from any goroutine.
//   - The broker connection itself is owned exclusively by the
//     background receive loop.
type Client struct {
	provider auth.Provider
	broker   endpoint.Endpoint
	username string // static credentials for the local-hub variant
	password string
	qos      byte
	backoff  time.Duration
	log      *logging.Logger

	// newClient is replaceable for tests.
	newClient func(*pahomqtt.ClientOptions) pahomqtt.Client

	// mu guards the connection lifecycle fields.
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc

	// deliverMu gates handler invocations: Disconnect takes the write
	// side, so once it returns no new delivery can begin and any
	// in-flight delivery has completed.
	deliverMu sync.RWMutex
	closed    bool
}

// Option configures a Client.
type Option func(*Client)

// WithBackoff sets the fixed reconnect backoff interval.
func WithBackoff(backoff time.Duration) Option {
	return func(c *Client) { c.backoff = backoff }
}

// WithQoS sets the subscription QoS level.
func WithQoS(qos byte) Option {
	return func(c *Client) { c.qos = qos }
}

// WithStaticCredentials switches the client to the local-hub
// credential scheme: a fixed client-id/secret pair instead of a
// bearer token.
func WithStaticCredentials(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithLogger sets the logger for connection lifecycle events.
func WithLogger(log *logging.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a subscription client for the given broker.
//
// Parameters:
//   - provider: Token source for broker credentials (ignored when
//     static credentials are configured)
//   - broker: Endpoint whose BrokerHost/BrokerPort to connect to
//   - opts: Optional configuration
func New(provider auth.Provider, broker endpoint.Endpoint, opts ...Option) *Client {
	c := &Client{
		provider:  provider,
		broker:    broker,
		backoff:   DefaultBackoff,
		log:       logging.Default().With("component", "stream"),
		newClient: pahomqtt.NewClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect starts the background receive loop for a topic.
//
// It does not block waiting for the broker: connection and
// subscription happen on the background goroutine, and failures there
// are retried forever rather than reported here.
//
// Parameters:
//   - ctx: Parent context; cancelling it also tears the loop down
//   - topic: Subscription topic (see HomeTopic / SubnetTopic)
//   - handler: Callback for each decoded report
//
// Returns:
//   - error: ErrNoHandler, ErrInvalidTopic or ErrAlreadyConnected;
//     never a transport error
func (c *Client) Connect(ctx context.Context, topic string, handler Handler) error {
	if handler == nil {
		return ErrNoHandler
	}
	if topic == "" {
		return ErrInvalidTopic
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return ErrAlreadyConnected
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.running = true
	c.cancel = cancel

	c.deliverMu.Lock()
	c.closed = false
	c.deliverMu.Unlock()

	go c.run(loopCtx, topic, handler)
	return nil
}

// Disconnect cancels the background loop and guarantees that no
// further handler invocation begins after it returns. It is
// idempotent.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.cancel()
	c.mu.Unlock()

	// Taking the write side waits out any in-flight delivery and
	// blocks new ones.
	c.deliverMu.Lock()
	c.closed = true
	c.deliverMu.Unlock()
}

// run is the connection state machine. It owns the broker connection
// exclusively and only returns when ctx is cancelled.
func (c *Client) run(ctx context.Context, topic string, handler Handler) {
	for {
		if ctx.Err() != nil {
			return
		}

		username, password, err := c.credentials(ctx)
		if err != nil {
			c.log.Error("credential refresh failed, will retry", "error", err)
			if !c.wait(ctx) {
				return
			}
			continue
		}

		lost := make(chan error, 1)
		mqttc := c.newClient(c.options(username, password, lost))

		if err := c.connectAndSubscribe(mqttc, topic, handler); err != nil {
			c.log.Warn("broker connection failed, will retry",
				"broker", c.broker.BrokerHost,
				"error", err,
			)
			mqttc.Disconnect(0)
			if !c.wait(ctx) {
				return
			}
			continue
		}

		c.log.Info("subscribed",
			"broker", c.broker.BrokerHost,
			"topic", topic,
		)

		select {
		case <-ctx.Done():
			mqttc.Disconnect(disconnectQuiesce)
			return
		case err := <-lost:
			c.log.Warn("broker connection lost, reconnecting", "error", err)
			if !c.wait(ctx) {
				return
			}
		}
	}
}

// credentials resolves the broker username/password for this attempt.
// The cloud scheme uses a fresh access token as username with an empty
// password; the local scheme uses the static pair.
func (c *Client) credentials(ctx context.Context) (string, string, error) {
	if c.username != "" {
		return c.username, c.password, nil
	}
	token, err := c.provider.EnsureValid(ctx)
	if err != nil {
		return "", "", err
	}
	return token, "", nil
}

// options builds the paho options for one connection attempt.
// Auto-reconnect stays off: reconnection must go through the loop so
// the token is refreshed first.
func (c *Client) options(username, password string, lost chan<- error) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", c.broker.BrokerHost, c.broker.BrokerPort))
	opts.SetClientID("glc-" + uuid.NewString())
	opts.SetUsername(username)
	opts.SetPassword(password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetKeepAlive(brokerKeepAlive)
	opts.SetConnectTimeout(connectTimeout)
	// Ordered dispatch: per-device wire order is part of the
	// delivery contract.
	opts.SetOrderMatters(true)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		select {
		case lost <- err:
		default:
		}
	})
	return opts
}

// connectAndSubscribe performs one connect + subscribe cycle.
func (c *Client) connectAndSubscribe(mqttc pahomqtt.Client, topic string, handler Handler) error {
	token := mqttc.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("connect timeout after %v", connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	sub := mqttc.Subscribe(topic, c.qos, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		c.handleMessage(handler, msg.Topic(), msg.Payload())
	})
	if !sub.WaitTimeout(subscribeTimeout) {
		return fmt.Errorf("subscribe timeout after %v", subscribeTimeout)
	}
	if err := sub.Error(); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

// wait sleeps for the backoff interval. It returns false when ctx was
// cancelled during the wait.
func (c *Client) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.backoff):
		return true
	}
}

// handleMessage decodes one inbound wire message and, when it passes
// the topic and event filters, delivers it to the handler under the
// delivery gate.
func (c *Client) handleMessage(handler Handler, topic string, payload []byte) {
	deviceID, ok := deviceIDFromTopic(topic)
	if !ok {
		return
	}

	brdp, err := client.DecodeBRDP(payload)
	if err != nil {
		// Brokers occasionally push empty or truncated reports;
		// drop them without disturbing the loop.
		c.log.Debug("dropping malformed envelope", "topic", topic, "error", err)
		return
	}
	if brdp.Event == "" {
		return
	}
	if !allowedEvents[eventVerb(brdp.Event)] {
		return
	}

	c.deliverMu.RLock()
	defer c.deliverMu.RUnlock()
	if c.closed {
		return
	}
	handler(deviceID, brdp)
}
