package mqtt

import (
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-xmlruntime/internal/infrastructure/config"
)

// Logger receives connection events. *logging.Logger satisfies it.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Client publishes load reports and the tool's presence to one broker.
// It is safe for concurrent use.
type Client struct {
	paho   pahomqtt.Client
	cfg    config.MQTTConfig
	topics Topics
	log    Logger

	mu        sync.RWMutex
	connected bool
	connects  int
}

// Connect dials the broker and waits for the first connection, with the
// Last Will on the status topic already registered. Reconnects and lost
// connections are reported to log, which may be nil.
func Connect(cfg config.MQTTConfig, log Logger) (*Client, error) {
	c := &Client{
		cfg:    cfg,
		topics: Topics{Prefix: cfg.TopicPrefix},
		log:    log,
	}

	opts := buildClientOptions(cfg)
	configureLWT(opts, c.topics, cfg.Broker.ClientID)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.onConnect() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.onConnectionLost(err) })

	c.paho = pahomqtt.NewClient(opts)
	token := c.paho.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The connect handler runs on its own goroutine and may not have run yet.
	c.setConnected(true)
	return c, nil
}

// Topics returns the topic builder for this client's prefix.
func (c *Client) Topics() Topics {
	return c.topics
}

// onConnect announces the tool as online after every successful connect.
func (c *Client) onConnect() {
	c.mu.Lock()
	c.connected = true
	c.connects++
	reconnect := c.connects > 1
	c.mu.Unlock()

	c.paho.Publish(c.topics.Status(), c.qos(), true, buildOnlinePayload(c.cfg.Broker.ClientID))
	if reconnect && c.log != nil {
		c.log.Info("mqtt reconnected", "broker", brokerURL(c.cfg))
	}
}

func (c *Client) onConnectionLost(err error) {
	c.setConnected(false)
	if c.log != nil {
		c.log.Warn("mqtt connection lost, reports wait for reconnect", "broker", brokerURL(c.cfg), "error", err)
	}
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func (c *Client) qos() byte {
	return byte(c.cfg.QoS) //nolint:gosec // Validated 0-2 by config.Validate
}

// Close publishes a graceful offline status and disconnects.
// Closing a nil or never-connected client is a no-op.
func (c *Client) Close() error {
	if c == nil || c.paho == nil {
		return nil
	}

	if c.IsConnected() {
		token := c.paho.Publish(c.topics.Status(), c.qos(), true, buildOfflinePayload(c.cfg.Broker.ClientID))
		if !token.WaitTimeout(defaultPublishTimeout) && c.log != nil {
			c.log.Warn("mqtt offline status not acknowledged", "timeout", defaultPublishTimeout)
		}
	}
	c.paho.Disconnect(defaultDisconnectQuiesce)
	c.setConnected(false)
	return nil
}

// IsConnected returns the last known connection state.
func (c *Client) IsConnected() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.paho != nil && c.paho.IsConnected()
}
