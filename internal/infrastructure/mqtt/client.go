package mqtt

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/emick/smartplug/internal/infrastructure/config"
)

// Connection timeouts. A recorder invocation is short-lived; it should
// never sit waiting on a broker.
const (
	defaultConnectTimeout    = 5 * time.Second
	defaultPublishTimeout    = 3 * time.Second
	defaultDisconnectQuiesce = 250 // milliseconds
)

// Client is a publish-only MQTT client for state announcements.
//
// Unlike a long-lived service client there is no auto-reconnect and no
// subscription handling: the process connects, publishes a retained state
// message, and disconnects. Home-automation consumers read the retained
// messages whenever they like.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig
}

// Connect establishes a connection to the MQTT broker.
//
// Parameters:
//   - cfg: MQTT configuration
//
// Returns:
//   - *Client: Connected client ready to publish
//   - error: ErrDisabled when MQTT is off, or ErrConnectionFailed
func Connect(cfg config.MQTTConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	opts := buildClientOptions(cfg)

	c := &Client{cfg: cfg, client: pahomqtt.NewClient(opts)}

	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return c, nil
}

// buildClientOptions converts the config into paho client options.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)).
		SetClientID(cfg.Broker.ClientID).
		SetConnectTimeout(defaultConnectTimeout).
		SetAutoReconnect(false) // One-shot process; nothing to reconnect for.

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	return opts
}

// Close disconnects from the broker, allowing a short quiesce period for
// in-flight publishes.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	c.client.Disconnect(defaultDisconnectQuiesce)
	return nil
}

// IsConnected reports the current connection state.
func (c *Client) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}
