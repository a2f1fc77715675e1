// internal/common/broker/nats.go
package broker

import (
	"fmt"
	"time"

	"caregiver-matching/internal/common/config"

	"github.com/nats-io/nats.go"
)

// NATSClient wraps a NATS connection used for pool refresh notifications.
type NATSClient struct {
	Conn *nats.Conn
}

// NewNATS connects to the broker with reconnects enabled.
func NewNATS(cfg config.BrokerConfig) (*NATSClient, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATSClient{Conn: nc}, nil
}

// Publish sends data on subject and flushes so the message is on the wire on return.
func (c *NATSClient) Publish(subject string, data []byte) error {
	if err := c.Conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	if err := c.Conn.Flush(); err != nil {
		return fmt.Errorf("flush publish: %w", err)
	}
	return nil
}

// Connected reports whether the connection is currently usable.
func (c *NATSClient) Connected() bool {
	return c.Conn != nil && c.Conn.IsConnected()
}

func (c *NATSClient) Close() {
	if c.Conn != nil {
		_ = c.Conn.Drain()
	}
}
