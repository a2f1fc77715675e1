// internal/candidates/refresher.go
package candidates

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"caregiver-matching/internal/common/broker"
	"caregiver-matching/internal/common/logger"

	"github.com/nats-io/nats.go"
)

const refreshTimeout = 30 * time.Second

// RefreshReply is sent back when a refresh message carries a reply subject.
type RefreshReply struct {
	OK        bool   `json:"ok"`
	Size      int    `json:"size"`
	Source    string `json:"source,omitempty"`
	FromCache bool   `json:"fromCache"`
	Error     string `json:"error,omitempty"`
}

// Refresher reloads the pool whenever a message arrives on its subject.
type Refresher struct {
	client   *broker.NATSClient
	subject  string
	provider *Provider
	logger   logger.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

func NewRefresher(client *broker.NATSClient, subject string, provider *Provider, log logger.Logger) *Refresher {
	return &Refresher{
		client:   client,
		subject:  subject,
		provider: provider,
		logger:   log.WithFields(map[string]interface{}{"subject": subject}),
	}
}

func (r *Refresher) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sub != nil {
		return nil
	}
	sub, err := r.client.Conn.Subscribe(r.subject, r.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", r.subject, err)
	}
	if err := r.client.Conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("flush subscription: %w", err)
	}
	r.sub = sub
	r.logger.Info("Listening for pool refresh requests", nil)
	return nil
}

func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sub == nil {
		return
	}
	if err := r.sub.Unsubscribe(); err != nil {
		r.logger.Warn("Failed to unsubscribe", map[string]interface{}{"error": err.Error()})
	}
	r.sub = nil
}

func (r *Refresher) handle(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	var reply RefreshReply
	snap, err := r.provider.Refresh(ctx)
	if err != nil {
		reply.Error = err.Error()
		r.logger.Error("Pool refresh failed", map[string]interface{}{"error": err.Error()})
	} else {
		reply = RefreshReply{OK: true, Size: len(snap.Candidates), Source: snap.Source, FromCache: snap.FromCache}
	}

	if msg.Reply == "" {
		return
	}
	data, _ := json.Marshal(reply)
	if err := msg.Respond(data); err != nil {
		r.logger.Warn("Failed to answer refresh request", map[string]interface{}{"error": err.Error()})
	}
}
