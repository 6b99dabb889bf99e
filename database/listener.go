package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sahilchouksey/study-notes-bot/utils/logger"
)

// PublishHandler is called with the id of every document announced on the channel
type PublishHandler func(ctx context.Context, documentID uint)

// PublishListener turns PostgreSQL NOTIFY events into publish hooks, so an admin panel that
// writes straight to the database can trigger notifications with
// NOTIFY <channel>, '<document id>'.
type PublishListener struct {
	dsn     string
	channel string
	handler PublishHandler
	log     *logger.Logger
}

// NewPublishListener creates a listener for channel
func NewPublishListener(dsn, channel string, handler PublishHandler, log *logger.Logger) *PublishListener {
	return &PublishListener{
		dsn:     dsn,
		channel: channel,
		handler: handler,
		log:     log.With("component", "publish_listener", "channel", channel),
	}
}

// Run listens until ctx is cancelled. Connection loss is retried by lib/pq.
func (l *PublishListener) Run(ctx context.Context) error {
	listener := pq.NewListener(l.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			l.log.Warn("listener connection event", "event", int(ev), "error", err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(l.channel); err != nil {
		return fmt.Errorf("failed to listen on %q: %w", l.channel, err)
	}
	l.log.Info("listening for publish events")

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect; events sent while disconnected are lost
			if n == nil {
				l.log.Warn("listener reconnected")
				continue
			}
			documentID, err := ParsePublishPayload(n.Extra)
			if err != nil {
				l.log.Warn("ignoring malformed publish event", "payload", n.Extra, "error", err)
				continue
			}
			l.handler(ctx, documentID)
		case <-ping.C:
			go func() {
				if err := listener.Ping(); err != nil {
					l.log.Warn("listener ping failed", "error", err)
				}
			}()
		}
	}
}

// ParsePublishPayload accepts either a bare document id or {"document_id": <id>}
func ParsePublishPayload(payload string) (uint, error) {
	payload = strings.TrimSpace(payload)

	if strings.HasPrefix(payload, "{") {
		var body struct {
			DocumentID uint `json:"document_id"`
		}
		if err := json.Unmarshal([]byte(payload), &body); err != nil {
			return 0, err
		}
		if body.DocumentID == 0 {
			return 0, fmt.Errorf("missing document_id")
		}
		return body.DocumentID, nil
	}

	id, err := strconv.ParseUint(payload, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid document id %q", payload)
	}
	return uint(id), nil
}
