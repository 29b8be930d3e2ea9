package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sapiencia-analitica/matricula-portal/config"
	"github.com/sapiencia-analitica/matricula-portal/types"
	log "github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

// AuditPublisher turns portal audit events into broker messages. Publishing
// is best-effort: a broker failure is logged and swallowed, never surfaced
// to the operation that produced the event.
type AuditPublisher struct {
	backend Backend
	channel string
}

// NewAuditPublisher builds a publisher for the configured broker, or nil
// when auditing is disabled (broker "none" or unset).
func NewAuditPublisher(ctx context.Context, cfg config.AuditConfig) (*AuditPublisher, error) {
	var backend Backend
	switch cfg.Broker {
	case "", "none":
		return nil, nil
	case "rabbitmq":
		client, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		backend = client
	case "pubsub":
		client, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown audit broker %q", cfg.Broker)
	}

	return &AuditPublisher{backend: backend, channel: cfg.Channel}, nil
}

// Record assigns the event an id and timestamp and publishes it.
func (p *AuditPublisher) Record(ctx context.Context, event types.AuditEvent) {
	if p == nil {
		return
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Warn("audit: failed to encode event")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	attrs := map[string]string{"action": event.Action}
	if _, err := p.backend.Publish(ctx, p.channel, data, attrs); err != nil {
		log.WithError(err).WithField("action", event.Action).
			Warn("audit: failed to publish event")
	}
}

// Close releases the broker connection.
func (p *AuditPublisher) Close() error {
	if p == nil {
		return nil
	}
	return p.backend.Close()
}
