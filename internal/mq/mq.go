// Package mq publishes portal audit events to a message broker. The portal
// only produces events; consumers (SIEM ingestion, reporting jobs) live in
// other systems.
package mq

import "context"

// Backend defines the broker operations the audit trail needs. Publish
// returns the broker-assigned (or generated) message id.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}
