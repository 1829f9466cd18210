// Package queue defines message payloads exchanged over RabbitMQ together
// with the publisher and the audit consumer.
package queue

import "time"

const (
	AuditQueue        = "audit.recorded"
	NotificationQueue = "announcement.published"
)

// Audit actions.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// AuditEvent is published after every mutating operation. ID is assigned by
// the publisher so redeliveries are stored once.
type AuditEvent struct {
	ID         string    `json:"id"`
	ChoirID    *string   `json:"choir_id,omitempty"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resource_id"`
	ActorID    string    `json:"actor_id"`
	ActorName  string    `json:"actor_name"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NotificationEvent asks the push gateway to notify the members of a choir
// about a new announcement.
type NotificationEvent struct {
	ChoirID        *string   `json:"choir_id,omitempty"`
	AnnouncementID string    `json:"announcement_id"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	SentBy         string    `json:"sent_by"`
	SentAt         time.Time `json:"sent_at"`
}
