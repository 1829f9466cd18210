package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/choir-api/internal/metrics"
	"github.com/iliyamo/choir-api/internal/model"
	"github.com/iliyamo/choir-api/internal/queue"
)

// EventPublisher delivers a JSON payload to a named queue.
type EventPublisher interface {
	Publish(ctx context.Context, queue string, v any) error
}

// AuditRecorder records one mutating operation. Implementations must not
// fail the request that triggered them.
type AuditRecorder interface {
	Record(ctx context.Context, p *model.Principal, action, resource, resourceID string, choirID *string)
}

// QueueAuditor publishes audit events to the audit queue in the background.
type QueueAuditor struct {
	pub EventPublisher
	log *zap.Logger
}

func NewQueueAuditor(pub EventPublisher, log *zap.Logger) *QueueAuditor {
	return &QueueAuditor{pub: pub, log: log}
}

func (a *QueueAuditor) Record(ctx context.Context, p *model.Principal, action, resource, resourceID string, choirID *string) {
	ev := queue.AuditEvent{
		ID:         uuid.NewString(),
		ChoirID:    choirID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		OccurredAt: time.Now().UTC(),
	}
	if p != nil {
		ev.ActorID, ev.ActorName = p.ID, p.Name
		if ev.ActorName == "" {
			ev.ActorName = p.Username
		}
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(detached, 10*time.Second)
		defer cancel()
		if err := a.pub.Publish(ctx, queue.AuditQueue, ev); err != nil {
			metrics.AuditPublishFailures.Inc()
			a.log.Warn("audit event dropped",
				zap.String("action", ev.Action),
				zap.String("resource", ev.Resource),
				zap.String("resource_id", ev.ResourceID),
				zap.Error(err))
		}
	}()
}
