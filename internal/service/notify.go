package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/choir-api/internal/model"
	"github.com/iliyamo/choir-api/internal/queue"
)

// Notifier dispatches push notifications for new announcements. Dispatch is
// detached from the request: the caller never waits and never sees an error.
type Notifier struct {
	pub EventPublisher
	log *zap.Logger
}

func NewNotifier(pub EventPublisher, log *zap.Logger) *Notifier {
	return &Notifier{pub: pub, log: log}
}

func (n *Notifier) AnnouncementPublished(ctx context.Context, a *model.Announcement, sentBy string) {
	ev := queue.NotificationEvent{
		ChoirID:        a.ChoirID,
		AnnouncementID: a.ID,
		Title:          a.Title,
		Body:           a.Body,
		SentBy:         sentBy,
		SentAt:         time.Now().UTC(),
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(detached, 10*time.Second)
		defer cancel()
		if err := n.pub.Publish(ctx, queue.NotificationQueue, ev); err != nil {
			n.log.Warn("notification dispatch failed", zap.String("announcement_id", ev.AnnouncementID), zap.Error(err))
		}
	}()
}
