// Package notify holds the NotificationSink implementations: the log, an
// HTTP push webhook, and an asynq queue drained by DeliveryWorker.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/domain"
)

// LogSink writes notifications to the log instead of delivering them.
type LogSink struct{}

func (LogSink) Send(ctx context.Context, n domain.Notification) error {
	logrus.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"kind":            n.Kind,
		"user_id":         n.UserID,
		"title":           n.Title,
		"metadata":        n.Metadata,
	}).Info(n.Body)
	return nil
}
