package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/domain"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/port"
)

const TypeDeliverNotification = "notification:deliver"

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueSink hands notifications to an asynq queue; DeliveryWorker performs
// the actual delivery with the queue's retries. The notification id is the
// task id, so the same notification is never queued twice.
type QueueSink struct {
	client   enqueuer
	queue    string
	maxRetry int
}

func NewQueueSink(client *asynq.Client, queue string, maxRetry int) *QueueSink {
	return &QueueSink{client: client, queue: queue, maxRetry: maxRetry}
}

func (q *QueueSink) Send(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	opts := []asynq.Option{
		asynq.Queue(q.queue),
		asynq.MaxRetry(q.maxRetry),
	}
	if n.ID != "" {
		opts = append(opts, asynq.TaskID(n.ID))
	}

	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(TypeDeliverNotification, payload), opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		logrus.WithField("notification_id", n.ID).Debug("notification already queued")
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"kind":            n.Kind,
		"queue":           info.Queue,
	}).Info("queued notification")
	return nil
}

type DeliveryWorker struct {
	sink port.NotificationSink
}

func NewDeliveryWorker(sink port.NotificationSink) *DeliveryWorker {
	return &DeliveryWorker{sink: sink}
}

// ProcessTask delivers one queued notification. Undecodable payloads are
// not retried.
func (w *DeliveryWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var n domain.Notification
	if err := json.Unmarshal(t.Payload(), &n); err != nil {
		logrus.WithError(err).Error("dropping undecodable notification task")
		return fmt.Errorf("decode notification: %v: %w", err, asynq.SkipRetry)
	}

	if err := w.sink.Send(ctx, n); err != nil {
		retry, _ := asynq.GetRetryCount(ctx)
		logrus.WithFields(logrus.Fields{
			"notification_id": n.ID,
			"retry":           retry,
			"error":           err,
		}).Warn("notification delivery failed, will retry")
		return err
	}
	return nil
}
