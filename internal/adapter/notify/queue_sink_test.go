package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/domain"
)

// Mock asynq client
type mockEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	ids   map[string]bool
	err   error
}

func (m *mockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	info := &asynq.TaskInfo{Type: task.Type(), Payload: task.Payload(), Queue: "default"}
	for _, opt := range opts {
		switch opt.Type() {
		case asynq.QueueOpt:
			info.Queue = opt.Value().(string)
		case asynq.TaskIDOpt:
			id := opt.Value().(string)
			if m.ids[id] {
				return nil, asynq.ErrTaskIDConflict
			}
			m.ids[id] = true
			info.ID = id
		}
	}
	m.tasks = append(m.tasks, task)
	return info, nil
}

// Mock NotificationSink
type recordingSink struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (r *recordingSink) Send(ctx context.Context, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, n)
	return nil
}

func TestQueueSink_Enqueues(t *testing.T) {
	client := &mockEnqueuer{ids: map[string]bool{}}
	sink := &QueueSink{client: client, queue: "notifications", maxRetry: 5}

	require.NoError(t, sink.Send(context.Background(), sampleNotification()))
	require.Len(t, client.tasks, 1)
	assert.Equal(t, TypeDeliverNotification, client.tasks[0].Type())

	var n domain.Notification
	require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &n))
	assert.Equal(t, "n-1", n.ID)
	assert.Equal(t, domain.KindPriceDrop, n.Kind)
}

func TestQueueSink_DuplicateIsNotAnError(t *testing.T) {
	client := &mockEnqueuer{ids: map[string]bool{}}
	sink := &QueueSink{client: client, queue: "notifications"}

	require.NoError(t, sink.Send(context.Background(), sampleNotification()))
	require.NoError(t, sink.Send(context.Background(), sampleNotification()))
	assert.Len(t, client.tasks, 1)
}

func TestQueueSink_EnqueueError(t *testing.T) {
	boom := errors.New("redis down")
	sink := &QueueSink{client: &mockEnqueuer{err: boom}, queue: "notifications"}

	assert.ErrorIs(t, sink.Send(context.Background(), sampleNotification()), boom)
}

func TestDeliveryWorker_ProcessTask(t *testing.T) {
	out := &recordingSink{}
	worker := NewDeliveryWorker(out)

	payload, err := json.Marshal(sampleNotification())
	require.NoError(t, err)

	require.NoError(t, worker.ProcessTask(context.Background(), asynq.NewTask(TypeDeliverNotification, payload)))
	require.Len(t, out.sent, 1)
	assert.Equal(t, "Shoe is now $94.00 (6% off)", out.sent[0].Body)
}

func TestDeliveryWorker_BadPayloadSkipsRetry(t *testing.T) {
	worker := NewDeliveryWorker(&recordingSink{})

	err := worker.ProcessTask(context.Background(), asynq.NewTask(TypeDeliverNotification, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestDeliveryWorker_SinkErrorIsRetried(t *testing.T) {
	boom := errors.New("push down")
	worker := NewDeliveryWorker(&recordingSink{err: boom})

	payload, _ := json.Marshal(sampleNotification())
	err := worker.ProcessTask(context.Background(), asynq.NewTask(TypeDeliverNotification, payload))
	assert.ErrorIs(t, err, boom)
}
