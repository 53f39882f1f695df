package handler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/adapter/clock"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/adapter/storage"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/domain"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/service"
)

type recordingSink struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (r *recordingSink) Send(ctx context.Context, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type testEnv struct {
	clock *clock.Fake
	sink  *recordingSink
	carts *storage.CartSnapshots
	svc   *service.CartService
}

func setupTestEnv(t *testing.T) *testEnv {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := storage.NewRedisStore(rdb)
	env := &testEnv{
		clock: clock.NewFake(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)),
		sink:  &recordingSink{},
		carts: storage.NewCartSnapshots(store),
	}
	scheduler := service.NewAbandonmentScheduler(env.clock, env.carts, env.sink, service.ReminderConfig{})
	monitor := service.NewStockMonitor(store, env.sink, env.clock, service.MonitorConfig{})
	env.svc = service.NewCartService(env.carts, scheduler, monitor)
	t.Cleanup(env.svc.Close)
	return env
}
