package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/adapter/clock"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/adapter/notify"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/adapter/storage"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/config"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/service"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/port"
)

// engine owns the connections behind one CartService.
type engine struct {
	cnf   *config.Configuration
	rdb   *redis.Client
	db    *sql.DB
	queue *asynq.Client
	svc   *service.CartService
}

func newEngine(ctx context.Context, cnf *config.Configuration) (*engine, error) {
	e := &engine{cnf: cnf}

	store, err := e.store(ctx)
	if err != nil {
		e.Close()
		return nil, err
	}
	sink, err := e.sink(ctx)
	if err != nil {
		e.Close()
		return nil, err
	}

	clk := clock.NewReal()
	carts := storage.NewCartSnapshots(store)
	scheduler := service.NewAbandonmentScheduler(clk, carts, sink, service.ReminderConfig{
		ImmediateAfter: cnf.Reminders.ImmediateAfter.Duration(),
		UrgentAfter:    cnf.Reminders.UrgentAfter.Duration(),
		FinalAfter:     cnf.Reminders.FinalAfter.Duration(),
		SinkTimeout:    cnf.Reminders.SinkTimeout.Duration(),
	})
	monitor := service.NewStockMonitor(store, sink, clk, service.MonitorConfig{
		BackInStockCooldown: cnf.Monitor.BackInStockCooldown.Duration(),
		PriceDropThreshold:  cnf.Monitor.PriceDropThreshold,
	})
	e.svc = service.NewCartService(carts, scheduler, monitor)
	return e, nil
}

func (e *engine) redisClient(ctx context.Context) (*redis.Client, error) {
	if e.rdb != nil {
		return e.rdb, nil
	}
	rdb, err := storage.NewRedisClient(e.cnf.Redis.Dns)
	if err != nil {
		return nil, err
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}
	logrus.Info("connected to redis")
	e.rdb = rdb
	return rdb, nil
}

func (e *engine) store(ctx context.Context) (port.KVStore, error) {
	if e.cnf.Store.Driver == config.StoreMySQL {
		db, err := sql.Open("mysql", e.cnf.MySQL.Dns)
		if err != nil {
			return nil, fmt.Errorf("failed to open mysql: %w", err)
		}
		db.SetMaxOpenConns(e.cnf.MySQL.MaxOpenConns)
		db.SetMaxIdleConns(e.cnf.MySQL.MaxIdleConns)
		db.SetConnMaxLifetime(5 * time.Minute)
		e.db = db

		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("failed to ping mysql: %w", err)
		}
		logrus.Info("connected to mysql")

		store := storage.NewMySQLStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}

	rdb, err := e.redisClient(ctx)
	if err != nil {
		return nil, err
	}
	store := storage.NewRedisStore(rdb)
	if e.cnf.Redis.KeyPrefix != "" {
		store = store.WithPrefix(e.cnf.Redis.KeyPrefix)
	}
	return store, nil
}

func (e *engine) sink(ctx context.Context) (port.NotificationSink, error) {
	switch e.cnf.Notification.Sink {
	case config.SinkWebhook:
		return webhookSink(e.cnf), nil
	case config.SinkQueue:
		rdb, err := e.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		e.queue = asynq.NewClient(asynqRedisOpt(rdb))
		q := e.cnf.Notification.Queue
		return notify.NewQueueSink(e.queue, q.Name, q.MaxRetry), nil
	default:
		return notify.LogSink{}, nil
	}
}

func webhookSink(cnf *config.Configuration) *notify.WebhookSink {
	w := cnf.Notification.Webhook
	return notify.NewWebhookSink(notify.WebhookConfig{
		URL:           w.Url,
		Headers:       w.Headers,
		Timeout:       w.Timeout.Duration(),
		MaxRetries:    w.MaxRetries,
		RetryInterval: w.RetryInterval.Duration(),
	})
}

func asynqRedisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opt := rdb.Options()
	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}
}

func (e *engine) Close() {
	if e.svc != nil {
		e.svc.Close()
	}
	if e.queue != nil {
		e.queue.Close()
	}
	if e.rdb != nil {
		e.rdb.Close()
	}
	if e.db != nil {
		e.db.Close()
	}
	logrus.Info("connections closed")
}
