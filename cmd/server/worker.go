package main

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/adapter/notify"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/adapter/storage"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/config"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/port"
)

func workerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "deliver queued notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cnf, err := config.Fetch()
			if err != nil {
				return err
			}
			return runWorker(cmd.Context(), cnf)
		},
	}
}

func runWorker(ctx context.Context, cnf *config.Configuration) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rdb, err := storage.NewRedisClient(cnf.Redis.Dns)
	if err != nil {
		return fmt.Errorf("error parsing Redis URL: %w", err)
	}
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect redis: %w", err)
	}

	// The worker pushes to the webhook when one is configured and logs
	// otherwise.
	var sink port.NotificationSink = notify.LogSink{}
	if cnf.Notification.Webhook.Url != "" {
		sink = webhookSink(cnf)
	}

	q := cnf.Notification.Queue
	srv := asynq.NewServer(asynqRedisOpt(rdb), asynq.Config{
		Concurrency: q.Concurrency,
		Queues:      map[string]int{q.Name: 1},
	})

	mux := asynq.NewServeMux()
	mux.Handle(notify.TypeDeliverNotification, notify.NewDeliveryWorker(sink))

	logrus.WithField("queue", q.Name).Info("notification worker started")
	return srv.Run(mux)
}
