package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/adapter/handler"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/config"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cnf, err := config.Fetch()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cnf)
		},
	}
}

func serve(ctx context.Context, cnf *config.Configuration) error {
	if ctx == nil {
		ctx = context.Background()
	}

	e, err := newEngine(ctx, cnf)
	if err != nil {
		return err
	}
	defer e.Close()

	grpcServer := grpc.NewServer()
	handler.RegisterCartEngineServer(grpcServer, handler.NewGRPCHandler(e.svc))

	lis, err := net.Listen("tcp", cnf.Server.GRPCAddr)
	if err != nil {
		return err
	}

	go func() {
		logrus.Infof("gRPC server listening on %s", cnf.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logrus.WithError(err).Error("gRPC server error")
		}
	}()

	httpServer := &http.Server{
		Addr:    cnf.Server.HTTPAddr,
		Handler: handler.NewHTTPHandler(e.svc).Routes(),
	}

	go func() {
		logrus.Infof("HTTP server listening on %s", cnf.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logrus.WithError(err).Error("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cnf.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP server shutdown")
	}
	logrus.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logrus.Info("gRPC server stopped")
	return nil
}
