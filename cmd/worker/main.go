package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"audio-summarizer/internal/app"
	"audio-summarizer/internal/httputil"
	"audio-summarizer/internal/queue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx)
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()

	if deps.Queue == nil {
		deps.Log.Error("worker requires QUEUE_PROVIDER=nats")
		os.Exit(1)
	}
	deps.Log.Info("transcribe worker starting")

	g, ctx := errgroup.WithContext(ctx)

	// Run queue worker
	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeTranscribe, deps.Jobs.HandleTask)
	})

	// Run health check server
	g.Go(func() error {
		return httputil.ServeHealth(ctx, deps.Config.Port, "worker", deps.Log)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		deps.Log.Error("worker stopped", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("worker stopped")
}
