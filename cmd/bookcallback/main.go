package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acme/contact-center-samples/internal/app"
	"github.com/acme/contact-center-samples/internal/engagement"
	"github.com/acme/contact-center-samples/internal/telemetry"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := flag.String("config", getEnv("CONFIG_FILE", "configs/config.yaml"), "path to configuration file")
	flag.Parse()

	container, err := app.Build(ctx, *configPath)
	if err != nil {
		log.Fatalf("failed to bootstrap application: %v", err)
	}

	err = run(ctx, container)
	if err != nil {
		container.Logger.Error("book callback failed", zap.Error(err))
	}
	if cerr := container.Close(context.Background()); cerr != nil {
		log.Printf("close: %v", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, container *app.Container) error {
	cfg := container.Config
	lg := container.Logger

	if err := cfg.ValidateCallback(); err != nil {
		return err
	}

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, "bookcallback", cfg.App.Version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Telemetry.ShutdownTimeout)
		defer cancel()
		_ = shutdown(sctx)
	}()

	params := engagement.CreateCallbackParms{
		ServiceName: cfg.Callback.ServiceName,
		PhoneNumber: cfg.Callback.PhoneNumber,
	}

	submission := container.Clients().Engagement.BookCallbackAsync(ctx, params, cfg.Callback.APIKey, func(r engagement.Result) {
		engagement.Report(lg, r)
	})

	waitCtx := ctx
	if cfg.Callback.WaitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, cfg.Callback.WaitTimeout)
		defer cancel()
	}
	result, err := submission.Wait(waitCtx)
	if err != nil {
		return err
	}

	if publisher := container.Publishers().Activity; publisher != nil {
		if err := engagement.PublishOutcome(ctx, publisher, uuid.New(), params.ServiceName, result); err != nil {
			lg.Warn("publish callback outcome", zap.Error(err))
		}
	}

	return result.Error()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
