package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/acme/contact-center-samples/internal/app"
	"github.com/acme/contact-center-samples/internal/telemetry"
	"github.com/acme/contact-center-samples/internal/workspace"
)

var errNoTargets = errors.New("search came up empty")

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
		container.Logger.Error("target search failed", zap.Error(err))
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

	if err := cfg.ValidateTargets(); err != nil {
		return err
	}

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, "targets", cfg.App.Version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Telemetry.ShutdownTimeout)
		defer cancel()
		_ = shutdown(sctx)
	}()

	api := container.NewWorkspace()
	defer func() {
		if err := api.Destroy(context.Background()); err != nil {
			lg.Warn("destroy workspace session", zap.Error(err))
		}
	}()

	targets, err := search(ctx, api, cfg.Auth.AuthorizationToken, cfg.Targets.SearchTerm, cfg.Targets.Limit)
	if err != nil {
		return err
	}
	for _, t := range targets {
		lg.Info("Name: " + t.Name)
		lg.Info("PhoneNumber: " + t.Number)
	}
	return nil
}

func search(ctx context.Context, api *workspace.Client, token, term string, limit int) ([]workspace.Target, error) {
	user, err := api.Initialize(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := api.ActivateChannels(ctx, user.EmployeeID, user.AgentLogin); err != nil {
		return nil, err
	}

	targets, err := api.SearchTargets(ctx, term, limit)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, errNoTargets
	}
	return targets, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
