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
	"github.com/acme/contact-center-samples/internal/auth"
	"github.com/acme/contact-center-samples/internal/telemetry"
	"github.com/acme/contact-center-samples/internal/voice"
	"github.com/acme/contact-center-samples/pkg/logger"
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
		container.Logger.Error("call control failed", zap.Error(err))
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

	if err := cfg.ValidateVoice(); err != nil {
		return err
	}

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, "callcontrol", cfg.App.Version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Telemetry.ShutdownTimeout)
		defer cancel()
		_ = shutdown(sctx)
	}()

	api := container.NewWorkspace()

	opts := []voice.Option{
		voice.WithLogger(lg),
		voice.WithNotReadyReason(cfg.Agent.NotReadyReason),
	}
	if publisher := container.Publishers().Activity; publisher != nil {
		if err := container.EnsureTopics(ctx); err != nil {
			lg.Warn("ensure activity topic", zap.Error(err))
		}
		runID := uuid.New()
		lg = logger.Wrap(lg.With(zap.String("run_id", runID.String())))
		opts = append(opts, voice.WithObserver(voice.NewActivityRecorder(runID, publisher, lg)))
	}
	sequencer := voice.NewSequencer(api.Voice(), opts...)

	api.Voice().AddCallEventListener(sequencer.HandleCallStateChanged)
	api.Voice().AddDnEventListener(sequencer.HandleDnStateChanged)
	api.OnStreamError(sequencer.Abort)

	token, err := container.Clients().Auth.RetrieveToken(ctx, auth.PasswordGrant{
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		Username:     cfg.Auth.Username,
		Password:     cfg.Auth.Password,
	})
	if err != nil {
		return err
	}

	user, err := api.Initialize(ctx, token.AccessToken)
	if err != nil {
		return err
	}
	defer func() {
		if err := api.Destroy(context.Background()); err != nil {
			lg.Warn("destroy workspace session", zap.Error(err))
		}
	}()

	if err := api.ActivateChannels(ctx, user.AgentID(), user.AgentID()); err != nil {
		return err
	}

	lg.Info("Waiting for completion...")
	waitCtx := ctx
	if cfg.Agent.WaitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, cfg.Agent.WaitTimeout)
		defer cancel()
	}
	if err := sequencer.Wait(waitCtx); err != nil {
		return err
	}

	lg.Info("done")
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
