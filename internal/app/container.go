package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/acme/contact-center-samples/internal/auth"
	"github.com/acme/contact-center-samples/internal/config"
	"github.com/acme/contact-center-samples/internal/engagement"
	"github.com/acme/contact-center-samples/internal/infra/redis"
	"github.com/acme/contact-center-samples/internal/queue"
	"github.com/acme/contact-center-samples/internal/vendorhttp"
	"github.com/acme/contact-center-samples/internal/workspace"
	"github.com/acme/contact-center-samples/pkg/logger"
)

// Container wires together shared infrastructure dependencies.
type Container struct {
	Config *config.Config
	Logger *logger.Logger

	// Redis and Kafka are nil unless configured.
	Redis *redis.Client
	Kafka *queue.Kafka

	// lazily initialised components
	components struct {
		once       sync.Once
		clients    *clients
		publishers *publishers
	}
}

type clients struct {
	Auth       *auth.Client
	Engagement *engagement.Client
}

type publishers struct {
	Activity *queue.ActivityPublisher
}

// Build constructs a container for the given configuration path.
func Build(ctx context.Context, configPath string) (*Container, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	lg, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, err
	}

	container := &Container{
		Config: cfg,
		Logger: lg,
	}

	if cfg.Redis.Enabled() {
		redisClient, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		container.Redis = redisClient
	}

	if cfg.Kafka.Enabled() {
		kafka, err := queue.NewKafka(cfg.Kafka)
		if err != nil {
			_ = container.Close(ctx)
			return nil, fmt.Errorf("bootstrap kafka: %w", err)
		}
		container.Kafka = kafka
	}

	return container, nil
}

func (c *Container) initComponents() {
	c.components.once.Do(func() {
		var authOpts []auth.Option
		if c.Redis != nil {
			cache := auth.NewRedisTokenCache(c.Redis.Inner(), c.Config.Auth.TokenCacheKey)
			authOpts = append(authOpts, auth.WithTokenCache(cache, c.Config.Auth.TokenSkew))
		}

		cl := &clients{
			Auth: auth.NewClient(c.Config.Vendor.APIURL, c.Config.Vendor.APIKey, authOpts...),
			Engagement: engagement.NewClient(c.Config.Callback.BasePath,
				engagement.WithHTTPClient(vendorhttp.NewClient(vendorhttp.WithTimeout(c.Config.Vendor.RequestTimeout))),
			),
		}

		pub := &publishers{}
		if c.Kafka != nil {
			pub.Activity = queue.NewActivityPublisher(c.Kafka, c.Config.Kafka.ActivityTopic)
		}

		c.components.clients = cl
		c.components.publishers = pub
	})
}

// Clients exposes the vendor API clients.
func (c *Container) Clients() *clients {
	c.initComponents()
	return c.components.clients
}

// Publishers exposes Kafka publishers. Activity is nil when Kafka is not configured.
func (c *Container) Publishers() *publishers {
	c.initComponents()
	return c.components.publishers
}

// NewWorkspace builds a workspace client for one session. Sessions are not
// shared, so each call returns a fresh client.
func (c *Container) NewWorkspace() *workspace.Client {
	return workspace.NewClient(c.Config.Vendor.APIKey, c.Config.Vendor.APIURL,
		workspace.WithLogger(c.Logger.Named("workspace")),
		workspace.WithRequestTimeout(c.Config.Vendor.RequestTimeout),
	)
}

// EnsureTopics ensures the activity topic exists when Kafka is configured.
func (c *Container) EnsureTopics(ctx context.Context) error {
	if c.Kafka == nil {
		return nil
	}
	return c.Kafka.EnsureTopics(ctx, []string{c.Config.Kafka.ActivityTopic}, 3, 1)
}

// Close releases all held resources.
func (c *Container) Close(_ context.Context) error {
	var errs []error
	if p := c.components.publishers; p != nil && p.Activity != nil {
		if err := p.Activity.Close(); err != nil {
			errs = append(errs, fmt.Errorf("activity publisher close: %w", err))
		}
	}
	if c.Kafka != nil {
		if err := c.Kafka.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka close: %w", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if c.Logger != nil {
		c.Logger.Sync()
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
