package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/redis/go-redis/v9"

	"doppel/internal/config"
	"doppel/internal/jobs"
	"doppel/internal/transport"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if c.config != nil {
			return
		}
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) withStore(fn func(*jobs.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := jobs.Open(cfg)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// withPublisher connects to the configured queue transport for the duration
// of fn.
func (c *commandContext) withPublisher(ctx context.Context, fn func(transport.Publisher) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	switch cfg.Queue.Transport {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Queue.RedisAddr,
			Password: cfg.Queue.RedisPassword,
			DB:       cfg.Queue.RedisDB,
		})
		queue, err := transport.NewRedisQueue(client, cfg.Queue.Name,
			time.Duration(cfg.Queue.PopTimeout)*time.Second)
		if err != nil {
			return err
		}
		defer queue.Close()
		return fn(queue)
	case "pubsub":
		client, err := pubsub.NewClient(ctx, cfg.Queue.PubSubProject)
		if err != nil {
			return fmt.Errorf("connect pubsub: %w", err)
		}
		defer client.Close()
		topic := client.Topic(cfg.Queue.Name)
		defer topic.Stop()
		publisher, err := transport.NewPubSubPublisher(topic)
		if err != nil {
			return err
		}
		return fn(publisher)
	default:
		return fmt.Errorf("unsupported queue transport %q", cfg.Queue.Transport)
	}
}
