package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"

	"doppel/internal/config"
	"doppel/internal/jobs"
	"doppel/internal/media/ffmpeg"
	"doppel/internal/pipeline"
	"doppel/internal/services/elevenlabs"
	"doppel/internal/services/facefusion"
	"doppel/internal/services/musetalk"
	"doppel/internal/transfer"
	"doppel/internal/transport"
	"doppel/internal/workspace"
)

func buildOrchestrator(cfg *config.Config, store *jobs.Store, manager *workspace.Manager, logger *slog.Logger) (*pipeline.Orchestrator, error) {
	objectStore, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}

	transferClient, err := transfer.New(objectStore, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("build transfer client: %w", err)
	}

	extractor, err := ffmpeg.New(cfg.Tools.FFmpegBinary)
	if err != nil {
		return nil, fmt.Errorf("build audio extractor: %w", err)
	}
	swapper, err := facefusion.New(cfg.Tools.FaceFusionBinary)
	if err != nil {
		return nil, fmt.Errorf("build face swapper: %w", err)
	}
	syncer, err := musetalk.New(cfg.Tools.MuseTalkBinary)
	if err != nil {
		return nil, fmt.Errorf("build lip syncer: %w", err)
	}
	voices, err := elevenlabs.New(cfg.ElevenLabs.APIKey, cfg.ElevenLabs.BaseURL, cfg.ElevenLabs.ModelID,
		elevenlabs.WithTimeout(time.Duration(cfg.ElevenLabs.TimeoutSeconds)*time.Second))
	if err != nil {
		return nil, fmt.Errorf("build voice converter: %w", err)
	}

	return pipeline.New(pipeline.Deps{
		Records:      store,
		Reporter:     store,
		Workspaces:   manager,
		Transfer:     transferClient,
		Audio:        extractor,
		Faces:        swapper,
		Voices:       voices,
		Lips:         syncer,
		Logger:       logger,
		StageTimeout: time.Duration(cfg.Workflow.StageTimeout) * time.Second,
	})
}

func buildQueue(ctx context.Context, cfg *config.Config) (transport.Queue, error) {
	switch cfg.Queue.Transport {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Queue.RedisAddr,
			Password: cfg.Queue.RedisPassword,
			DB:       cfg.Queue.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return transport.NewRedisQueue(client, cfg.Queue.Name,
			time.Duration(cfg.Queue.PopTimeout)*time.Second)
	case "pubsub":
		client, err := pubsub.NewClient(ctx, cfg.Queue.PubSubProject)
		if err != nil {
			return nil, fmt.Errorf("connect pubsub: %w", err)
		}
		return transport.NewPubSubQueue(client.Subscription(cfg.Queue.PubSubSubscription))
	default:
		return nil, fmt.Errorf("unsupported queue transport %q", cfg.Queue.Transport)
	}
}
