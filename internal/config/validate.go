package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateElevenLabs(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateQueue() error {
	switch c.Queue.Transport {
	case "redis":
		if strings.TrimSpace(c.Queue.RedisAddr) == "" {
			return errors.New("queue.redis_addr must be set when queue.transport is redis")
		}
	case "pubsub":
		if strings.TrimSpace(c.Queue.PubSubProject) == "" {
			return errors.New("queue.pubsub_project must be set when queue.transport is pubsub")
		}
		if strings.TrimSpace(c.Queue.PubSubSubscription) == "" {
			return errors.New("queue.pubsub_subscription must be set when queue.transport is pubsub")
		}
	default:
		return fmt.Errorf("queue.transport must be redis or pubsub, got %q", c.Queue.Transport)
	}
	if strings.TrimSpace(c.Queue.Name) == "" {
		return errors.New("queue.name must be set")
	}
	if c.Queue.PopTimeout <= 0 {
		return errors.New("queue.pop_timeout must be positive")
	}
	if c.Queue.ErrorRetryInterval <= 0 {
		return errors.New("queue.error_retry_interval must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if strings.TrimSpace(c.Storage.Endpoint) == "" {
		return errors.New("storage.endpoint must be set")
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		return errors.New("storage.bucket must be set")
	}
	if strings.TrimSpace(c.Storage.PublicBaseURL) == "" {
		return errors.New("storage.public_base_url must be set")
	}
	return nil
}

func (c *Config) validateTools() error {
	if strings.TrimSpace(c.Tools.FFmpegBinary) == "" {
		return errors.New("tools.ffmpeg_binary must be set")
	}
	if strings.TrimSpace(c.Tools.FaceFusionBinary) == "" {
		return errors.New("tools.facefusion_binary must be set")
	}
	if strings.TrimSpace(c.Tools.MuseTalkBinary) == "" {
		return errors.New("tools.musetalk_binary must be set")
	}
	return nil
}

func (c *Config) validateElevenLabs() error {
	if c.ElevenLabs.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/doppel/config.toml"
		}
		return fmt.Errorf("elevenlabs.api_key is required. Set ELEVENLABS_API_KEY env var or edit %s (create with 'doppel config init')", defaultPath)
	}
	if strings.TrimSpace(c.ElevenLabs.BaseURL) == "" {
		return errors.New("elevenlabs.base_url must be set")
	}
	if c.ElevenLabs.TimeoutSeconds <= 0 {
		return errors.New("elevenlabs.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.StageTimeout < 0 {
		return errors.New("workflow.stage_timeout must not be negative")
	}
	if c.Workflow.WorkspaceMaxAgeHours <= 0 {
		return errors.New("workflow.workspace_max_age_hours must be positive")
	}
	return nil
}
