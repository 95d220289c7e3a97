package config

const (
	defaultWorkspaceDir         = "~/.local/share/doppel/workspace"
	defaultDataDir              = "~/.local/share/doppel/data"
	defaultLogDir               = "~/.local/share/doppel/logs"
	defaultHealthBind           = "127.0.0.1:8385"
	defaultQueueTransport       = "redis"
	defaultQueueName            = "video-processing-queue"
	defaultRedisAddr            = "localhost:6379"
	defaultPopTimeout           = 10
	defaultErrorRetryInterval   = 5
	defaultStorageEndpoint      = "localhost:9000"
	defaultStorageBucket        = "doppel-artifacts"
	defaultStoragePublicBase    = "http://localhost:9000"
	defaultFFmpegBinary         = "ffmpeg"
	defaultFaceFusionBinary     = "facefusion"
	defaultMuseTalkBinary       = "musetalk"
	defaultElevenLabsBaseURL    = "https://api.elevenlabs.io"
	defaultElevenLabsModelID    = "eleven_multilingual_v2"
	defaultElevenLabsTimeout    = 300
	defaultStageTimeout         = 1800
	defaultWorkspaceMaxAgeHours = 24
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			DataDir:      defaultDataDir,
			LogDir:       defaultLogDir,
			HealthBind:   defaultHealthBind,
		},
		Queue: Queue{
			Transport:          defaultQueueTransport,
			Name:               defaultQueueName,
			RedisAddr:          defaultRedisAddr,
			PopTimeout:         defaultPopTimeout,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Storage: Storage{
			Endpoint:      defaultStorageEndpoint,
			Bucket:        defaultStorageBucket,
			PublicBaseURL: defaultStoragePublicBase,
		},
		Tools: Tools{
			FFmpegBinary:     defaultFFmpegBinary,
			FaceFusionBinary: defaultFaceFusionBinary,
			MuseTalkBinary:   defaultMuseTalkBinary,
		},
		ElevenLabs: ElevenLabs{
			BaseURL:        defaultElevenLabsBaseURL,
			ModelID:        defaultElevenLabsModelID,
			TimeoutSeconds: defaultElevenLabsTimeout,
		},
		Workflow: Workflow{
			StageTimeout:         defaultStageTimeout,
			WorkspaceMaxAgeHours: defaultWorkspaceMaxAgeHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
