package config

import (
	"flag"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config holds the processor configuration
type Config struct {
	Stream          StreamConfig
	Queue           QueueConfig
	Storage         StorageConfig
	Router          RouterConfig
	Admin           AdminConfig
	LogLevel        string
	ShutdownTimeout time.Duration
}

// StreamConfig holds event stream configuration
type StreamConfig struct {
	URL       string
	Name      string
	Subjects  []string
	BatchSize int
	FetchWait time.Duration
}

// QueueConfig holds queue broker configuration
type QueueConfig struct {
	Backend    string
	URL        string
	BufferSize int
}

// StorageConfig holds delivery record storage configuration
type StorageConfig struct {
	MongoURI   string
	Database   string
	Collection string
}

// RouterConfig holds router configuration
type RouterConfig struct {
	InstanceID   string
	LeaseEnabled bool
	LeaseTTL     time.Duration
}

// AdminConfig holds the internal admin listener configuration.
// An empty Addr disables the listener.
type AdminConfig struct {
	Addr string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Stream: StreamConfig{
			URL:       GetEnv("EVENT_STREAM_URL", DefaultStreamURL),
			Name:      GetEnv("EVENT_STREAM_NAME", DefaultStreamName),
			Subjects:  splitList(GetEnv("EVENT_STREAM_SUBJECTS", DefaultStreamSubjects)),
			BatchSize: GetEnvInt("STREAM_BATCH_SIZE", DefaultStreamBatchSize),
			FetchWait: GetEnvDuration("STREAM_FETCH_WAIT", DefaultStreamFetchWait),
		},
		Queue: QueueConfig{
			Backend:    GetEnv("QUEUE_BACKEND", DefaultQueueBackend),
			URL:        GetEnv("QUEUE_URL", DefaultQueueURL),
			BufferSize: GetEnvInt("QUEUE_BUFFER_SIZE", DefaultQueueBufferSize),
		},
		Storage: StorageConfig{
			MongoURI:   GetEnv("MONGODB_URI", DefaultMongoURI),
			Database:   GetEnv("MONGODB_DATABASE", DefaultMongoDatabase),
			Collection: GetEnv("MONGODB_COLLECTION", DefaultMongoCollection),
		},
		Router: RouterConfig{
			InstanceID:   GetEnv("INSTANCE_ID", DefaultInstanceID),
			LeaseEnabled: GetEnvBool("ROUTER_LEASE_ENABLED", DefaultLeaseEnabled),
			LeaseTTL:     GetEnvDuration("ROUTER_LEASE_TTL", DefaultLeaseTTL),
		},
		Admin: AdminConfig{
			Addr: GetEnv("ADMIN_ADDR", ""),
		},
		LogLevel:        GetEnv("LOG_LEVEL", DefaultLogLevel),
		ShutdownTimeout: GetEnvDuration("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout),
	}
}

// LoadWithFlags loads configuration from environment variables and lets
// command-line flags in args override them
func LoadWithFlags(fs *flag.FlagSet, args []string) (*Config, error) {
	config := Load()
	subjects := strings.Join(config.Stream.Subjects, ",")

	fs.StringVar(&config.Stream.URL, "stream-url", config.Stream.URL, "NATS URL of the event stream")
	fs.StringVar(&config.Stream.Name, "stream-name", config.Stream.Name, "JetStream stream name")
	fs.StringVar(&subjects, "stream-subjects", subjects, "Comma-separated stream subjects")
	fs.IntVar(&config.Stream.BatchSize, "batch-size", config.Stream.BatchSize, "Maximum events per stream fetch")
	fs.StringVar(&config.Queue.Backend, "queue-backend", config.Queue.Backend, "Queue backend (redis|memory)")
	fs.StringVar(&config.Queue.URL, "queue-url", config.Queue.URL, "Redis URL of the queue broker")
	fs.StringVar(&config.Storage.MongoURI, "mongo-uri", config.Storage.MongoURI, "MongoDB connection URI")
	fs.StringVar(&config.Router.InstanceID, "instance-id", config.Router.InstanceID, "Unique instance ID for this processor")
	fs.BoolVar(&config.Router.LeaseEnabled, "lease", config.Router.LeaseEnabled, "Hold a Redis lease while routing the stream")
	fs.StringVar(&config.Admin.Addr, "admin-addr", config.Admin.Addr, "Admin listener address (empty disables)")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "Log level (debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	config.Stream.Subjects = splitList(subjects)

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Stream.URL == "" {
		return fmt.Errorf("event stream URL is required")
	}

	if c.Stream.Name == "" {
		return fmt.Errorf("event stream name is required")
	}

	if len(c.Stream.Subjects) == 0 {
		return fmt.Errorf("at least one event stream subject is required")
	}

	if c.Stream.BatchSize <= 0 {
		return fmt.Errorf("invalid stream batch size: %d", c.Stream.BatchSize)
	}

	switch c.Queue.Backend {
	case QueueBackendRedis:
		if c.Queue.URL == "" {
			return fmt.Errorf("queue URL is required for the redis backend")
		}
	case QueueBackendMemory:
		if c.Queue.BufferSize <= 0 {
			return fmt.Errorf("invalid queue buffer size: %d", c.Queue.BufferSize)
		}
	default:
		return fmt.Errorf("unknown queue backend: %q", c.Queue.Backend)
	}

	if c.Router.LeaseEnabled && c.Queue.Backend != QueueBackendRedis {
		return fmt.Errorf("router lease requires the redis queue backend")
	}

	// Replicas name their Redis processing lists after the instance ID
	if c.Router.LeaseEnabled && (c.Router.InstanceID == "" || c.Router.InstanceID == DefaultInstanceID) {
		return fmt.Errorf("a unique instance ID is required when the router lease is enabled")
	}

	if c.Storage.MongoURI == "" {
		return fmt.Errorf("MongoDB URI is required")
	}

	if c.Storage.Database == "" || c.Storage.Collection == "" {
		return fmt.Errorf("MongoDB database and collection are required")
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// ParseLogLevel maps a level name to a slog level
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %q", level)
	}
}
