package config

import "time"

// Default configuration values
const (
	// Stream defaults
	DefaultStreamURL       = "nats://localhost:4222"
	DefaultStreamName      = "EventHub"
	DefaultStreamSubjects  = "events.>"
	DefaultStreamBatchSize = 100
	DefaultStreamFetchWait = 5 * time.Second

	// Queue defaults
	QueueBackendRedis      = "redis"
	QueueBackendMemory     = "memory"
	DefaultQueueBackend    = QueueBackendRedis
	DefaultQueueURL        = "redis://localhost:6379"
	DefaultQueueBufferSize = 1000

	// MongoDB defaults
	DefaultMongoURI        = "mongodb://localhost:27017"
	DefaultMongoDatabase   = "events"
	DefaultMongoCollection = "processed_events"

	// Router defaults
	DefaultInstanceID    = "processor-1"
	DefaultLeaseEnabled  = false
	DefaultLeaseTTL      = 30 * time.Second
	DefaultSampleSubject = "events.sample"

	// Admin listener defaults
	DefaultAdminReadTimeout  = 15 * time.Second
	DefaultAdminWriteTimeout = 15 * time.Second
	DefaultAdminIdleTimeout  = 60 * time.Second

	// Process defaults
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
)
