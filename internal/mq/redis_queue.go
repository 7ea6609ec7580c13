package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRedisConnection = errors.New("redis connection failed")
)

// RedisBroker implements Broker using Redis lists.
//
// A queue named q lives in the list "queue:{q}". Senders LPUSH, receivers
// BRPOPLPUSH into a per-consumer processing list "processing:{q}:{consumer}"
// and LREM the entry once the message is completed. Entries left in a
// processing list by a crashed consumer are returned to the queue when a
// receiver for the same queue and consumer is opened again.
type RedisBroker struct {
	client      *redis.Client
	logger      *slog.Logger
	consumerID  string
	pollTimeout time.Duration

	// Statistics
	totalPublished atomic.Int64
	totalDelivered atomic.Int64
	totalCompleted atomic.Int64
	totalErrors    atomic.Int64
	openReceivers  atomic.Int64

	closed atomic.Bool
}

// RedisBrokerConfig configuration for Redis broker
type RedisBrokerConfig struct {
	RedisURL    string
	ConsumerID  string
	PoolSize    int
	PollTimeout time.Duration
}

// NewRedisBroker creates a new Redis-backed broker and verifies the connection
func NewRedisBroker(config RedisBrokerConfig, logger *slog.Logger) (*RedisBroker, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if config.PoolSize == 0 {
		config.PoolSize = 10
	}

	if config.PollTimeout == 0 {
		config.PollTimeout = time.Second
	}

	if config.ConsumerID == "" {
		config.ConsumerID = "default"
	}

	// Parse Redis URL
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.PoolSize

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrRedisConnection, err)
	}

	logger.Info("Redis broker initialized",
		"addr", opts.Addr,
		"consumer_id", config.ConsumerID,
		"pool_size", config.PoolSize,
	)

	return newRedisBroker(client, config, logger), nil
}

// NewRedisBrokerFromClient wraps an existing client; the broker takes ownership of it
func NewRedisBrokerFromClient(client *redis.Client, config RedisBrokerConfig, logger *slog.Logger) *RedisBroker {
	if logger == nil {
		logger = slog.Default()
	}
	if config.PollTimeout == 0 {
		config.PollTimeout = time.Second
	}
	if config.ConsumerID == "" {
		config.ConsumerID = "default"
	}
	return newRedisBroker(client, config, logger)
}

func newRedisBroker(client *redis.Client, config RedisBrokerConfig, logger *slog.Logger) *RedisBroker {
	return &RedisBroker{
		client:      client,
		logger:      logger.With("component", "redis_broker"),
		consumerID:  config.ConsumerID,
		pollTimeout: config.PollTimeout,
	}
}

// Client returns the underlying Redis client, shared with other Redis users in the process
func (b *RedisBroker) Client() *redis.Client {
	return b.client
}

func queueKey(queue string) string {
	return fmt.Sprintf("queue:%s", queue)
}

func processingKey(queue, consumerID string) string {
	return fmt.Sprintf("processing:%s:%s", queue, consumerID)
}

// NewSender opens a send path to queue.
// The underlying connection pool is shared; the sender itself holds no connection.
func (b *RedisBroker) NewSender(ctx context.Context, queue string) (Sender, error) {
	if b.closed.Load() {
		return nil, ErrBrokerClosed
	}
	return &redisSender{broker: b, queue: queue, key: queueKey(queue)}, nil
}

// NewReceiver opens a receive path on queue and requeues anything this
// consumer left in flight
func (b *RedisBroker) NewReceiver(ctx context.Context, queue string) (Receiver, error) {
	if b.closed.Load() {
		return nil, ErrBrokerClosed
	}

	r := &redisReceiver{
		broker:        b,
		queue:         queue,
		queueKey:      queueKey(queue),
		processingKey: processingKey(queue, b.consumerID),
	}

	recovered, err := r.recoverInflight(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to recover in-flight messages for %s: %w", queue, err)
	}
	if recovered > 0 {
		b.logger.Warn("Requeued in-flight messages",
			"queue", queue,
			"count", recovered,
		)
	}

	b.openReceivers.Add(1)

	b.logger.Info("Receiver opened",
		"queue", queue,
		"queue_key", r.queueKey,
		"processing_key", r.processingKey,
	)

	return r, nil
}

// Depth returns the length of the queue list
func (b *RedisBroker) Depth(ctx context.Context, queue string) (int64, error) {
	if b.closed.Load() {
		return 0, ErrBrokerClosed
	}
	n, err := b.client.LLen(ctx, queueKey(queue)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue depth: %w", err)
	}
	return n, nil
}

// Stats returns broker statistics
func (b *RedisBroker) Stats() QueueStats {
	return QueueStats{
		TotalPublished: b.totalPublished.Load(),
		TotalDelivered: b.totalDelivered.Load(),
		TotalCompleted: b.totalCompleted.Load(),
		TotalErrors:    b.totalErrors.Load(),
		OpenReceivers:  b.openReceivers.Load(),
	}
}

// Close closes the Redis connection
func (b *RedisBroker) Close() error {
	if b.closed.Swap(true) {
		return nil
	}

	b.logger.Info("Closing Redis broker")

	if err := b.client.Close(); err != nil {
		b.logger.Error("Failed to close Redis client", "error", err)
		return err
	}

	return nil
}

type redisSender struct {
	broker *RedisBroker
	queue  string
	key    string
	closed atomic.Bool
}

// Send pushes one message to the queue list (left push = FIFO when we pop right)
func (s *redisSender) Send(ctx context.Context, body []byte) error {
	if s.closed.Load() {
		return fmt.Errorf("sender for %s is closed", s.queue)
	}
	if s.broker.closed.Load() {
		return ErrBrokerClosed
	}

	msg := NewMessage(s.queue, body)
	data, err := msg.encode()
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := s.broker.client.LPush(ctx, s.key, data).Err(); err != nil {
		s.broker.totalErrors.Add(1)
		return fmt.Errorf("failed to push message to Redis: %w", err)
	}

	s.broker.totalPublished.Add(1)
	s.broker.logger.Debug("Message sent",
		"queue", s.queue,
		"message_id", msg.ID,
	)

	return nil
}

func (s *redisSender) Close(ctx context.Context) error {
	s.closed.Store(true)
	return nil
}

type redisReceiver struct {
	broker        *RedisBroker
	queue         string
	queueKey      string
	processingKey string
	closed        atomic.Bool
}

// Receive blocks until a message is moved into the processing list.
// Polls in PollTimeout slices so cancellation is noticed promptly.
func (r *redisReceiver) Receive(ctx context.Context) (*Message, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.closed.Load() {
			return nil, fmt.Errorf("receiver for %s is closed", r.queue)
		}
		if r.broker.closed.Load() {
			return nil, ErrBrokerClosed
		}

		result, err := r.broker.client.BRPopLPush(ctx, r.queueKey, r.processingKey, r.broker.pollTimeout).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// No messages available, keep polling
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, redis.ErrClosed) {
				return nil, ErrBrokerClosed
			}
			r.broker.totalErrors.Add(1)
			return nil, fmt.Errorf("failed to pop message from %s: %w", r.queue, err)
		}

		msg, err := decodeMessage(result)
		if err != nil {
			// Drop undecodable entries so they do not come back forever
			if remErr := r.broker.client.LRem(ctx, r.processingKey, 1, result).Err(); remErr != nil {
				r.broker.logger.Error("Failed to drop undecodable message; it will be requeued on next start",
					"queue", r.queue,
					"processing_key", r.processingKey,
					"error", remErr,
				)
			}
			r.broker.totalErrors.Add(1)
			return nil, fmt.Errorf("failed to unmarshal message from %s: %w", r.queue, err)
		}

		r.broker.totalDelivered.Add(1)
		return msg, nil
	}
}

// Complete removes the message from the processing list
func (r *redisReceiver) Complete(ctx context.Context, msg *Message) error {
	if err := r.broker.client.LRem(ctx, r.processingKey, 1, msg.raw).Err(); err != nil {
		r.broker.totalErrors.Add(1)
		return fmt.Errorf("failed to remove message from processing list: %w", err)
	}

	r.broker.totalCompleted.Add(1)
	r.broker.logger.Debug("Message completed",
		"queue", r.queue,
		"message_id", msg.ID,
	)
	return nil
}

func (r *redisReceiver) Close(ctx context.Context) error {
	if !r.closed.Swap(true) {
		r.broker.openReceivers.Add(-1)
	}
	return nil
}

// recoverInflight moves every entry of the processing list back to the queue
func (r *redisReceiver) recoverInflight(ctx context.Context) (int, error) {
	count := 0
	for {
		err := r.broker.client.RPopLPush(ctx, r.processingKey, r.queueKey).Err()
		if errors.Is(err, redis.Nil) {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		count++
	}
}
