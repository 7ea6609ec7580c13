package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultLeaseKey is the Redis key guarding the stream-to-queue route
	DefaultLeaseKey           = "router:stream:lease"
	DefaultLeaseTTL           = 30 * time.Second
	leaseAcquireRetryInterval = 2 * time.Second
)

// ErrLeaseNotOwned is returned when the lease is held by another instance or has expired
var ErrLeaseNotOwned = errors.New("lease not owned by this instance")

var (
	releaseScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)

	extendScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		else
			return 0
		end
	`)
)

// Lease is a Redis-held lock ensuring only one router instance reads the stream
// and sends to the queues at a time. Other instances wait for it.
type Lease struct {
	client     *redis.Client
	key        string
	instanceID string
	token      string
	ttl        time.Duration
	logger     *slog.Logger
}

// NewLease creates a lease manager on an existing Redis client.
// The client is not owned by the lease and is not closed by it.
// The value written to Redis is instanceID plus a random suffix, so two
// processes configured with the same instance ID never share ownership.
func NewLease(client *redis.Client, instanceID string, ttl time.Duration, logger *slog.Logger) *Lease {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}

	return &Lease{
		client:     client,
		key:        DefaultLeaseKey,
		instanceID: instanceID,
		token:      instanceID + ":" + uuid.NewString(),
		ttl:        ttl,
		logger:     logger.With("component", "router_lease", "instance_id", instanceID),
	}
}

// Token returns the ownership value this lease writes to Redis
func (l *Lease) Token() string {
	return l.token
}

// Acquire blocks until the lease is held or ctx is cancelled
func (l *Lease) Acquire(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// SET NX with expiry: only succeeds when no other instance holds the key
		ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
		switch {
		case err != nil:
			l.logger.Warn("Failed to acquire router lease", "error", err)
		case ok:
			l.logger.Info("Acquired router lease", "ttl", l.ttl)
			return nil
		default:
			l.logger.Debug("Router lease held by another instance, waiting...",
				"retry_interval", leaseAcquireRetryInterval,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(leaseAcquireRetryInterval):
		}
	}
}

// Release gives the lease up if this instance still owns it
func (l *Lease) Release(ctx context.Context) error {
	result, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("failed to release lease: %w", err)
	}

	if result == 1 {
		l.logger.Info("Released router lease")
	} else {
		l.logger.Warn("Router lease was not owned by this instance or already released")
	}

	return nil
}

// Extend pushes the lease expiry out by one TTL
func (l *Lease) Extend(ctx context.Context) error {
	result, err := extendScript.Run(ctx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("failed to extend lease: %w", err)
	}

	if result == 0 {
		return ErrLeaseNotOwned
	}

	l.logger.Debug("Extended router lease", "ttl", l.ttl)
	return nil
}

// Keep extends the lease every third of its TTL until ctx is done.
// lost is called once, and Keep returns, if the lease turns out to belong to
// someone else. Transient Redis errors are logged and retried on the next tick.
func (l *Lease) Keep(ctx context.Context, lost func()) {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := l.Extend(ctx)
			if err == nil {
				continue
			}
			if errors.Is(err, ErrLeaseNotOwned) {
				l.logger.Error("Router lease lost")
				lost()
				return
			}
			if ctx.Err() == nil {
				l.logger.Warn("Failed to extend router lease", "error", err)
			}
		}
	}
}
