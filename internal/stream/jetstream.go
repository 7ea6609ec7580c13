package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// fetchErrorBackoff is the pause after a failed fetch before trying again
const fetchErrorBackoff = time.Second

// JetStreamConfig holds NATS JetStream connection and stream settings
type JetStreamConfig struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222")
	URL string

	// Name is the client name for connection identification
	Name string

	// StreamName is the JetStream stream holding the events
	StreamName string

	// Subjects are the subjects the stream captures
	Subjects []string

	// BatchSize is the maximum number of events per fetched batch
	BatchSize int

	// FetchWait bounds how long one fetch waits for a full batch
	FetchWait time.Duration

	// ReconnectWait is the time to wait between reconnection attempts
	ReconnectWait time.Duration
}

// DefaultJetStreamConfig returns a config with sensible defaults
func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:           nats.DefaultURL,
		Name:          "event-router",
		StreamName:    "EventHub",
		Subjects:      []string{"events.>"},
		BatchSize:     100,
		FetchWait:     time.Second,
		ReconnectWait: 2 * time.Second,
	}
}

// JetStreamSource reads events from a JetStream stream through an ordered consumer.
// Ordered consumers are ephemeral and unacknowledged, so every Subscribe with
// StartEarliest replays the whole retained stream.
type JetStreamSource struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
	logger *slog.Logger
}

// NewJetStreamSource connects to NATS and creates the stream if it does not exist
func NewJetStreamSource(ctx context.Context, config JetStreamConfig, logger *slog.Logger) (*JetStreamSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	defaults := DefaultJetStreamConfig()
	if config.Name == "" {
		config.Name = defaults.Name
	}
	if config.StreamName == "" {
		config.StreamName = defaults.StreamName
	}
	if len(config.Subjects) == 0 {
		config.Subjects = defaults.Subjects
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.FetchWait <= 0 {
		config.FetchWait = defaults.FetchWait
	}
	if config.ReconnectWait <= 0 {
		config.ReconnectWait = defaults.ReconnectWait
	}

	logger = logger.With("component", "jetstream_source", "stream", config.StreamName)

	conn, err := nats.Connect(config.URL,
		nats.Name(config.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	s := &JetStreamSource{
		conn:   conn,
		js:     js,
		config: config,
		logger: logger,
	}

	if err := s.ensureStream(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info("JetStream source initialized",
		"url", config.URL,
		"subjects", config.Subjects,
		"batch_size", config.BatchSize,
	)

	return s, nil
}

// ensureStream creates or updates the stream; idempotent
func (s *JetStreamSource) ensureStream(ctx context.Context) error {
	_, err := s.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      s.config.StreamName,
		Subjects:  s.config.Subjects,
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create/update stream %s: %w", s.config.StreamName, err)
	}
	return nil
}

// Subscribe starts an ordered consumer at start and pumps fetched batches
func (s *JetStreamSource) Subscribe(ctx context.Context, start StartPosition) (*Subscription, error) {
	consumer, err := s.js.OrderedConsumer(ctx, s.config.StreamName, jetstream.OrderedConsumerConfig{
		FilterSubjects: s.config.Subjects,
		DeliverPolicy:  deliverPolicy(start),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ordered consumer on %s: %w", s.config.StreamName, err)
	}

	s.logger.Info("Subscribed to stream", "start_position", start.String())

	sub := newSubscription()
	go s.pump(ctx, consumer, sub)

	return sub, nil
}

func (s *JetStreamSource) pump(ctx context.Context, consumer jetstream.Consumer, sub *Subscription) {
	defer sub.finish()

	for ctx.Err() == nil {
		fetched, err := consumer.Fetch(s.config.BatchSize, jetstream.FetchMaxWait(s.config.FetchWait))
		if errors.Is(err, nats.ErrConnectionClosed) {
			return
		}
		if err != nil {
			if !sub.fail(ctx, fmt.Errorf("fetch from %s: %w", s.config.StreamName, err)) {
				return
			}
			select {
			case <-time.After(fetchErrorBackoff):
			case <-ctx.Done():
				return
			}
			continue
		}

		batch := make(Batch, 0, s.config.BatchSize)
		for msg := range fetched.Messages() {
			batch = append(batch, toEvent(msg))
		}

		if err := fetched.Error(); err != nil && !isIdleFetch(err) {
			if !sub.fail(ctx, fmt.Errorf("batch from %s: %w", s.config.StreamName, err)) {
				return
			}
		}

		if len(batch) == 0 {
			continue
		}
		if !sub.deliver(ctx, batch) {
			return
		}
	}
}

// Publish appends body to the stream under subject and waits for the ack
func (s *JetStreamSource) Publish(ctx context.Context, subject string, body []byte) (uint64, error) {
	ack, err := s.js.Publish(ctx, subject, body)
	if err != nil {
		return 0, fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return ack.Sequence, nil
}

// Close drains and closes the NATS connection
func (s *JetStreamSource) Close() error {
	if s.conn.IsClosed() {
		return nil
	}
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return nil
}

func deliverPolicy(start StartPosition) jetstream.DeliverPolicy {
	if start == StartLatest {
		return jetstream.DeliverNewPolicy
	}
	return jetstream.DeliverAllPolicy
}

// isIdleFetch reports whether a batch error only means nothing arrived in time
func isIdleFetch(err error) bool {
	return errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// toEvent copies what the pipeline needs out of a JetStream message
func toEvent(msg jetstream.Msg) *Event {
	event := &Event{
		Body:    msg.Data(),
		Subject: msg.Subject(),
	}
	if meta, err := msg.Metadata(); err == nil {
		event.Sequence = meta.Sequence.Stream
		event.PublishedAt = meta.Timestamp
	}
	return event
}
