package stream

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMsg implements the parts of jetstream.Msg that toEvent reads
type fakeMsg struct {
	jetstream.Msg
	data    []byte
	subject string
	meta    *jetstream.MsgMetadata
	metaErr error
}

func (m *fakeMsg) Data() []byte    { return m.data }
func (m *fakeMsg) Subject() string { return m.subject }
func (m *fakeMsg) Metadata() (*jetstream.MsgMetadata, error) {
	return m.meta, m.metaErr
}

func TestToEvent(t *testing.T) {
	published := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	msg := &fakeMsg{
		data:    []byte(`{"type":"low-priority","data":"x"}`),
		subject: "events.sample",
		meta: &jetstream.MsgMetadata{
			Sequence:  jetstream.SequencePair{Stream: 42, Consumer: 7},
			Timestamp: published,
		},
	}

	event := toEvent(msg)

	assert.Equal(t, msg.data, event.Body)
	assert.Equal(t, "events.sample", event.Subject)
	assert.Equal(t, uint64(42), event.Sequence)
	assert.Equal(t, published, event.PublishedAt)
}

func TestToEvent_MissingMetadata(t *testing.T) {
	event := toEvent(&fakeMsg{data: []byte("x"), metaErr: errors.New("not a jetstream message")})

	assert.Equal(t, []byte("x"), event.Body)
	assert.Zero(t, event.Sequence)
	assert.True(t, event.PublishedAt.IsZero())
}

func TestDeliverPolicy(t *testing.T) {
	assert.Equal(t, jetstream.DeliverAllPolicy, deliverPolicy(StartEarliest))
	assert.Equal(t, jetstream.DeliverNewPolicy, deliverPolicy(StartLatest))
}

func TestIsIdleFetch(t *testing.T) {
	assert.True(t, isIdleFetch(nats.ErrTimeout))
	assert.True(t, isIdleFetch(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.False(t, isIdleFetch(errors.New("stream not found")))
}

func TestNewJetStreamSource_Unreachable(t *testing.T) {
	_, err := NewJetStreamSource(context.Background(), JetStreamConfig{
		URL: "nats://127.0.0.1:1",
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to NATS")
}

// Test helper: connect to a live JetStream server or skip
func setupJetStream(t *testing.T, streamName string) *JetStreamSource {
	t.Helper()

	url := os.Getenv("TEST_NATS_URL")
	if url == "" {
		t.Skip("NATS not available for testing (set TEST_NATS_URL to a JetStream-enabled server)")
	}

	ctx := context.Background()
	source, err := NewJetStreamSource(ctx, JetStreamConfig{
		URL:        url,
		StreamName: streamName,
		Subjects:   []string{streamName + ".>"},
		BatchSize:  10,
		FetchWait:  200 * time.Millisecond,
	}, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = source.js.DeleteStream(context.Background(), streamName)
		source.Close()
	})

	return source
}

func TestJetStreamSource_ReplayFromEarliest(t *testing.T) {
	streamName := fmt.Sprintf("TEST_%d", time.Now().UnixNano())
	source := setupJetStream(t, streamName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, body := range []string{`{"type":"high-priority"}`, `{"type":"urgent"}`} {
		_, err := source.Publish(ctx, streamName+".sample", []byte(body))
		require.NoError(t, err)
	}

	sub, err := source.Subscribe(ctx, StartEarliest)
	require.NoError(t, err)

	var got []string
	for len(got) < 2 {
		select {
		case batch := <-sub.Batches():
			for _, e := range batch {
				got = append(got, string(e.Body))
			}
		case err := <-sub.Errors():
			t.Fatalf("unexpected stream error: %v", err)
		case <-ctx.Done():
			t.Fatal("timed out waiting for replay")
		}
	}

	assert.Equal(t, []string{`{"type":"high-priority"}`, `{"type":"urgent"}`}, got)
}
