package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/RyadPasha/event-hub-data-processor/internal/config"
	"github.com/RyadPasha/event-hub-data-processor/internal/stream"
)

// sampleEvent is the body shape the processor routes on
type sampleEvent struct {
	Data string `json:"data"`
	Type string `json:"type"`
}

// defaultSamples is one event per queue
var defaultSamples = []sampleEvent{
	{Data: "sample event msg 1", Type: "high-priority"},
	{Data: "sample event msg 2", Type: "low-priority"},
	{Data: "sample event msg 3", Type: "default"},
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()

	streamURL := flag.String("stream-url", cfg.Stream.URL, "NATS URL of the event stream")
	subject := flag.String("subject", config.DefaultSampleSubject, "Subject to publish on")
	eventType := flag.String("type", "", "Publish a single event with this type instead of the samples")
	data := flag.String("data", "custom event", "Data field for -type events")
	count := flag.Int("count", 1, "Number of times to publish")
	flag.Parse()

	events := defaultSamples
	if *eventType != "" {
		events = []sampleEvent{{Data: *data, Type: *eventType}}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	source, err := stream.NewJetStreamSource(ctx, stream.JetStreamConfig{
		URL:        *streamURL,
		Name:       "sample-producer",
		StreamName: cfg.Stream.Name,
		Subjects:   cfg.Stream.Subjects,
	}, logger)
	if err != nil {
		logger.Error("Failed to connect to event stream", "error", err)
		os.Exit(1)
	}
	defer source.Close()

	published := 0
	for i := 0; i < *count; i++ {
		for _, event := range events {
			body, err := json.Marshal(event)
			if err != nil {
				logger.Error("Failed to marshal event", "error", err)
				os.Exit(1)
			}

			seq, err := source.Publish(ctx, *subject, body)
			if err != nil {
				logger.Error("Failed to publish event", "type", event.Type, "error", err)
				os.Exit(1)
			}
			published++

			logger.Info("Published event", "type", event.Type, "sequence", seq)
		}
	}

	logger.Info("Messages sent successfully", "count", published, "subject", *subject)
	fmt.Println("Sample events published")
}
