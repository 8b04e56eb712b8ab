package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Subjects retained by the event stream.
var streamSubjects = []string{"race.>", "betting.>"}

// streamRecorder keeps a JetStream stream over the event subjects so
// published events can be replayed or audited. Delivery to handlers does not
// depend on it.
type streamRecorder struct {
	js     jetstream.JetStream
	name   string
	logger *slog.Logger
}

func newStreamRecorder(ctx context.Context, conn *nc.Conn, name string, logger *slog.Logger) (*streamRecorder, error) {
	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      name,
		Subjects:  streamSubjects,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    30 * 24 * time.Hour,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create stream %s: %w", name, err)
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream %s: %w", name, err)
	}
	logger.InfoContext(ctx, "Event stream ready",
		slog.String("stream", name),
		slog.Uint64("messages", info.State.Msgs),
	)

	return &streamRecorder{js: js, name: name, logger: logger}, nil
}

func (s *streamRecorder) healthCheck(ctx context.Context) error {
	if _, err := s.js.Stream(ctx, s.name); err != nil {
		return fmt.Errorf("event stream %s unavailable: %w", s.name, err)
	}
	return nil
}
