package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/podium-bot/app/shared/handlerwrapper"
	"github.com/Black-And-White-Club/podium-bot/config"
	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"
)

// EventBus is the publisher and subscriber every module shares.
type EventBus interface {
	message.Publisher
	message.Subscriber
	// HealthCheck reports whether the transport can currently deliver.
	HealthCheck(ctx context.Context) error
}

// New connects to NATS, or runs in memory when no URL is configured.
func New(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger) (EventBus, error) {
	if cfg.URL == "" {
		logger.WarnContext(ctx, "NATS URL not set, using in-memory event bus")
		return NewInMemory(logger), nil
	}
	return NewNATS(ctx, cfg, logger)
}

// router publishes to the topic in the message metadata when called with an
// empty topic, so handlers can answer on any subject.
type router struct {
	publisher message.Publisher
	logger    *slog.Logger
}

func (r router) Publish(topic string, msgs ...*message.Message) error {
	if topic != "" {
		return r.publisher.Publish(topic, msgs...)
	}
	for _, msg := range msgs {
		t := msg.Metadata.Get(handlerwrapper.TopicMetadataKey)
		if t == "" {
			return fmt.Errorf("message %s has no topic", msg.UUID)
		}
		r.logger.Debug("Publishing message",
			slog.String("topic", t),
			slog.String("message_id", msg.UUID),
		)
		if err := r.publisher.Publish(t, msg); err != nil {
			return fmt.Errorf("failed to publish to %s: %w", t, err)
		}
	}
	return nil
}

type natsBus struct {
	router
	subscriber message.Subscriber
	conn       *nc.Conn
	stream     *streamRecorder
	logger     *slog.Logger
}

// NewNATS creates an EventBus on core NATS subjects. Handlers in the same
// queue group share deliveries, so several replicas can run.
func NewNATS(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger) (EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)
	marshaler := &wmnats.NATSMarshaler{}
	natsOptions := []nc.Option{
		nc.RetryOnFailedConnect(true),
		nc.Name("podium-bot"),
	}

	conn, err := nc.Connect(cfg.URL, natsOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	publisher, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOptions,
		Marshaler:   marshaler,
		JetStream:   wmnats.JetStreamConfig{Disabled: true},
	}, wmLogger)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}

	subscriber, err := wmnats.NewSubscriber(wmnats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: "podium",
		SubscribersCount: 1,
		NatsOptions:      natsOptions,
		Unmarshaler:      marshaler,
		JetStream:        wmnats.JetStreamConfig{Disabled: true},
	}, wmLogger)
	if err != nil {
		_ = publisher.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to create NATS subscriber: %w", err)
	}

	bus := &natsBus{
		router:     router{publisher: publisher, logger: logger},
		subscriber: subscriber,
		conn:       conn,
		logger:     logger,
	}

	if cfg.Stream != "" {
		stream, err := newStreamRecorder(ctx, conn, cfg.Stream, logger)
		if err != nil {
			_ = bus.Close()
			return nil, err
		}
		bus.stream = stream
	}

	logger.InfoContext(ctx, "Connected to NATS",
		slog.String("url", conn.ConnectedUrlRedacted()),
		slog.String("stream", cfg.Stream),
	)
	return bus, nil
}

func (b *natsBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, topic)
}

func (b *natsBus) HealthCheck(ctx context.Context) error {
	if !b.conn.IsConnected() {
		return fmt.Errorf("nats connection is %s", b.conn.Status())
	}
	if b.stream != nil {
		return b.stream.healthCheck(ctx)
	}
	return nil
}

func (b *natsBus) Close() error {
	var errs []error
	if err := b.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close subscriber: %w", err))
	}
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	b.conn.Close()
	return errors.Join(errs...)
}

type memoryBus struct {
	router
	pubsub *gochannel.GoChannel
}

// NewInMemory returns an EventBus that delivers within the process. Used when
// NATS is not configured and by tests.
func NewInMemory(logger *slog.Logger) EventBus {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, watermill.NewSlogLogger(logger))
	return &memoryBus{
		router: router{publisher: pubsub, logger: logger},
		pubsub: pubsub,
	}
}

func (b *memoryBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

func (b *memoryBus) HealthCheck(context.Context) error { return nil }

func (b *memoryBus) Close() error { return b.pubsub.Close() }
