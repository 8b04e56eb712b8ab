package handlerwrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TopicMetadataKey is the metadata key the event bus routes outgoing messages by.
const TopicMetadataKey = "topic"

// Result is one outgoing message produced by a typed handler.
type Result struct {
	Topic    string
	Payload  any
	Metadata map[string]string
}

// NewMessage marshals payload into a watermill message addressed to topic.
func NewMessage(payload any, topic string) (*message.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload for %s: %w", topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set(TopicMetadataKey, topic)
	return msg, nil
}

// WrapTransformingTyped adapts a typed handler to a watermill HandlerFunc.
// Payloads that do not decode are logged and acked; they would never succeed
// on redelivery.
func WrapTransformingTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	handler func(context.Context, *T) ([]Result, error),
) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		ctx := msg.Context()
		var span trace.Span
		if tracer != nil {
			ctx, span = tracer.Start(ctx, handlerName, trace.WithAttributes(
				attribute.String("message.uuid", msg.UUID),
				attribute.String("message.topic", msg.Metadata.Get(TopicMetadataKey)),
			))
		} else {
			span = trace.SpanFromContext(ctx)
		}
		defer span.End()

		correlationID := middleware.MessageCorrelationID(msg)
		if correlationID == "" {
			correlationID = msg.UUID
		}

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.ErrorContext(ctx, "Dropping message with undecodable payload",
				slog.String("handler", handlerName),
				slog.String("message_id", msg.UUID),
				slog.String("error", err.Error()),
			)
			return nil, nil
		}

		results, err := handler(ctx, payload)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.ErrorContext(ctx, "Handler failed",
				slog.String("handler", handlerName),
				slog.String("message_id", msg.UUID),
				slog.String("correlation_id", correlationID),
				slog.String("error", err.Error()),
			)
			return nil, err
		}

		out := make([]*message.Message, 0, len(results))
		for _, r := range results {
			m, err := NewMessage(r.Payload, r.Topic)
			if err != nil {
				return nil, err
			}
			for k, v := range r.Metadata {
				m.Metadata.Set(k, v)
			}
			middleware.SetCorrelationID(correlationID, m)
			out = append(out, m)
		}
		return out, nil
	}
}
