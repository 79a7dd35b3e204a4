package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/alphabot/alphabot-client/internal/model"
	"github.com/alphabot/alphabot-client/pkg/metrics"
)

const (
	// StreamName is the name of the session events stream.
	StreamName = "ALPHABOT_SESSIONS"

	// SubjectPrefix is the prefix for all session subjects.
	SubjectPrefix = "alphabot"

	// globalScope is the subject token for events not tied to a room.
	globalScope = "global"
)

// Publisher is the subset of JetStream used by StreamManager.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// StreamManager publishes session events and reads them back.
type StreamManager struct {
	client *Client
	pub    Publisher
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client, pub: client.JetStream()}
}

// EnsureStream ensures the session events stream exists.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Alpha Bot chat session events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// EventSubject returns the subject for an event.
func EventSubject(roomID int64, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.event.%s", SubjectPrefix, roomScope(roomID), eventType)
}

// RoomFilter returns the filter subject for all events of a room.
func RoomFilter(roomID int64) string {
	return fmt.Sprintf("%s.%s.>", SubjectPrefix, roomScope(roomID))
}

func roomScope(roomID int64) string {
	if roomID == 0 {
		return globalScope
	}
	return strconv.FormatInt(roomID, 10)
}

// PublishEvent publishes a session event to JetStream.
func (m *StreamManager) PublishEvent(ctx context.Context, event *model.SessionEvent) error {
	subject := EventSubject(event.RoomID, event.Type)

	data, err := json.Marshal(event)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "error").Inc()
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	opts := []jetstream.PublishOpt{}
	if event.ID != "" {
		opts = append(opts, jetstream.WithMsgID(event.ID))
	}
	if _, err := m.pub.Publish(ctx, subject, data, opts...); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "error").Inc()
		return fmt.Errorf("failed to publish event: %w", err)
	}

	metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "ok").Inc()
	return nil
}

// ReplayEvents reads a room's events from the stream starting after a
// sequence. It returns the events, the last sequence read and whether more
// may be available.
func (m *StreamManager) ReplayEvents(ctx context.Context, roomID int64, afterSequence uint64, limit int) ([]model.SessionEvent, uint64, bool, error) {
	js := m.client.JetStream()

	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject: RoomFilter(roomID),
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	}
	if afterSequence > 0 {
		consumerConfig.DeliverPolicy = jetstream.DeliverByStartSequencePolicy
		consumerConfig.OptStartSeq = afterSequence + 1
	}

	consumer, err := js.CreateConsumer(ctx, StreamName, consumerConfig)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to create consumer: %w", err)
	}

	batch, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to fetch events: %w", err)
	}

	var events []model.SessionEvent
	var lastSequence uint64
	for msg := range batch.Messages() {
		var ev model.SessionEvent
		if err := json.Unmarshal(msg.Data(), &ev); err != nil {
			continue
		}
		if meta, err := msg.Metadata(); err == nil {
			lastSequence = meta.Sequence.Stream
		}
		events = append(events, ev)
	}

	if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, 0, false, fmt.Errorf("batch error: %w", err)
	}

	return events, lastSequence, len(events) == limit, nil
}
