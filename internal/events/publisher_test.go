package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatermillPublisherRoundTrip(t *testing.T) {
	logger := testLogger()
	pubSub := NewInMemoryPubSub(logger)
	defer pubSub.Close()

	publisher := NewWatermillPublisher(pubSub, "assessment.", logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, publisher.Topic(EventAttemptSubmitted))
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	event, err := NewEvent(EventAttemptSubmitted, 7, AttemptSubmittedPayload{
		AttemptID:  1,
		StudentID:  2,
		Score:      5,
		TotalMarks: 10,
		Percentage: 50,
	})
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}

	if err := publisher.Publish(ctx, event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-messages:
		msg.Ack()
		if got := msg.Metadata.Get(MetadataEventType); got != string(EventAttemptSubmitted) {
			t.Errorf("event_type metadata = %q", got)
		}
		if got := msg.Metadata.Get(MetadataTenantID); got != "7" {
			t.Errorf("tenant_id metadata = %q", got)
		}

		var received Event
		if err := json.Unmarshal(msg.Payload, &received); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		var payload AttemptSubmittedPayload
		if err := received.DecodePayload(&payload); err != nil {
			t.Fatalf("DecodePayload() error = %v", err)
		}
		if payload.Percentage != 50 || payload.AttemptID != 1 {
			t.Errorf("payload = %+v", payload)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestConsumerHandlesMessages(t *testing.T) {
	logger := testLogger()
	pubSub := NewInMemoryPubSub(logger)

	consumer, err := NewConsumer(pubSub, logger)
	if err != nil {
		t.Fatalf("NewConsumer() error = %v", err)
	}

	received := make(chan string, 1)
	consumer.Handle("test_handler", "training.completed", func(msg *message.Message) error {
		received <- string(msg.Payload)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		_ = consumer.Run(ctx)
	}()
	<-consumer.Running()

	if err := pubSub.Publish("training.completed", message.NewMessage("m1", []byte(`{"student_id":3}`))); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if got != `{"student_id":3}` {
			t.Errorf("payload = %s", got)
		}
	case <-ctx.Done():
		t.Fatal("handler was not called")
	}

	if err := consumer.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestMockEventPublisher(t *testing.T) {
	mock := NewMockEventPublisher(testLogger())

	e1, _ := NewEvent(EventStageChanged, 1, StageChangedPayload{StudentID: 1})
	e2, _ := NewEvent(EventFinalQualified, 1, FinalQualifiedPayload{StudentID: 1})
	if err := mock.Publish(context.Background(), e1, e2); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if got := len(mock.GetPublishedEvents()); got != 2 {
		t.Fatalf("published %d events, want 2", got)
	}
	if got := len(mock.EventsOfType(EventFinalQualified)); got != 1 {
		t.Errorf("final qualified events = %d, want 1", got)
	}

	mock.ClearEvents()
	if got := len(mock.GetPublishedEvents()); got != 0 {
		t.Errorf("events after clear = %d", got)
	}

	mock.FailWith(errors.New("broker down"))
	if err := mock.Publish(context.Background(), e1); err == nil {
		t.Error("expected publish error")
	}
}
