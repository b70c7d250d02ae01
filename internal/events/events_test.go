package events

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type recordingWriter struct {
	messages []kafka.Message
	closed   bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_KeysByRide(t *testing.T) {
	t.Parallel()

	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}

	event := RideEvent{
		Type:       RideAccepted,
		RideID:     "ride-1",
		Status:     "ONGOING",
		OccurredAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	if err := p.Publish(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(w.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.messages))
	}
	msg := w.messages[0]
	if string(msg.Key) != "ride-1" {
		t.Errorf("expected key ride-1, got %s", msg.Key)
	}
	var decoded RideEvent
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if decoded.Type != RideAccepted || decoded.Status != "ONGOING" {
		t.Errorf("unexpected payload %+v", decoded)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != string(RideAccepted) {
		t.Errorf("expected event-type header, got %v", msg.Headers)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("expected writer to be closed, err=%v", err)
	}
}

func TestNewKafkaPublisher_FlushesEachWrite(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "ride-events")
	defer p.Close()

	w, ok := p.writer.(*kafka.Writer)
	if !ok {
		t.Fatalf("expected *kafka.Writer, got %T", p.writer)
	}
	if w.BatchSize != 1 {
		t.Errorf("expected batch size 1, got %d", w.BatchSize)
	}
	if w.BatchTimeout <= 0 || w.BatchTimeout > 50*time.Millisecond {
		t.Errorf("expected batch timeout within 50ms, got %v", w.BatchTimeout)
	}
	if w.Async {
		t.Error("expected synchronous writes")
	}
}

func TestLogPublisher_WritesFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	p := NewLogPublisher(log)
	_ = p.Publish(context.Background(), RideEvent{Type: RideCancelled, RideID: "ride-9", Message: "ride cancelled"})

	out := buf.String()
	if !strings.Contains(out, `"ride_id":"ride-9"`) || !strings.Contains(out, `"event":"ride.cancelled"`) {
		t.Errorf("unexpected log output %q", out)
	}
}
