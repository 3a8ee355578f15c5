package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	err := p.Publish(context.Background(), SalePosted, "sale-1", map[string]any{"quantity": 2})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "sale-1" {
		t.Errorf("key = %q, want sale-1", msg.Key)
	}

	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Type != SalePosted || ev.ID == "" {
		t.Errorf("event = %+v", ev)
	}
	if string(ev.Data) != `{"quantity":2}` {
		t.Errorf("data = %s", ev.Data)
	}

	var sawType bool
	for _, h := range msg.Headers {
		if h.Key == "event-type" && string(h.Value) == SalePosted {
			sawType = true
		}
	}
	if !sawType {
		t.Error("event-type header missing")
	}
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	down := errors.New("broker down")
	p := &KafkaPublisher{writer: &fakeWriter{err: down}}
	if err := p.Publish(context.Background(), BillPaid, "b-1", nil); !errors.Is(err, down) {
		t.Errorf("Publish = %v, want wrapped broker error", err)
	}
}
