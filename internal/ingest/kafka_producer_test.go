package ingest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/swiftride/internal/models"
	"github.com/example/swiftride/internal/storage"
)

type fakeWriter struct{ msgs []kafka.Message }

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestPublishRideRequestedKeysByRideID(t *testing.T) {
	w := &fakeWriter{}
	k := &KafkaPublisher{writer: w, timeout: time.Second}
	e := storage.Entry{ID: "e1", Response: &models.RideResponse{RideID: "r9", Status: "requested"}}
	if err := k.PublishRideRequested(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "r9" {
		t.Fatalf("unexpected messages %+v", w.msgs)
	}
	var ev RideEvent
	if err := json.Unmarshal(w.msgs[0].Value, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != EventRideRequested || ev.Entry.Response.RideID != "r9" {
		t.Fatalf("unexpected event %+v", ev)
	}
}
