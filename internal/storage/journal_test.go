package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/example/swiftride/internal/models"
)

func TestNewEntry(t *testing.T) {
	p := models.RideRequestPayload{RiderName: "Guest Rider", RiderPhone: "0123456789"}
	ok := NewEntry(p, models.RideResponse{RideID: "r1", Status: "requested"}, nil)
	if ok.ID == "" || ok.Response == nil || ok.Response.RideID != "r1" || ok.Error != "" {
		t.Fatalf("unexpected ok entry %+v", ok)
	}
	failed := NewEntry(p, models.RideResponse{}, errors.New("boom"))
	if failed.Response != nil || failed.Error != "boom" {
		t.Fatalf("unexpected failed entry %+v", failed)
	}
	if ok.ID == failed.ID {
		t.Fatal("entry ids must be unique")
	}
}

func TestMemoryJournal(t *testing.T) {
	j := NewMemoryJournal()
	for _, id := range []string{"a", "b"} {
		if err := j.Append(context.Background(), Entry{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	got := j.Entries()
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("unexpected entries %+v", got)
	}
}

type fakeRedis struct {
	pushed  [][]byte
	trimmed []int64
	pushErr error
}

func (f *fakeRedis) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	for _, v := range values {
		f.pushed = append(f.pushed, v.([]byte))
	}
	return redis.NewIntResult(int64(len(f.pushed)), f.pushErr)
}

func (f *fakeRedis) LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd {
	f.trimmed = append(f.trimmed, stop)
	return redis.NewStatusResult("OK", nil)
}

func TestRedisJournalPushesAndTrims(t *testing.T) {
	f := &fakeRedis{}
	j := &RedisJournal{client: f, key: "swiftride:rides", max: 100}
	if err := j.Append(context.Background(), Entry{ID: "e1", Error: "boom"}); err != nil {
		t.Fatal(err)
	}
	if len(f.pushed) != 1 || len(f.trimmed) != 1 || f.trimmed[0] != 99 {
		t.Fatalf("unexpected calls pushed=%d trimmed=%v", len(f.pushed), f.trimmed)
	}
	var e Entry
	if err := json.Unmarshal(f.pushed[0], &e); err != nil || e.ID != "e1" {
		t.Fatalf("bad stored entry %s: %v", f.pushed[0], err)
	}
}

func TestRedisJournalPushError(t *testing.T) {
	f := &fakeRedis{pushErr: errors.New("redis down")}
	j := &RedisJournal{client: f, key: "k", max: 10}
	if err := j.Append(context.Background(), Entry{ID: "e1"}); err == nil {
		t.Fatal("expected error")
	}
	if len(f.trimmed) != 0 {
		t.Fatal("should not trim after failed push")
	}
}
