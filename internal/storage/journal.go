package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/swiftride/internal/models"
)

// Entry records one finished ride submission. Exactly one of Response and
// Error is set.
type Entry struct {
	ID          string                    `json:"id"`
	SubmittedAt time.Time                 `json:"submitted_at"`
	Payload     models.RideRequestPayload `json:"payload"`
	Response    *models.RideResponse      `json:"response,omitempty"`
	Error       string                    `json:"error,omitempty"`
}

func NewEntry(p models.RideRequestPayload, resp models.RideResponse, err error) Entry {
	e := Entry{ID: uuid.NewString(), SubmittedAt: time.Now().UTC(), Payload: p}
	if err != nil {
		e.Error = err.Error()
	} else {
		e.Response = &resp
	}
	return e
}

// Journal is an append-only audit log of submissions. It is never read back
// into client state.
type Journal interface {
	Append(ctx context.Context, e Entry) error
	Close() error
}

type MemoryJournal struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryJournal() *MemoryJournal { return &MemoryJournal{} }

func (m *MemoryJournal) Append(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *MemoryJournal) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Entry(nil), m.entries...)
}

func (m *MemoryJournal) Close() error { return nil }
