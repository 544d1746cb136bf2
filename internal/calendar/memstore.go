package calendar

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory calendar store with the same transactional
// semantics as the Postgres store. It backs unit tests and single-instance
// development runs.
type MemStore struct {
	mu     sync.Mutex
	nextID int64
	blocks map[int64]*TimeBlock
	appts  []Appointment
}

func NewMemStore() *MemStore {
	return &MemStore{blocks: make(map[int64]*TimeBlock), nextID: 1}
}

// AddBlock registers a free block and returns its id.
func (m *MemStore) AddBlock(staffID int, start, end time.Time) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.blocks[id] = &TimeBlock{ID: id, StaffID: staffID, StartAt: start, EndAt: end}
	return id
}

func (m *MemStore) FreeBlocks(ctx context.Context, staffID int, from, to time.Time) ([]TimeBlock, error) {
	return m.selectBlocks(func(b *TimeBlock) bool {
		return b.StaffID == staffID && !b.Reserved &&
			!b.StartAt.Before(from) && b.StartAt.Before(to)
	}), nil
}

func (m *MemStore) BlocksInRange(ctx context.Context, staffID int, from, to time.Time) ([]TimeBlock, error) {
	return m.selectBlocks(func(b *TimeBlock) bool {
		return b.StaffID == staffID && !b.StartAt.Before(from) && !b.EndAt.After(to)
	}), nil
}

func (m *MemStore) FreeBlocksOverlapping(ctx context.Context, staffID int, from, to time.Time) ([]TimeBlock, error) {
	return m.selectBlocks(func(b *TimeBlock) bool {
		return b.StaffID == staffID && !b.Reserved &&
			b.StartAt.Before(to) && b.EndAt.After(from)
	}), nil
}

func (m *MemStore) selectBlocks(keep func(*TimeBlock) bool) []TimeBlock {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []TimeBlock
	for _, b := range m.blocks {
		if keep(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out
}

func (m *MemStore) AppointmentsInRange(ctx context.Context, staffID int, from, to time.Time) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.appts {
		if a.StaffID == staffID && !a.StartAt.Before(from) && a.StartAt.Before(to) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (m *MemStore) Begin(ctx context.Context) (Tx, error) {
	return &memTx{store: m}, nil
}

type memTx struct {
	store    *MemStore
	reserved []int64
	pending  []Appointment
	done     bool
}

// Reserve checks and flips atomically under the store lock, so two
// transactions racing for the same blocks see exactly one winner.
func (t *memTx) Reserve(ctx context.Context, blockIDs []int64) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, id := range blockIDs {
		b, ok := t.store.blocks[id]
		if !ok || b.Reserved {
			return ErrConflict
		}
	}
	for _, id := range blockIDs {
		t.store.blocks[id].Reserved = true
	}
	t.reserved = append(t.reserved, blockIDs...)
	return nil
}

func (t *memTx) PersistAppointment(ctx context.Context, a Appointment) (Appointment, error) {
	a.ID = uuid.New()
	a.CreatedAt = time.Now().UTC()
	t.pending = append(t.pending, a)
	return a, nil
}

func (t *memTx) Commit(ctx context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.done {
		return errors.New("tx closed")
	}
	t.store.appts = append(t.store.appts, t.pending...)
	t.done = true
	return nil
}

// Rollback releases any blocks flipped by this transaction. After Commit
// it is a no-op, mirroring a deferred rollback on a committed tx.
func (t *memTx) Rollback(ctx context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.done {
		return nil
	}
	for _, id := range t.reserved {
		if b, ok := t.store.blocks[id]; ok {
			b.Reserved = false
		}
	}
	t.done = true
	return nil
}
