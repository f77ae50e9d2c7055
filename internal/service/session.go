package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/masapos/api/internal/database"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrSessionNotFound is returned when a session ID is unknown, expired, or
// belongs to another branch.
var ErrSessionNotFound = errors.New("pos session not found")

// SessionState is derived from the session fields, never stored.
type SessionState string

const (
	StateNoOrder     SessionState = "NO_ORDER"
	StatePendingCart SessionState = "PENDING_CART"
	StateOpenOrder   SessionState = "OPEN_ORDER"
)

// PendingEntry is a cart line that has not been saved to the table yet.
type PendingEntry struct {
	ProductID   uuid.UUID
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int32
}

// LineTotal returns quantity × unit price.
func (e PendingEntry) LineTotal() decimal.Decimal {
	return e.UnitPrice.Mul(decimal.NewFromInt32(e.Quantity))
}

// Session is the working state of one staff terminal. All fields behind mu
// are touched only by PosService while it holds the lock.
type Session struct {
	ID          uuid.UUID
	BranchID    uuid.UUID
	PersonnelID uuid.UUID

	mu       sync.Mutex
	table    *database.Table
	order    *database.Order
	items    []database.OrderItem
	pending  []PendingEntry
	lastSeen time.Time
}

// SessionSnapshot is a read-only copy of a session.
type SessionSnapshot struct {
	ID           uuid.UUID
	BranchID     uuid.UUID
	PersonnelID  uuid.UUID
	State        SessionState
	Table        *database.Table
	Order        *database.Order
	Items        []database.OrderItem
	Pending      []PendingEntry
	OrderTotal   decimal.Decimal
	PendingTotal decimal.Decimal
}

func (s *Session) state() SessionState {
	switch {
	case s.order != nil:
		return StateOpenOrder
	case len(s.pending) > 0:
		return StatePendingCart
	default:
		return StateNoOrder
	}
}

// reset returns the session to NO_ORDER with no table selected.
func (s *Session) reset() {
	s.table = nil
	s.order = nil
	s.items = nil
	s.pending = nil
}

// snapshot must be called with mu held.
func (s *Session) snapshot() *SessionSnapshot {
	snap := &SessionSnapshot{
		ID:           s.ID,
		BranchID:     s.BranchID,
		PersonnelID:  s.PersonnelID,
		State:        s.state(),
		Items:        make([]database.OrderItem, len(s.items)),
		Pending:      make([]PendingEntry, len(s.pending)),
		OrderTotal:   itemsTotal(s.items),
		PendingTotal: decimal.Zero,
	}
	if s.table != nil {
		t := *s.table
		snap.Table = &t
	}
	if s.order != nil {
		o := *s.order
		snap.Order = &o
	}
	copy(snap.Items, s.items)
	copy(snap.Pending, s.pending)
	for _, e := range s.pending {
		snap.PendingTotal = snap.PendingTotal.Add(e.LineTotal())
	}
	return snap
}

// Snapshot locks the session and copies its state.
func (s *Session) Snapshot() *SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// SessionRegistry holds live sessions in memory, keyed by ID. Sessions idle
// longer than the timeout are dropped by Sweep.
type SessionRegistry struct {
	mu          sync.RWMutex
	sessions    map[uuid.UUID]*Session
	idleTimeout time.Duration
	now         func() time.Time
	log         logrus.FieldLogger
}

// NewSessionRegistry creates a registry. A zero idleTimeout disables expiry.
func NewSessionRegistry(idleTimeout time.Duration, log logrus.FieldLogger) *SessionRegistry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SessionRegistry{
		sessions:    make(map[uuid.UUID]*Session),
		idleTimeout: idleTimeout,
		now:         time.Now,
		log:         log,
	}
}

// Create opens a new session for a staff member at a branch.
func (r *SessionRegistry) Create(branchID, personnelID uuid.UUID) *Session {
	s := &Session{
		ID:          uuid.New(),
		BranchID:    branchID,
		PersonnelID: personnelID,
		lastSeen:    r.now(),
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session if it exists and belongs to branchID, and marks
// it as recently used.
func (r *SessionRegistry) Get(id, branchID uuid.UUID) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || s.BranchID != branchID {
		return nil, ErrSessionNotFound
	}
	s.mu.Lock()
	s.lastSeen = r.now()
	s.mu.Unlock()
	return s, nil
}

// Delete discards a session. Unsaved pending entries are lost.
func (r *SessionRegistry) Delete(id, branchID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.BranchID != branchID {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes idle sessions and returns how many were dropped.
func (r *SessionRegistry) Sweep() int {
	if r.idleTimeout <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, s := range r.sessions {
		// TryLock skips sessions with an operation in flight.
		if !s.mu.TryLock() {
			continue
		}
		idle := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Run sweeps on every interval tick until ctx is cancelled.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.log.WithField("dropped", n).Info("expired idle pos sessions")
			}
		}
	}
}

func itemsTotal(items []database.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(database.NumericToDecimal(it.LineTotal))
	}
	return total
}
