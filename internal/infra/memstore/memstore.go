// Package memstore provides in-memory implementations of the application and
// ledger stores. Used for tests and single-process development; the sqlite
// package is the durable equivalent.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
)

// ApplicationStore is a thread-safe in-memory application store.
type ApplicationStore struct {
	mu   sync.RWMutex
	apps map[string]domain.LoanApplication
}

// NewApplicationStore creates an empty ApplicationStore.
func NewApplicationStore() *ApplicationStore {
	return &ApplicationStore{apps: make(map[string]domain.LoanApplication)}
}

// CreateApplication stores a new application record.
func (s *ApplicationStore) CreateApplication(_ context.Context, app *domain.LoanApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apps[app.ID] = *app
	return nil
}

// GetApplication returns a copy of the stored application.
func (s *ApplicationStore) GetApplication(_ context.Context, id string) (*domain.LoanApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.apps[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "application", ID: id}
	}
	return &app, nil
}

// ListApplications returns applications matching the filter, newest first.
func (s *ApplicationStore) ListApplications(_ context.Context, filter domain.ApplicationFilter) ([]domain.LoanApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.LoanApplication
	for _, app := range s.apps {
		if filter.Matches(app) {
			out = append(out, app)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// DeleteApplication removes the record regardless of its state.
func (s *ApplicationStore) DeleteApplication(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[id]; !ok {
		return &domain.ErrNotFound{Resource: "application", ID: id}
	}
	delete(s.apps, id)
	return nil
}

// TransitionStatus atomically flips the status from from to to. The check and
// the write happen under one lock, so concurrent callers race on exactly one
// winner.
func (s *ApplicationStore) TransitionStatus(_ context.Context, id string, from, to domain.ApplicationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[id]
	if !ok {
		return &domain.ErrNotFound{Resource: "application", ID: id}
	}
	if app.Status != from {
		return &domain.ErrInvalidStateTransition{ApplicationID: id, From: app.Status, To: to}
	}

	app.Status = to
	app.UpdatedAt = time.Now().UTC()
	s.apps[id] = app
	return nil
}

// LedgerStore is a thread-safe in-memory append-only ledger.
type LedgerStore struct {
	mu      sync.RWMutex
	entries []domain.TransactionEntry
	byID    map[string]int
}

// NewLedgerStore creates an empty LedgerStore.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{byID: make(map[string]int)}
}

// AppendEntry appends one entry. Entries are never updated or removed.
func (s *LedgerStore) AppendEntry(_ context.Context, entry *domain.TransactionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[entry.ID] = len(s.entries)
	s.entries = append(s.entries, *entry)
	return nil
}

// GetEntry returns a copy of the entry with the given id.
func (s *LedgerStore) GetEntry(_ context.Context, id string) (*domain.TransactionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "ledger entry", ID: id}
	}
	entry := s.entries[idx]
	return &entry, nil
}

// ListEntries returns entries matching the filter in append order.
func (s *LedgerStore) ListEntries(_ context.Context, filter domain.EntryFilter) ([]domain.TransactionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.TransactionEntry
	for _, e := range s.entries {
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}
