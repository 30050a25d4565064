// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
)

// MemberDirectory resolves member identifiers against the membership
// subsystem. The engine never creates or mutates members.
type MemberDirectory interface {
	ResolveMember(ctx context.Context, memberID string) (*domain.Member, error)
}

// ConfigurationProvider supplies the interest/tenor/penalty configuration
// snapshot consumed by the calculators.
type ConfigurationProvider interface {
	InterestConfiguration(ctx context.Context) (domain.InterestConfiguration, error)
}

// DocumentRegistry answers whether a required document type has been
// registered for an application. Storage of the documents themselves is
// someone else's concern.
type DocumentRegistry interface {
	HasDocument(ctx context.Context, applicationID string, doc domain.DocumentType) (bool, error)
}

// ApplicationStore persists loan/saving applications.
//
// TransitionStatus must be an atomic compare-and-set on the application's
// status: it succeeds only when the stored status equals from, and returns
// domain.ErrInvalidStateTransition otherwise. This is the store-level guard
// behind the workflow's approve/reject serialization.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app *domain.LoanApplication) error
	GetApplication(ctx context.Context, id string) (*domain.LoanApplication, error)
	ListApplications(ctx context.Context, filter domain.ApplicationFilter) ([]domain.LoanApplication, error)
	DeleteApplication(ctx context.Context, id string) error
	TransitionStatus(ctx context.Context, id string, from, to domain.ApplicationStatus) error
}

// LedgerStore persists the append-only transaction ledger. Entries are never
// updated or deleted through this port.
type LedgerStore interface {
	AppendEntry(ctx context.Context, entry *domain.TransactionEntry) error
	GetEntry(ctx context.Context, id string) (*domain.TransactionEntry, error)
	ListEntries(ctx context.Context, filter domain.EntryFilter) ([]domain.TransactionEntry, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// EventPublisher emits engine events (approvals, ledger appends) to an
// external broker. Implementations must be best-effort safe: a publish
// failure never fails the originating operation.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}
