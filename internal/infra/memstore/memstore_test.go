package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
)

func pendingApp(id string) *domain.LoanApplication {
	now := time.Now().UTC()
	return &domain.LoanApplication{
		ID:         id,
		MemberID:   "m-1",
		MemberName: "Siti Rahayu",
		Kind:       domain.KindLoan,
		Category:   "Reguler",
		Amount:     decimal.NewFromInt(5_000_000),
		Date:       now,
		Status:     domain.ApplicationPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestTransitionStatus_CompareAndSet(t *testing.T) {
	ctx := context.Background()
	store := NewApplicationStore()
	require.NoError(t, store.CreateApplication(ctx, pendingApp("app-1")))

	err := store.TransitionStatus(ctx, "app-1", domain.ApplicationPending, domain.ApplicationApproved)
	require.NoError(t, err)

	got, err := store.GetApplication(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationApproved, got.Status)

	// Second transition sees a non-Pending status and fails.
	err = store.TransitionStatus(ctx, "app-1", domain.ApplicationPending, domain.ApplicationApproved)
	var ist *domain.ErrInvalidStateTransition
	require.ErrorAs(t, err, &ist)
}

func TestTransitionStatus_ConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewApplicationStore()
	require.NoError(t, store.CreateApplication(ctx, pendingApp("app-race")))

	const callers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.TransitionStatus(ctx, "app-race", domain.ApplicationPending, domain.ApplicationApproved) == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for range wins {
		won++
	}
	assert.Equal(t, 1, won, "exactly one concurrent transition must win")
}

func TestTransitionStatus_NotFound(t *testing.T) {
	store := NewApplicationStore()
	err := store.TransitionStatus(context.Background(), "missing", domain.ApplicationPending, domain.ApplicationRejected)
	var nf *domain.ErrNotFound
	require.ErrorAs(t, err, &nf)
}

func TestDeleteApplication_AnyState(t *testing.T) {
	ctx := context.Background()
	store := NewApplicationStore()
	require.NoError(t, store.CreateApplication(ctx, pendingApp("app-2")))
	require.NoError(t, store.TransitionStatus(ctx, "app-2", domain.ApplicationPending, domain.ApplicationRejected))

	require.NoError(t, store.DeleteApplication(ctx, "app-2"))

	_, err := store.GetApplication(ctx, "app-2")
	var nf *domain.ErrNotFound
	require.ErrorAs(t, err, &nf)
}

func TestLedgerStore_AppendAndFilter(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore()

	entries := []domain.TransactionEntry{
		{ID: "e-1", MemberID: "m-1", Kind: domain.KindSaving, Amount: decimal.NewFromInt(100_000), Status: domain.StatusSuccess},
		{ID: "e-2", MemberID: "m-1", Kind: domain.KindLoan, Amount: decimal.NewFromInt(1_000_000), Status: domain.StatusSuccess},
		{ID: "e-3", MemberID: "m-2", Kind: domain.KindSaving, Amount: decimal.NewFromInt(50_000), Status: domain.StatusSuccess},
	}
	for i := range entries {
		require.NoError(t, store.AppendEntry(ctx, &entries[i]))
	}

	got, err := store.ListEntries(ctx, domain.EntryFilter{MemberID: "m-1"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = store.ListEntries(ctx, domain.EntryFilter{Kind: domain.KindSaving})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	entry, err := store.GetEntry(ctx, "e-2")
	require.NoError(t, err)
	assert.True(t, entry.Amount.Equal(decimal.NewFromInt(1_000_000)))
}
