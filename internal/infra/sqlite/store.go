// Package sqlite provides sqlite-backed implementations of the application
// and ledger stores, using the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
)

// Store implements port.ApplicationStore and port.LedgerStore on sqlite.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- Applications ---

// CreateApplication inserts a new application row.
func (s *Store) CreateApplication(ctx context.Context, app *domain.LoanApplication) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO applications
			(id, member_id, member_name, kind, category, amount, date, status, note, tenor_months, required_documents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		app.ID, app.MemberID, app.MemberName, string(app.Kind), app.Category,
		app.Amount.String(), app.Date.UTC().Format(time.RFC3339), string(app.Status),
		app.Note, app.TenorMonths, joinDocuments(app.RequiredDocuments),
		app.CreatedAt.UTC().Format(time.RFC3339), app.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// GetApplication fetches one application by id.
func (s *Store) GetApplication(ctx context.Context, id string) (*domain.LoanApplication, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, member_id, member_name, kind, category, amount, date, status, note, tenor_months, required_documents, created_at, updated_at
		FROM applications WHERE id = ?`, id)

	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "application", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("select application: %w", err)
	}
	return app, nil
}

// ListApplications returns applications matching the filter, newest first.
func (s *Store) ListApplications(ctx context.Context, filter domain.ApplicationFilter) ([]domain.LoanApplication, error) {
	query := `
		SELECT id, member_id, member_name, kind, category, amount, date, status, note, tenor_months, required_documents, created_at, updated_at
		FROM applications WHERE 1=1`
	var args []any
	if filter.MemberID != "" {
		query += " AND member_id = ?"
		args = append(args, filter.MemberID)
	}
	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []domain.LoanApplication
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		out = append(out, *app)
	}
	return out, rows.Err()
}

// DeleteApplication removes the row regardless of its state.
func (s *Store) DeleteApplication(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM applications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &domain.ErrNotFound{Resource: "application", ID: id}
	}
	return nil
}

// TransitionStatus performs the compare-and-set status flip in a single
// UPDATE guarded by the current status. Zero rows affected means the guard
// failed: either the row is gone or another caller already decided it.
func (s *Store) TransitionStatus(ctx context.Context, id string, from, to domain.ApplicationStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE applications SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(to), time.Now().UTC().Format(time.RFC3339), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("transition status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	current, err := s.GetApplication(ctx, id)
	if err != nil {
		return err
	}
	return &domain.ErrInvalidStateTransition{ApplicationID: id, From: current.Status, To: to}
}

// --- Ledger ---

// AppendEntry inserts one ledger row. There is no update path.
func (s *Store) AppendEntry(ctx context.Context, entry *domain.TransactionEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_entries
			(id, member_id, kind, category, amount, date, status, note, loan_entry_id, tenor_months, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.MemberID, string(entry.Kind), entry.Category,
		entry.Amount.String(), entry.Date.UTC().Format(time.RFC3339), string(entry.Status),
		entry.Note, entry.LoanEntryID, entry.TenorMonths,
		entry.CreatedAt.UTC().Format(time.RFC3339), entry.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// GetEntry fetches one ledger entry by id.
func (s *Store) GetEntry(ctx context.Context, id string) (*domain.TransactionEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, member_id, kind, category, amount, date, status, note, loan_entry_id, tenor_months, created_at, updated_at
		FROM ledger_entries WHERE id = ?`, id)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "ledger entry", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("select ledger entry: %w", err)
	}
	return entry, nil
}

// ListEntries returns ledger entries matching the filter in append order.
func (s *Store) ListEntries(ctx context.Context, filter domain.EntryFilter) ([]domain.TransactionEntry, error) {
	query := `
		SELECT id, member_id, kind, category, amount, date, status, note, loan_entry_id, tenor_months, created_at, updated_at
		FROM ledger_entries WHERE 1=1`
	var args []any
	if filter.MemberID != "" {
		query += " AND member_id = ?"
		args = append(args, filter.MemberID)
	}
	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var out []domain.TransactionEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, *entry)
	}
	return out, rows.Err()
}

// --- scanning helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*domain.LoanApplication, error) {
	var (
		app                        domain.LoanApplication
		kind, status               string
		amount, date               string
		docs, createdAt, updatedAt string
	)
	if err := row.Scan(&app.ID, &app.MemberID, &app.MemberName, &kind, &app.Category,
		&amount, &date, &status, &app.Note, &app.TenorMonths, &docs, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	app.Kind = domain.TransactionKind(kind)
	app.Status = domain.ApplicationStatus(status)
	app.RequiredDocuments = splitDocuments(docs)
	if app.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if app.Date, err = time.Parse(time.RFC3339, date); err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, err)
	}
	if app.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	if app.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
	}
	return &app, nil
}

func scanEntry(row rowScanner) (*domain.TransactionEntry, error) {
	var (
		entry                domain.TransactionEntry
		kind, status         string
		amount, date         string
		createdAt, updatedAt string
	)
	if err := row.Scan(&entry.ID, &entry.MemberID, &kind, &entry.Category,
		&amount, &date, &status, &entry.Note, &entry.LoanEntryID, &entry.TenorMonths,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	entry.Kind = domain.TransactionKind(kind)
	entry.Status = domain.TransactionStatus(status)
	if entry.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if entry.Date, err = time.Parse(time.RFC3339, date); err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, err)
	}
	if entry.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	if entry.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
	}
	return &entry, nil
}

func joinDocuments(docs []domain.DocumentType) string {
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = string(d)
	}
	return strings.Join(parts, ",")
}

func splitDocuments(s string) []domain.DocumentType {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	docs := make([]domain.DocumentType, len(parts))
	for i, p := range parts {
		docs[i] = domain.DocumentType(p)
	}
	return docs
}
