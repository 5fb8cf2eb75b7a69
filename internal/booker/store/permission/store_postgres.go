package permission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"bookerregistry/internal/booker/models"
	"bookerregistry/pkg/ids"
	"bookerregistry/pkg/platform/sentinel"
	"bookerregistry/pkg/platform/strings"
	txcontext "bookerregistry/pkg/platform/tx"
	"bookerregistry/pkg/requestcontext"
)

const uniqueViolation = "23505"

// PostgresStore persists the permission graph. Every call joins the
// transaction bound to the context, if any.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed permission store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) exec(ctx context.Context) txcontext.Executor {
	return txcontext.ExecutorFrom(ctx, s.db)
}

func (s *PostgresStore) CreateBooker(ctx context.Context, email string) (*models.Booker, error) {
	now := requestcontext.Now(ctx)
	b := &models.Booker{Reference: ids.NewReferenceAt(now), Email: email, CreatedAt: now}
	query := `INSERT INTO booker (reference, email, created_at) VALUES ($1, $2, $3)`
	if _, err := s.exec(ctx).ExecContext(ctx, query, b.Reference, b.Email, b.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, sentinel.ErrAlreadyUsed
		}
		return nil, fmt.Errorf("insert booker: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) FindBookerByReference(ctx context.Context, ref string) (*models.Booker, error) {
	query := `SELECT reference, email, created_at FROM booker WHERE reference = $1`
	var b models.Booker
	err := s.exec(ctx).QueryRowContext(ctx, query, ref).Scan(&b.Reference, &b.Email, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find booker: %w", err)
	}
	return &b, nil
}

func (s *PostgresStore) FindBookersByEmail(ctx context.Context, email string) ([]*models.Booker, error) {
	query := `SELECT reference, email, created_at FROM booker WHERE lower(email) = $1 ORDER BY created_at`
	rows, err := s.exec(ctx).QueryContext(ctx, query, strings.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("find bookers by email: %w", err)
	}
	defer rows.Close()

	var out []*models.Booker
	for rows.Next() {
		var b models.Booker
		if err := rows.Scan(&b.Reference, &b.Email, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booker: %w", err)
		}
		out = append(out, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookers: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CreatePrisoner(ctx context.Context, p *models.PermittedPrisoner) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = requestcontext.Now(ctx)
	}
	query := `
		INSERT INTO permitted_prisoner (booker_reference, prisoner_id, prison_code, active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query, p.BookerReference, p.PrisonerID, p.PrisonCode, p.Active, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		if isForeignKeyViolation(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert permitted prisoner: %w", err)
	}
	return nil
}

const prisonerColumns = `booker_reference, prisoner_id, prison_code, active, created_at`

func (s *PostgresStore) FindPrisoner(ctx context.Context, bookerRef, prisonerID string) (*models.PermittedPrisoner, error) {
	query := `SELECT ` + prisonerColumns + ` FROM permitted_prisoner WHERE booker_reference = $1 AND prisoner_id = $2`
	var p models.PermittedPrisoner
	err := s.exec(ctx).QueryRowContext(ctx, query, bookerRef, prisonerID).
		Scan(&p.BookerReference, &p.PrisonerID, &p.PrisonCode, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find permitted prisoner: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) ListPrisoners(ctx context.Context, bookerRef string) ([]*models.PermittedPrisoner, error) {
	query := `SELECT ` + prisonerColumns + ` FROM permitted_prisoner WHERE booker_reference = $1 ORDER BY created_at, prisoner_id`
	return s.queryPrisoners(ctx, query, bookerRef)
}

func (s *PostgresStore) ListPrisonersByPrison(ctx context.Context, prisonCode string) ([]*models.PermittedPrisoner, error) {
	query := `SELECT ` + prisonerColumns + ` FROM permitted_prisoner WHERE prison_code = $1 ORDER BY created_at, booker_reference, prisoner_id`
	return s.queryPrisoners(ctx, query, prisonCode)
}

func (s *PostgresStore) queryPrisoners(ctx context.Context, query string, arg any) ([]*models.PermittedPrisoner, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list permitted prisoners: %w", err)
	}
	defer rows.Close()

	var out []*models.PermittedPrisoner
	for rows.Next() {
		var p models.PermittedPrisoner
		if err := rows.Scan(&p.BookerReference, &p.PrisonerID, &p.PrisonCode, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan permitted prisoner: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permitted prisoners: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdatePrisonCode(ctx context.Context, bookerRef, prisonerID, prisonCode string) error {
	query := `UPDATE permitted_prisoner SET prison_code = $3 WHERE booker_reference = $1 AND prisoner_id = $2`
	return s.updateOne(ctx, "update prison code", query, bookerRef, prisonerID, prisonCode)
}

func (s *PostgresStore) SetPrisonerActive(ctx context.Context, bookerRef, prisonerID string, active bool) error {
	query := `UPDATE permitted_prisoner SET active = $3 WHERE booker_reference = $1 AND prisoner_id = $2`
	return s.updateOne(ctx, "set prisoner active", query, bookerRef, prisonerID, active)
}

func (s *PostgresStore) ListVisitors(ctx context.Context, bookerRef, prisonerID string) ([]*models.PermittedVisitor, error) {
	query := `
		SELECT booker_reference, prisoner_id, visitor_id, active, created_at
		FROM permitted_visitor
		WHERE booker_reference = $1 AND prisoner_id = $2
		ORDER BY created_at, visitor_id
	`
	rows, err := s.exec(ctx).QueryContext(ctx, query, bookerRef, prisonerID)
	if err != nil {
		return nil, fmt.Errorf("list permitted visitors: %w", err)
	}
	defer rows.Close()

	var out []*models.PermittedVisitor
	for rows.Next() {
		var v models.PermittedVisitor
		if err := rows.Scan(&v.BookerReference, &v.PrisonerID, &v.VisitorID, &v.Active, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan permitted visitor: %w", err)
		}
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permitted visitors: %w", err)
	}
	return out, nil
}

// LinkVisitor inserts the link unless it already exists; created reports
// whether a row was written.
func (s *PostgresStore) LinkVisitor(ctx context.Context, v *models.PermittedVisitor) (bool, error) {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = requestcontext.Now(ctx)
	}
	query := `
		INSERT INTO permitted_visitor (booker_reference, prisoner_id, visitor_id, active, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (booker_reference, prisoner_id, visitor_id) DO NOTHING
	`
	res, err := s.exec(ctx).ExecContext(ctx, query, v.BookerReference, v.PrisonerID, v.VisitorID, v.Active, v.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, sentinel.ErrNotFound
		}
		return false, fmt.Errorf("link visitor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("link visitor rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *PostgresStore) SetVisitorActive(ctx context.Context, bookerRef, prisonerID string, visitorID int64, active bool) error {
	query := `
		UPDATE permitted_visitor SET active = $4
		WHERE booker_reference = $1 AND prisoner_id = $2 AND visitor_id = $3
	`
	return s.updateOne(ctx, "set visitor active", query, bookerRef, prisonerID, visitorID, active)
}

// DeletePrisoners removes the booker's prisoners; visitors go with them via
// the cascading foreign key.
func (s *PostgresStore) DeletePrisoners(ctx context.Context, bookerRef string) error {
	query := `DELETE FROM permitted_prisoner WHERE booker_reference = $1`
	if _, err := s.exec(ctx).ExecContext(ctx, query, bookerRef); err != nil {
		return fmt.Errorf("delete permitted prisoners: %w", err)
	}
	return nil
}

// LockBooker takes a row lock on the booker for the rest of the transaction.
func (s *PostgresStore) LockBooker(ctx context.Context, bookerRef string) error {
	var ref string
	err := s.exec(ctx).QueryRowContext(ctx, `SELECT reference FROM booker WHERE reference = $1 FOR UPDATE`, bookerRef).Scan(&ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("lock booker: %w", err)
	}
	return nil
}

func (s *PostgresStore) updateOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.exec(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
