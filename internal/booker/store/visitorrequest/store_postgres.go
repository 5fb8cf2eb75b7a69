package visitorrequest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"bookerregistry/internal/booker/models"
	"bookerregistry/pkg/ids"
	"bookerregistry/pkg/platform/sentinel"
	txcontext "bookerregistry/pkg/platform/tx"
)

const requestColumns = `reference, booker_reference, prisoner_id, first_name, last_name, date_of_birth,
	status, created_at, visitor_id, rejection_reason, actioned_at`

// PostgresStore persists visitor requests. Transitions are a single
// conditioned UPDATE so concurrent approvers race on the row, not in Go.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed visitor request store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) exec(ctx context.Context) txcontext.Executor {
	return txcontext.ExecutorFrom(ctx, s.db)
}

// Create inserts a REQUESTED request. The reference is only set on req once
// the insert succeeds.
func (s *PostgresStore) Create(ctx context.Context, req *models.VisitorRequest) error {
	ref := ids.NewReferenceAt(req.CreatedAt)
	query := `
		INSERT INTO visitor_request (reference, booker_reference, prisoner_id, first_name, last_name,
			date_of_birth, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		ref,
		req.BookerReference,
		req.PrisonerID,
		req.FirstName,
		req.LastName,
		req.DateOfBirth,
		string(models.StatusRequested),
		req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert visitor request: %w", err)
	}
	req.Reference = ref
	req.Status = models.StatusRequested
	return nil
}

func (s *PostgresStore) FindByReference(ctx context.Context, ref string) (*models.VisitorRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM visitor_request WHERE reference = $1`
	req, err := scanRequest(s.exec(ctx).QueryRowContext(ctx, query, ref))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find visitor request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) ListActiveForBooker(ctx context.Context, bookerRef string) ([]*models.VisitorRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM visitor_request
		WHERE booker_reference = $1 AND status = 'REQUESTED'
		ORDER BY created_at, reference
	`
	return s.queryRequests(ctx, query, bookerRef)
}

func (s *PostgresStore) ListActiveForPrisoners(ctx context.Context, keys []models.PrisonerKey) ([]*models.VisitorRequest, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	bookerRefs := make([]string, len(keys))
	prisonerIDs := make([]string, len(keys))
	for i, k := range keys {
		bookerRefs[i] = k.BookerReference
		prisonerIDs[i] = k.PrisonerID
	}
	query := `
		SELECT ` + requestColumns + `
		FROM visitor_request
		WHERE status = 'REQUESTED'
		  AND (booker_reference, prisoner_id) IN (
			SELECT * FROM unnest($1::text[], $2::text[])
		  )
		ORDER BY created_at, reference
	`
	return s.queryRequests(ctx, query, pq.Array(bookerRefs), pq.Array(prisonerIDs))
}

func (s *PostgresStore) TransitionToApproved(ctx context.Context, ref string, visitorID int64, at time.Time) (*models.VisitorRequest, error) {
	query := `
		UPDATE visitor_request
		SET status = 'APPROVED', visitor_id = $2, actioned_at = $3
		WHERE reference = $1 AND status = 'REQUESTED'
		RETURNING ` + requestColumns
	return s.transition(ctx, ref, query, ref, visitorID, at)
}

func (s *PostgresStore) TransitionToRejected(ctx context.Context, ref string, reason models.RejectionReason, at time.Time) (*models.VisitorRequest, error) {
	query := `
		UPDATE visitor_request
		SET status = 'REJECTED', rejection_reason = $2, actioned_at = $3
		WHERE reference = $1 AND status = 'REQUESTED'
		RETURNING ` + requestColumns
	return s.transition(ctx, ref, query, ref, string(reason), at)
}

// transition runs the conditioned update. No returned row means the request
// is either unknown or no longer REQUESTED; a probe tells the two apart.
func (s *PostgresStore) transition(ctx context.Context, ref, query string, args ...any) (*models.VisitorRequest, error) {
	req, err := scanRequest(s.exec(ctx).QueryRowContext(ctx, query, args...))
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transition visitor request: %w", err)
	}

	var exists bool
	probe := `SELECT EXISTS (SELECT 1 FROM visitor_request WHERE reference = $1)`
	if err := s.exec(ctx).QueryRowContext(ctx, probe, ref).Scan(&exists); err != nil {
		return nil, fmt.Errorf("probe visitor request: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return nil, sentinel.ErrInvalidState
}

func (s *PostgresStore) DeleteRequested(ctx context.Context, bookerRef, prisonerID string) (int, error) {
	query := `DELETE FROM visitor_request WHERE booker_reference = $1 AND prisoner_id = $2 AND status = 'REQUESTED'`
	res, err := s.exec(ctx).ExecContext(ctx, query, bookerRef, prisonerID)
	if err != nil {
		return 0, fmt.Errorf("delete requested visitor requests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete requested rows affected: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) queryRequests(ctx context.Context, query string, args ...any) ([]*models.VisitorRequest, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list visitor requests: %w", err)
	}
	defer rows.Close()

	var out []*models.VisitorRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visitor request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visitor requests: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (*models.VisitorRequest, error) {
	var (
		req        models.VisitorRequest
		status     string
		visitorID  sql.NullInt64
		reason     sql.NullString
		actionedAt sql.NullTime
	)
	if err := row.Scan(
		&req.Reference,
		&req.BookerReference,
		&req.PrisonerID,
		&req.FirstName,
		&req.LastName,
		&req.DateOfBirth,
		&status,
		&req.CreatedAt,
		&visitorID,
		&reason,
		&actionedAt,
	); err != nil {
		return nil, err
	}
	req.Status = models.VisitorRequestStatus(strings.ToUpper(status))
	if visitorID.Valid {
		v := visitorID.Int64
		req.VisitorID = &v
	}
	if reason.Valid {
		r := models.RejectionReason(reason.String)
		req.RejectionReason = &r
	}
	if actionedAt.Valid {
		t := actionedAt.Time
		req.ActionedAt = &t
	}
	return &req, nil
}
