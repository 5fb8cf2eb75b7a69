package authdetail

import (
	"context"
	"database/sql"
	"fmt"

	"bookerregistry/internal/booker/models"
	txcontext "bookerregistry/pkg/platform/tx"
)

// PostgresStore counts logins in booker_auth_detail.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// IncrementAndGet upserts the detail and bumps its count in one statement, so
// two concurrent first logins never both observe a count of one.
func (s *PostgresStore) IncrementAndGet(ctx context.Context, detail models.AuthDetail) (int, error) {
	query := `
		INSERT INTO booker_auth_detail (auth_reference, email, phone_number, count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (auth_reference) DO UPDATE SET
			email = EXCLUDED.email,
			phone_number = EXCLUDED.phone_number,
			count = booker_auth_detail.count + 1
		RETURNING count
	`
	var count int
	err := txcontext.ExecutorFrom(ctx, s.db).
		QueryRowContext(ctx, query, detail.AuthReference, detail.Email, detail.Phone).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment auth detail: %w", err)
	}
	return count, nil
}
