package registry

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Postgres reads golden records from the national_records table.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an existing connection pool. The pool is shared with the
// platform storage client and closed by its owner.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Lookup fetches the record for an index number. Returns ErrNotFound when the
// registry has no such identity.
func (p *Postgres) Lookup(ctx context.Context, indexNumber string) (*Record, error) {
	if indexNumber == "" {
		return nil, fmt.Errorf("index number is required")
	}

	query := `
		SELECT
			index_number,
			full_name,
			COALESCE(mean_grade, ''),
			COALESCE(school_name, ''),
			COALESCE(serial_number, '')
		FROM national_records
		WHERE index_number = $1
	`

	var rec Record
	err := p.db.QueryRowContext(ctx, query, indexNumber).Scan(
		&rec.IndexNumber,
		&rec.FullName,
		&rec.MeanGrade,
		&rec.SchoolName,
		&rec.SerialNumber,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to look up record %s: %w", indexNumber, err)
	}

	return &rec, nil
}
