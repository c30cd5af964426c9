/**
 * PostgreSQL client for the verification platform.
 *
 * Owns the shared connection pool and the platform tables: companies,
 * usage_logs (per-request audit/billing rows) and verification_jobs
 * (async job lifecycle). The registry and auth stores reuse the pool.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Job lifecycle states for async verification.
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// PostgresClient handles database operations.
type PostgresClient struct {
	db *sql.DB
}

// Company is an onboarded integrator.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"company_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UsageLog is one billed verification request.
type UsageLog struct {
	CompanyID       string
	RequestEndpoint string
	ResponseStatus  int
	FraudVerdict    string
	RiskScore       int
	Timestamp       time.Time
}

// VerificationJob tracks one async verification through the queue.
type VerificationJob struct {
	ID           string          `json:"id"`
	CompanyID    string          `json:"company_id"`
	Filename     string          `json:"filename"`
	Status       string          `json:"status"`
	Verdict      json.RawMessage `json:"verdict,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewPostgresClient creates a new PostgreSQL client.
func NewPostgresClient(databaseURL string) (*PostgresClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{db: db}, nil
}

// DB exposes the pool for the registry and auth stores.
func (p *PostgresClient) DB() *sql.DB {
	return p.db
}

// InsertCompany onboards a new integrator company.
func (p *PostgresClient) InsertCompany(ctx context.Context, name, email string) (*Company, error) {
	if name == "" || email == "" {
		return nil, fmt.Errorf("company name and email are required")
	}

	query := `
		INSERT INTO companies (company_name, email, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, company_name, email, created_at
	`

	var c Company
	err := p.db.QueryRowContext(ctx, query, name, email).Scan(
		&c.ID, &c.Name, &c.Email, &c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert company: %w", err)
	}

	return &c, nil
}

// InsertUsageLog records one verification request for audit and billing.
func (p *PostgresClient) InsertUsageLog(ctx context.Context, entry *UsageLog) error {
	if entry.CompanyID == "" {
		return fmt.Errorf("company ID is required")
	}

	query := `
		INSERT INTO usage_logs (
			company_id, request_endpoint, response_status,
			fraud_verdict, risk_score, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := p.db.ExecContext(ctx, query,
		entry.CompanyID,
		entry.RequestEndpoint,
		entry.ResponseStatus,
		entry.FraudVerdict,
		entry.RiskScore,
		ts,
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage log: %w", err)
	}

	return nil
}

// UpsertJob creates or updates an async verification job. Used both when the
// API enqueues (queued) and when the worker reports progress, so either side
// can run first.
func (p *PostgresClient) UpsertJob(ctx context.Context, job *VerificationJob) error {
	if job.ID == "" {
		return fmt.Errorf("job ID is required")
	}
	if job.Status == "" {
		return fmt.Errorf("status is required")
	}

	query := `
		INSERT INTO verification_jobs (
			id, company_id, filename, status, verdict, error_message,
			created_at, updated_at
		) VALUES (
			$1::uuid, $2, $3, $4,
			NULLIF($5, '')::jsonb, NULLIF($6, ''),
			NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			verdict = COALESCE(EXCLUDED.verdict, verification_jobs.verdict),
			error_message = NULLIF(EXCLUDED.error_message, ''),
			updated_at = NOW()
	`

	_, err := p.db.ExecContext(ctx, query,
		job.ID,
		job.CompanyID,
		job.Filename,
		job.Status,
		string(job.Verdict),
		job.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert job (job=%s, status=%s): %w", job.ID, job.Status, err)
	}

	return nil
}

// GetJob retrieves a verification job by ID.
func (p *PostgresClient) GetJob(ctx context.Context, jobID string) (*VerificationJob, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID is required")
	}

	query := `
		SELECT id, company_id, filename, status,
			COALESCE(verdict::text, ''), COALESCE(error_message, ''),
			created_at, updated_at
		FROM verification_jobs
		WHERE id = $1::uuid
	`

	var (
		job     VerificationJob
		verdict string
	)
	err := p.db.QueryRowContext(ctx, query, jobID).Scan(
		&job.ID, &job.CompanyID, &job.Filename, &job.Status,
		&verdict, &job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if verdict != "" {
		job.Verdict = json.RawMessage(verdict)
	}

	return &job, nil
}

// Ping checks database connectivity.
func (p *PostgresClient) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection.
func (p *PostgresClient) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
