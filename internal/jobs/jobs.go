// Package jobs persists saved quotes together with the pricing snapshot taken
// when they were saved.
package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/printprice/internal/pricing"
)

// ErrNotFound is returned when no job has the requested id.
var ErrNotFound = errors.New("job not found")

// Status of a saved job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

const defaultName = "Untitled Job"

// Job is a saved quote. Results is the snapshot computed at save time so
// later formula changes do not alter old quotes.
type Job struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Status     Status            `json:"status"`
	Inputs     pricing.JobInputs `json:"inputs"`
	Results    pricing.Result    `json:"results"`
	FinalPrice float64           `json:"final_price"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  *time.Time        `json:"updated_at,omitempty"`
}

// Patch is a partial update. Nil fields are left unchanged; a non-nil Inputs
// replaces the stored inputs as a whole, so callers merge partial input
// edits over Job.Inputs first.
type Patch struct {
	Name   *string            `json:"name,omitempty"`
	Status *Status            `json:"status,omitempty" validate:"omitempty,oneof=pending completed"`
	Inputs *pricing.JobInputs `json:"inputs,omitempty"`
}

// Store reads and writes jobs in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore returns a Store using db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Create saves in as a new pending job and returns it with a fresh snapshot.
func (s *Store) Create(ctx context.Context, in pricing.JobInputs) (Job, error) {
	job := Job{
		ID:        uuid.NewString(),
		Name:      nameOrDefault(in.Name),
		Status:    StatusPending,
		Inputs:    in,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	job.Inputs.Name = job.Name
	job.snapshot()

	inputsJSON, resultsJSON, err := job.encode()
	if err != nil {
		return Job{}, err
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, name, status, inputs_json, results_json, final_price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.Name, job.Status, inputsJSON, resultsJSON, job.FinalPrice, job.CreatedAt.UnixMilli()); err != nil {
		return Job{}, fmt.Errorf("insert job: %w", err)
	}

	return job, nil
}

// Get returns the job with id.
func (s *Store) Get(ctx context.Context, id string) (Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, status, inputs_json, results_json, final_price, created_at, updated_at
		FROM jobs
		WHERE id = ?
	`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("query job: %w", err)
	}
	return job, nil
}

// List returns up to limit jobs, newest first. A limit <= 0 returns all jobs.
func (s *Store) List(ctx context.Context, limit int) ([]Job, error) {
	query := `
		SELECT id, name, status, inputs_json, results_json, final_price, created_at, updated_at
		FROM jobs
		ORDER BY created_at DESC, rowid DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// Update applies p to the job with id. Changing the inputs recomputes the
// snapshot; changing only the name or status keeps the stored snapshot.
func (s *Store) Update(ctx context.Context, id string, p Patch) (Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return Job{}, err
	}

	if p.Inputs != nil {
		job.Inputs = *p.Inputs
		job.Name = nameOrDefault(p.Inputs.Name)
		job.snapshot()
	}
	if p.Name != nil {
		job.Name = nameOrDefault(*p.Name)
	}
	job.Inputs.Name = job.Name
	if p.Status != nil {
		job.Status = *p.Status
	}
	updated := s.now().UTC().Truncate(time.Millisecond)
	job.UpdatedAt = &updated

	inputsJSON, resultsJSON, err := job.encode()
	if err != nil {
		return Job{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET
			name = ?,
			status = ?,
			inputs_json = ?,
			results_json = ?,
			final_price = ?,
			updated_at = ?
		WHERE id = ?
	`, job.Name, job.Status, inputsJSON, resultsJSON, job.FinalPrice, updated.UnixMilli(), id)
	if err != nil {
		return Job{}, fmt.Errorf("update job: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Job{}, fmt.Errorf("update job: %w", err)
	}
	if affected == 0 {
		return Job{}, ErrNotFound
	}

	return job, nil
}

// ToggleStatus flips a job between pending and completed.
func (s *Store) ToggleStatus(ctx context.Context, id string) (Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return Job{}, err
	}
	next := StatusCompleted
	if job.Status == StatusCompleted {
		next = StatusPending
	}
	return s.Update(ctx, id, Patch{Status: &next})
}

// Delete removes the job with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (j *Job) snapshot() {
	j.Results = pricing.Compute(j.Inputs)
	j.FinalPrice = j.Results.Unit.FinalPrice
}

func (j Job) encode() (string, string, error) {
	inputsJSON, err := json.Marshal(j.Inputs)
	if err != nil {
		return "", "", fmt.Errorf("encode job inputs: %w", err)
	}
	resultsJSON, err := json.Marshal(j.Results)
	if err != nil {
		return "", "", fmt.Errorf("encode job results: %w", err)
	}
	return string(inputsJSON), string(resultsJSON), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (Job, error) {
	var (
		job         Job
		inputsJSON  string
		resultsJSON string
		createdAt   int64
		updatedAt   sql.NullInt64
	)
	if err := row.Scan(&job.ID, &job.Name, &job.Status, &inputsJSON, &resultsJSON, &job.FinalPrice, &createdAt, &updatedAt); err != nil {
		return Job{}, err
	}
	if err := json.Unmarshal([]byte(inputsJSON), &job.Inputs); err != nil {
		return Job{}, fmt.Errorf("decode job inputs: %w", err)
	}
	if err := json.Unmarshal([]byte(resultsJSON), &job.Results); err != nil {
		return Job{}, fmt.Errorf("decode job results: %w", err)
	}
	job.CreatedAt = time.UnixMilli(createdAt).UTC()
	if updatedAt.Valid {
		t := time.UnixMilli(updatedAt.Int64).UTC()
		job.UpdatedAt = &t
	}
	return job, nil
}

func nameOrDefault(name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return defaultName
}
