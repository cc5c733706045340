// Package store provides the Postgres-backed CalendarStore.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/propscan/scheduler/core/model"
	corestore "github.com/propscan/scheduler/core/store"
	"github.com/propscan/scheduler/infra/logger"
)

// Config holds the Postgres connection settings.
type Config struct {
	// URL is a lib/pq connection string. Empty selects the in-memory store.
	URL          string `json:"url"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

// SetDefaults applies connection pool defaults.
func (c *Config) SetDefaults() {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 10
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 5
	}
}

// PostgresStore implements the calendar store on Postgres via sqlx.
type PostgresStore struct {
	db  *sqlx.DB
	log logger.Logger
}

// Connect opens the database, verifies it with a ping and runs migrations.
func Connect(cfg Config) (*PostgresStore, error) {
	cfg.SetDefaults()
	log := logger.New("postgres")
	db, err := sqlx.Connect("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	s := &PostgresStore{db: db, log: log}
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	log.Infof("connected and migrated")
	return s, nil
}

// Migrate creates the schema when missing. Statements are idempotent.
func (s *PostgresStore) Migrate() error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,

		`CREATE TABLE IF NOT EXISTS technicians (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			territories JSONB NOT NULL DEFAULT '[]',
			hours JSONB NOT NULL DEFAULT '{}',
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		`CREATE TABLE IF NOT EXISTS inspections (
			id TEXT PRIMARY KEY,
			lead_id TEXT NOT NULL,
			technician_id TEXT NOT NULL REFERENCES technicians(id),
			territory TEXT NOT NULL DEFAULT '',
			scheduled_start TIMESTAMPTZ NOT NULL,
			duration_minutes INT NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('DRAFT', 'SCHEDULED', 'IN_PROGRESS', 'COMPLETED', 'CANCELLED', 'RESCHEDULED')),
			estimated_cost DOUBLE PRECISION,
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			CONSTRAINT inspections_no_overlap EXCLUDE USING gist (
				technician_id WITH =,
				tstzrange(scheduled_start, scheduled_start + duration_minutes * INTERVAL '1 minute') WITH &&
			) WHERE (status <> 'CANCELLED')
		)`,

		`CREATE INDEX IF NOT EXISTS idx_inspections_tech_start
			ON inspections (technician_id, scheduled_start)`,

		`CREATE TABLE IF NOT EXISTS reminder_jobs (
			id TEXT PRIMARY KEY,
			inspection_id TEXT NOT NULL REFERENCES inspections(id) ON DELETE CASCADE,
			channel INT NOT NULL,
			fire_at TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('PENDING', 'SENT', 'FAILED', 'CANCELLED')),
			attempts INT NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_reminder_jobs_due
			ON reminder_jobs (status, fire_at)`,

		`CREATE TABLE IF NOT EXISTS sync_records (
			inspection_id TEXT PRIMARY KEY REFERENCES inspections(id) ON DELETE CASCADE,
			external_event_id TEXT NOT NULL DEFAULT '',
			op TEXT NOT NULL CHECK(op IN ('UPSERT', 'DELETE')),
			attempts INT NOT NULL DEFAULT 0,
			last_attempt TIMESTAMPTZ,
			next_attempt TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('PENDING', 'SYNCED', 'FAILED_RETRYING', 'ABANDONED')),
			last_error TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error { return s.db.Close() }

type technicianRow struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Territories json.RawMessage `db:"territories"`
	Hours       json.RawMessage `db:"hours"`
	Active      bool            `db:"active"`
}

func (r technicianRow) toModel() (model.Technician, error) {
	t := model.Technician{ID: r.ID, Name: r.Name, Active: r.Active}
	if err := json.Unmarshal(r.Territories, &t.Territories); err != nil {
		return model.Technician{}, fmt.Errorf("decode territories: %w", err)
	}
	if err := json.Unmarshal(r.Hours, &t.Hours); err != nil {
		return model.Technician{}, fmt.Errorf("decode hours: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) GetTechnician(ctx context.Context, id string) (model.Technician, error) {
	var row technicianRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, name, territories, hours, active FROM technicians WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Technician{}, corestore.ErrNotFound
	}
	if err != nil {
		return model.Technician{}, fmt.Errorf("get technician: %w", err)
	}
	return row.toModel()
}

func (s *PostgresStore) ListTechnicians(ctx context.Context, activeOnly bool) ([]model.Technician, error) {
	q := `SELECT id, name, territories, hours, active FROM technicians`
	if activeOnly {
		q += ` WHERE active`
	}
	q += ` ORDER BY id`
	var rows []technicianRow
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("list technicians: %w", err)
	}
	out := make([]model.Technician, 0, len(rows))
	for _, r := range rows {
		t, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *PostgresStore) UpsertTechnician(ctx context.Context, t model.Technician) error {
	territories, err := json.Marshal(t.Territories)
	if err != nil {
		return fmt.Errorf("encode territories: %w", err)
	}
	hours, err := json.Marshal(t.Hours)
	if err != nil {
		return fmt.Errorf("encode hours: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO technicians (id, name, territories, hours, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			territories = EXCLUDED.territories,
			hours = EXCLUDED.hours,
			active = EXCLUDED.active`,
		t.ID, t.Name, territories, hours, t.Active)
	if err != nil {
		return fmt.Errorf("upsert technician: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetInspection(ctx context.Context, id string) (model.Inspection, error) {
	var i model.Inspection
	err := s.db.GetContext(ctx, &i, `SELECT * FROM inspections WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Inspection{}, corestore.ErrNotFound
	}
	if err != nil {
		return model.Inspection{}, fmt.Errorf("get inspection: %w", err)
	}
	return i, nil
}

func (s *PostgresStore) InsertInspection(ctx context.Context, i model.Inspection) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO inspections (id, lead_id, technician_id, territory, scheduled_start,
			duration_minutes, status, estimated_cost, notes, created_at, updated_at)
		VALUES (:id, :lead_id, :technician_id, :territory, :scheduled_start,
			:duration_minutes, :status, :estimated_cost, :notes, :created_at, :updated_at)`, i)
	if err != nil {
		return fmt.Errorf("insert inspection: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateInspection(ctx context.Context, i model.Inspection) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE inspections SET
			lead_id = :lead_id,
			technician_id = :technician_id,
			territory = :territory,
			scheduled_start = :scheduled_start,
			duration_minutes = :duration_minutes,
			status = :status,
			estimated_cost = :estimated_cost,
			notes = :notes,
			updated_at = :updated_at
		WHERE id = :id`, i)
	if err != nil {
		return fmt.Errorf("update inspection: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return corestore.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListInspections(ctx context.Context, f corestore.InspectionFilter) ([]model.Inspection, error) {
	q := `SELECT * FROM inspections WHERE 1=1`
	args := map[string]any{}
	if f.TechnicianID != "" {
		q += ` AND technician_id = :technician_id`
		args["technician_id"] = f.TechnicianID
	}
	if !f.IncludeCancelled {
		q += ` AND status <> 'CANCELLED'`
	}
	if !f.From.IsZero() {
		q += ` AND scheduled_start + duration_minutes * INTERVAL '1 minute' > :from`
		args["from"] = f.From
	}
	if !f.To.IsZero() {
		q += ` AND scheduled_start < :to`
		args["to"] = f.To
	}
	q += ` ORDER BY scheduled_start, id`

	rows, err := s.db.NamedQueryContext(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("list inspections: %w", err)
	}
	defer rows.Close()
	var out []model.Inspection
	for rows.Next() {
		var i model.Inspection
		if err := rows.StructScan(&i); err != nil {
			return nil, fmt.Errorf("scan inspection: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (s *PostgresStore) InsertReminderJob(ctx context.Context, j model.ReminderJob) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO reminder_jobs (id, inspection_id, channel, fire_at, status,
			attempts, last_error, created_at, updated_at)
		VALUES (:id, :inspection_id, :channel, :fire_at, :status,
			:attempts, :last_error, :created_at, :updated_at)`, j)
	if err != nil {
		return fmt.Errorf("insert reminder job: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateReminderJob(ctx context.Context, j model.ReminderJob) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE reminder_jobs SET
			fire_at = :fire_at,
			status = :status,
			attempts = :attempts,
			last_error = :last_error,
			updated_at = :updated_at
		WHERE id = :id`, j)
	if err != nil {
		return fmt.Errorf("update reminder job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return corestore.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListReminderJobs(ctx context.Context, f corestore.ReminderFilter) ([]model.ReminderJob, error) {
	q := `SELECT * FROM reminder_jobs WHERE 1=1`
	args := map[string]any{}
	if f.InspectionID != "" {
		q += ` AND inspection_id = :inspection_id`
		args["inspection_id"] = f.InspectionID
	}
	if f.Status != "" {
		q += ` AND status = :status`
		args["status"] = string(f.Status)
	}
	if !f.DueBefore.IsZero() {
		q += ` AND fire_at <= :due_before`
		args["due_before"] = f.DueBefore
	}
	q += ` ORDER BY fire_at, id`

	rows, err := s.db.NamedQueryContext(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("list reminder jobs: %w", err)
	}
	defer rows.Close()
	var out []model.ReminderJob
	for rows.Next() {
		var j model.ReminderJob
		if err := rows.StructScan(&j); err != nil {
			return nil, fmt.Errorf("scan reminder job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetSyncRecord(ctx context.Context, inspectionID string) (model.SyncRecord, error) {
	var r model.SyncRecord
	err := s.db.GetContext(ctx, &r, `SELECT * FROM sync_records WHERE inspection_id = $1`, inspectionID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SyncRecord{}, corestore.ErrNotFound
	}
	if err != nil {
		return model.SyncRecord{}, fmt.Errorf("get sync record: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) UpsertSyncRecord(ctx context.Context, r model.SyncRecord) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO sync_records (inspection_id, external_event_id, op, attempts,
			last_attempt, next_attempt, status, last_error)
		VALUES (:inspection_id, :external_event_id, :op, :attempts,
			:last_attempt, :next_attempt, :status, :last_error)
		ON CONFLICT (inspection_id) DO UPDATE SET
			external_event_id = EXCLUDED.external_event_id,
			op = EXCLUDED.op,
			attempts = EXCLUDED.attempts,
			last_attempt = EXCLUDED.last_attempt,
			next_attempt = EXCLUDED.next_attempt,
			status = EXCLUDED.status,
			last_error = EXCLUDED.last_error`, r)
	if err != nil {
		return fmt.Errorf("upsert sync record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSyncRecords(ctx context.Context, f corestore.SyncFilter) ([]model.SyncRecord, error) {
	q := `SELECT * FROM sync_records WHERE 1=1`
	args := map[string]any{}
	if f.Status != "" {
		q += ` AND status = :status`
		args["status"] = string(f.Status)
	}
	if !f.DueBefore.IsZero() {
		q += ` AND next_attempt <= :due_before`
		args["due_before"] = f.DueBefore
	}
	q += ` ORDER BY inspection_id`

	rows, err := s.db.NamedQueryContext(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("list sync records: %w", err)
	}
	defer rows.Close()
	var out []model.SyncRecord
	for rows.Next() {
		var r model.SyncRecord
		if err := rows.StructScan(&r); err != nil {
			return nil, fmt.Errorf("scan sync record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

var _ corestore.CalendarStore = (*PostgresStore)(nil)
