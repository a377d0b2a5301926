package db

import (
	"context"
	"encoding/json"
	"fmt"

	"pulsek12.com/pulse/internal/globaltime"
)

// ingestLockKey identifies the advisory lock serializing the mutation
// phases of overlapping ingest runs.
const ingestLockKey = 0x70756C7365 // "pulse"

// StartIngestRun records a new running orchestrator run.
func (p *Pool) StartIngestRun(ctx context.Context) (int64, error) {
	const q = `
INSERT INTO pulse.ingest_runs (started_at, status)
VALUES ($1, 'running')
RETURNING ingest_run_id
`

	var runID int64
	if err := p.QueryRow(ctx, q, globaltime.UTC()).Scan(&runID); err != nil {
		return 0, fmt.Errorf("start ingest run: %w", err)
	}
	return runID, nil
}

// FinishIngestRun finalizes a run with its status and counters.
func (p *Pool) FinishIngestRun(ctx context.Context, runID int64, status string, counters any, runErr error) error {
	payload, err := json.Marshal(counters)
	if err != nil {
		return fmt.Errorf("marshal run counters: %w", err)
	}

	var message *string
	if runErr != nil {
		text := runErr.Error()
		if len(text) > 1000 {
			text = text[:1000]
		}
		message = &text
	}

	const q = `
UPDATE pulse.ingest_runs
SET finished_at = $2, status = $3, counters = $4, error_message = $5
WHERE ingest_run_id = $1
`

	if _, err := p.Exec(ctx, q, runID, globaltime.UTC(), status, payload, message); err != nil {
		return fmt.Errorf("finish ingest run %d: %w", runID, err)
	}
	return nil
}

// TryIngestLock attempts the session-level advisory lock guarding the
// grouping, merge, and summary-fill phases. Returns false when another
// run holds it.
func (p *Pool) TryIngestLock(ctx context.Context) (bool, error) {
	const q = `SELECT pg_try_advisory_lock($1)`

	var acquired bool
	if err := p.QueryRow(ctx, q, ingestLockKey).Scan(&acquired); err != nil {
		return false, fmt.Errorf("acquire ingest lock: %w", err)
	}
	return acquired, nil
}

// ReleaseIngestLock releases the advisory lock taken by TryIngestLock.
func (p *Pool) ReleaseIngestLock(ctx context.Context) error {
	const q = `SELECT pg_advisory_unlock($1)`

	var released bool
	if err := p.QueryRow(ctx, q, ingestLockKey).Scan(&released); err != nil {
		return fmt.Errorf("release ingest lock: %w", err)
	}
	return nil
}
