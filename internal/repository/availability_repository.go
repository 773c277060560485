package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"PEERMATCH_BACK-END/internal/availability"
	"PEERMATCH_BACK-END/internal/models"
)

const (
	qListAvailability = `
SELECT id, user_id, start_time, end_time, created_at
  FROM public.availability
 WHERE user_id = $1
 ORDER BY start_time, end_time`

	qInsertAvailability = `
INSERT INTO public.availability (id, user_id, start_time, end_time, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, start_time, end_time) DO NOTHING`

	// Held until commit; serializes replacements of one user's availability
	qLockUserAvailability = `SELECT pg_advisory_xact_lock(hashtext($1))`

	// A delete range removes every stored block it contains, so one coalesced
	// range clears all the 30-minute rows it was built from.
	qDeleteAvailability = `
DELETE FROM public.availability
 WHERE user_id = $1
   AND start_time >= $2
   AND end_time <= $3`
)

// AvailabilityRepository stores availability ranges in Postgres
type AvailabilityRepository struct {
	db           *pgxpool.Pool
	queryTimeout time.Duration
}

// NewAvailabilityRepository creates a repository; queryTimeout bounds each call
func NewAvailabilityRepository(db *pgxpool.Pool, queryTimeout time.Duration) *AvailabilityRepository {
	return &AvailabilityRepository{db: db, queryTimeout: queryTimeout}
}

// withTimeout bounds a repository call; a zero timeout leaves ctx unbounded
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// List returns the user's stored rows ordered by start time
func (r *AvailabilityRepository) List(ctx context.Context, userID uuid.UUID) ([]models.Availability, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, qListAvailability, userID)
	if err != nil {
		return nil, fmt.Errorf("query availability: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Availability])
	if err != nil {
		return nil, fmt.Errorf("scan availability: %w", err)
	}
	return items, nil
}

// Create inserts ranges in one transaction. Ranges already stored are skipped.
func (r *AvailabilityRepository) Create(ctx context.Context, userID uuid.UUID, ranges []availability.TimeRange) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	var created int64
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		created, err = insertRanges(ctx, tx, userID, ranges)
		return err
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// Delete removes every stored row contained in any of the ranges
func (r *AvailabilityRepository) Delete(ctx context.Context, userID uuid.UUID, ranges []availability.TimeRange) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	var deleted int64
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		deleted, err = deleteRanges(ctx, tx, userID, ranges)
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// ReplaceSelection replaces everything stored for the user with the merged
// ranges of selection. The user's row set is read, planned and rewritten in
// one transaction holding a per-user advisory lock, so the last of two
// concurrent saves wins outright.
func (r *AvailabilityRepository) ReplaceSelection(ctx context.Context, userID uuid.UUID, selection availability.SlotSet) (deleted, created int64, err error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, qLockUserAvailability, userID.String()); err != nil {
			return fmt.Errorf("lock availability: %w", err)
		}

		rows, err := tx.Query(ctx, qListAvailability, userID)
		if err != nil {
			return fmt.Errorf("query availability: %w", err)
		}
		existing, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Availability])
		if err != nil {
			return fmt.Errorf("scan availability: %w", err)
		}

		plan, err := availability.Plan(models.Ranges(existing), selection)
		if err != nil {
			return err
		}
		if deleted, err = deleteRanges(ctx, tx, userID, plan.Delete); err != nil {
			return err
		}
		created, err = insertRanges(ctx, tx, userID, plan.Create)
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	return deleted, created, nil
}

func insertRanges(ctx context.Context, tx pgx.Tx, userID uuid.UUID, ranges []availability.TimeRange) (int64, error) {
	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, rg := range ranges {
		batch.Queue(qInsertAvailability, uuid.New(), userID, rg.Start.UTC(), rg.End.UTC(), now)
	}
	n, err := execBatch(ctx, tx, batch)
	if err != nil {
		return 0, fmt.Errorf("insert availability: %w", err)
	}
	return n, nil
}

func deleteRanges(ctx context.Context, tx pgx.Tx, userID uuid.UUID, ranges []availability.TimeRange) (int64, error) {
	batch := &pgx.Batch{}
	for _, rg := range ranges {
		batch.Queue(qDeleteAvailability, userID, rg.Start.UTC(), rg.End.UTC())
	}
	n, err := execBatch(ctx, tx, batch)
	if err != nil {
		return 0, fmt.Errorf("delete availability: %w", err)
	}
	return n, nil
}

// execBatch runs every queued statement and sums the affected rows
func execBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) (int64, error) {
	if batch.Len() == 0 {
		return 0, nil
	}

	results := tx.SendBatch(ctx, batch)
	var affected int64
	for i := 0; i < batch.Len(); i++ {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, err
		}
		affected += tag.RowsAffected()
	}
	return affected, results.Close()
}
