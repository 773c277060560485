package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"PEERMATCH_BACK-END/internal/models"
)

// NotificationRepository stores user notifications in Postgres
type NotificationRepository struct {
	db           *pgxpool.Pool
	queryTimeout time.Duration
}

func NewNotificationRepository(db *pgxpool.Pool, queryTimeout time.Duration) *NotificationRepository {
	return &NotificationRepository{db: db, queryTimeout: queryTimeout}
}

// NotificationFilter narrows a notification listing
type NotificationFilter struct {
	UnreadOnly bool
	Type       string
	Limit      int
	Offset     int
}

// NotificationPage is one page of a listing plus counters for the whole user
type NotificationPage struct {
	Items  []models.Notification
	Total  int
	Unread int
}

// Insert stores n. Data must be JSON or nil.
func (r *NotificationRepository) Insert(ctx context.Context, n models.Notification) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	cmdTag, err := r.db.Exec(ctx, `
		INSERT INTO public.notifications (id, user_id, type, title, message, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
	`, n.ID, n.UserID, n.Type, n.Title, n.Message, jsonbArg(n.Data), n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("notification insert affected %d rows", cmdTag.RowsAffected())
	}
	return nil
}

// jsonbArg hands JSON to a ::jsonb parameter as text. Under the simple
// protocol a []byte argument is sent as a bytea literal, which the cast rejects.
func jsonbArg(data []byte) any {
	if data == nil {
		return nil
	}
	return string(data)
}

// List returns one page of the user's notifications, newest first
func (r *NotificationRepository) List(ctx context.Context, userID uuid.UUID, f NotificationFilter) (NotificationPage, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	var page NotificationPage
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(1) FROM public.notifications WHERE user_id = $1 AND read = false`, userID,
	).Scan(&page.Unread); err != nil {
		return page, fmt.Errorf("count unread notifications: %w", err)
	}

	args := []any{userID}
	where := `WHERE user_id = $1`
	argNum := 2
	if f.UnreadOnly {
		where += " AND read = false"
	}
	if f.Type != "" {
		where += fmt.Sprintf(" AND type = $%d", argNum)
		args = append(args, f.Type)
		argNum++
	}

	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(1) FROM public.notifications `+where, args...,
	).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count notifications: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT id, user_id, type, title, message, data, read, created_at
		  FROM public.notifications %s
		 ORDER BY created_at DESC
		 LIMIT $%d OFFSET $%d`, where, argNum, argNum+1), args...)
	if err != nil {
		return page, fmt.Errorf("query notifications: %w", err)
	}
	page.Items, err = pgx.CollectRows(rows, pgx.RowToStructByName[models.Notification])
	if err != nil {
		return page, fmt.Errorf("scan notifications: %w", err)
	}
	return page, nil
}

// MarkAllRead flags every unread notification of the user as read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		`UPDATE public.notifications SET read = true WHERE user_id = $1 AND read = false`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}
