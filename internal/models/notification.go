package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is one row of public.notifications
type Notification struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Type      string    `json:"type" db:"type"`
	Title     string    `json:"title" db:"title"`
	Message   *string   `json:"message" db:"message"`
	Data      []byte    `json:"data" db:"data"` // JSONB
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
