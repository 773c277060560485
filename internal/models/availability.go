package models

import (
	"time"

	"github.com/google/uuid"

	"PEERMATCH_BACK-END/internal/availability"
)

// Availability is one row of public.availability. Rows written by the grid
// editor are maximal ranges, but older rows may be individual 30-minute blocks.
type Availability struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	StartTime time.Time `json:"start_time" db:"start_time"`
	EndTime   time.Time `json:"end_time" db:"end_time"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Range returns the row's interval
func (a Availability) Range() availability.TimeRange {
	return availability.TimeRange{Start: a.StartTime, End: a.EndTime}
}

// Ranges returns the intervals of rows, in order
func Ranges(rows []Availability) []availability.TimeRange {
	out := make([]availability.TimeRange, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Range())
	}
	return out
}
