package availability

import (
	"fmt"
	"time"
)

// ReferenceWeekMonday anchors the recurring week to concrete instants. Callers
// must not depend on its date, only on weekday and time of day.
var ReferenceWeekMonday = time.Date(2000, time.January, 3, 0, 0, 0, 0, time.UTC)

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

func (r TimeRange) Duration() time.Duration { return r.End.Sub(r.Start) }

// Validate checks that the range is non-empty and a whole number of slots long.
func (r TimeRange) Validate() error {
	if !r.End.After(r.Start) {
		return fmt.Errorf("%w: end %s is not after start %s", ErrInvalidRange,
			r.End.Format(time.RFC3339), r.Start.Format(time.RFC3339))
	}
	if r.Duration()%SlotDuration != 0 {
		return fmt.Errorf("%w: duration %s is not a multiple of %s", ErrInvalidRange, r.Duration(), SlotDuration)
	}
	return nil
}

func (r TimeRange) Equal(other TimeRange) bool {
	return r.Start.Equal(other.Start) && r.End.Equal(other.End)
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%s-%s", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}

func slotTime(day, index int) time.Time {
	return ReferenceWeekMonday.
		AddDate(0, 0, day).
		Add(GridStartHour*time.Hour + time.Duration(index)*SlotDuration)
}

// weekdayIndex maps time.Weekday (Sunday = 0) onto the grid's Monday-first columns.
func weekdayIndex(d time.Weekday) int {
	if d == time.Sunday {
		return 6
	}
	return int(d) - 1
}

// slotIndexAt is negative for times before GridStartHour.
func slotIndexAt(t time.Time) int {
	return (t.Hour()-GridStartHour)*slotsPerHour + t.Minute()/int(SlotDuration/time.Minute)
}
