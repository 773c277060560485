// Package availability converts between the weekly drag-select grid and the
// time ranges the backend stores.
//
// The grid is a canonical week of 30-minute cells. A cell is addressed by a
// Monday-origin day index and a slot index counted from GridStartHour. Ranges
// are absolute instants anchored to ReferenceWeekMonday; only their weekday
// and time of day carry meaning.
package availability

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"
)

const (
	// DaysPerWeek is the number of grid columns, Monday first.
	DaysPerWeek = 7
	// GridStartHour is the hour of day covered by slot index 0.
	GridStartHour = 8
	// SlotsPerDay is the number of 30-minute cells in the editable window
	// (08:00-20:00).
	SlotsPerDay = 24
	// SlotDuration is the width of a single grid cell.
	SlotDuration = 30 * time.Minute

	slotsPerHour = int(time.Hour / SlotDuration)
)

var (
	// ErrSlotOutOfRange is returned for a slot outside the weekly grid.
	ErrSlotOutOfRange = errors.New("slot outside weekly grid")
	// ErrInvalidRange is returned for a range that is empty, inverted or not
	// a whole number of slots long.
	ErrInvalidRange = errors.New("invalid time range")
)

// Slot is one cell of the weekly grid.
type Slot struct {
	Day   int `json:"day"`
	Index int `json:"slot"`
}

// Valid reports whether the slot lies inside the grid.
func (s Slot) Valid() bool {
	return s.Day >= 0 && s.Day < DaysPerWeek && s.Index >= 0 && s.Index < SlotsPerDay
}

// Validate returns an error wrapping ErrSlotOutOfRange when the slot is not Valid.
func (s Slot) Validate() error {
	if !s.Valid() {
		return fmt.Errorf("%w: day=%d slot=%d", ErrSlotOutOfRange, s.Day, s.Index)
	}
	return nil
}

func (s Slot) String() string {
	start := slotTime(s.Day, s.Index)
	return fmt.Sprintf("%s %s", start.Weekday(), start.Format("15:04"))
}

func compareSlots(a, b Slot) int {
	if c := cmp.Compare(a.Day, b.Day); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

// SlotSet is a set of selected grid cells.
type SlotSet map[Slot]struct{}

// NewSlotSet returns a set holding the given slots.
func NewSlotSet(slots ...Slot) SlotSet {
	set := make(SlotSet, len(slots))
	for _, s := range slots {
		set.Add(s)
	}
	return set
}

func (s SlotSet) Add(slot Slot)    { s[slot] = struct{}{} }
func (s SlotSet) Remove(slot Slot) { delete(s, slot) }

func (s SlotSet) Has(slot Slot) bool {
	_, ok := s[slot]
	return ok
}

func (s SlotSet) Len() int { return len(s) }

// Sorted returns the slots ordered by day, then index.
func (s SlotSet) Sorted() []Slot {
	out := make([]Slot, 0, len(s))
	for slot := range s {
		out = append(out, slot)
	}
	slices.SortFunc(out, compareSlots)
	return out
}

func (s SlotSet) Clone() SlotSet {
	out := make(SlotSet, len(s))
	for slot := range s {
		out[slot] = struct{}{}
	}
	return out
}

func (s SlotSet) Equal(other SlotSet) bool {
	if len(s) != len(other) {
		return false
	}
	for slot := range s {
		if !other.Has(slot) {
			return false
		}
	}
	return true
}
