package dto

import (
	"fmt"
	"time"

	"PEERMATCH_BACK-END/internal/availability"
)

// AvailabilityItem is one stored range on the wire
type AvailabilityItem struct {
	StartTime string `json:"start_time"` // RFC3339
	EndTime   string `json:"end_time"`   // RFC3339
}

// TimeRange parses the item into a range
func (i AvailabilityItem) TimeRange() (availability.TimeRange, error) {
	start, err := time.Parse(time.RFC3339Nano, i.StartTime)
	if err != nil {
		return availability.TimeRange{}, fmt.Errorf("start_time %q is not RFC3339", i.StartTime)
	}
	end, err := time.Parse(time.RFC3339Nano, i.EndTime)
	if err != nil {
		return availability.TimeRange{}, fmt.Errorf("end_time %q is not RFC3339", i.EndTime)
	}
	return availability.TimeRange{Start: start, End: end}, nil
}

// NewAvailabilityItems formats ranges for a response or request body
func NewAvailabilityItems(ranges []availability.TimeRange) []AvailabilityItem {
	items := make([]AvailabilityItem, 0, len(ranges))
	for _, r := range ranges {
		items = append(items, AvailabilityItem{
			StartTime: r.Start.UTC().Format(time.RFC3339),
			EndTime:   r.End.UTC().Format(time.RFC3339),
		})
	}
	return items
}

// ParseAvailabilityItems parses and validates every item, reporting the first bad index
func ParseAvailabilityItems(items []AvailabilityItem) ([]availability.TimeRange, error) {
	ranges := make([]availability.TimeRange, 0, len(items))
	for i, item := range items {
		r, err := item.TimeRange()
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// GET /api/availability
type AvailabilityListResponse struct {
	UserID       string             `json:"user_id"`
	Availability []AvailabilityItem `json:"availability"`
}

// POST /api/availability
type CreateAvailabilityRequest struct {
	UserID         string             `json:"user_id,omitempty"`
	AvailableTimes []AvailabilityItem `json:"available_times"`
}

type CreateAvailabilityResponse struct {
	Message string `json:"message"`
	Created int64  `json:"created"`
}

// DELETE /api/availability
type DeleteAvailabilityRequest struct {
	UserID string             `json:"user_id,omitempty"`
	Delete []AvailabilityItem `json:"delete"`
}

type DeleteAvailabilityResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

// GET /api/availability/grid
type AvailabilityGridResponse struct {
	UserID       string              `json:"user_id"`
	Slots        []availability.Slot `json:"slots"` // Monday = day 0, slot 0 = 08:00
	Availability []AvailabilityItem  `json:"availability"`
}

// PUT /api/availability/grid
type SaveAvailabilityGridRequest struct {
	UserID string              `json:"user_id,omitempty"`
	Slots  []availability.Slot `json:"slots"`
}

type SaveAvailabilityGridResponse struct {
	Message      string             `json:"message"`
	Deleted      int64              `json:"deleted"`
	Created      int64              `json:"created"`
	Availability []AvailabilityItem `json:"availability"`
}
