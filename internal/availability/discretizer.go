package availability

// span is an open run of consecutive slots on one day, inclusive on both ends.
type span struct {
	day, first, last int
}

func (s span) timeRange() TimeRange {
	return TimeRange{
		Start: slotTime(s.day, s.first),
		End:   slotTime(s.day, s.last+1),
	}
}

// SlotsToRanges merges the selection into the fewest ranges that cover it.
// Slots join a range only when they are consecutive on the same day. The
// result is ordered by day and time. Any slot outside the grid aborts the
// conversion with ErrSlotOutOfRange.
func SlotsToRanges(slots SlotSet) ([]TimeRange, error) {
	sorted := slots.Sorted()
	for _, s := range sorted {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}

	ranges := make([]TimeRange, 0)
	var (
		open    span
		hasOpen bool
	)
	for _, s := range sorted {
		switch {
		case !hasOpen:
			open, hasOpen = span{day: s.Day, first: s.Index, last: s.Index}, true
		case s.Day == open.day && s.Index == open.last+1:
			open.last = s.Index
		default:
			ranges = append(ranges, open.timeRange())
			open = span{day: s.Day, first: s.Index, last: s.Index}
		}
	}
	if hasOpen {
		ranges = append(ranges, open.timeRange())
	}
	return ranges, nil
}

// RangesToSlots projects stored ranges back onto the grid for editing.
//
// Each range is placed on the weekday of its start and expanded in 30-minute
// steps. Cells falling outside the editable window are dropped rather than
// reported, so backend data that does not fit the grid still renders. The
// projection assumes recurring weekly availability: the calendar date of a
// range is ignored.
func RangesToSlots(ranges []TimeRange) SlotSet {
	slots := NewSlotSet()
	for _, r := range ranges {
		start, end := r.Start.UTC(), r.End.UTC()
		day := weekdayIndex(start.Weekday())
		index := slotIndexAt(start)
		for t := start; t.Before(end) && index < SlotsPerDay; t, index = t.Add(SlotDuration), index+1 {
			if slot := (Slot{Day: day, Index: index}); slot.Valid() {
				slots.Add(slot)
			}
		}
	}
	return slots
}
