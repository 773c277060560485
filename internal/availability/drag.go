package availability

// DragState is the state of a rectangular drag gesture on the grid.
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
)

func (s DragState) String() string {
	switch s {
	case DragIdle:
		return "idle"
	case DragDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// DragMode decides whether releasing a drag selects or clears its rectangle.
type DragMode int

const (
	DragAdd DragMode = iota
	DragRemove
)

func (m DragMode) String() string {
	if m == DragRemove {
		return "remove"
	}
	return "add"
}

// DragSelector tracks one pointer gesture: Idle -> Dragging on pointer-down,
// back to Idle on pointer-up. It never mutates the selection it is given.
//
// Pointer-up must reach the selector even when the pointer is released outside
// the grid, so the caller should route release events from its root input
// dispatcher rather than from the grid cells.
type DragSelector struct {
	state  DragState
	mode   DragMode
	anchor Slot
	corner Slot
}

func (d *DragSelector) State() DragState { return d.state }
func (d *DragSelector) Mode() DragMode   { return d.mode }

// PointerDown starts a drag at cell. The gesture removes cells when the anchor
// was already selected and adds them otherwise.
func (d *DragSelector) PointerDown(cell Slot, selection SlotSet) error {
	if err := cell.Validate(); err != nil {
		return err
	}
	d.state = DragDragging
	d.anchor, d.corner = cell, cell
	d.mode = DragAdd
	if selection.Has(cell) {
		d.mode = DragRemove
	}
	return nil
}

// PointerMove moves the opposite corner of the rectangle. Cells past the grid
// edge are clamped onto it. Moves while idle are ignored.
func (d *DragSelector) PointerMove(cell Slot) {
	if d.state != DragDragging {
		return
	}
	d.corner = clampSlot(cell)
}

// Region returns the cells covered by the current rectangle, or nil when idle.
func (d *DragSelector) Region() []Slot {
	if d.state != DragDragging {
		return nil
	}
	minDay, maxDay := ordered(d.anchor.Day, d.corner.Day)
	minIdx, maxIdx := ordered(d.anchor.Index, d.corner.Index)

	region := make([]Slot, 0, (maxDay-minDay+1)*(maxIdx-minIdx+1))
	for day := minDay; day <= maxDay; day++ {
		for idx := minIdx; idx <= maxIdx; idx++ {
			region = append(region, Slot{Day: day, Index: idx})
		}
	}
	return region
}

// Preview returns the selection as it would be if the pointer were released now.
func (d *DragSelector) Preview(selection SlotSet) SlotSet {
	out := selection.Clone()
	for _, cell := range d.Region() {
		if d.mode == DragRemove {
			out.Remove(cell)
		} else {
			out.Add(cell)
		}
	}
	return out
}

// PointerUp applies the rectangle to a copy of selection and returns to idle.
// A release with no drag in progress returns an unchanged copy.
func (d *DragSelector) PointerUp(selection SlotSet) SlotSet {
	out := d.Preview(selection)
	d.Reset()
	return out
}

// Reset abandons any drag in progress.
func (d *DragSelector) Reset() {
	*d = DragSelector{}
}

func clampSlot(s Slot) Slot {
	return Slot{
		Day:   min(max(s.Day, 0), DaysPerWeek-1),
		Index: min(max(s.Index, 0), SlotsPerDay-1),
	}
}

func ordered(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
