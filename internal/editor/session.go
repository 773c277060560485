// Package editor drives one edit of a user's weekly availability: load the
// stored ranges, edit them on the grid, and save the result as a wholesale
// replacement.
package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"PEERMATCH_BACK-END/internal/availability"
)

// ErrNotEditing is returned by operations that need an open edit
var ErrNotEditing = errors.New("session is not editing")

// State is the editor's mode
type State int

const (
	Viewing State = iota
	Editing
)

func (s State) String() string {
	switch s {
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Backend is the availability API the session works against.
// *client.Client satisfies it.
type Backend interface {
	ListAvailability(ctx context.Context, userID uuid.UUID) ([]availability.TimeRange, error)
	ReplaceAvailability(ctx context.Context, userID uuid.UUID, plan availability.ReplacementPlan) ([]availability.TimeRange, error)
}

// Session is not safe for concurrent use.
type Session struct {
	backend Backend
	userID  uuid.UUID
	logger  *zap.Logger

	state     State
	stored    []availability.TimeRange
	selection availability.SlotSet
	drag      availability.DragSelector
}

// NewSession edits userID's availability. uuid.Nil edits the token's own user.
func NewSession(backend Backend, userID uuid.UUID, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{backend: backend, userID: userID, logger: logger}
}

func (s *Session) State() State { return s.state }

// Stored returns the ranges last read from the backend
func (s *Session) Stored() []availability.TimeRange {
	return append([]availability.TimeRange(nil), s.stored...)
}

// Load fetches the stored ranges and returns to Viewing. Any open edit is discarded.
func (s *Session) Load(ctx context.Context) error {
	ranges, err := s.backend.ListAvailability(ctx, s.userID)
	if err != nil {
		return fmt.Errorf("load availability: %w", err)
	}
	s.stored = ranges
	s.discard()
	return nil
}

// Selection returns the cells to render. While a drag is in progress it
// includes the pending rectangle.
func (s *Session) Selection() availability.SlotSet {
	if s.state != Editing {
		return availability.RangesToSlots(s.stored)
	}
	return s.drag.Preview(s.selection)
}

// Edit opens an edit starting from the stored ranges. It is a no-op while editing.
func (s *Session) Edit() {
	if s.state == Editing {
		return
	}
	s.selection = availability.RangesToSlots(s.stored)
	s.state = Editing
}

func (s *Session) PointerDown(cell availability.Slot) error {
	if s.state != Editing {
		return ErrNotEditing
	}
	return s.drag.PointerDown(cell, s.selection)
}

func (s *Session) PointerMove(cell availability.Slot) {
	if s.state == Editing {
		s.drag.PointerMove(cell)
	}
}

// PointerUp ends a drag. It may be called for releases anywhere on the page.
func (s *Session) PointerUp() {
	if s.state == Editing {
		s.selection = s.drag.PointerUp(s.selection)
	}
}

// Cancel discards the edit
func (s *Session) Cancel() {
	s.discard()
}

// Save replaces the stored availability with the selection. On failure the
// session stays in Editing with the selection intact so the user can retry.
func (s *Session) Save(ctx context.Context) error {
	if s.state != Editing {
		return ErrNotEditing
	}
	s.PointerUp()

	plan, err := availability.Plan(s.stored, s.selection)
	if err != nil {
		return fmt.Errorf("plan availability: %w", err)
	}

	ranges, err := s.backend.ReplaceAvailability(ctx, s.userID, plan)
	if err != nil {
		s.logger.Warn("save availability failed",
			zap.String("user_id", s.userID.String()),
			zap.Int("delete", len(plan.Delete)),
			zap.Int("create", len(plan.Create)),
			zap.Error(err))
		return fmt.Errorf("save availability: %w", err)
	}

	s.stored = ranges
	s.discard()
	s.logger.Info("availability saved",
		zap.String("user_id", s.userID.String()),
		zap.Int("ranges", len(ranges)))
	return nil
}

func (s *Session) discard() {
	s.drag.Reset()
	s.selection = nil
	s.state = Viewing
}
