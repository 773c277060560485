package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"PEERMATCH_BACK-END/internal/availability"
)

var (
	// ErrDeleteFailed means nothing was changed
	ErrDeleteFailed = errors.New("delete of existing availability failed")
	// ErrCreateFailed means nothing was deleted but the new ranges were not stored
	ErrCreateFailed = errors.New("create of new availability failed")
	// ErrAvailabilityCleared means the old ranges are gone and the new ones
	// were not stored. The user's availability may now be empty.
	ErrAvailabilityCleared = errors.New("availability was cleared but the new ranges were not saved")
	// ErrRefetchFailed means the replacement succeeded but the result could not be read back
	ErrRefetchFailed = errors.New("availability saved but could not be reloaded")
)

// ReplaceAvailability applies plan as two bulk calls, delete then create, and
// returns the refetched state. The calls are not atomic: a failed create after
// a successful delete is reported as ErrAvailabilityCleared. Retrying with a
// fresh plan is safe because the replacement is wholesale.
func (c *Client) ReplaceAvailability(ctx context.Context, userID uuid.UUID, plan availability.ReplacementPlan) ([]availability.TimeRange, error) {
	if len(plan.Delete) > 0 {
		if err := c.DeleteAvailability(ctx, userID, plan.Delete); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDeleteFailed, err)
		}
	}

	if len(plan.Create) > 0 {
		if err := c.CreateAvailability(ctx, userID, plan.Create); err != nil {
			if len(plan.Delete) > 0 {
				c.logger.Error("availability cleared without replacement",
					zap.String("user_id", userID.String()),
					zap.Int("deleted_ranges", len(plan.Delete)),
					zap.Error(err))
				return nil, fmt.Errorf("%w: %w", ErrAvailabilityCleared, err)
			}
			return nil, fmt.Errorf("%w: %w", ErrCreateFailed, err)
		}
	}

	ranges, err := c.ListAvailability(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefetchFailed, err)
	}
	return ranges, nil
}
