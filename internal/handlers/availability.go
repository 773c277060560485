package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"PEERMATCH_BACK-END/internal/availability"
	"PEERMATCH_BACK-END/internal/dto"
	"PEERMATCH_BACK-END/internal/models"
	"PEERMATCH_BACK-END/internal/utils"
)

// AvailabilityStore persists availability ranges per user
type AvailabilityStore interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Availability, error)
	Create(ctx context.Context, userID uuid.UUID, ranges []availability.TimeRange) (int64, error)
	Delete(ctx context.Context, userID uuid.UUID, ranges []availability.TimeRange) (int64, error)
	// ReplaceSelection reads the stored ranges, plans and applies the
	// wholesale replacement atomically with respect to other replacements.
	ReplaceSelection(ctx context.Context, userID uuid.UUID, selection availability.SlotSet) (deleted, created int64, err error)
}

// AvailabilityHandler serves a user's weekly availability, both as raw ranges
// and as the grid the editor works on
type AvailabilityHandler struct {
	store    AvailabilityStore
	notifier NotificationsService
	logger   *zap.Logger
}

// NewAvailabilityHandler creates a new AvailabilityHandler
func NewAvailabilityHandler(store AvailabilityStore, notifier NotificationsService, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{store: store, notifier: notifier, logger: logger}
}

// Availability dispatches by HTTP method for /api/availability
func (h *AvailabilityHandler) Availability(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.ListAvailability(w, r)
	case http.MethodPost:
		h.CreateAvailability(w, r)
	case http.MethodDelete:
		h.DeleteAvailability(w, r)
	default:
		utils.WriteErrorResponse(w, http.StatusMethodNotAllowed, "Method Not Allowed", "only GET, POST, DELETE are allowed")
	}
}

// Grid dispatches by HTTP method for /api/availability/grid
func (h *AvailabilityHandler) Grid(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.GetGrid(w, r)
	case http.MethodPut:
		h.SaveGrid(w, r)
	default:
		utils.WriteErrorResponse(w, http.StatusMethodNotAllowed, "Method Not Allowed", "only GET, PUT are allowed")
	}
}

// ListAvailability handles GET /api/availability
// @Summary List stored availability
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Param user_id query string false "User ID (defaults to the caller)"
// @Success 200 {object} dto.AvailabilityListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/availability [get]
func (h *AvailabilityHandler) ListAvailability(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.targetUser(w, r, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}

	rows, err := h.store.List(r.Context(), userID)
	if err != nil {
		h.writeStoreError(w, "list availability", err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.AvailabilityListResponse{
		UserID:       userID.String(),
		Availability: dto.NewAvailabilityItems(models.Ranges(rows)),
	})
}

// CreateAvailability handles POST /api/availability
// @Summary Bulk create availability ranges
// @Tags availability
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateAvailabilityRequest true "Ranges to create"
// @Success 201 {object} dto.CreateAvailabilityResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/availability [post]
func (h *AvailabilityHandler) CreateAvailability(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAvailabilityRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return // Error already handled by DecodeJSONRequest
	}

	userID, ok := h.targetUser(w, r, req.UserID)
	if !ok {
		return
	}

	if len(req.AvailableTimes) == 0 {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "available_times must not be empty")
		return
	}
	ranges, err := dto.ParseAvailabilityItems(req.AvailableTimes)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", err.Error())
		return
	}

	created, err := h.store.Create(r.Context(), userID, ranges)
	if err != nil {
		h.writeStoreError(w, "create availability", err)
		return
	}

	h.notifyUpdated(r.Context(), userID, len(ranges))
	utils.WriteJSONResponse(w, http.StatusCreated, dto.CreateAvailabilityResponse{
		Message: "Availability created successfully",
		Created: created,
	})
}

// DeleteAvailability handles DELETE /api/availability
// @Summary Bulk delete availability ranges
// @Description Removes every stored block that lies inside one of the given ranges.
// @Tags availability
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.DeleteAvailabilityRequest true "Ranges to delete"
// @Success 200 {object} dto.DeleteAvailabilityResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/availability [delete]
func (h *AvailabilityHandler) DeleteAvailability(w http.ResponseWriter, r *http.Request) {
	var req dto.DeleteAvailabilityRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	userID, ok := h.targetUser(w, r, req.UserID)
	if !ok {
		return
	}

	if len(req.Delete) == 0 {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "delete must not be empty")
		return
	}
	ranges, err := dto.ParseAvailabilityItems(req.Delete)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", err.Error())
		return
	}

	deleted, err := h.store.Delete(r.Context(), userID, ranges)
	if err != nil {
		h.writeStoreError(w, "delete availability", err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.DeleteAvailabilityResponse{
		Message: "Availability deleted successfully",
		Deleted: deleted,
	})
}

// GetGrid handles GET /api/availability/grid
// @Summary Get availability as weekly grid slots
// @Description Slots outside the 08:00-20:00 window are omitted.
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Param user_id query string false "User ID (defaults to the caller)"
// @Success 200 {object} dto.AvailabilityGridResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/availability/grid [get]
func (h *AvailabilityHandler) GetGrid(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.targetUser(w, r, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}

	rows, err := h.store.List(r.Context(), userID)
	if err != nil {
		h.writeStoreError(w, "list availability", err)
		return
	}
	ranges := models.Ranges(rows)

	utils.WriteJSONResponse(w, http.StatusOK, dto.AvailabilityGridResponse{
		UserID:       userID.String(),
		Slots:        availability.RangesToSlots(ranges).Sorted(),
		Availability: dto.NewAvailabilityItems(ranges),
	})
}

// SaveGrid handles PUT /api/availability/grid
// @Summary Replace availability from grid slots
// @Description Reads, deletes and recreates the user's availability in one transaction. Concurrent saves for one user are serialized.
// @Tags availability
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SaveAvailabilityGridRequest true "Selected slots"
// @Success 200 {object} dto.SaveAvailabilityGridResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/availability/grid [put]
func (h *AvailabilityHandler) SaveGrid(w http.ResponseWriter, r *http.Request) {
	var req dto.SaveAvailabilityGridRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	userID, ok := h.targetUser(w, r, req.UserID)
	if !ok {
		return
	}

	selection := availability.NewSlotSet(req.Slots...)
	ranges, err := availability.SlotsToRanges(selection)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", err.Error())
		return
	}

	deleted, created, err := h.store.ReplaceSelection(r.Context(), userID, selection)
	if err != nil {
		h.writeStoreError(w, "replace availability", err)
		return
	}

	rows, err := h.store.List(r.Context(), userID)
	if err != nil {
		h.writeStoreError(w, "list availability", err)
		return
	}

	h.notifyUpdated(r.Context(), userID, len(ranges))
	utils.WriteJSONResponse(w, http.StatusOK, dto.SaveAvailabilityGridResponse{
		Message:      "Availability saved successfully",
		Deleted:      deleted,
		Created:      created,
		Availability: dto.NewAvailabilityItems(models.Ranges(rows)),
	})
}

// targetUser resolves whose availability the request addresses. An empty id
// means the caller; someone else's id is only allowed for admins.
func (h *AvailabilityHandler) targetUser(w http.ResponseWriter, r *http.Request, requested string) (uuid.UUID, bool) {
	callerID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid user context")
		return uuid.Nil, false
	}

	requested = strings.TrimSpace(requested)
	if requested == "" {
		return callerID, true
	}

	userID, err := uuid.Parse(requested)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid user id", "user_id must be UUID")
		return uuid.Nil, false
	}
	if userID != callerID && utils.GetRoleFromContext(r.Context()) != utils.RoleAdmin {
		utils.WriteErrorResponse(w, http.StatusForbidden, "Forbidden", "Only admins can manage another user's availability")
		return uuid.Nil, false
	}
	return userID, true
}

func (h *AvailabilityHandler) writeStoreError(w http.ResponseWriter, op string, err error) {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, availability.ErrSlotOutOfRange):
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", err.Error())
	case errors.As(err, &pgErr) && pgErr.Code == "23514": // check_violation
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", pgErr.Message)
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("availability store timeout", zap.String("op", op), zap.Error(err))
		utils.WriteErrorResponse(w, http.StatusGatewayTimeout, "Database timeout", "The request took too long. Please retry.")
	default:
		h.logger.Error("availability store failure", zap.String("op", op), zap.Error(err))
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Database error", "Failed to "+op)
	}
}

// notifyUpdated is best-effort: the write already succeeded.
func (h *AvailabilityHandler) notifyUpdated(ctx context.Context, userID uuid.UUID, ranges int) {
	if h.notifier == nil {
		return
	}

	message := fmt.Sprintf("Your weekly availability now has %d time range(s).", ranges)
	data := map[string]any{"ranges": ranges}
	if callerID, ok := utils.GetUserIDFromContext(ctx); ok && callerID != userID {
		data["updated_by"] = callerID.String()
	}

	if err := h.notifier.Create(ctx, userID, string(TypeAvailabilityUpdated), "Availability updated", &message, data); err != nil {
		h.logger.Warn("failed to record availability notification",
			zap.String("user_id", userID.String()), zap.Error(err))
	}
}
