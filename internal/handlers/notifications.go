package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"PEERMATCH_BACK-END/internal/dto"
	"PEERMATCH_BACK-END/internal/models"
	"PEERMATCH_BACK-END/internal/repository"
	"PEERMATCH_BACK-END/internal/utils"
)

type Type string

const (
	TypeAvailabilityUpdated Type = "availability_updated"
	TypeMatchSuggested      Type = "match_suggested"
	TypeSessionScheduled    Type = "session_scheduled"
)

var validTypes = map[Type]bool{
	TypeAvailabilityUpdated: true,
	TypeMatchSuggested:      true,
	TypeSessionScheduled:    true,
}

const (
	maxTitleLen   = 255
	maxMessageLen = 10000
	maxDataBytes  = 1024 * 1024
)

// NotificationStore is the persistence the notification endpoints need
type NotificationStore interface {
	Insert(ctx context.Context, n models.Notification) error
	List(ctx context.Context, userID uuid.UUID, f repository.NotificationFilter) (repository.NotificationPage, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// NotificationsService records notifications for other handlers
type NotificationsService interface {
	Create(ctx context.Context, userID uuid.UUID, nType string, title string, message *string, data map[string]any) error
}

type notificationsService struct {
	store  NotificationStore
	logger *zap.Logger
	now    func() time.Time
}

func NewNotificationsService(store NotificationStore, logger *zap.Logger) NotificationsService {
	return &notificationsService{store: store, logger: logger, now: time.Now}
}

func (s *notificationsService) Create(
	ctx context.Context,
	userID uuid.UUID,
	nType string,
	title string,
	message *string,
	data map[string]any,
) error {
	if userID == uuid.Nil {
		return errors.New("user_id cannot be nil")
	}
	if strings.TrimSpace(nType) == "" {
		return errors.New("notification type is required")
	}
	if strings.TrimSpace(title) == "" {
		return errors.New("notification title is required")
	}
	if len(title) > maxTitleLen {
		return fmt.Errorf("notification title exceeds maximum length of %d characters", maxTitleLen)
	}
	if message != nil && len(*message) > maxMessageLen {
		return fmt.Errorf("notification message exceeds maximum length of %d characters", maxMessageLen)
	}

	// Unknown types are stored anyway so new producers are not blocked
	if !validTypes[Type(nType)] {
		s.logger.Warn("unknown notification type",
			zap.String("type", nType), zap.String("user_id", userID.String()))
	}

	var dataJSON []byte
	if len(data) > 0 {
		b, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}
		if len(b) > maxDataBytes {
			return errors.New("notification data exceeds maximum size of 1MB")
		}
		dataJSON = b
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Errorf("generate notification id: %w", err)
	}

	return s.store.Insert(ctx, models.Notification{
		ID:        id,
		UserID:    userID,
		Type:      nType,
		Title:     title,
		Message:   message,
		Data:      dataJSON,
		CreatedAt: s.now().UTC(),
	})
}

// NotificationsHandler: HTTP endpoints (list / mark all read)
type NotificationsHandler struct {
	store  NotificationStore
	svc    NotificationsService
	logger *zap.Logger
}

func NewNotificationsHandler(store NotificationStore, logger *zap.Logger) *NotificationsHandler {
	return &NotificationsHandler{
		store:  store,
		svc:    NewNotificationsService(store, logger),
		logger: logger,
	}
}

func (h *NotificationsHandler) Service() NotificationsService { return h.svc }

// ListNotifications handles GET /api/notifications
// @Summary List notifications
// @Description List user notifications with filters and pagination.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unread_only query bool false "true|false (default false)"
// @Param type query string false "filter by type"
// @Param limit query int false "default 20 (max 100)"
// @Param offset query int false "default 0"
// @Success 200 {object} dto.NotificationsListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/notifications [get]
func (h *NotificationsHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.WriteErrorResponse(w, http.StatusMethodNotAllowed, "Method Not Allowed", "only GET is allowed")
		return
	}

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid user context")
		return
	}

	q := r.URL.Query()
	filter := repository.NotificationFilter{
		UnreadOnly: strings.EqualFold(q.Get("unread_only"), "true"),
		Type:       strings.TrimSpace(q.Get("type")),
		Limit:      20,
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid limit", "limit must be a positive integer")
			return
		}
		filter.Limit = min(n, 100)
	}

	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid offset", "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}

	if filter.Type != "" && !validTypes[Type(filter.Type)] {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid type", "invalid notification type")
		return
	}

	page, err := h.store.List(r.Context(), userID, filter)
	if err != nil {
		h.logger.Error("list notifications", zap.String("user_id", userID.String()), zap.Error(err))
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Database error", "Failed to fetch notifications")
		return
	}

	items := make([]dto.NotificationItem, 0, len(page.Items))
	for _, n := range page.Items {
		items = append(items, h.toItem(n))
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.NotificationsListResponse{
		Notifications: items,
		Pagination: dto.NotificationsPagination{
			Total:       page.Total,
			UnreadCount: page.Unread,
			Limit:       filter.Limit,
			Offset:      filter.Offset,
		},
	})
}

// MarkAllRead handles POST /api/notifications/read-all
// @Summary Mark all notifications as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MarkAllReadResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/notifications/read-all [post]
func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.WriteErrorResponse(w, http.StatusMethodNotAllowed, "Method Not Allowed", "only POST is allowed")
		return
	}

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid user context")
		return
	}

	updated, err := h.store.MarkAllRead(r.Context(), userID)
	if err != nil {
		h.logger.Error("mark all notifications read", zap.String("user_id", userID.String()), zap.Error(err))
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Database error", "Failed to update notifications")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.MarkAllReadResponse{
		Message: "All notifications marked as read",
		Updated: updated,
	})
}

func (h *NotificationsHandler) toItem(n models.Notification) dto.NotificationItem {
	item := dto.NotificationItem{
		ID:        n.ID.String(),
		Type:      n.Type,
		Title:     n.Title,
		Read:      n.Read,
		CreatedAt: utils.FormatTimestamp(n.CreatedAt),
	}
	if n.Message != nil {
		item.Message = *n.Message
	}
	if len(n.Data) > 0 && string(n.Data) != "null" {
		if err := json.Unmarshal(n.Data, &item.Data); err != nil {
			// Continue with empty data instead of failing
			h.logger.Warn("failed to unmarshal notification data",
				zap.String("notification_id", n.ID.String()), zap.Error(err))
			item.Data = nil
		}
	}
	return item
}
