// Package client talks to the availability REST backend on behalf of the
// grid editor.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"PEERMATCH_BACK-END/internal/availability"
	"PEERMATCH_BACK-END/internal/dto"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response from the backend
type APIError struct {
	StatusCode int
	Reason     string // "error" field of the response body
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("backend returned %d: %s: %s", e.StatusCode, e.Reason, e.Message)
}

// Client calls the availability endpoints with the identity provider's
// bearer token.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// Option configures a Client
type Option func(*options)

type options struct {
	transport http.RoundTripper
	timeout   time.Duration
	logger    *zap.Logger
}

// WithTransport sets the transport under the bearer token layer
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New returns a client for the backend at baseURL. Tokens are taken from ts
// and reused until they expire.
func New(baseURL string, ts oauth2.TokenSource, opts ...Option) *Client {
	o := options{timeout: defaultTimeout, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: &oauth2.Transport{
				Source: oauth2.ReuseTokenSource(nil, ts),
				Base:   o.transport,
			},
			Timeout: o.timeout,
		},
		logger: o.logger,
	}
}

// ListAvailability returns the stored ranges of userID. uuid.Nil means the
// token's own user.
func (c *Client) ListAvailability(ctx context.Context, userID uuid.UUID) ([]availability.TimeRange, error) {
	path := "/api/availability"
	if userID != uuid.Nil {
		path += "?" + url.Values{"user_id": {userID.String()}}.Encode()
	}

	var resp dto.AvailabilityListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	ranges := make([]availability.TimeRange, 0, len(resp.Availability))
	for i, item := range resp.Availability {
		r, err := item.TimeRange()
		if err != nil {
			return nil, fmt.Errorf("availability item %d: %w", i, err)
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// DeleteAvailability removes every stored block inside any of ranges
func (c *Client) DeleteAvailability(ctx context.Context, userID uuid.UUID, ranges []availability.TimeRange) error {
	req := dto.DeleteAvailabilityRequest{
		UserID: userIDParam(userID),
		Delete: dto.NewAvailabilityItems(ranges),
	}
	return c.do(ctx, http.MethodDelete, "/api/availability", req, nil)
}

// CreateAvailability stores ranges for userID
func (c *Client) CreateAvailability(ctx context.Context, userID uuid.UUID, ranges []availability.TimeRange) error {
	req := dto.CreateAvailabilityRequest{
		UserID:         userIDParam(userID),
		AvailableTimes: dto.NewAvailabilityItems(ranges),
	}
	return c.do(ctx, http.MethodPost, "/api/availability", req, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body dto.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil && body.Error != "" {
		apiErr.Reason = body.Error
		apiErr.Message = body.Message
	} else {
		apiErr.Reason = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func userIDParam(userID uuid.UUID) string {
	if userID == uuid.Nil {
		return ""
	}
	return userID.String()
}
