package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"inventory-tracker/internal/model"
	"inventory-tracker/internal/parse"
)

const (
	loadPath    = "/api/machines"
	actionsPath = "/api/actions"
	maxBodySize = 8 << 20
)

// APIError is a non-success answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the inventory API over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type loadResponse struct {
	Machines []model.Machine `json:"machines"`
	Error    string          `json:"error"`
}

type actionResponse struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id"`
	Error   string `json:"error"`
}

// Load fetches the whole machine tree.
func (c *Client) Load(ctx context.Context) ([]model.Machine, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+loadPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var resp loadResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.Machines == nil {
		resp.Machines = []model.Machine{}
	}
	return resp.Machines, nil
}

// AddMachine creates a machine; parentID nil means top level.
func (c *Client) AddMachine(ctx context.Context, name string, parentID *int64) (int64, error) {
	payload := map[string]any{"action": "add_machine", "name": name}
	if parentID != nil {
		payload["parent_id"] = *parentID
	}
	return c.action(ctx, payload)
}

// EditMachine renames a machine.
func (c *Client) EditMachine(ctx context.Context, id int64, name string) error {
	_, err := c.action(ctx, map[string]any{"action": "edit_machine", "id": id, "name": name})
	return err
}

// DeleteMachine removes a machine and everything below it.
func (c *Client) DeleteMachine(ctx context.Context, id int64) error {
	_, err := c.action(ctx, map[string]any{"action": "delete_machine", "id": id})
	return err
}

// MoveMachine reorders a machine among its siblings.
func (c *Client) MoveMachine(ctx context.Context, id int64, position int) error {
	_, err := c.action(ctx, map[string]any{"action": "move_machine", "id": id, "position": position})
	return err
}

// AddPart creates a part on a machine.
func (c *Client) AddPart(ctx context.Context, machineID int64, in parse.PartInput) (int64, error) {
	return c.action(ctx, map[string]any{
		"action":     "add_part",
		"machine_id": machineID,
		"partNumber": in.PartNumber,
		"quantity":   in.Quantity,
		"location":   in.Location,
	})
}

// EditPart overwrites a part's fields.
func (c *Client) EditPart(ctx context.Context, id int64, in parse.PartInput) error {
	_, err := c.action(ctx, map[string]any{
		"action":     "edit_part",
		"id":         id,
		"partNumber": in.PartNumber,
		"quantity":   in.Quantity,
		"location":   in.Location,
	})
	return err
}

// DeletePart removes a part.
func (c *Client) DeletePart(ctx context.Context, id int64) error {
	_, err := c.action(ctx, map[string]any{"action": "delete_part", "id": id})
	return err
}

// MovePart reorders a part within its machine.
func (c *Client) MovePart(ctx context.Context, id int64, position int) error {
	_, err := c.action(ctx, map[string]any{"action": "move_part", "id": id, "position": position})
	return err
}

func (c *Client) action(ctx context.Context, payload map[string]any) (int64, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+actionsPath, bytes.NewReader(jsonBody))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp actionResponse
	if err := c.do(req, &resp); err != nil {
		return 0, err
	}
	if !resp.Success {
		return 0, &APIError{StatusCode: http.StatusOK, Message: "request was not acknowledged"}
	}
	return resp.ID, nil
}

// do sends req and decodes the JSON answer into out. Non-2xx answers become
// an *APIError carrying the server's message.
func (c *Client) do(req *http.Request, out any) error {
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	c.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Str("request_id", requestID).
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal api response: %w", err)
	}
	return nil
}
