package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
)

// HTTPClient implements DataSource by calling the LiftLog REST API. Used for
// remote MCP mode where the binary runs locally (stdio) but the session
// engine lives on the server.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. The API
// key is required for the mutating tools.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("httpclient: marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("httpclient: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("httpclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("httpclient: read response: %w", err)
	}
	return data, resp.StatusCode, nil
}

func (c *HTTPClient) session(data []byte, status int) (*models.ActiveWorkoutSession, error) {
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("httpclient: status %d: %s", status, data)
	}
	var out models.ActiveWorkoutSession
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("httpclient: decode session: %w", err)
	}
	return &out, nil
}

func (c *HTTPClient) ActiveSession(ctx context.Context) (*models.ActiveWorkoutSession, error) {
	data, status, err := c.do(ctx, http.MethodGet, "/api/v1/session", nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	return c.session(data, status)
}

func (c *HTTPClient) History(ctx context.Context) ([]models.HistoryEntry, error) {
	data, status, err := c.do(ctx, http.MethodGet, "/api/v1/history", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("httpclient: status %d: %s", status, data)
	}
	var entries []models.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("httpclient: decode history: %w", err)
	}
	return entries, nil
}

func (c *HTTPClient) StartWorkout(ctx context.Context, opts session.StartOptions) (*models.ActiveWorkoutSession, error) {
	data, status, err := c.do(ctx, http.MethodPost, "/api/v1/session/start", opts)
	if err != nil {
		return nil, err
	}
	return c.session(data, status)
}

func (c *HTTPClient) AddExercise(ctx context.Context, ex models.Exercise) (*models.ActiveWorkoutSession, error) {
	body := map[string]any{"exercise": ex}
	data, status, err := c.do(ctx, http.MethodPost, "/api/v1/session/exercises", body)
	if err != nil {
		return nil, err
	}
	return c.session(data, status)
}

func (c *HTTPClient) CompleteSet(ctx context.Context, index, setIndex int) (*models.ActiveWorkoutSession, error) {
	path := fmt.Sprintf("/api/v1/session/exercises/%d/sets/%d/complete", index, setIndex)
	data, status, err := c.do(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}
	return c.session(data, status)
}

func (c *HTTPClient) EndWorkout(ctx context.Context) error {
	data, status, err := c.do(ctx, http.MethodDelete, "/api/v1/session", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("httpclient: status %d: %s", status, data)
	}
	return nil
}
