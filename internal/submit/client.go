package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// Client sends completed workouts to the remote backend over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates an HTTP client for the remote backend.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// CreateLog POSTs the workout-log payload to the log-creation endpoint.
// Retries up to 3 times with exponential backoff on failure.
func (c *Client) CreateLog(ctx context.Context, payload models.WorkoutLogPayload) (*models.CreatedLog, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling log payload: %w", err)
	}

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(1<<uint(attempt-1)) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/api/v1/workout-logs", bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("creating log request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		c.setAuth(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
			var created models.CreatedLog
			if err := json.Unmarshal(body, &created); err != nil {
				return nil, fmt.Errorf("decoding created log: %w", err)
			}
			return &created, nil
		}
		lastErr = fmt.Errorf("log creation failed (status %d): %s", resp.StatusCode, body)
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}

// CreatePost shares a completed log on the social feed via multipart form
// data. Posting is best-effort: callers treat a failure as a warning, never
// as a reason to roll back the already-created log.
func (c *Client) CreatePost(ctx context.Context, content, workoutLogID string) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"content":        content,
		"post_type":      "workout_log",
		"workout_log_id": workoutLogID,
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return fmt.Errorf("building post form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("building post form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/posts", &buf)
	if err != nil {
		return fmt.Errorf("creating post request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("creating post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("post creation failed (status %d): %s", resp.StatusCode, body)
	}
	return nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}
