package scoregen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/hiscore/internal/domain/model"
)

const duplicateMessage = "Duplicate score submission"

// Client talks to the score API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Health fetches GET /healthz.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	status, body, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return h, err
	}
	if status != http.StatusOK {
		return h, fmt.Errorf("health check returned status %d", status)
	}
	if err := json.Unmarshal(body, &h); err != nil {
		return h, fmt.Errorf("decode health: %w", err)
	}
	return h, nil
}

// Submit posts one score and classifies the answer. The record is set only
// for OutcomeCreated.
func (c *Client) Submit(ctx context.Context, s Submission) (Outcome, *model.ScoreRecord, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/api/scores", s)
	if err != nil {
		return OutcomeFailed, nil, err
	}

	switch status {
	case http.StatusCreated:
		var rec model.ScoreRecord
		if err := json.Unmarshal(body, &rec); err != nil {
			return OutcomeFailed, nil, fmt.Errorf("decode record: %w", err)
		}
		return OutcomeCreated, &rec, nil
	case http.StatusOK:
		return OutcomeOffline, nil, nil
	case http.StatusBadRequest:
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error == duplicateMessage {
			return OutcomeDuplicate, nil, nil
		}
		return OutcomeFailed, nil, fmt.Errorf("rejected: %s", bytes.TrimSpace(body))
	default:
		return OutcomeFailed, nil, fmt.Errorf("unexpected status %d", status)
	}
}

// Leaderboard fetches GET /api/scores?limit=n.
func (c *Client) Leaderboard(ctx context.Context, n int) ([]model.ScoreRecord, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/api/scores?limit="+strconv.Itoa(n), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("leaderboard returned status %d", status)
	}
	var out []model.ScoreRecord
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode leaderboard: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil && !errors.Is(err, io.EOF) {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, data, nil
}
