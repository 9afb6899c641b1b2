package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

// apiClient calls the piercedocs HTTP API.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	poll    time.Duration
}

func newAPIClient(baseURL, apiKey string) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 120 * time.Second},
		poll:    2 * time.Second,
	}
}

// do sends a request and decodes a 2xx body into out. Error bodies become
// "[CODE] message" errors.
func (c *apiClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var e models.ErrorResponse
		if json.Unmarshal(raw, &e) == nil && e.Error != nil {
			return fmt.Errorf("[%s] %s", e.Error.Code, e.Error.Message)
		}
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// waitForJob polls a job until it is terminal or ctx ends.
func (c *apiClient) waitForJob(ctx context.Context, id string) (models.Job, error) {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		var resp models.JobResponse
		if err := c.do(ctx, http.MethodGet, "/api/v1/jobs/"+id, nil, &resp); err != nil {
			return models.Job{}, err
		}
		if resp.Job.State.Terminal() {
			return resp.Job, nil
		}

		select {
		case <-ctx.Done():
			return resp.Job, ctx.Err()
		case <-ticker.C:
		}
	}
}
