// Package extraction talks to the external recognition service and runs
// the bounded polling cycle that turns a stored document into a field
// set for review.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/adewale-k/compliance-docs/constants"
	"github.com/adewale-k/compliance-docs/internal/entity"
)

// PollResponse is one status snapshot of a remote extraction job.
type PollResponse struct {
	State        constants.JobState
	Fields       []entity.ExtractedField
	RawText      string
	ErrorMessage string
}

// Service is the extraction-service contract.
type Service interface {
	SubmitJob(ctx context.Context, serverDocumentID string) (string, error)
	PollJob(ctx context.Context, remoteJobID string) (PollResponse, error)
}

// HTTPClient is the JSON/HTTP extraction client. A shared rate limiter
// caps poll traffic across all concurrent jobs.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewHTTPClient(baseURL, token string, requestTimeout time.Duration, pollRate float64) *HTTPClient {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	if pollRate <= 0 {
		pollRate = 10
	}
	return &HTTPClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(pollRate), 1),
	}
}

type submitJobRequest struct {
	DocumentID string `json:"document_id"`
}

type submitJobResponse struct {
	JobID string `json:"job_id"`
}

type pollJobResponse struct {
	State    string `json:"state"` // pending, processing, completed, failed, requires_review
	ErrorMsg string `json:"error_msg,omitempty"`
	RawText  string `json:"raw_text,omitempty"`
	Fields   []struct {
		Key        string  `json:"key"`
		Value      string  `json:"value"`
		Confidence float64 `json:"confidence"`
		Page       int     `json:"page,omitempty"`
	} `json:"fields,omitempty"`
}

func (c *HTTPClient) SubmitJob(ctx context.Context, serverDocumentID string) (string, error) {
	jsonData, err := json.Marshal(submitJobRequest{DocumentID: serverDocumentID})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/extract/jobs", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit job: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("submit job: status %d: %s", resp.StatusCode, string(body))
	}

	var result submitJobResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse response: %w, body: %s", err, string(body))
	}
	if result.JobID == "" {
		return "", fmt.Errorf("submit job: empty job id in response")
	}
	return result.JobID, nil
}

func (c *HTTPClient) PollJob(ctx context.Context, remoteJobID string) (PollResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return PollResponse{}, err
	}

	url := fmt.Sprintf("%s/v1/extract/jobs/%s", c.baseURL, remoteJobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return PollResponse{}, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return PollResponse{}, fmt.Errorf("poll job: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return PollResponse{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return PollResponse{}, fmt.Errorf("poll job: status %d: %s", resp.StatusCode, string(body))
	}

	var raw pollJobResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return PollResponse{}, fmt.Errorf("parse response: %w", err)
	}

	out := PollResponse{
		State:        mapState(raw.State),
		RawText:      raw.RawText,
		ErrorMessage: raw.ErrorMsg,
	}
	for _, f := range raw.Fields {
		out.Fields = append(out.Fields, entity.ExtractedField{
			Key:        f.Key,
			Value:      f.Value,
			Confidence: f.Confidence,
			Page:       f.Page,
		})
	}
	return out, nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func mapState(s string) constants.JobState {
	switch strings.ToLower(s) {
	case "pending":
		return constants.JobPending
	case "processing", "running":
		return constants.JobProcessing
	case "completed", "done":
		return constants.JobCompleted
	case "failed":
		return constants.JobFailed
	case "requires_review":
		return constants.JobRequiresReview
	default:
		return constants.JobProcessing
	}
}
