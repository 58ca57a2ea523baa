package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/adewale-k/compliance-docs/constants"
	"github.com/adewale-k/compliance-docs/internal/common"
	"github.com/adewale-k/compliance-docs/internal/entity"
)

// InitRequest declares a pending upload to the registration service.
type InitRequest struct {
	ItemID       string
	Filename     string
	Size         int64
	DocumentType constants.DocumentType
}

// Registrar is the registration-service contract: issue a time-limited
// transfer handle, then finalize a completed transfer into a server-side
// document id.
type Registrar interface {
	InitUpload(ctx context.Context, req InitRequest) (entity.UploadHandle, error)
	ConfirmUpload(ctx context.Context, itemID string) (string, error)
}

// HTTPRegistrar talks to the registration backend over JSON/HTTP.
type HTTPRegistrar struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHTTPRegistrar(baseURL, token string) *HTTPRegistrar {
	return &HTTPRegistrar{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type initUploadRequest struct {
	ItemID   string `json:"item_id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Category string `json:"category"`
}

type initUploadResponse struct {
	Token     string    `json:"token"`
	ObjectKey string    `json:"object_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

type confirmUploadResponse struct {
	DocumentID string `json:"document_id"`
}

func (r *HTTPRegistrar) InitUpload(ctx context.Context, req InitRequest) (entity.UploadHandle, error) {
	body := initUploadRequest{
		ItemID:   req.ItemID,
		Filename: req.Filename,
		Size:     req.Size,
		Category: string(req.DocumentType),
	}
	var resp initUploadResponse
	if err := r.post(ctx, "/v1/uploads", req.ItemID, "initialize", body, &resp); err != nil {
		return entity.UploadHandle{}, err
	}
	return entity.UploadHandle{
		Token:     resp.Token,
		ObjectKey: resp.ObjectKey,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}

func (r *HTTPRegistrar) ConfirmUpload(ctx context.Context, itemID string) (string, error) {
	var resp confirmUploadResponse
	path := fmt.Sprintf("/v1/uploads/%s/confirm", itemID)
	if err := r.post(ctx, path, itemID, "confirm", struct{}{}, &resp); err != nil {
		return "", err
	}
	return resp.DocumentID, nil
}

func (r *HTTPRegistrar) post(ctx context.Context, path, itemID, phase string, payload, out any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return &common.RegistrationError{Phase: phase, ItemID: itemID, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &common.RegistrationError{Phase: phase, ItemID: itemID, Message: "read response", Cause: err}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := json.Unmarshal(body, out); err != nil {
			return &common.RegistrationError{Phase: phase, ItemID: itemID, Message: fmt.Sprintf("parse response: %s", string(body)), Cause: err}
		}
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// backend refused the declared input; retrying as-is cannot help
		return &common.RegistrationError{Phase: phase, ItemID: itemID, Rejected: true, Message: string(body)}
	default:
		return &common.RegistrationError{Phase: phase, ItemID: itemID, Message: fmt.Sprintf("status %d: %s", resp.StatusCode, string(body))}
	}
}
