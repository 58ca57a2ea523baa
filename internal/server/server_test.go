package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adewale-k/compliance-docs/constants"
	"github.com/adewale-k/compliance-docs/internal/batch"
	"github.com/adewale-k/compliance-docs/internal/entity"
	"github.com/adewale-k/compliance-docs/internal/export"
	"github.com/adewale-k/compliance-docs/internal/extraction"
	"github.com/adewale-k/compliance-docs/internal/repository"
	"github.com/adewale-k/compliance-docs/internal/review"
	"github.com/adewale-k/compliance-docs/internal/store"
	"github.com/adewale-k/compliance-docs/internal/upload"
)

type stubRegistrar struct{}

func (stubRegistrar) InitUpload(ctx context.Context, req upload.InitRequest) (entity.UploadHandle, error) {
	return entity.UploadHandle{Token: "t", ObjectKey: "k/" + req.ItemID, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (stubRegistrar) ConfirmUpload(ctx context.Context, itemID string) (string, error) {
	return "doc-" + itemID, nil
}

type stubChannel struct{}

func (stubChannel) Transfer(ctx context.Context, handle entity.UploadHandle, r io.Reader, size int64, contentType string, progress upload.ProgressFunc) error {
	_, err := io.Copy(io.Discard, r)
	if progress != nil {
		progress(100)
	}
	return err
}

// stubRunner hands every document a requires-review extraction.
type stubRunner struct {
	state constants.JobState
}

func (f *stubRunner) SubmitAndAwait(ctx context.Context, serverDocumentID string, cfg extraction.PollConfig) (entity.ExtractJob, error) {
	return entity.ExtractJob{
		ID:               uuid.New(),
		RemoteJobID:      "remote-1",
		ServerDocumentID: serverDocumentID,
		State:            f.state,
		Result: &entity.ExtractionResult{Fields: []entity.ExtractedField{
			{Key: "Business Name", Value: "Acme Holdings LLC", Confidence: 95},
			{Key: "Owner Name", Value: "Dana Reyes", Confidence: 40},
		}},
		StartedAt: time.Now(),
	}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, runner review.JobRunner) *gin.Engine {
	t.Helper()

	db, err := repository.OpenSQLite(t.TempDir()+"/test.db", testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repository.Migrate(context.Background(), db))

	decisions := repository.NewDecisionRepository(db, nil)
	profiles := repository.NewProfileRepository(db, nil)

	orch := upload.NewOrchestrator(stubRegistrar{}, stubChannel{}, store.NewItemStore(), constants.DefaultMaxUploadBytes, nil)
	coord := batch.NewCoordinator(nil, batch.WithConcurrency(2))
	machine := review.NewMachine(runner, decisions, nil, review.Thresholds{High: 90, Medium: 60}, extraction.PollConfig{MaxAttempts: 3, Interval: time.Millisecond}, nil)
	exporter := export.NewService(decisions, nil)

	return New(orch, coord, machine, exporter, profiles, nil).Router()
}

func multipartFile(t *testing.T, field, filename, content string, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range extra {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r := newTestServer(t, &stubRunner{state: constants.JobCompleted})
	w := doJSON(r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUploadDocument(t *testing.T) {
	r := newTestServer(t, &stubRunner{state: constants.JobCompleted})

	body, ct := multipartFile(t, "file", "certificate.pdf", "pdf bytes", map[string]string{
		"item_id":       "item-1",
		"document_type": "cert",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var item entity.UploadItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, constants.UploadComplete, item.Status)
	assert.Equal(t, "doc-item-1", item.ServerDocumentID)
	assert.Equal(t, constants.Certification, item.DocumentType)

	// readable back by id
	w = doJSON(r, http.MethodGet, "/v1/documents/item-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUploadDocumentBadExtension(t *testing.T) {
	r := newTestServer(t, &stubRunner{state: constants.JobCompleted})

	body, ct := multipartFile(t, "file", "malware.exe", "x", nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDocumentNotFound(t *testing.T) {
	r := newTestServer(t, &stubRunner{state: constants.JobCompleted})
	w := doJSON(r, http.MethodGet, "/v1/documents/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadBatchPartialFailure(t *testing.T) {
	r := newTestServer(t, &stubRunner{state: constants.JobCompleted})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, name := range []string{"a.pdf", "b.exe", "c.png"} {
		fw, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("content"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/batch", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result entity.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 3, result.Total)
	assert.Len(t, result.Succeeded, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Failed[0].Index)
}

func TestReviewFlowOverHTTP(t *testing.T) {
	r := newTestServer(t, &stubRunner{state: constants.JobRequiresReview})

	// upload
	body, ct := multipartFile(t, "file", "certificate.pdf", "pdf bytes", map[string]string{
		"item_id":       "item-1",
		"document_type": "Certification",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// process by upload item id
	w = doJSON(r, http.MethodPost, "/v1/documents/item-1/process", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var proc struct {
		JobID string `json:"job_id"`
		State string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &proc))
	assert.Equal(t, string(constants.ReviewRequiresReview), proc.State)

	// fields carry tiers
	w = doJSON(r, http.MethodGet, "/v1/jobs/"+proc.JobID+"/fields", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"LOW"`)

	// approval without edits or override is refused
	w = doJSON(r, http.MethodPost, "/v1/jobs/"+proc.JobID+"/approve", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// one edit unlocks approval
	w = doJSON(r, http.MethodPost, "/v1/jobs/"+proc.JobID+"/edit", map[string]string{"key": "Owner Name", "value": "Dana M. Reyes"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodPost, "/v1/jobs/"+proc.JobID+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "suggestions")

	// approved state visible
	w = doJSON(r, http.MethodGet, "/v1/jobs/"+proc.JobID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(constants.ReviewApproved))

	// decisions export now has one row
	w = doJSON(r, http.MethodGet, "/v1/export/decisions.xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
}

func TestRejectRequiresReason(t *testing.T) {
	r := newTestServer(t, &stubRunner{state: constants.JobCompleted})

	w := doJSON(r, http.MethodPost, "/v1/documents/doc-raw/process", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var proc struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &proc))

	w = doJSON(r, http.MethodPost, "/v1/jobs/"+proc.JobID+"/reject", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/v1/jobs/"+proc.JobID+"/reject", map[string]string{"reason": "wrong document"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestJobNotFound(t *testing.T) {
	r := newTestServer(t, &stubRunner{state: constants.JobCompleted})

	w := doJSON(r, http.MethodGet, "/v1/jobs/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/v1/jobs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportProfilesCSV(t *testing.T) {
	r := newTestServer(t, &stubRunner{state: constants.JobCompleted})

	var csv strings.Builder
	csv.WriteString("legal_name,owner_name,address,city,state,zip,certified_on\n")
	for i := 1; i <= 3; i++ {
		zip := "73301"
		if i == 2 {
			zip = "bad"
		}
		fmt.Fprintf(&csv, "Company %d,Owner %d,%d Main St,Austin,TX,%s,2024-05-02\n", i, i, i, zip)
	}

	body, ct := multipartFile(t, "file", "profiles.csv", csv.String(), nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/profiles/import", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result entity.BatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 3, result.Total)
	assert.Len(t, result.Succeeded, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "Company 2", result.Failed[0].Key)
}

func TestExportRejectsBadDates(t *testing.T) {
	r := newTestServer(t, &stubRunner{state: constants.JobCompleted})
	w := doJSON(r, http.MethodGet, "/v1/export/decisions.xlsx?from=03-02-2026", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
