package upload

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adewale-k/compliance-docs/constants"
	"github.com/adewale-k/compliance-docs/internal/common"
)

func TestInitUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/uploads", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "item-1", body["item_id"])
		assert.Equal(t, "Certification", body["category"])

		json.NewEncoder(w).Encode(map[string]any{
			"token":      "tok-1",
			"object_key": "uploads/item-1/scan.pdf",
			"expires_at": time.Now().Add(time.Hour).Format(time.RFC3339),
		})
	}))
	defer srv.Close()

	reg := NewHTTPRegistrar(srv.URL, "secret")
	handle, err := reg.InitUpload(context.Background(), InitRequest{
		ItemID:       "item-1",
		Filename:     "scan.pdf",
		Size:         1024,
		DocumentType: constants.Certification,
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", handle.Token)
	assert.Equal(t, "uploads/item-1/scan.pdf", handle.ObjectKey)
	assert.False(t, handle.Expired(time.Now()))
}

func TestInitUploadRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "size exceeds plan limit", http.StatusBadRequest)
	}))
	defer srv.Close()

	reg := NewHTTPRegistrar(srv.URL, "")
	_, err := reg.InitUpload(context.Background(), InitRequest{ItemID: "item-1", Filename: "scan.pdf", Size: 1})

	var regErr *common.RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.True(t, regErr.Rejected)
	assert.Equal(t, "initialize", regErr.Phase)
	assert.False(t, common.Retryable(err))
}

func TestInitUploadTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	reg := NewHTTPRegistrar(srv.URL, "")
	_, err := reg.InitUpload(context.Background(), InitRequest{ItemID: "item-1", Filename: "scan.pdf", Size: 1})

	var regErr *common.RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.False(t, regErr.Rejected)
	assert.True(t, common.Retryable(err))
}

func TestConfirmUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/uploads/item-1/confirm", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"document_id": "doc-42"})
	}))
	defer srv.Close()

	reg := NewHTTPRegistrar(srv.URL, "")
	docID, err := reg.ConfirmUpload(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-42", docID)
}

func TestRegistrarNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	reg := NewHTTPRegistrar(srv.URL, "")
	_, err := reg.ConfirmUpload(context.Background(), "item-1")

	var regErr *common.RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.False(t, regErr.Rejected)
}
