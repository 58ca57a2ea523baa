package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adewale-k/compliance-docs/constants"
	"github.com/adewale-k/compliance-docs/internal/metrics"
	"github.com/adewale-k/compliance-docs/internal/upload"
)

// uploadDocument drives one multipart file through the full upload
// protocol and responds with the terminal item.
func (s *Server) uploadDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	defer file.Close()

	docType, _ := constants.CanonicalizeDocumentType(c.PostForm("document_type"))

	item, err := s.orch.Submit(c.Request.Context(), upload.SubmitRequest{
		ID:           c.PostForm("item_id"),
		Filename:     header.Filename,
		Size:         header.Size,
		DocumentType: docType,
		Body:         file,
	})
	metrics.UploadsTotal.WithLabelValues(string(item.Status)).Inc()
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "item": item})
		return
	}
	c.JSON(http.StatusOK, item)
}

// uploadBatch fans a multipart file set out through independent uploads
// and always responds with the full aggregate, partial failures
// included.
func (s *Server) uploadBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	docType, _ := constants.CanonicalizeDocumentType(c.PostForm("document_type"))

	reqs := make([]upload.SubmitRequest, 0, len(files))
	var closers []func() error
	defer func() {
		for _, cl := range closers {
			_ = cl()
		}
	}()
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open " + fh.Filename})
			return
		}
		closers = append(closers, f.Close)
		reqs = append(reqs, upload.SubmitRequest{
			Filename:     fh.Filename,
			Size:         fh.Size,
			DocumentType: docType,
			Body:         f,
		})
	}

	result := s.coord.RunBatchUpload(c.Request.Context(), s.orch, reqs)
	metrics.BatchItemsTotal.WithLabelValues("succeeded").Add(float64(len(result.Succeeded)))
	metrics.BatchItemsTotal.WithLabelValues("failed").Add(float64(len(result.Failed)))
	c.JSON(http.StatusOK, result)
}

func (s *Server) getDocument(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	item, ok := s.orch.Items().Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) cancelDocument(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if !s.orch.Cancel(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no in-flight upload for id"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": id, "cancelling": true})
}
