package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adewale-k/compliance-docs/constants"
	"github.com/adewale-k/compliance-docs/internal/metrics"
	"github.com/adewale-k/compliance-docs/internal/review"
)

// processDocument submits a confirmed document for extraction and blocks
// until the job is terminal or the poll budget runs out. Timeout is not
// failure: the response carries the job id for a later retry.
func (s *Server) processDocument(c *gin.Context) {
	docID := strings.TrimSpace(c.Param("id"))
	item, ok := s.orch.Items().Get(docID)

	serverDocID := docID
	docType := constants.Unknown
	if ok {
		// callers may address by upload item id once confirmed
		if item.ServerDocumentID == "" {
			c.JSON(http.StatusConflict, gin.H{"error": "document upload not complete"})
			return
		}
		serverDocID = item.ServerDocumentID
		docType = item.DocumentType
	}
	if qt := c.Query("document_type"); qt != "" {
		docType, _ = constants.CanonicalizeDocumentType(qt)
	}

	jobID, err := s.machine.Process(c.Request.Context(), serverDocID, docType)
	state, _ := s.machine.State(jobID)
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues("error").Inc()
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "job_id": jobID, "state": state})
		return
	}
	metrics.ExtractionsTotal.WithLabelValues(strings.ToLower(string(state))).Inc()
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "state": state})
}

func (s *Server) getJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job id must be a UUID"})
		return
	}
	state, err := s.machine.State(jobID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "state": state})
}

func (s *Server) getJobFields(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job id must be a UUID"})
		return
	}
	fields, err := s.machine.Fields(jobID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "fields": fields})
}

type editRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

func (s *Server) editJobField(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job id must be a UUID"})
		return
	}
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.machine.Edit(jobID, req.Key, req.Value); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "edited": req.Key})
}

type approveRequest struct {
	Override bool `json:"override"`
}

func (s *Server) approveJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job id must be a UUID"})
		return
	}
	var req approveRequest
	_ = c.ShouldBindJSON(&req) // body optional

	decision, suggestions, err := s.machine.Approve(c.Request.Context(), jobID, review.ApproveOptions{Override: req.Override})
	if err != nil {
		abortWithError(c, err)
		return
	}
	metrics.ReviewsTotal.WithLabelValues("approved").Inc()
	c.JSON(http.StatusOK, gin.H{"decision": decision, "suggestions": suggestions})
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (s *Server) rejectJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job id must be a UUID"})
		return
	}
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}
	decision, err := s.machine.Reject(c.Request.Context(), jobID, req.Reason)
	if err != nil {
		abortWithError(c, err)
		return
	}
	metrics.ReviewsTotal.WithLabelValues("rejected").Inc()
	c.JSON(http.StatusOK, gin.H{"decision": decision})
}

func (s *Server) retryJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job id must be a UUID"})
		return
	}
	newJobID, err := s.machine.Retry(c.Request.Context(), jobID)
	if err != nil {
		state, _ := s.machine.State(newJobID)
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "job_id": newJobID, "state": state})
		return
	}
	state, _ := s.machine.State(newJobID)
	c.JSON(http.StatusOK, gin.H{"job_id": newJobID, "state": state})
}
