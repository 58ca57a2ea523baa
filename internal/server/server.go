// Package server exposes the ingestion and review pipeline over HTTP.
package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adewale-k/compliance-docs/internal/batch"
	"github.com/adewale-k/compliance-docs/internal/common"
	"github.com/adewale-k/compliance-docs/internal/export"
	"github.com/adewale-k/compliance-docs/internal/repository"
	"github.com/adewale-k/compliance-docs/internal/review"
	"github.com/adewale-k/compliance-docs/internal/upload"
)

type Server struct {
	orch     *upload.Orchestrator
	coord    *batch.Coordinator
	machine  *review.Machine
	exporter *export.Service
	profiles repository.ProfileRepository
	logger   *slog.Logger
}

func New(orch *upload.Orchestrator, coord *batch.Coordinator, machine *review.Machine, exporter *export.Service, profiles repository.ProfileRepository, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		orch:     orch,
		coord:    coord,
		machine:  machine,
		exporter: exporter,
		profiles: profiles,
		logger:   logger,
	}
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/documents", s.uploadDocument)
		v1.POST("/documents/batch", s.uploadBatch)
		v1.GET("/documents/:id", s.getDocument)
		v1.POST("/documents/:id/cancel", s.cancelDocument)
		v1.POST("/documents/:id/process", s.processDocument)

		v1.GET("/jobs/:id", s.getJob)
		v1.GET("/jobs/:id/fields", s.getJobFields)
		v1.POST("/jobs/:id/edit", s.editJobField)
		v1.POST("/jobs/:id/approve", s.approveJob)
		v1.POST("/jobs/:id/reject", s.rejectJob)
		v1.POST("/jobs/:id/retry", s.retryJob)

		v1.POST("/profiles/import", s.importProfiles)
		v1.GET("/export/decisions.xlsx", s.exportDecisions)
	}
	return r
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		valErr     *common.ValidationError
		regErr     *common.RegistrationError
		transErr   *common.TransferError
		timeoutErr *common.ExtractionTimeoutError
		failErr    *common.ExtractionFailedError
		policyErr  *common.ReviewPolicyError
	)
	switch {
	case errors.As(err, &valErr), errors.As(err, &policyErr):
		return http.StatusBadRequest
	case errors.As(err, &regErr):
		if regErr.Rejected {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadGateway
	case errors.As(err, &transErr), errors.As(err, &failErr):
		return http.StatusBadGateway
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
