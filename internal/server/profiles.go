package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adewale-k/compliance-docs/internal/batch"
	"github.com/adewale-k/compliance-docs/internal/entity"
	"github.com/adewale-k/compliance-docs/internal/metrics"
)

// importProfiles ingests a CSV of profiles. Every row is validated
// before its create is attempted; the response is the full per-row
// aggregate so partial success is never mistaken for either extreme.
func (s *Server) importProfiles(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	defer file.Close()

	result, err := s.coord.ImportCSV(c.Request.Context(), file, s.createProfileRow)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	metrics.BatchItemsTotal.WithLabelValues("succeeded").Add(float64(len(result.Succeeded)))
	metrics.BatchItemsTotal.WithLabelValues("failed").Add(float64(len(result.Failed)))
	c.JSON(http.StatusOK, result)
}

func (s *Server) createProfileRow(ctx context.Context, row batch.ProfileRow) (string, error) {
	owner := row.OwnerName
	addr := row.Address + ", " + row.City + ", " + row.State + " " + row.Zip
	p, err := s.profiles.CreateProfile(ctx, entity.Profile{
		LegalName: row.LegalName,
		OwnerName: &owner,
		Address:   &addr,
	})
	if err != nil {
		return "", err
	}
	return p.ID.String(), nil
}

// exportDecisions streams the decision workbook for a date window.
func (s *Server) exportDecisions(c *gin.Context) {
	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return
		}
		from = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
			return
		}
		to = &t
	}

	data, err := s.exporter.ExportDecisionsXLSX(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="decisions.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
