package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	revenuedomain "github.com/smallbiznis/solara/internal/revenue/domain"
)

type upsertRevenueLinesRequest struct {
	Lines []revenuedomain.RevenueLine `json:"lines"`
}

// UpsertRevenueLines ingests a batch of invoice lines synced from the
// accounting platform. Re-posting the same (invoice_ref, label) pair updates
// the stored line instead of duplicating it.
func (s *Server) UpsertRevenueLines(c *gin.Context) {
	var req upsertRevenueLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	stored, err := s.revenueSvc.UpsertLines(c.Request.Context(), req.Lines)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"stored": stored}})
}

func (s *Server) ListRevenueLines(c *gin.Context) {
	lines, err := s.revenueSvc.ListLines(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": lines})
}

func (s *Server) GetRevenueReport(c *gin.Context) {
	report, err := s.revenueSvc.Report(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

// GetRevenueProjection walks active contracts forward and returns expected
// EUR revenue per month. The horizon defaults to 12 months.
func (s *Server) GetRevenueProjection(c *gin.Context) {
	months := 12
	if raw := c.Query("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 60 {
			AbortWithError(c, newValidationError("months", "invalid_months", "months must be between 1 and 60"))
			return
		}
		months = parsed
	}

	projection, err := s.scheduler.ProjectRevenue(c.Request.Context(), months)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": projection})
}

// RunScheduler triggers one pass over due contracts, outside of the periodic
// loop. Useful for backfills and tests against a live environment.
func (s *Server) RunScheduler(c *gin.Context) {
	generated, err := s.scheduler.RunDueInvoices(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"generated": generated}})
}
