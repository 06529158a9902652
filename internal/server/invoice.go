package server

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	pricingdomain "github.com/smallbiznis/solara/internal/pricing/domain"
	"github.com/smallbiznis/solara/pkg/db/pagination"
)

// GenerateInvoice composes and persists an invoice for the contract. An
// optional `at` query (RFC 3339) sets the billing instant; it defaults to now.
func (s *Server) GenerateInvoice(c *gin.Context) {
	id, ok := parseContractID(c)
	if !ok {
		return
	}

	at := time.Now().UTC()
	if raw := strings.TrimSpace(c.Query("at")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("at", "invalid_timestamp", "expected RFC 3339 timestamp"))
			return
		}
		at = parsed.UTC()
	}

	inv, err := s.invoiceSvc.Generate(c.Request.Context(), id, at)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": inv})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	invoices, info, err := s.invoiceSvc.List(c.Request.Context(), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoices, "page_info": info})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id, ok := parseInvoiceID(c)
	if !ok {
		return
	}

	inv, err := s.invoiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": inv})
}

func (s *Server) RenderInvoicePDF(c *gin.Context) {
	id, ok := parseInvoiceID(c)
	if !ok {
		return
	}

	reader, err := s.invoiceSvc.RenderPDF(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	payload, err := io.ReadAll(reader)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/pdf", payload)
}

// PreviewCalculation runs the composer on the posted configuration without
// touching any contract or invoice row.
func (s *Server) PreviewCalculation(c *gin.Context) {
	var req pricingdomain.CalculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	result, err := s.invoiceSvc.Preview(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func parseInvoiceID(c *gin.Context) (snowflake.ID, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := snowflake.ParseString(raw)
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return 0, false
	}
	return id, true
}
