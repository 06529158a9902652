package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListExchangeRates(c *gin.Context) {
	rates, err := s.currencySvc.ListRates(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rates})
}

type upsertRateRequest struct {
	RatePerEUR float64 `json:"rate_per_eur"`
}

func (s *Server) UpsertExchangeRate(c *gin.Context) {
	currency := strings.ToUpper(strings.TrimSpace(c.Param("currency")))
	if len(currency) != 3 {
		AbortWithError(c, newValidationError("currency", "invalid_currency", "expected ISO 4217 code"))
		return
	}

	var req upsertRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	rate, err := s.currencySvc.UpsertRate(c.Request.Context(), currency, req.RatePerEUR)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rate})
}
