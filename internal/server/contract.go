package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	contractdomain "github.com/smallbiznis/solara/internal/contract/domain"
)

func (s *Server) ListContracts(c *gin.Context) {
	contracts, err := s.contractSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": contracts})
}

func (s *Server) CreateContract(c *gin.Context) {
	var req contractdomain.Contract
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	created, err := s.contractSvc.Create(c.Request.Context(), &req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": created})
}

func (s *Server) GetContractByID(c *gin.Context) {
	id, ok := parseContractID(c)
	if !ok {
		return
	}

	contract, err := s.contractSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": contract})
}

func (s *Server) UpdateContract(c *gin.Context) {
	id, ok := parseContractID(c)
	if !ok {
		return
	}

	var req contractdomain.Contract
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}
	req.ID = id

	updated, err := s.contractSvc.Update(c.Request.Context(), &req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": updated})
}

type capacityUpdateRequest struct {
	TotalMW   float64 `json:"total_mw"`
	SiteCount int     `json:"site_count"`
}

// UpdateContractCapacity stands in for the asset-monitoring sync: it writes
// the portfolio's measured MW and site count onto the contract.
func (s *Server) UpdateContractCapacity(c *gin.Context) {
	id, ok := parseContractID(c)
	if !ok {
		return
	}

	var req capacityUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}
	if req.TotalMW < 0 || req.SiteCount < 0 {
		AbortWithError(c, newValidationError("total_mw", "invalid_capacity", "capacity must not be negative"))
		return
	}

	updated, err := s.contractSvc.UpdateCapacity(c.Request.Context(), id, req.TotalMW, req.SiteCount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": updated})
}

func parseContractID(c *gin.Context) (snowflake.ID, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := snowflake.ParseString(raw)
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return 0, false
	}
	return id, true
}
