package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetCatalog(c *gin.Context) {
	snapshot := s.catalogSvc.Snapshot()
	if snapshot == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"packages":            snapshot.Packages,
		"modules":             snapshot.Modules,
		"addons":              snapshot.Addons,
		"minimum_charges":     snapshot.MinimumCharges,
		"portfolio_discounts": snapshot.PortfolioDiscounts,
		"account_mapping":     snapshot.AccountMapping,
	}})
}

// ReloadCatalog rebuilds the in-memory snapshot from the database. A snapshot
// that fails validation is rejected and the previous one stays live.
func (s *Server) ReloadCatalog(c *gin.Context) {
	if err := s.catalogSvc.Reload(c.Request.Context()); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "reloaded"})
}
