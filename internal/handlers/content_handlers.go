package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/keyu-storefront/internal/apperr"
	"github.com/01moynul/keyu-storefront/internal/middleware"
)

// Ping is the liveness probe.
func (h *Handlers) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// Terms serves the Terms of Service page at /terms.
func (h *Handlers) Terms(c *gin.Context) {
	body, err := h.TermsPage.HTML()
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}
