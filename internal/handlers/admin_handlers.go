package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/keyu-storefront/internal/ai"
	"github.com/01moynul/keyu-storefront/internal/apperr"
	"github.com/01moynul/keyu-storefront/internal/auth"
	"github.com/01moynul/keyu-storefront/internal/flash"
	"github.com/01moynul/keyu-storefront/internal/middleware"
	"github.com/01moynul/keyu-storefront/internal/models"
	"github.com/01moynul/keyu-storefront/internal/store"
)

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// errSignInDisabled answers admin sign-in when no session manager is wired.
var errSignInDisabled = apperr.UnavailableErr("Admin sign-in is not configured", nil)

// AdminLogin handles POST /v1/admin/login
func (h *Handlers) AdminLogin(c *gin.Context) {
	if h.Session == nil || h.Credential == nil {
		middleware.Fail(c, errSignInDisabled)
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, bindError(err, &req))
		return
	}

	if err := h.Credential.Verify(req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger().Warn("admin login rejected", "op", "handlers.AdminLogin",
				"request_id", middleware.GetRequestID(c))
			middleware.Fail(c, apperr.UnauthorizedErr("Invalid password"))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	token, err := h.Session.SetAdminSession(c, true)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"admin": true, "token": token})
}

// AdminLogout handles POST /v1/admin/logout. From an admin session it
// revokes every issued token, so Bearer copies of the login token stop
// working too.
func (h *Handlers) AdminLogout(c *gin.Context) {
	if h.Session == nil {
		middleware.Fail(c, errSignInDisabled)
		return
	}
	_, _ = h.Session.SetAdminSession(c, false)
	c.JSON(http.StatusOK, gin.H{"admin": false})
}

// AdminSession handles GET /v1/admin/session. It never fails; callers use it
// to decide whether to show the login form.
func (h *Handlers) AdminSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"admin": middleware.IsAdminSession(c)})
}

// AdminListProducts handles GET /v1/admin/products: the whole catalog,
// newest first, unpaginated.
func (h *Handlers) AdminListProducts(c *gin.Context) {
	snap, err := h.Catalog.Load(c.Request.Context())
	if err != nil {
		middleware.Fail(c, apperr.UnavailableErr("Catalog is temporarily unavailable", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products":   toProductResponses(snap.Products),
		"generation": snap.Generation,
	})
}

// CreateProduct handles POST /v1/admin/products
func (h *Handlers) CreateProduct(c *gin.Context) {
	var draft models.ProductDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		middleware.Fail(c, bindError(err, &draft))
		return
	}

	p, err := h.Admin.Create(c.Request.Context(), draft)
	if err != nil {
		h.failMutation(c, "Error adding product", err)
		return
	}
	h.setFlash(c, flash.Success("Product added"))
	c.JSON(http.StatusCreated, productResponse{Product: p, Slug: p.Slug()})
}

// UpdateProduct handles PUT /v1/admin/products/:id
func (h *Handlers) UpdateProduct(c *gin.Context) {
	var draft models.ProductDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		middleware.Fail(c, bindError(err, &draft))
		return
	}

	id := c.Param("id")
	if err := h.Admin.Update(c.Request.Context(), id, draft); err != nil {
		h.failMutation(c, "Error updating product", err)
		return
	}
	h.setFlash(c, flash.Success("Product updated"))
	c.JSON(http.StatusOK, gin.H{"id": id, "updated": true})
}

// DeleteProduct handles DELETE /v1/admin/products/:id
func (h *Handlers) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	if err := h.Admin.Delete(c.Request.Context(), id); err != nil {
		h.failMutation(c, "Error deleting product", err)
		return
	}
	h.setFlash(c, flash.Success("Product deleted"))
	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

// failMutation reports a failed mutation both as the response and as a flash
// for the next admin page load.
func (h *Handlers) failMutation(c *gin.Context, prefix string, err error) {
	var appErr *apperr.AppError
	if errors.Is(err, store.ErrNotFound) {
		appErr = apperr.NotFoundErr("Product not found")
	} else {
		appErr = apperr.Wrap(err)
	}
	h.setFlash(c, flash.Error(prefix+": "+apperr.PublicMessage(appErr)))
	middleware.Fail(c, appErr)
}

func (h *Handlers) setFlash(c *gin.Context, f flash.Flash) {
	if h.Flash == nil {
		return
	}
	if err := h.Flash.Set(c.Writer, f); err != nil {
		h.logger().Warn("flash not set", "op", "handlers.setFlash",
			"request_id", middleware.GetRequestID(c), "err", err)
	}
}

// PopFlash handles GET /v1/admin/flash. The message is shown once.
func (h *Handlers) PopFlash(c *gin.Context) {
	if h.Flash == nil {
		c.JSON(http.StatusOK, gin.H{"flash": nil})
		return
	}
	f, ok := h.Flash.Pop(c.Writer, c.Request)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"flash": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"flash": f})
}

type draftRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Category string `json:"category" binding:"omitempty,oneof=Tops Bottoms Outerwear Footwear Accessories"`
}

// DraftDescription handles POST /v1/admin/products/draft-description.
// It only suggests text; nothing is saved.
func (h *Handlers) DraftDescription(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, bindError(err, &req))
		return
	}
	if h.Drafter == nil {
		middleware.Fail(c, apperr.UnavailableErr("Description drafting is not configured", ai.ErrDisabled))
		return
	}

	var category *models.Category
	if req.Category != "" {
		cat := models.Category(req.Category)
		category = &cat
	}

	text, err := h.Drafter.Draft(c.Request.Context(), req.Name, category)
	switch {
	case errors.Is(err, ai.ErrDisabled):
		middleware.Fail(c, apperr.UnavailableErr("Description drafting is not configured", err))
		return
	case err != nil:
		middleware.Fail(c, apperr.UnavailableErr("Could not draft a description right now", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"description": text})
}
