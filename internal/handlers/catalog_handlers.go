package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	"github.com/01moynul/keyu-storefront/internal/apperr"
	"github.com/01moynul/keyu-storefront/internal/catalog"
	"github.com/01moynul/keyu-storefront/internal/events"
	"github.com/01moynul/keyu-storefront/internal/middleware"
	"github.com/01moynul/keyu-storefront/internal/models"
	"github.com/01moynul/keyu-storefront/internal/observability"
	"github.com/01moynul/keyu-storefront/internal/store"
)

type productResponse struct {
	models.Product
	Slug string `json:"slug"`
}

type paginationResponse struct {
	Page         int  `json:"page"`
	PageSize     int  `json:"pageSize"`
	Total        int  `json:"total"`
	TotalPages   int  `json:"totalPages"`
	HasNext      bool `json:"hasNext"`
	HasPrevious  bool `json:"hasPrevious"`
	ShowControls bool `json:"showControls"`
}

type listResponse struct {
	Products   []productResponse     `json:"products"`
	Pagination paginationResponse    `json:"pagination"`
	Category   models.FilterCategory `json:"category"`
}

func toProductResponses(ps []models.Product) []productResponse {
	out := make([]productResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, productResponse{Product: p, Slug: p.Slug()})
	}
	return out
}

// parsePage reads the requested page. Missing means 1; anything that is not
// an integer is rejected. Out-of-range values are clamped by the engine.
func parsePage(raw string) (int, error) {
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("page must be an integer")
	}
	return n, nil
}

// ListProducts handles GET /v1/products?category=&page=
func (h *Handlers) ListProducts(c *gin.Context) {
	category, err := models.ParseFilterCategory(c.Query("category"))
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("Unknown category", map[string]string{"category": err.Error()}))
		return
	}
	page, err := parsePage(c.Query("page"))
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid page", map[string]string{"page": err.Error()}))
		return
	}

	timing := observability.StartTiming(c.Request.Context(), "catalog", "catalog cache")
	snap, err := h.Catalog.Load(c.Request.Context())
	timing.Stop()
	if err != nil {
		middleware.Fail(c, apperr.UnavailableErr("Catalog is temporarily unavailable", err))
		return
	}

	s := catalog.NewState()
	s = catalog.Reduce(s, catalog.CatalogLoaded{Products: snap.Products, Generation: snap.Generation})
	s = catalog.Reduce(s, catalog.CategoryChanged{Category: category})
	s = catalog.Reduce(s, catalog.PageRequested{Page: page})
	view := h.Engine.ViewOf(s)

	etag := listETag(snap, category, view)
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	if etagMatches(c.GetHeader("If-None-Match"), etag) {
		c.Status(http.StatusNotModified)
		return
	}

	c.JSON(http.StatusOK, listResponse{
		Products: toProductResponses(view.Products),
		Pagination: paginationResponse{
			Page:         view.Number,
			PageSize:     view.PageSize,
			Total:        view.Total,
			TotalPages:   view.TotalPages,
			HasNext:      view.HasNext(),
			HasPrevious:  view.HasPrevious(),
			ShowControls: view.ShowControls(),
		},
		Category: category,
	})
}

// listETag identifies one rendered page of one catalog snapshot.
func listETag(snap catalog.Snapshot, category models.FilterCategory, view catalog.Page) string {
	d := xxhash.New()
	_, _ = d.WriteString(strconv.FormatUint(snap.Generation, 10))
	_, _ = d.WriteString("|" + snap.LoadedAt.UTC().Format(time.RFC3339Nano))
	_, _ = d.WriteString("|" + string(category))
	_, _ = d.WriteString("|" + strconv.Itoa(view.Number) + "/" + strconv.Itoa(view.PageSize))
	_, _ = d.WriteString("|" + strconv.Itoa(view.Total))
	return `W/"` + strconv.FormatUint(d.Sum64(), 16) + `"`
}

func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || candidate == etag || "W/"+candidate == etag {
			return true
		}
	}
	return false
}

// ListCategories handles GET /v1/categories. The first entry is always "All".
func (h *Handlers) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": models.FilterCategories})
}

func (h *Handlers) getProduct(c *gin.Context) (models.Product, bool) {
	timing := observability.StartTiming(c.Request.Context(), "store", "product lookup")
	p, err := h.Products.Get(c.Request.Context(), c.Param("id"))
	timing.Stop()
	if errors.Is(err, store.ErrNotFound) {
		middleware.Fail(c, apperr.NotFoundErr("Product not found"))
		return models.Product{}, false
	}
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return models.Product{}, false
	}
	return p, true
}

// GetProduct handles GET /v1/products/:id
func (h *Handlers) GetProduct(c *gin.Context) {
	p, ok := h.getProduct(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, productResponse{Product: p, Slug: p.Slug()})
}

// Shop handles GET /v1/products/:id/shop. It records the outbound click and
// sends the shopper on to the retailer.
func (h *Handlers) Shop(c *gin.Context) {
	p, ok := h.getProduct(c)
	if !ok {
		return
	}

	target, err := url.Parse(p.AffiliateURL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		middleware.Fail(c, apperr.NotFoundErr("Product link is not available"))
		return
	}

	if h.Clicks != nil {
		click := events.Click{
			Product:   p,
			Referrer:  c.Request.Referer(),
			UserAgent: c.Request.UserAgent(),
			RequestID: middleware.GetRequestID(c),
			At:        h.now(),
		}
		if err := h.Clicks.Publish(c.Request.Context(), click); err != nil {
			h.logger().Warn("click not recorded", "op", "handlers.Shop",
				"request_id", click.RequestID, "product_id", p.ID, "err", err)
		}
	}

	c.Redirect(http.StatusFound, target.String())
}

type shareResponse struct {
	URL      string `json:"url"`
	Text     string `json:"text"`
	Twitter  string `json:"twitter"`
	Facebook string `json:"facebook"`
}

// Share handles GET /v1/products/:id/share
func (h *Handlers) Share(c *gin.Context) {
	p, ok := h.getProduct(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, shareLinks(h.PublicBaseURL, p))
}

func shareLinks(baseURL string, p models.Product) shareResponse {
	page := strings.TrimRight(baseURL, "/") + "/product/" + url.PathEscape(p.ID)
	text := "Check out " + p.Name + " on KEYU"
	return shareResponse{
		URL:      page,
		Text:     text,
		Twitter:  "https://twitter.com/intent/tweet?url=" + url.QueryEscape(page) + "&text=" + url.QueryEscape(text),
		Facebook: "https://www.facebook.com/sharer/sharer.php?u=" + url.QueryEscape(page),
	}
}
