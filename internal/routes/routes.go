package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/keyu-storefront/internal/apperr"
	"github.com/01moynul/keyu-storefront/internal/handlers"
	"github.com/01moynul/keyu-storefront/internal/middleware"
)

type Options struct {
	Logger        *slog.Logger
	AllowedOrigin string

	// LocalUploadsDir, when set, is served under LocalUploadsURL.
	LocalUploadsDir string
	LocalUploadsURL string
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}

	router := gin.New()
	router.MaxMultipartMemory = handlers.MaxUploadSize + 1<<20

	// Recovery sits inside ErrorHandler so a panic still gets a response.
	router.Use(
		middleware.RequestID(),
		middleware.Logger(l),
		middleware.ErrorHandler(l),
		middleware.Recovery(l),
		middleware.CORS(opts.AllowedOrigin),
	)
	if h.Session != nil {
		router.Use(h.Session.Load())
	}

	router.NoRoute(func(c *gin.Context) {
		middleware.Fail(c, apperr.NotFoundErr("Page not found"))
	})

	router.GET("/terms", h.Terms)
	if opts.LocalUploadsDir != "" && opts.LocalUploadsURL != "" {
		router.Static(opts.LocalUploadsURL, opts.LocalUploadsDir)
	}

	v1 := router.Group("/v1")
	{
		v1.GET("/ping", h.Ping)

		// --- Storefront ---
		v1.GET("/categories", h.ListCategories)
		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:id", h.GetProduct)
		v1.GET("/products/:id/shop", h.Shop)
		v1.GET("/products/:id/share", h.Share)

		// --- Admin session ---
		v1.POST("/admin/login", h.AdminLogin)
		v1.POST("/admin/logout", h.AdminLogout)
		v1.GET("/admin/session", h.AdminSession)

		admin := v1.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/flash", h.PopFlash)
			admin.GET("/products", h.AdminListProducts)
			admin.POST("/products", h.CreateProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)
			admin.POST("/uploads", h.UploadImage)
			admin.POST("/products/draft-description", h.DraftDescription)
		}
	}

	return router
}
