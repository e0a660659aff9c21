package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/keyu-storefront/internal/apperr"
	"github.com/01moynul/keyu-storefront/internal/middleware"
	"github.com/01moynul/keyu-storefront/internal/storage"
)

// MaxUploadSize caps product image uploads.
const MaxUploadSize = 5 << 20

// UploadImage handles POST /v1/admin/uploads (multipart field "file") and
// returns the URL to store as the product's image_url.
func (h *Handlers) UploadImage(c *gin.Context) {
	if h.Uploads == nil {
		middleware.Fail(c, apperr.UnavailableErr("Image uploads are not configured", nil))
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("No file uploaded", map[string]string{"file": "This field is required."}))
		return
	}
	if fh.Size > MaxUploadSize {
		middleware.Fail(c, apperr.InvalidErr("File is too large", map[string]string{"file": "Images must be 5 MB or smaller."}))
		return
	}

	f, err := fh.Open()
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	head = head[:n]
	sniffed := http.DetectContentType(head)
	if !strings.HasPrefix(sniffed, "image/") {
		middleware.Fail(c, apperr.InvalidErr("Only image files can be uploaded", map[string]string{"file": "Upload a PNG, JPEG, WebP or GIF image."}))
		return
	}

	res, err := h.Uploads.Put(c.Request.Context(), io.MultiReader(bytes.NewReader(head), f), storage.PutInput{
		Filename:    fh.Filename,
		ContentType: sniffed,
		Size:        fh.Size,
	})
	if errors.Is(err, storage.ErrUnsupportedType) {
		middleware.Fail(c, apperr.InvalidErr("Only image files can be uploaded", map[string]string{"file": "Upload a PNG, JPEG, WebP or GIF image."}))
		return
	}
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	h.logger().Info("image uploaded", "op", "handlers.UploadImage",
		"request_id", middleware.GetRequestID(c), "key", res.Key, "size", fh.Size)
	c.JSON(http.StatusCreated, gin.H{"url": res.URL, "key": res.Key})
}
