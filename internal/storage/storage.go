// Package storage keeps uploaded product images and returns the public URL
// the admin form stores as image_url.
package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var ErrUnsupportedType = errors.New("unsupported image type")

type PutInput struct {
	Filename    string
	ContentType string
	Size        int64
}

type PutResult struct {
	Key string
	URL string
}

type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Delete(ctx context.Context, key string) error
	// KeyForURL maps a public URL back to its key. It reports false for
	// URLs this storage did not hand out.
	KeyForURL(url string) (string, bool)
}

var imageExts = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// objectKey names an upload after the original file so URLs stay readable,
// e.g. "linen-shirt-3f2c...e1.jpg".
func objectKey(in PutInput) (string, error) {
	ext := strings.ToLower(filepath.Ext(in.Filename))
	if _, ok := imageExts[ext]; !ok {
		return "", ErrUnsupportedType
	}

	stem := slug.Make(strings.TrimSuffix(filepath.Base(in.Filename), filepath.Ext(in.Filename)))
	if len(stem) > 60 {
		stem = strings.Trim(stem[:60], "-")
	}
	if stem == "" {
		return uuid.NewString() + ext, nil
	}
	return stem + "-" + uuid.NewString() + ext, nil
}

// contentType prefers the sniffed or declared type and falls back to the
// extension's type.
func contentType(in PutInput, key string) string {
	if strings.HasPrefix(in.ContentType, "image/") {
		return in.ContentType
	}
	return imageExts[strings.ToLower(filepath.Ext(key))]
}

// keyUnder returns the part of url after base+"/", provided it is a single
// path segment below prefix.
func keyUnder(url, base, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(url, strings.TrimRight(base, "/")+"/")
	if !ok {
		return "", false
	}
	name := rest
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		if name, ok = strings.CutPrefix(rest, prefix+"/"); !ok {
			return "", false
		}
	}
	if name == "" || strings.ContainsAny(name, "/\\?#") || name == "." || name == ".." {
		return "", false
	}
	return rest, true
}
