package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type Local struct {
	BaseDir   string
	URLPrefix string
}

func NewLocal(baseDir, urlPrefix string) *Local {
	return &Local{BaseDir: baseDir, URLPrefix: urlPrefix}
}

func (l *Local) Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error) {
	key, err := objectKey(in)
	if err != nil {
		return PutResult{}, err
	}
	if err := os.MkdirAll(l.BaseDir, 0o755); err != nil {
		return PutResult{}, fmt.Errorf("storage.Local.Put: %w", err)
	}

	dstPath := filepath.Join(l.BaseDir, key)
	f, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return PutResult{}, fmt.Errorf("storage.Local.Put: %w", err)
	}

	if _, err := io.Copy(f, contextReader{ctx: ctx, r: r}); err != nil {
		f.Close()
		_ = os.Remove(dstPath)
		return PutResult{}, fmt.Errorf("storage.Local.Put: %w", err)
	}
	if err := f.Close(); err != nil {
		return PutResult{}, fmt.Errorf("storage.Local.Put: %w", err)
	}

	url := strings.TrimRight(l.URLPrefix, "/") + "/" + key
	return PutResult{Key: key, URL: url}, nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	return os.Remove(filepath.Join(l.BaseDir, filepath.Base(key)))
}

func (l *Local) KeyForURL(url string) (string, bool) {
	return keyUnder(url, l.URLPrefix, "")
}

func (l *Local) String() string { return fmt.Sprintf("local(%s)", l.BaseDir) }

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
