// Package photostore persists attendee photos on the local filesystem.
package photostore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrBucketMissing indicates the configured photo directory does not exist.
// Callers treat photo uploads as best effort and carry on without one.
var ErrBucketMissing = errors.New("photo directory does not exist")

// Dir stores photos as files under a pre-created directory and serves them
// by URL path. The directory is deliberately not auto-created: a missing
// directory usually means a misconfigured deployment, and silently creating
// one would hide photos from the static file server.
type Dir struct {
	root    string
	baseURL string
}

// NewDir creates a filesystem photo store rooted at root. Uploaded photos
// resolve to baseURL/<name>.
func NewDir(root, baseURL string) *Dir {
	return &Dir{root: filepath.Clean(root), baseURL: strings.TrimRight(baseURL, "/")}
}

// Put writes the photo and returns its serving URL. The file extension is
// derived from the content, defaulting to .jpg.
func (d *Dir) Put(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if d == nil || d.root == "" {
		return "", ErrBucketMissing
	}
	key = strings.TrimSpace(key)
	if key == "" || key != filepath.Base(key) {
		return "", fmt.Errorf("photo key %q is not a bare name", key)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("photo content is empty")
	}

	info, err := os.Stat(d.root)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrBucketMissing
		}
		return "", fmt.Errorf("stat photo directory: %w", err)
	}
	if !info.IsDir() {
		return "", ErrBucketMissing
	}

	name := key + extensionFor(data)
	if err := os.WriteFile(filepath.Join(d.root, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write photo %s: %w", name, err)
	}
	return d.baseURL + "/" + path.Clean(name), nil
}

func extensionFor(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
