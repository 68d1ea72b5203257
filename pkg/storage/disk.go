// Package storage is the blob store behind product images and the CLI's
// local state. The server writes images to the default disk ("local" or
// "s3"); the CLI keeps its cart and session token on a LocalDisk under
// CLIENT_HOME.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrNotExist is returned by Get for a missing key on every driver.
var ErrNotExist = errors.New("storage: object does not exist")

// ErrBadKey rejects keys that are absolute or climb out of the disk.
var ErrBadKey = errors.New("storage: invalid key")

// Disk stores objects under slash-separated keys such as
// "products/3/9f1c….png".
type Disk interface {
	// Put replaces the object at key with the contents of r.
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Delete is a no-op for a missing key.
	Delete(ctx context.Context, key string) error
	// URL is the public address of key.
	URL(key string) string
}

// cleanKey normalises key and refuses anything that escapes the disk root.
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	if k == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	return strings.TrimPrefix(k, "/"), nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
