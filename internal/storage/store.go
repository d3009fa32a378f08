// Package storage stores post images in an object store and exposes their
// public URLs.
package storage

import (
	"context"
	"io"
	"path"
	"strings"
)

// PostImagesPrefix is the object key prefix of every post image.
const PostImagesPrefix = "post-images/"

// ObjectStore is a bucket of publicly readable objects.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	Remove(ctx context.Context, keys []string) error
	PublicURL(key string) string
}

// KeyFromURL recovers the object key of a post image from its public URL.
// Only the final path segment is trusted; anything else is rebuilt under the
// post image prefix.
func KeyFromURL(publicURL string) (string, bool) {
	trimmed := strings.TrimSpace(publicURL)
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	name := path.Base(trimmed)
	if name == "" || name == "." || name == "/" {
		return "", false
	}
	return PostImagesPrefix + name, true
}

// KeysFromURLs maps public URLs to object keys, skipping ones that cannot be
// resolved.
func KeysFromURLs(urls []string) []string {
	keys := make([]string, 0, len(urls))
	for _, u := range urls {
		if k, ok := KeyFromURL(u); ok {
			keys = append(keys, k)
		}
	}
	return keys
}
