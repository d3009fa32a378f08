// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory object store for tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	// FailUploadContaining makes uploads whose key contains the substring fail.
	FailUploadContaining string
	// RemoveErr is returned by Remove after the matching objects are dropped.
	RemoveErr error
	// Removed records every key passed to Remove.
	Removed []string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Upload stores the body under key.
func (s *MemoryStore) Upload(_ context.Context, key string, body io.Reader, _ string) error {
	if s.FailUploadContaining != "" && strings.Contains(key, s.FailUploadContaining) {
		return fmt.Errorf("upload rejected: %s", key)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

// Remove drops the given keys.
func (s *MemoryStore) Remove(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.objects, k)
		s.Removed = append(s.Removed, k)
	}
	return s.RemoveErr
}

// PublicURL returns a fake CDN URL for key.
func (s *MemoryStore) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

// Keys returns the stored keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PNG returns a small encoded PNG image.
func PNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
