package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"strings"
	"sync"
	"time"

	"hirocks/internal/middleware"
	"hirocks/internal/observability"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Register WebP decoder
	"golang.org/x/sync/errgroup"
)

// MaxPostImages is the most images a single post may carry.
const MaxPostImages = 5

var (
	ErrEmptyImage       = errors.New("image is empty")
	ErrImageTooLarge    = errors.New("image exceeds the size limit")
	ErrUnsupportedImage = errors.New("unsupported image format")
)

var formatExt = map[string]string{
	"jpeg": "jpg",
	"png":  "png",
	"gif":  "gif",
	"webp": "webp",
}

// ImageUpload is one image submitted with a post.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// ImageInfo describes a decoded upload.
type ImageInfo struct {
	Format      string
	Ext         string
	ContentType string
	Width       int
	Height      int
}

// Inspect checks that data is a supported image no larger than maxBytes.
func Inspect(data []byte, maxBytes int64) (ImageInfo, error) {
	if len(data) == 0 {
		return ImageInfo{}, ErrEmptyImage
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return ImageInfo{}, ErrImageTooLarge
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, ErrUnsupportedImage
	}
	ext, ok := formatExt[format]
	if !ok {
		return ImageInfo{}, ErrUnsupportedImage
	}
	return ImageInfo{
		Format:      format,
		Ext:         ext,
		ContentType: "image/" + format,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

// NewImageKey builds the object key of the index-th image of a post:
// post-images/<unix-millis>-<index>-<random>.<ext>.
func NewImageKey(now time.Time, index int, ext string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s%d-%d-%s.%s", PostImagesPrefix, now.UnixMilli(), index, random, ext)
}

// UploadAll uploads images concurrently and returns their public URLs in
// input order. If any upload fails the ones that succeeded are removed and
// the first error is returned.
func UploadAll(ctx context.Context, store ObjectStore, images []ImageUpload, maxBytes int64) ([]string, error) {
	if len(images) == 0 {
		return []string{}, nil
	}

	infos := make([]ImageInfo, len(images))
	for i, img := range images {
		info, err := Inspect(img.Data, maxBytes)
		if err != nil {
			return nil, fmt.Errorf("image %d (%s): %w", i+1, img.Filename, err)
		}
		infos[i] = info
	}

	now := time.Now()
	keys := make([]string, len(images))
	for i := range images {
		keys[i] = NewImageKey(now, i, infos[i].Ext)
	}

	var (
		mu       sync.Mutex
		uploaded []string
	)
	g, gctx := errgroup.WithContext(ctx)
	for i := range images {
		i := i
		g.Go(func() error {
			if err := store.Upload(gctx, keys[i], bytes.NewReader(images[i].Data), infos[i].ContentType); err != nil {
				observability.ImageUploads.WithLabelValues("error").Inc()
				return fmt.Errorf("upload %s: %w", keys[i], err)
			}
			observability.ImageUploads.WithLabelValues("ok").Inc()
			mu.Lock()
			uploaded = append(uploaded, keys[i])
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if len(uploaded) > 0 {
			if rmErr := store.Remove(context.WithoutCancel(ctx), uploaded); rmErr != nil {
				middleware.Logger.WarnContext(ctx, "failed to clean up partial image upload",
					"keys", uploaded, "error", rmErr)
			}
		}
		return nil, err
	}

	urls := make([]string, len(keys))
	for i, k := range keys {
		urls[i] = store.PublicURL(k)
	}
	return urls, nil
}
