// Package media uploads book cover images to a CDN or an object store.
package media

import (
	"context"
	"io"
)

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}
