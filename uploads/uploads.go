// Package uploads stores the images attached to posts and returns the URL
// they are served from.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxImageSize is the largest image accepted for a post
const MaxImageSize = 5 << 20

var (
	ErrNotImage = errors.New("only image files can be uploaded")
	ErrTooLarge = errors.New("image is larger than 5MB")
)

// Store saves an uploaded image under key and returns its public URL
type Store interface {
	Save(ctx context.Context, key string, contentType string, body io.Reader, size int64) (string, error)
}

// Image is an upload that passed validation
type Image struct {
	Key         string
	ContentType string
	Data        []byte
}

// ReadImage reads at most MaxImageSize bytes from r and checks that they are
// an image.  The content type is sniffed, the client's claim is ignored.
func ReadImage(r io.Reader, filename string) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxImageSize {
		return nil, ErrTooLarge
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrNotImage
	}
	return &Image{
		Key:         NewKey(filename),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// NewKey returns a unique object key that keeps the extension of filename
func NewKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	d := time.Now()
	return fmt.Sprintf("%d/%02d/%d-%s%s", d.Year(), d.Month(), d.UnixMilli(), uuid.NewString()[:8], ext)
}

// SaveImage stores img in store
func SaveImage(ctx context.Context, store Store, img *Image) (string, error) {
	return store.Save(ctx, img.Key, img.ContentType, bytes.NewReader(img.Data), int64(len(img.Data)))
}
