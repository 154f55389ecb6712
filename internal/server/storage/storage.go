// Package storage keeps uploaded profile pictures, either in a local
// directory served under /static or in an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// MaxPictureSize caps profile picture uploads.
const MaxPictureSize = 5 << 20

// LocalURLPrefix is where the HTTP layer serves LocalStore objects.
const LocalURLPrefix = "/static/uploads"

// pictureExtensions maps accepted content types to file extensions.
var pictureExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ObjectStore stores blobs under keys and hands out URLs to fetch them.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	URL(ctx context.Context, key string) (string, error)
}

// PictureExtension returns the file extension for an accepted picture
// content type and false for anything else.
func PictureExtension(contentType string) (string, bool) {
	ext, ok := pictureExtensions[contentType]
	return ext, ok
}

// NewPictureKey returns a fresh object key for a user's picture.
func NewPictureKey(userID int64, ext string) string {
	d := time.Now()
	return fmt.Sprintf("users/%d/%d/%02d/%s%s", userID, d.Year(), d.Month(), uuid.New(), ext)
}
