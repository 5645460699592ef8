package storage

import (
	"errors"
	"path"
	"strings"
)

const (
	// MaxThumbnailSize is the maximum accepted thumbnail size (5 MiB).
	MaxThumbnailSize = 5 * 1024 * 1024
	// FolderThumbnails is the S3 prefix for thumbnail objects.
	FolderThumbnails = "thumbnails"
)

var (
	ErrThumbnailTooLarge = errors.New("thumbnail exceeds 5 MiB")
	ErrThumbnailType     = errors.New("thumbnail must be a jpeg, png or webp image")
)

// Allowed thumbnail MIME types and extensions.
var (
	AllowedThumbnailTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/jpg":  ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
	}
	AllowedThumbnailExtensions = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
	}
)

// ValidateThumbnail checks size and type and returns the content type to store the object with.
// A recognised extension is required; a declared content type, when present, must agree.
func ValidateThumbnail(contentType, filename string, size int64) (string, error) {
	if size > MaxThumbnailSize {
		return "", ErrThumbnailTooLarge
	}
	ext := strings.ToLower(path.Ext(filename))
	extType, ok := AllowedThumbnailExtensions[ext]
	if !ok {
		return "", ErrThumbnailType
	}
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if contentType != "" && contentType != "application/octet-stream" {
		if _, ok := AllowedThumbnailTypes[contentType]; !ok {
			return "", ErrThumbnailType
		}
	}
	return extType, nil
}
