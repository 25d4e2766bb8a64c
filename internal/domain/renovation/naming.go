package renovation

import (
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/heic": ".heic",
	"image/avif": ".avif",
}

// ExtensionFor picks a file extension for a MIME type, falling back to .png.
func ExtensionFor(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if ext, ok := imageExtensions[ct]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(ct); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".png"
}

// NewObjectName returns renovations/<yyyy>/<mm>/<dd>/<uuid><ext>.
func NewObjectName(now time.Time, contentType string) string {
	return fmt.Sprintf("renovations/%s/%s%s",
		now.UTC().Format("2006/01/02"),
		uuid.New().String(),
		ExtensionFor(contentType),
	)
}
