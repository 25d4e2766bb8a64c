package renovation

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

var dataURLPattern = regexp.MustCompile(`^data:(.+);base64,(.+)$`)

// InlineImage is a decoded data URL.
type InlineImage struct {
	ContentType string
	Data        []byte
}

// IsRemote reports whether the image value is already a URL that can be passed through.
func IsRemote(image string) bool {
	return strings.HasPrefix(image, "http")
}

// ParseDataURL decodes data:<mime>;base64,<payload>.
func ParseDataURL(image string) (InlineImage, error) {
	m := dataURLPattern.FindStringSubmatch(image)
	if m == nil {
		return InlineImage{}, ErrInvalidDataURL
	}

	data, err := decodeBase64(m[2])
	if err != nil {
		return InlineImage{}, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return InlineImage{ContentType: m[1], Data: data}, nil
}

// browsers always pad, but hand-built payloads often don't
func decodeBase64(s string) ([]byte, error) {
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
