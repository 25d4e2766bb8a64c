package renovation

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingInput means the image or the prompt was empty.
	ErrMissingInput = errors.New("image and prompt are required")
	// ErrInvalidDataURL means the inline image did not look like data:<mime>;base64,<payload>.
	ErrInvalidDataURL = errors.New("invalid data URL format")
	// ErrNoImage means the generator answered without any image.
	ErrNoImage = errors.New("failed to generate image")
	// ErrHistoryDisabled means no repository is configured.
	ErrHistoryDisabled = errors.New("renovation history is disabled")
)

// NotConfiguredError is returned when the credential of the active generator is missing.
type NotConfiguredError struct {
	Key string
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("%s not configured", e.Key)
}
