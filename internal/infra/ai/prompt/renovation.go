package prompt

import (
	"fmt"
	"strings"
)

// GetRenovationPrompt wraps the user's description with the fixed style qualifiers.
func GetRenovationPrompt(description string) string {
	return fmt.Sprintf("Renovate this room: %s. Interior design, professional photography, high quality, detailed",
		strings.TrimSpace(description))
}
