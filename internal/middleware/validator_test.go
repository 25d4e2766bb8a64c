package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://v3.fal.media/files/room.png"))
	assert.NoError(t, ValidateURL("http://203.0.113.7/room.png"))

	for _, bad := range []string{
		"",
		"ftp://example.com/room.png",
		"http://localhost:8080/room.png",
		"http://127.0.0.1/room.png",
		"http://10.0.0.5/room.png",
		"http://192.168.1.2/room.png",
		"http://172.20.0.1/room.png",
		"http://[::1]/room.png",
		"http://169.254.169.254/latest/meta-data",
		"https:///nohost",
	} {
		assert.Errorf(t, ValidateURL(bad), "expected %q to be rejected", bad)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "white\tmarble\nkitchen", SanitizeString("  white\tmarble\x00\nkitchen\x07  "))
}

func TestValidatePrompt(t *testing.T) {
	assert.NoError(t, ValidatePrompt("warm oak floors"))
	assert.Error(t, ValidatePrompt(strings.Repeat("a", MaxPromptLength+1)))
}

func TestValidateLimit(t *testing.T) {
	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 5, ValidateLimit(5))
	assert.Equal(t, 100, ValidateLimit(500))
}
