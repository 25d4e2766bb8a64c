package renovation

import "time"

// Request is the payload submitted by the client.
// Image holds either a data URL or a plain http(s) URL.
type Request struct {
	Image  string `json:"image"`
	Prompt string `json:"prompt"`
}

// Result is returned to the client on success.
type Result struct {
	ImageURL string `json:"imageUrl"`
}

// RecordID tipe untuk Record
type RecordID string

// Record is the audit row kept for each successful renovation.
// SourceURL points at the user's upload and is never serialized.
type Record struct {
	ID         RecordID  `json:"id"`
	Prompt     string    `json:"prompt"`
	SourceURL  string    `json:"-"`
	ResultURL  string    `json:"result_url"`
	Provider   string    `json:"provider"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// EditParams is what a Generator receives.
type EditParams struct {
	ImageURLs []string
	Prompt    string
	// Source is the decoded upload behind ImageURLs[0] when the client sent it inline.
	// Adapters that need the bytes use it instead of fetching our own storage URL.
	Source *InlineImage
}

// EditResult holds the image URLs returned by a Generator, in provider order.
type EditResult struct {
	ImageURLs []string
}

// UploadParams describes one object written to an ImageStore.
type UploadParams struct {
	Name        string
	Data        []byte
	ContentType string
}
