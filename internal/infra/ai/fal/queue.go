package fal

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/bryanwahyu/renovator/internal/domain/renovation"
	"github.com/bryanwahyu/renovator/internal/infra/ai/prompt"
	"github.com/bryanwahyu/renovator/internal/log"
)

const (
	statusInQueue    = "IN_QUEUE"
	statusInProgress = "IN_PROGRESS"
	statusCompleted  = "COMPLETED"
)

type editInput struct {
	ImageURLs []string `json:"image_urls"`
	Prompt    string   `json:"prompt"`
}

type queueSubmission struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

type queueStatus struct {
	Status        string `json:"status"`
	QueuePosition int    `json:"queue_position"`
	Logs          []struct {
		Message string `json:"message"`
		Level   string `json:"level"`
	} `json:"logs"`
}

type outputImage struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

type editOutput struct {
	Images []outputImage `json:"images"`
	Seed   int64         `json:"seed"`
}

// Edit submits an image edit to the fal queue and waits for the result.
func (c *Client) Edit(ctx context.Context, params renovation.EditParams) (renovation.EditResult, error) {
	logger := log.FromContextOrDiscard(ctx).WithGroup("fal").With("model", c.model)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	in := editInput{
		ImageURLs: params.ImageURLs,
		Prompt:    prompt.GetRenovationPrompt(params.Prompt),
	}
	var sub queueSubmission
	submitURL := strings.TrimRight(c.queueURL, "/") + "/" + strings.Trim(c.model, "/")
	if err := c.do(ctx, http.MethodPost, submitURL, in, &sub); err != nil {
		return renovation.EditResult{}, fmt.Errorf("failed to submit to queue: %w", err)
	}
	logger = logger.With("request_id", sub.RequestID)
	logger.Info("submitted to fal queue")

	if err := c.waitForCompletion(ctx, sub.StatusURL); err != nil {
		return renovation.EditResult{}, err
	}

	var out editOutput
	if err := c.do(ctx, http.MethodGet, sub.ResponseURL, nil, &out); err != nil {
		return renovation.EditResult{}, fmt.Errorf("failed to fetch result: %w", err)
	}
	logger.Info("received result from fal", "images", len(out.Images), "seed", out.Seed)

	return renovation.EditResult{
		ImageURLs: lo.Map(out.Images, func(img outputImage, _ int) string {
			return img.URL
		}),
	}, nil
}

func (c *Client) waitForCompletion(ctx context.Context, statusURL string) error {
	logger := log.FromContextOrDiscard(ctx).WithGroup("fal")
	seen := 0

	for {
		var st queueStatus
		if err := c.do(ctx, http.MethodGet, withLogs(statusURL), nil, &st); err != nil {
			return fmt.Errorf("failed to check queue status: %w", err)
		}

		// status endpoint returns every log line each time
		if len(st.Logs) > seen {
			for _, l := range st.Logs[seen:] {
				logger.Debug(l.Message, "level", l.Level)
			}
			seen = len(st.Logs)
		}

		switch st.Status {
		case statusCompleted:
			return nil
		case statusInQueue, statusInProgress:
			logger.Debug("waiting for fal", "status", st.Status, "queue_position", st.QueuePosition)
		default:
			return fmt.Errorf("unknown queue status: %q", st.Status)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for generation: %w", ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}

func withLogs(statusURL string) string {
	if strings.Contains(statusURL, "?") {
		return statusURL + "&logs=1"
	}
	return statusURL + "?logs=1"
}
