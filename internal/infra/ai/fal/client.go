package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const credentialName = "FAL_KEY"

// Client talks to the fal.ai queue and storage REST APIs.
type Client struct {
	httpClient   *http.Client
	key          string
	queueURL     string
	storageURL   string
	model        string
	pollInterval time.Duration
	timeout      time.Duration
}

type Options struct {
	Key          string
	QueueURL     string
	StorageURL   string
	Model        string
	PollInterval time.Duration
	Timeout      time.Duration
	HTTPClient   *http.Client
}

func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		httpClient:   hc,
		key:          opts.Key,
		queueURL:     opts.QueueURL,
		storageURL:   opts.StorageURL,
		model:        opts.Model,
		pollInterval: opts.PollInterval,
		timeout:      opts.Timeout,
	}
}

func (c *Client) Name() string { return "fal" }

func (c *Client) Configured() bool { return c.key != "" }

func (c *Client) CredentialName() string { return credentialName }

// do sends a request with the fal auth header and decodes a JSON answer into out (when non-nil).
func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.key)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
