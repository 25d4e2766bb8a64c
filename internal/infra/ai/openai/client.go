package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/renovator/internal/application"
	"github.com/bryanwahyu/renovator/internal/domain/renovation"
	"github.com/bryanwahyu/renovator/internal/infra/ai/prompt"
	"github.com/bryanwahyu/renovator/internal/log"
	"github.com/bryanwahyu/renovator/internal/middleware"
)

const (
	credentialName = "OPENAI_API_KEY"
	maxImageBytes  = 25 << 20
	maxRedirects   = 5
)

// FetchFunc downloads the source image and reports its content type.
type FetchFunc func(ctx context.Context, url string) ([]byte, string, error)

type Client struct {
	*openai.Client
	Model string
	Size  string
	// Store receives base64 results so the caller still gets a URL back
	Store renovation.ImageStore
	// Fetch is only used for caller supplied URLs; inline uploads arrive as bytes
	Fetch FetchFunc
	// Clock dates the objects written by Store
	Clock application.Clock

	configured bool
}

func NewClient(apiKey, model, size string, store renovation.ImageStore) *Client {
	return NewClientWithConfig(openai.DefaultConfig(apiKey), apiKey != "", model, size, store)
}

func NewClientWithConfig(cfg openai.ClientConfig, configured bool, model, size string, store renovation.ImageStore) *Client {
	return &Client{
		Client:     openai.NewClientWithConfig(cfg),
		Model:      model,
		Size:       size,
		Store:      store,
		Fetch:      downloader(newFetchClient()),
		Clock:      application.SystemClock{},
		configured: configured,
	}
}

func (c *Client) Name() string { return "openai" }

func (c *Client) Configured() bool { return c.configured }

func (c *Client) CredentialName() string { return credentialName }

// Edit runs the first source image through the image edit endpoint. Inline uploads are
// sent as-is; anything else is downloaded from its URL first.
func (c *Client) Edit(ctx context.Context, params renovation.EditParams) (renovation.EditResult, error) {
	if len(params.ImageURLs) == 0 {
		return renovation.EditResult{}, fmt.Errorf("no source image")
	}
	model := c.Model
	if model == "" {
		model = "dall-e-2"
	}
	logger := log.FromContextOrDiscard(ctx).WithGroup("openai").With("model", model)

	data, contentType, err := c.source(ctx, params)
	if err != nil {
		return renovation.EditResult{}, err
	}

	// go-openai builds the multipart body from a named file
	f, err := os.CreateTemp("", "renovation-*"+renovation.ExtensionFor(contentType))
	if err != nil {
		return renovation.EditResult{}, err
	}
	defer os.Remove(f.Name())
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return renovation.EditResult{}, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return renovation.EditResult{}, err
	}

	req := openai.ImageEditRequest{
		Image:  f,
		Prompt: prompt.GetRenovationPrompt(params.Prompt),
		Model:  model,
		N:      1,
		Size:   c.Size,
	}
	// only dall-e-2 accepts response_format; gpt-image models always answer base64
	if model == openai.CreateImageModelDallE2 {
		req.ResponseFormat = openai.CreateImageResponseFormatURL
	}

	logger.Info("sending image edit", "bytes", len(data))
	resp, err := c.CreateEditImage(ctx, req)
	if err != nil {
		return renovation.EditResult{}, fmt.Errorf("failed to create image edit: %w", err)
	}

	var urls []string
	for _, d := range resp.Data {
		switch {
		case d.URL != "":
			urls = append(urls, d.URL)
		case d.B64JSON != "":
			u, err := c.storeBase64(ctx, d.B64JSON)
			if err != nil {
				return renovation.EditResult{}, err
			}
			urls = append(urls, u)
		}
	}
	logger.Info("received image edit", "images", len(urls))
	return renovation.EditResult{ImageURLs: urls}, nil
}

func (c *Client) source(ctx context.Context, params renovation.EditParams) ([]byte, string, error) {
	if params.Source != nil && len(params.Source.Data) > 0 {
		return params.Source.Data, params.Source.ContentType, nil
	}
	data, contentType, err := c.Fetch(ctx, params.ImageURLs[0])
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch source image: %w", err)
	}
	return data, contentType, nil
}

func (c *Client) storeBase64(ctx context.Context, b64 string) (string, error) {
	if c.Store == nil {
		return "", fmt.Errorf("base64 image returned but no image store configured")
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	contentType := http.DetectContentType(data)
	return c.Store.Upload(ctx, renovation.UploadParams{
		Name:        renovation.NewObjectName(c.now(), contentType),
		Data:        data,
		ContentType: contentType,
	})
}

func (c *Client) now() time.Time {
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock.Now()
}

// newFetchClient refuses redirects to internal hosts and refuses to dial internal
// addresses, which also covers hostnames resolving to them.
func newFetchClient() *http.Client {
	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: dialControl,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return &http.Client{
		Timeout:       2 * time.Minute,
		Transport:     transport,
		CheckRedirect: checkRedirect,
	}
}

func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errors.New("too many redirects")
	}
	return middleware.ValidateURL(req.URL.String())
}

func dialControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("unexpected dial address %q", address)
	}
	return middleware.ValidateIP(ip)
}

func downloader(hc *http.Client) FetchFunc {
	return func(ctx context.Context, url string) ([]byte, string, error) {
		if err := middleware.ValidateURL(url); err != nil {
			return nil, "", err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, "", err
		}
		resp, err := hc.Do(req)
		if err != nil {
			return nil, "", err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
		if err != nil {
			return nil, "", err
		}
		if len(data) > maxImageBytes {
			return nil, "", fmt.Errorf("source image larger than %d bytes", maxImageBytes)
		}
		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}
		return data, contentType, nil
	}
}
