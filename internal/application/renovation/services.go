package renovation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/renovator/internal/application"
	domain "github.com/bryanwahyu/renovator/internal/domain/renovation"
	"github.com/bryanwahyu/renovator/internal/log"
)

// credentialed is implemented by adapters that need an API key to work
type credentialed interface {
	Configured() bool
	CredentialName() string
}

// Service implements the renovation use-case.
// Service holds no per-request state and is safe for concurrent use.
type Service struct {
	Generator domain.Generator
	Images    domain.ImageStore
	// History is optional; nil disables recording
	History domain.Repository
	Clock   application.Clock
}

// Renovate resolves the source image to a URL, runs the generator and returns the first image.
func (s *Service) Renovate(ctx context.Context, req domain.Request) (domain.Result, error) {
	start := s.Clock.Now()
	image := strings.TrimSpace(req.Image)
	prompt := strings.TrimSpace(req.Prompt)

	if image == "" || prompt == "" {
		return domain.Result{}, domain.ErrMissingInput
	}
	if !s.Generator.Configured() {
		return domain.Result{}, &domain.NotConfiguredError{Key: s.Generator.CredentialName()}
	}

	sourceURL, inline, err := s.resolveImage(ctx, image)
	if err != nil {
		return domain.Result{}, err
	}

	out, err := s.Generator.Edit(ctx, domain.EditParams{
		ImageURLs: []string{sourceURL},
		Prompt:    prompt,
		Source:    inline,
	})
	if err != nil {
		return domain.Result{}, fmt.Errorf("generate: %w", err)
	}
	if len(out.ImageURLs) == 0 || out.ImageURLs[0] == "" {
		return domain.Result{}, domain.ErrNoImage
	}

	result := domain.Result{ImageURL: out.ImageURLs[0]}
	s.record(ctx, &domain.Record{
		ID:         domain.RecordID(uuid.New().String()),
		Prompt:     prompt,
		SourceURL:  sourceURL,
		ResultURL:  result.ImageURL,
		Provider:   s.Generator.Name(),
		DurationMS: application.Since(s.Clock, start).Milliseconds(),
		CreatedAt:  start,
	})
	return result, nil
}

// Latest ambil N renovasi terakhir
func (s *Service) Latest(ctx context.Context, limit int) ([]*domain.Record, error) {
	if s.History == nil {
		return nil, domain.ErrHistoryDisabled
	}
	return s.History.Latest(ctx, limit)
}

// HistoryEnabled reports whether renovations are being recorded
func (s *Service) HistoryEnabled() bool {
	return s.History != nil
}

// resolveImage returns a URL the generator can fetch; inline images are uploaded first
// and their decoded bytes are returned alongside the storage URL.
func (s *Service) resolveImage(ctx context.Context, image string) (string, *domain.InlineImage, error) {
	if domain.IsRemote(image) {
		return image, nil, nil
	}

	inline, err := domain.ParseDataURL(image)
	if err != nil {
		return "", nil, err
	}
	if c, ok := s.Images.(credentialed); ok && !c.Configured() {
		return "", nil, &domain.NotConfiguredError{Key: c.CredentialName()}
	}

	url, err := s.Images.Upload(ctx, domain.UploadParams{
		Name:        domain.NewObjectName(s.Clock.Now(), inline.ContentType),
		Data:        inline.Data,
		ContentType: inline.ContentType,
	})
	if err != nil {
		return "", nil, fmt.Errorf("upload image: %w", err)
	}
	return url, &inline, nil
}

// record is best effort; a history failure never fails the renovation
func (s *Service) record(ctx context.Context, rec *domain.Record) {
	if s.History == nil {
		return
	}
	if err := s.History.Save(ctx, rec); err != nil {
		log.FromContextOrDiscard(ctx).Warn("failed to save renovation history", "id", rec.ID, "error", err)
	}
}
