package renovation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/renovator/internal/domain/renovation"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(100 * time.Millisecond)
	return c.t
}

type fakeGenerator struct {
	configured bool
	result     domain.EditResult
	err        error
	calls      []domain.EditParams
}

func (g *fakeGenerator) Name() string           { return "fake" }
func (g *fakeGenerator) Configured() bool       { return g.configured }
func (g *fakeGenerator) CredentialName() string { return "FAL_KEY" }
func (g *fakeGenerator) Edit(_ context.Context, p domain.EditParams) (domain.EditResult, error) {
	g.calls = append(g.calls, p)
	return g.result, g.err
}

type fakeStore struct {
	uploads []domain.UploadParams
	err     error
}

func (s *fakeStore) Upload(_ context.Context, p domain.UploadParams) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.uploads = append(s.uploads, p)
	return "https://storage.example.com/" + p.Name, nil
}

type fakeRepo struct {
	saved []*domain.Record
	err   error
}

func (r *fakeRepo) Save(_ context.Context, rec *domain.Record) error {
	r.saved = append(r.saved, rec)
	return r.err
}

func (r *fakeRepo) Latest(_ context.Context, limit int) ([]*domain.Record, error) {
	return r.saved, nil
}

func newService(gen *fakeGenerator, store *fakeStore) *Service {
	return &Service{
		Generator: gen,
		Images:    store,
		Clock:     &fakeClock{t: time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)},
	}
}

func okGenerator() *fakeGenerator {
	return &fakeGenerator{
		configured: true,
		result:     domain.EditResult{ImageURLs: []string{"https://fal.media/after.png", "https://fal.media/other.png"}},
	}
}

func TestRenovateMissingInput(t *testing.T) {
	gen := okGenerator()
	svc := newService(gen, &fakeStore{})

	for _, req := range []domain.Request{
		{Image: "", Prompt: "modern kitchen"},
		{Image: "https://example.com/a.jpg", Prompt: "   "},
		{},
	} {
		_, err := svc.Renovate(context.Background(), req)
		assert.ErrorIs(t, err, domain.ErrMissingInput)
	}
	assert.Empty(t, gen.calls)
}

func TestRenovateNotConfigured(t *testing.T) {
	gen := okGenerator()
	gen.configured = false
	svc := newService(gen, &fakeStore{})

	_, err := svc.Renovate(context.Background(), domain.Request{Image: "https://example.com/a.jpg", Prompt: "loft"})
	var nc *domain.NotConfiguredError
	require.ErrorAs(t, err, &nc)
	assert.Equal(t, "FAL_KEY not configured", nc.Error())
	assert.Empty(t, gen.calls)
}

func TestRenovateUploadsInlineImage(t *testing.T) {
	gen := okGenerator()
	store := &fakeStore{}
	svc := newService(gen, store)

	res, err := svc.Renovate(context.Background(), domain.Request{
		Image:  "data:image/jpeg;base64,aGVsbG8=",
		Prompt: "cozy reading nook",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://fal.media/after.png", res.ImageURL)

	require.Len(t, store.uploads, 1)
	assert.Equal(t, []byte("hello"), store.uploads[0].Data)
	assert.Equal(t, "image/jpeg", store.uploads[0].ContentType)

	require.Len(t, gen.calls, 1)
	assert.Equal(t, []string{"https://storage.example.com/" + store.uploads[0].Name}, gen.calls[0].ImageURLs)
	assert.Equal(t, "cozy reading nook", gen.calls[0].Prompt)
	require.NotNil(t, gen.calls[0].Source)
	assert.Equal(t, []byte("hello"), gen.calls[0].Source.Data)
	assert.Equal(t, "image/jpeg", gen.calls[0].Source.ContentType)
}

func TestRenovatePassesURLThrough(t *testing.T) {
	gen := okGenerator()
	store := &fakeStore{}
	svc := newService(gen, store)

	_, err := svc.Renovate(context.Background(), domain.Request{
		Image:  "https://example.com/room.jpg",
		Prompt: "industrial",
	})
	require.NoError(t, err)
	assert.Empty(t, store.uploads)
	assert.Equal(t, []string{"https://example.com/room.jpg"}, gen.calls[0].ImageURLs)
	assert.Nil(t, gen.calls[0].Source)
}

func TestRenovateMalformedDataURL(t *testing.T) {
	gen := okGenerator()
	svc := newService(gen, &fakeStore{})

	_, err := svc.Renovate(context.Background(), domain.Request{Image: "garbage", Prompt: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidDataURL)
	assert.Empty(t, gen.calls)
}

func TestRenovateNoImageReturned(t *testing.T) {
	gen := okGenerator()
	gen.result = domain.EditResult{}
	svc := newService(gen, &fakeStore{})

	_, err := svc.Renovate(context.Background(), domain.Request{Image: "https://example.com/a.jpg", Prompt: "x"})
	assert.ErrorIs(t, err, domain.ErrNoImage)

	gen.result = domain.EditResult{ImageURLs: []string{""}}
	_, err = svc.Renovate(context.Background(), domain.Request{Image: "https://example.com/a.jpg", Prompt: "x"})
	assert.ErrorIs(t, err, domain.ErrNoImage)
}

func TestRenovateGeneratorAndUploadErrors(t *testing.T) {
	boom := errors.New("upstream exploded")

	gen := okGenerator()
	gen.err = boom
	_, err := newService(gen, &fakeStore{}).Renovate(context.Background(), domain.Request{Image: "https://example.com/a.jpg", Prompt: "x"})
	assert.ErrorIs(t, err, boom)

	gen = okGenerator()
	_, err = newService(gen, &fakeStore{err: boom}).Renovate(context.Background(), domain.Request{Image: "data:image/png;base64,aGVsbG8=", Prompt: "x"})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, gen.calls)
}

func TestRenovateRecordsHistory(t *testing.T) {
	gen := okGenerator()
	repo := &fakeRepo{err: errors.New("db down")}
	svc := newService(gen, &fakeStore{})
	svc.History = repo

	res, err := svc.Renovate(context.Background(), domain.Request{Image: "https://example.com/a.jpg", Prompt: " boho "})
	require.NoError(t, err, "history failures must not fail the request")
	require.Len(t, repo.saved, 1)

	rec := repo.saved[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "boho", rec.Prompt)
	assert.Equal(t, "https://example.com/a.jpg", rec.SourceURL)
	assert.Equal(t, res.ImageURL, rec.ResultURL)
	assert.Equal(t, "fake", rec.Provider)
	assert.Equal(t, int64(100), rec.DurationMS)
}

func TestLatestWithoutHistory(t *testing.T) {
	svc := newService(okGenerator(), &fakeStore{})
	assert.False(t, svc.HistoryEnabled())
	_, err := svc.Latest(context.Background(), 10)
	assert.ErrorIs(t, err, domain.ErrHistoryDisabled)
}
