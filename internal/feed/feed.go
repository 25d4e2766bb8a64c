package feed

import (
	"context"
	"time"

	"github.com/gorilla/feeds"
	"github.com/samber/lo"

	domain "github.com/bryanwahyu/renovator/internal/domain/renovation"
	"github.com/bryanwahyu/renovator/internal/log"
)

type Generator struct {
	Title   string
	Link    string
	Records func(ctx context.Context, limit int) ([]*domain.Record, error)
	Limit   int
}

// Generate builds an RSS document from the latest renovations.
func (g *Generator) Generate(ctx context.Context) ([]byte, error) {
	logger := log.FromContextOrDiscard(ctx).WithGroup("feed")
	logger.Info("generating rss feed")

	records, err := g.Records(ctx, g.Limit)
	if err != nil {
		return nil, err
	}

	feed := feeds.Feed{
		Title:       g.Title,
		Description: "AI generated room renovations",
		Link:        &feeds.Link{Href: g.Link},
		Updated:     time.Now(),
	}
	if len(records) > 0 {
		feed.Updated = records[0].CreatedAt
	}
	feed.Items = lo.Map(records, func(r *domain.Record, _ int) *feeds.Item {
		return &feeds.Item{
			Id:          string(r.ID),
			Title:       r.Prompt,
			Link:        &feeds.Link{Href: r.ResultURL},
			Description: r.Prompt,
			Created:     r.CreatedAt,
		}
	})

	rss, err := feed.ToRss()
	return []byte(rss), err
}
