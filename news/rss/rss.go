package rss

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mohammad-safakhou/newsrag/news"
)

// Fetcher parses RSS and Atom feeds with gofeed.
type Fetcher struct {
	parser *gofeed.Parser
}

// NewFetcher returns a fetcher whose HTTP client gives up after timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	fp := gofeed.NewParser()
	fp.Client = &http.Client{Timeout: timeout}
	fp.UserAgent = "newsrag/1.0"
	return &Fetcher{parser: fp}
}

func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]news.Item, error) {
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}
	slog.Info("feed_fetched", slog.String("url", feedURL), slog.Int("items", len(feed.Items)))
	return FromFeed(feed), nil
}

// FromFeed converts a parsed feed into news items, skipping nil entries.
func FromFeed(feed *gofeed.Feed) []news.Item {
	if feed == nil {
		return nil
	}
	items := make([]news.Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		items = append(items, news.Item{
			Title:       it.Title,
			Link:        it.Link,
			Content:     it.Content,
			Description: it.Description,
		})
	}
	return items
}
