package news

import "context"

// Item is one entry of a syndication feed.
type Item struct {
	Title       string
	Link        string
	Content     string // full body, may contain markup
	Description string // summary or snippet, may contain markup
}

// Fetcher retrieves the items of a feed in publication order.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]Item, error)
}
