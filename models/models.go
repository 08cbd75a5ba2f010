package models

import "errors"

// CollectionName is the vector collection (or table) holding news articles.
const CollectionName = "news_articles"

// EmbeddingDimensions is the fixed vector length shared by ingestion and search.
const EmbeddingDimensions = 768

// ErrSessionRequired is returned when a history operation is called without a session id.
var ErrSessionRequired = errors.New("session id required")

// Turn is one recorded exchange of a chat session.
type Turn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}

// Document is a news article fragment stored in the vector index.
type Document struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Content string    `json:"content"` // "<title>: <plain text body>"
	URL     string    `json:"url"`
	Vector  []float32 `json:"-"`
}

// Payload returns the stored payload of the document.
func (d Document) Payload() map[string]any {
	return map[string]any{
		"title":   d.Title,
		"content": d.Content,
		"url":     d.URL,
	}
}
