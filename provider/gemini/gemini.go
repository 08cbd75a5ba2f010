package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// NotFoundAnswer is the sentence the model is told to use when the
// articles do not contain the answer.
const NotFoundAnswer = "I could not find information about that in the news articles."

// ErrUnexpectedResponse is returned when the response carries no candidate text.
var ErrUnexpectedResponse = errors.New("gemini: unexpected response shape")

// Client calls the Gemini generateContent endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type request struct {
	Contents []content `json:"contents"`
}

type response struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BuildPrompt renders the grounding prompt for a question and its context.
func BuildPrompt(query, context string) string {
	return fmt.Sprintf(`Based *only* on the following news articles, please provide a concise answer to the user's question.
If the answer cannot be found in the articles, say %q

Context from News Articles:
---
%s
---

User Question: %q

Answer:`, NotFoundAnswer, context, query)
}

// Answer generates an answer to query grounded on context.
func (c *Client) Answer(ctx context.Context, query, context string) (string, error) {
	body, err := json.Marshal(request{
		Contents: []content{{Parts: []part{{Text: BuildPrompt(query, context)}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Error("gemini_generate_bad_status",
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", time.Since(start)),
		)
		return "", fmt.Errorf("gemini API error: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", ErrUnexpectedResponse
	}
	slog.Debug("gemini_generate_completed", slog.Duration("elapsed", time.Since(start)))
	return out.Candidates[0].Content.Parts[0].Text, nil
}
