package jina

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Options configures a Client.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	DisableSDK bool
	HTTPClient *http.Client
}

// Client embeds texts through the Jina embeddings API. It tries the SDK
// client first and falls back to a direct REST call on any failure.
type Client struct {
	strategies []strategy
}

// strategy is one transport to the embeddings endpoint.
type strategy interface {
	name() string
	embed(ctx context.Context, texts []string) ([][]float32, error)
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")

	var strategies []strategy
	if !opts.DisableSDK {
		conf := openai.DefaultConfig(opts.APIKey)
		conf.BaseURL = baseURL
		conf.HTTPClient = httpClient
		strategies = append(strategies, &sdkStrategy{
			client: openai.NewClientWithConfig(conf),
			model:  opts.Model,
		})
	}
	strategies = append(strategies, &restStrategy{
		httpClient: httpClient,
		url:        baseURL + "/embeddings",
		apiKey:     opts.APIKey,
		model:      opts.Model,
	})
	return &Client{strategies: strategies}
}

// Embed returns one vector per text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	start := time.Now()
	var errs []error
	for i, s := range c.strategies {
		vecs, err := s.embed(ctx, texts)
		if err == nil && len(vecs) != len(texts) {
			err = fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vecs))
		}
		if err == nil {
			slog.Debug("jina_embed_completed",
				slog.String("strategy", s.name()),
				slog.Int("text_count", len(texts)),
				slog.Duration("elapsed", time.Since(start)),
			)
			return vecs, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.name(), err))
		if i < len(c.strategies)-1 {
			slog.Warn("jina_embed_falling_back",
				slog.String("strategy", s.name()),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil, fmt.Errorf("jina embeddings failed: %w", errors.Join(errs...))
}

type sdkStrategy struct {
	client *openai.Client
	model  string
}

func (s *sdkStrategy) name() string { return "sdk" }

func (s *sdkStrategy) embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(s.model),
	})
	if err != nil {
		return nil, err
	}
	items := make([]item, len(resp.Data))
	for i, d := range resp.Data {
		items[i] = item{Index: d.Index, Embedding: d.Embedding}
	}
	return byIndex(items), nil
}

type restStrategy struct {
	httpClient *http.Client
	url        string
	apiKey     string
	model      string
}

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type item struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type embedResponse struct {
	Data []item `json:"data"`
}

func (s *restStrategy) name() string { return "rest" }

func (s *restStrategy) embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Input: texts, Model: s.model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return byIndex(out.Data), nil
}

// byIndex orders vectors by the provider-reported index.
func byIndex(items []item) [][]float32 {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Index < items[j].Index })
	vecs := make([][]float32, len(items))
	for i, it := range items {
		vecs[i] = it.Embedding
	}
	return vecs
}
