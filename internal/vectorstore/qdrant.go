package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/qdrant/go-client/qdrant"
)

// qdrantGRPCPort is the gRPC port paired with the default REST port 6333.
const qdrantGRPCPort = 6334

// pointsClient is the subset of *qdrant.Client used here.
type pointsClient interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Close() error
}

// Qdrant stores documents as points of the news_articles collection.
type Qdrant struct {
	client     pointsClient
	collection string
}

func NewQdrant(cfg config.QdrantConfig) (*Qdrant, error) {
	qcfg, err := qdrantClientConfig(cfg)
	if err != nil {
		return nil, err
	}
	client, err := qdrant.NewClient(qcfg)
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	return &Qdrant{client: client, collection: models.CollectionName}, nil
}

// qdrantClientConfig maps the configured address onto the gRPC client config.
// A REST url on 6333 is translated to the gRPC port 6334.
func qdrantClientConfig(cfg config.QdrantConfig) (*qdrant.Config, error) {
	out := &qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	}
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		if out.Port <= 0 {
			out.Port = qdrantGRPCPort
		}
		return out, nil
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant url: %w", err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("invalid qdrant url: missing host")
	}
	out.Host = u.Hostname()
	out.UseTLS = cfg.UseTLS || u.Scheme == "https"
	out.Port = qdrantGRPCPort
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid qdrant port %q: %w", p, err)
		}
		if n != 6333 {
			out.Port = n
		}
	}
	return out, nil
}

func (q *Qdrant) EnsureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", q.collection, err)
	}
	if exists {
		return nil
	}
	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(models.EmbeddingDimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", q.collection, err)
	}
	return nil
}

func (q *Qdrant) Query(ctx context.Context, vector []float32, limit int) ([]models.Document, error) {
	if err := validateVector(vector); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = TopK
	}
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}
	docs := make([]models.Document, 0, len(points))
	for _, p := range points {
		doc := models.Document{
			Title:   p.GetPayload()["title"].GetStringValue(),
			Content: p.GetPayload()["content"].GetStringValue(),
			URL:     p.GetPayload()["url"].GetStringValue(),
		}
		if id := p.GetId(); id != nil {
			doc.ID = id.GetUuid()
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (q *Qdrant) Upsert(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, 0, len(docs))
	for _, d := range docs {
		if err := validateVector(d.Vector); err != nil {
			return fmt.Errorf("document %s: %w", d.ID, err)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(d.ID),
			Vectors: qdrant.NewVectors(d.Vector...),
			Payload: qdrant.NewValueMap(d.Payload()),
		})
	}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return nil
}

func (q *Qdrant) Close() error {
	return q.client.Close()
}
