package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"ragchat/internal/domain"
)

// Store adapts a Qdrant collection to the Searcher contract for corpora
// that outgrow the in-memory index. Cosine distance, matching the local
// index metric.
type Store struct {
	client     *qdrant.Client
	collection string
	timeout    time.Duration
}

type Config struct {
	Host       string
	Port       int
	Collection string
	Timeout    time.Duration
}

func New(cfg Config) (*Store, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	client, err := qdrant.NewClient(&qdrant.Config{Host: cfg.Host, Port: cfg.Port})
	if err != nil {
		return nil, err
	}
	return &Store{client: client, collection: cfg.Collection, timeout: cfg.Timeout}, nil
}

// Init creates the collection if it does not exist yet and reports whether
// it was already present.
func (s *Store) Init(ctx context.Context, dimension int) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(dimension),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return false, fmt.Errorf("create collection: %w", err)
	}
	return false, nil
}

// Upsert writes chunks and their vectors into the collection.
func (s *Store) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	points := make([]*qdrant.PointStruct, len(chunks))
	for i, c := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(uuid.New().String()),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"text":   c.Text,
				"source": c.SourceID,
				"page":   c.Page,
			}),
		}
	}
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	return err
}

// Search implements domain.Searcher over the remote collection.
func (s *Store) Search(vector []float32, topK int) ([]domain.SearchResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	limit := uint64(topK)
	resp, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Limit:          &limit,
		Query:          qdrant.NewQuery(vector...),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp))
	for _, p := range resp {
		results = append(results, domain.SearchResult{
			Chunk: chunkFromPayload(p.Payload),
			Score: p.Score,
		})
	}
	return results, nil
}

func (s *Store) Close() error { return s.client.Close() }

func chunkFromPayload(payload map[string]*qdrant.Value) domain.Chunk {
	var c domain.Chunk
	if v, ok := payload["text"]; ok {
		c.Text = v.GetStringValue()
	}
	if v, ok := payload["source"]; ok {
		c.SourceID = v.GetStringValue()
	}
	if v, ok := payload["page"]; ok {
		c.Page = int(v.GetIntegerValue())
	}
	return c
}
