package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/embedding"
	"ragchat/internal/ingest"
	"ragchat/internal/vectorindex"
	"ragchat/internal/vectorindex/qdrant"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "", "Path to YAML config file (optional)")
	dataDir := flag.String("data", "data", "Folder with .txt/.md documents to index")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if *cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(*cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	emb := buildEmbedder(cfg)

	loader := ingest.NewLoader(cfg.Chunker.Size, cfg.Chunker.Overlap)
	chunks, err := loader.Load(*dataDir)
	if err != nil {
		logger.Fatal("ingest failed", zap.String("folder", *dataDir), zap.Error(err))
	}
	logger.Info("documents chunked", zap.Int("chunks", len(chunks)))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	if err := emb.Prepare(texts); err != nil {
		logger.Fatal("embedder prepare failed", zap.Error(err))
	}

	start := time.Now()
	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		vec, err := emb.Embed(c.Text)
		if err != nil {
			logger.Fatal("embed chunk failed",
				zap.String("source", c.SourceID), zap.Int("page", c.Page), zap.Error(err))
		}
		vectors[i] = vec
		if (i+1)%50 == 0 {
			logger.Info("embedding progress", zap.Int("done", i+1), zap.Int("total", len(chunks)))
		}
	}
	logger.Info("embeddings generated",
		zap.Int("count", len(vectors)),
		zap.Int("dimension", emb.Dimension()),
		zap.Duration("elapsed", time.Since(start)))

	switch cfg.Index.Type {
	case "memory", "":
		spec := vectorindex.Spec{
			Model:     emb.Name(),
			Dimension: emb.Dimension(),
			Metric:    vectorindex.MetricCosine,
		}
		ix, err := vectorindex.Build(chunks, vectors, spec)
		if err != nil {
			logger.Fatal("index build failed", zap.Error(err))
		}
		if err := ix.Persist(cfg.Index.Path); err != nil {
			logger.Fatal("index persist failed", zap.String("path", cfg.Index.Path), zap.Error(err))
		}
		logger.Info("index persisted", zap.String("path", cfg.Index.Path), zap.Int("chunks", ix.Len()))
	case "qdrant":
		if cfg.Index.Qdrant == nil {
			logger.Fatal("qdrant config missing")
		}
		store, err := qdrant.New(qdrant.Config{
			Host:       cfg.Index.Qdrant.Host,
			Port:       cfg.Index.Qdrant.Port,
			Collection: cfg.Index.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Index.Qdrant.TimeoutSecs) * time.Second,
		})
		if err != nil {
			logger.Fatal("qdrant connect failed", zap.Error(err))
		}
		defer store.Close()
		ctx := context.Background()
		if _, err := store.Init(ctx, emb.Dimension()); err != nil {
			logger.Fatal("qdrant init failed", zap.Error(err))
		}
		if err := store.Upsert(ctx, chunks, vectors); err != nil {
			logger.Fatal("qdrant upsert failed", zap.Error(err))
		}
		logger.Info("collection populated",
			zap.String("collection", cfg.Index.Qdrant.Collection), zap.Int("chunks", len(chunks)))
	default:
		logger.Fatal("unknown index type", zap.String("type", cfg.Index.Type))
	}
}

func buildEmbedder(cfg *config.AppConfig) domain.Embedder {
	switch cfg.Embedder.Type {
	case "openai", "":
		if cfg.Embedder.OpenAI == nil {
			log.Fatalf("openai embedder config missing")
		}
		emb, err := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		return emb
	case "tfidf":
		return embedding.NewTFIDFEmbedder()
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
		return nil
	}
}
