package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ragchat/internal/chat"
	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/embedding"
	"ragchat/internal/generate"
	"ragchat/internal/retrieval"
	"ragchat/internal/session"
	"ragchat/internal/session/sqlite"
	"ragchat/internal/summary"
	"ragchat/internal/tui"
	"ragchat/internal/vectorindex"
	"ragchat/internal/vectorindex/qdrant"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "", "Path to YAML config file (optional)")
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

	emb := buildEmbedder(cfg)
	searcher, overview := buildSearcher(cfg, emb)

	gen, err := generate.New(generate.Config{
		BaseURL:     cfg.Generator.BaseURL,
		APIKeyEnv:   cfg.Generator.APIKeyEnv,
		Model:       cfg.Generator.Model,
		Instruction: cfg.Generator.Instruction,
		Timeout:     time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}

	var store session.Store
	if cfg.Sessions.DBPath != "" {
		s, err := sqlite.New(cfg.Sessions.DBPath)
		if err != nil {
			log.Fatalf("session store init failed: %v", err)
		}
		defer s.Close()
		store = s
	}
	sessions, err := session.NewManager(context.Background(), store)
	if err != nil {
		log.Fatalf("session manager init failed: %v", err)
	}

	pipeline := retrieval.NewPipeline(emb, searcher, cfg.Retrieval.TopK)
	svc := chat.NewService(pipeline, gen, sessions, zap.NewNop())

	m := tui.New(svc, overview)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
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

// buildSearcher loads the persisted index (or connects to Qdrant) and
// validates that it matches the configured embedder before any query runs.
func buildSearcher(cfg *config.AppConfig, emb domain.Embedder) (domain.Searcher, string) {
	switch cfg.Index.Type {
	case "memory", "":
		want := vectorindex.Spec{
			Model:     emb.Name(),
			Dimension: emb.Dimension(), // zero for tfidf until prepared
			Metric:    vectorindex.MetricCosine,
		}
		ix, err := vectorindex.Load(cfg.Index.Path, want)
		if err != nil {
			log.Fatalf("index load failed (run ragchat-index first?): %v", err)
		}
		// Local embedders rebuild their vocabulary from the stored corpus.
		if emb.Dimension() == 0 {
			if err := emb.Prepare(ix.Texts()); err != nil {
				log.Fatalf("embedder prepare failed: %v", err)
			}
			if emb.Dimension() != ix.Spec().Dimension {
				log.Fatalf("embedder dimension %d does not match index dimension %d",
					emb.Dimension(), ix.Spec().Dimension)
			}
		}
		overview := summary.Overview(strings.Join(ix.Texts(), " "), 2)
		return ix, overview
	case "qdrant":
		if cfg.Index.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		store, err := qdrant.New(qdrant.Config{
			Host:       cfg.Index.Qdrant.Host,
			Port:       cfg.Index.Qdrant.Port,
			Collection: cfg.Index.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Index.Qdrant.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("qdrant connect failed: %v", err)
		}
		return store, "Connected to Qdrant collection " + cfg.Index.Qdrant.Collection + "."
	default:
		log.Fatalf("unknown index type: %s", cfg.Index.Type)
		return nil, ""
	}
}
