package oracle

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"

	"techbook/internal/config"
)

// Set is the oracle pair the pipeline runs with.
type Set struct {
	Classifier Classifier
	NER        NER
	// Warmer is nil for offline providers.
	Warmer Warmer
	closer io.Closer
}

func (s *Set) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// FromConfig builds the configured provider, wrapped with the redis cache
// and the rate guard. rdb and obs may be nil.
func FromConfig(ctx context.Context, cfg config.OracleConfig, rdb *redis.Client, obs Observer) (*Set, error) {
	var (
		set   Set
		model string
	)
	switch cfg.Provider {
	case "huggingface":
		hf := NewHFClient(cfg.BaseURL, cfg.APIToken, cfg.ClassifierModel, cfg.NERModel, cfg.Timeout())
		set = Set{Classifier: hf, NER: hf, Warmer: hf}
		model = cfg.ClassifierModel + "|" + cfg.NERModel
	case "gemini":
		client, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		g := NewGemini(client)
		set = Set{Classifier: g, NER: g, Warmer: g, closer: client}
		model = cfg.GeminiModel
	case "keyword", "":
		// Offline answers are cheap, skip the cache and limiter.
		return &Set{Classifier: NewKeywordClassifier(DefaultIntentKeywords()), NER: CapitalizedNER{}}, nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}

	cache := NewCache(rdb, cfg.CacheTTL(), model)
	limiter := NewLimiter(cfg.RatePerSecond, cfg.Burst)
	set.Classifier = CachedClassifier(GuardClassifier(set.Classifier, limiter, obs), cache)
	set.NER = CachedNER(GuardNER(set.NER, limiter, obs), cache)
	return &set, nil
}
