package oracle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a read-through redis cache for oracle answers. A nil client or a
// non-positive TTL disables it. Redis failures fall through to the oracle.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
	model string
}

// NewCache scopes keys by model so answers of different models never mix.
func NewCache(client *redis.Client, ttl time.Duration, model string) *Cache {
	return &Cache{redis: client, ttl: ttl, model: model}
}

func (c *Cache) key(kind string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(c.model))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return "techbook:oracle:" + kind + ":" + hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) read(ctx context.Context, key string, out any) bool {
	if c == nil || c.redis == nil || c.ttl <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

func (c *Cache) write(ctx context.Context, key string, val any) {
	if c == nil || c.redis == nil || c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

type cachedClassifier struct {
	inner Classifier
	cache *Cache
}

// CachedClassifier wraps c with the read-through cache.
func CachedClassifier(c Classifier, cache *Cache) Classifier {
	return &cachedClassifier{inner: c, cache: cache}
}

func (c *cachedClassifier) Score(ctx context.Context, text string, candidates map[string]string) (map[string]float64, error) {
	labels := make([]string, 0, len(candidates))
	for k, v := range candidates {
		labels = append(labels, k+"="+v)
	}
	sort.Strings(labels)
	key := c.cache.key("classify", text, strings.Join(labels, "\n"))

	var scores map[string]float64
	if c.cache.read(ctx, key, &scores) {
		return scores, nil
	}
	scores, err := c.inner.Score(ctx, text, candidates)
	if err != nil {
		return nil, err
	}
	c.cache.write(ctx, key, scores)
	return scores, nil
}

type cachedNER struct {
	inner NER
	cache *Cache
}

// CachedNER wraps n with the read-through cache.
func CachedNER(n NER, cache *Cache) NER {
	return &cachedNER{inner: n, cache: cache}
}

func (c *cachedNER) PersonNames(ctx context.Context, text string) ([]Span, error) {
	key := c.cache.key("ner", text)

	var spans []Span
	if c.cache.read(ctx, key, &spans) {
		return spans, nil
	}
	spans, err := c.inner.PersonNames(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.write(ctx, key, spans)
	return spans, nil
}
