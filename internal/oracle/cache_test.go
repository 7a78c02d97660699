package oracle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedClassifier(t *testing.T) {
	mr, rdb := newRedis(t)
	var calls atomic.Int32
	inner := ClassifierFunc(func(context.Context, string, map[string]string) (map[string]float64, error) {
		calls.Add(1)
		return map[string]float64{"create_booking": 0.7}, nil
	})
	c := CachedClassifier(inner, NewCache(rdb, time.Minute, "zs"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		scores, err := c.Score(ctx, "book a plumber", intentCandidates)
		require.NoError(t, err)
		assert.InDelta(t, 0.7, scores["create_booking"], 1e-9)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Len(t, mr.Keys(), 1)

	_, err := c.Score(ctx, "book a chef", intentCandidates)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	mr.FastForward(2 * time.Minute)
	_, err = c.Score(ctx, "book a plumber", intentCandidates)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCachedClassifier_ErrorsNotCached(t *testing.T) {
	mr, rdb := newRedis(t)
	c := CachedClassifier(ClassifierFunc(func(context.Context, string, map[string]string) (map[string]float64, error) {
		return nil, errors.New("down")
	}), NewCache(rdb, time.Minute, "zs"))

	_, err := c.Score(context.Background(), "x", intentCandidates)
	assert.Error(t, err)
	assert.Empty(t, mr.Keys())
}

func TestCachedNER(t *testing.T) {
	_, rdb := newRedis(t)
	var calls atomic.Int32
	inner := NERFunc(func(context.Context, string) ([]Span, error) {
		calls.Add(1)
		return []Span{{Text: "Mike Johnson", Start: 5, End: 17}}, nil
	})
	n := CachedNER(inner, NewCache(rdb, time.Minute, "ner"))

	for i := 0; i < 2; i++ {
		spans, err := n.PersonNames(context.Background(), "Book Mike Johnson")
		require.NoError(t, err)
		assert.Equal(t, []Span{{Text: "Mike Johnson", Start: 5, End: 17}}, spans)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_DisabledAndRedisDown(t *testing.T) {
	var calls atomic.Int32
	inner := ClassifierFunc(func(context.Context, string, map[string]string) (map[string]float64, error) {
		calls.Add(1)
		return map[string]float64{}, nil
	})

	_, err := CachedClassifier(inner, NewCache(nil, time.Minute, "zs")).Score(context.Background(), "x", nil)
	require.NoError(t, err)

	down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer down.Close()
	_, err = CachedClassifier(inner, NewCache(down, time.Minute, "zs")).Score(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
