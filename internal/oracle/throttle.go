package oracle

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Observer records one oracle call.
type Observer interface {
	ObserveOracle(oracle string, took time.Duration, err error)
}

type guardedClassifier struct {
	inner   Classifier
	limiter *rate.Limiter
	obs     Observer
}

// GuardClassifier rate limits calls to c and reports them to obs. Either
// limiter or obs may be nil.
func GuardClassifier(c Classifier, limiter *rate.Limiter, obs Observer) Classifier {
	return &guardedClassifier{inner: c, limiter: limiter, obs: obs}
}

func (g *guardedClassifier) Score(ctx context.Context, text string, candidates map[string]string) (map[string]float64, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	start := time.Now()
	scores, err := g.inner.Score(ctx, text, candidates)
	if g.obs != nil {
		g.obs.ObserveOracle("classifier", time.Since(start), err)
	}
	return scores, err
}

type guardedNER struct {
	inner   NER
	limiter *rate.Limiter
	obs     Observer
}

// GuardNER is GuardClassifier for NER oracles.
func GuardNER(n NER, limiter *rate.Limiter, obs Observer) NER {
	return &guardedNER{inner: n, limiter: limiter, obs: obs}
}

func (g *guardedNER) PersonNames(ctx context.Context, text string) ([]Span, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	start := time.Now()
	spans, err := g.inner.PersonNames(ctx, text)
	if g.obs != nil {
		g.obs.ObserveOracle("ner", time.Since(start), err)
	}
	return spans, err
}

// NewLimiter builds a token bucket, or nil when rps is not positive.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
