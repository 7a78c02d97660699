// Package oracle holds the external classification and entity-recognition
// capabilities the pipeline consults, plus the adapters that back them.
package oracle

import (
	"context"
)

// Classifier scores text against labelled candidates. The returned map holds
// a confidence in [0,1] for every label it was given.
type Classifier interface {
	Score(ctx context.Context, text string, candidates map[string]string) (map[string]float64, error)
}

// NER finds person names in text.
type NER interface {
	PersonNames(ctx context.Context, text string) ([]Span, error)
}

// Span is a piece of the input text with byte offsets [Start, End).
type Span struct {
	Text  string  `json:"text"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score,omitempty"`
}

// Warmer is implemented by oracles that need a one-time readiness probe.
type Warmer interface {
	Warmup(ctx context.Context) error
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, text string, candidates map[string]string) (map[string]float64, error)

func (f ClassifierFunc) Score(ctx context.Context, text string, candidates map[string]string) (map[string]float64, error) {
	return f(ctx, text, candidates)
}

// NERFunc adapts a function to NER.
type NERFunc func(ctx context.Context, text string) ([]Span, error)

func (f NERFunc) PersonNames(ctx context.Context, text string) ([]Span, error) {
	return f(ctx, text)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
