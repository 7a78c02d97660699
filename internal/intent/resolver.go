package intent

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"
)

// tieEpsilon is the distance under which two fused scores count as equal.
const tieEpsilon = 1e-9

// Options tunes fusion and acceptance.
type Options struct {
	Threshold    float64
	OracleWeight float64
	RuleWeight   float64
}

func DefaultOptions() Options {
	return Options{Threshold: 0.3, OracleWeight: 0.7, RuleWeight: 0.5}
}

// Score is one intent's row in a classification.
type Score struct {
	Intent      Intent  `json:"intent"`
	Confidence  float64 `json:"confidence"`
	Normalized  float64 `json:"normalized"`
	OracleScore float64 `json:"oracle_score"`
	RuleScore   float64 `json:"rule_score"`
	RuleFired   bool    `json:"rule_fired"`
}

// Classification ranks every intent by raw fused confidence.
type Classification struct {
	Ranking   []Score `json:"ranking"`
	Accepted  bool    `json:"accepted"`
	Threshold float64 `json:"threshold"`
}

// Top returns the highest ranked score.
func (c *Classification) Top() Score {
	if len(c.Ranking) == 0 {
		return Score{}
	}
	return c.Ranking[0]
}

// Fuse blends rule and oracle evidence into a ranking. Each confidence is
// clamped to [0,1]. Normalized shares are for display only; ranking uses
// the raw fused value, and near-ties go to the label whose rule fired.
func Fuse(rules, model Signal, opts Options) []Score {
	scores := make([]Score, 0, len(All))
	var total float64
	for _, i := range All {
		r, m := rules[i], model[i]
		s := Score{
			Intent:      i,
			Confidence:  clamp01(opts.OracleWeight*m + opts.RuleWeight*r),
			OracleScore: m,
			RuleScore:   r,
			RuleFired:   r > 0,
		}
		total += s.Confidence
		scores = append(scores, s)
	}
	if total > 0 {
		for k := range scores {
			scores[k].Normalized = scores[k].Confidence / total
		}
	}

	sort.SliceStable(scores, func(a, b int) bool {
		sa, sb := scores[a], scores[b]
		if math.Abs(sa.Confidence-sb.Confidence) > tieEpsilon {
			return sa.Confidence > sb.Confidence
		}
		if sa.RuleFired != sb.RuleFired {
			return sa.RuleFired
		}
		return sa.Intent < sb.Intent
	})
	return scores
}

// Resolver fuses a rule source with an oracle source.
type Resolver struct {
	rules  Source
	model  Source
	opts   Options
	logger *zerolog.Logger
}

// NewResolver wires the two sources. model may be nil for rule-only runs.
func NewResolver(rules, model Source, opts Options, logger *zerolog.Logger) *Resolver {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Resolver{rules: rules, model: model, opts: opts, logger: logger}
}

// Resolve classifies text. An oracle failure is returned as an error and
// never reported as zero confidence.
func (r *Resolver) Resolve(ctx context.Context, text string) (*Classification, error) {
	ruleSig, err := r.rules.Score(ctx, text)
	if err != nil {
		return nil, err
	}

	modelSig := Signal{}
	if r.model != nil {
		if modelSig, err = r.model.Score(ctx, text); err != nil {
			r.logger.Warn().Err(err).Str("source", r.model.Name()).Msg("intent oracle failed")
			return nil, err
		}
	}

	ranking := Fuse(ruleSig, modelSig, r.opts)
	c := &Classification{
		Ranking:   ranking,
		Threshold: r.opts.Threshold,
	}
	c.Accepted = c.Top().Confidence > r.opts.Threshold

	r.logger.Debug().
		Str("top", c.Top().Intent.String()).
		Float64("confidence", c.Top().Confidence).
		Bool("accepted", c.Accepted).
		Msg("intent resolved")
	return c, nil
}
