package oracle

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"techbook/internal/apperr"
)

// Warmup probes w up to attempts times, doubling the delay after each
// failure. Exhausted retries yield an OracleUnavailable error.
func Warmup(ctx context.Context, name string, w Warmer, attempts int, backoff time.Duration, logger *zerolog.Logger) error {
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	var lastErr error
	delay := backoff
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = w.Warmup(ctx)
		if lastErr == nil {
			logger.Info().Str("oracle", name).Int("attempt", attempt).Msg("oracle ready")
			return nil
		}
		if attempt == attempts {
			break
		}

		logger.Warn().
			Err(lastErr).
			Str("oracle", name).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("delay", delay).
			Msg("oracle warmup failed, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return apperr.OracleUnavailable(name, ctx.Err())
		}
		delay *= 2
	}

	logger.Error().Err(lastErr).Str("oracle", name).Msg("oracle warmup retries exhausted")
	return apperr.OracleUnavailable(name, lastErr)
}
