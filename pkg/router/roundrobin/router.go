package roundrobin

import (
	"context"
	"errors"
	"iter"
	"math/rand"
	"time"

	"github.com/voxgate/voxgate/pkg/provider"
	"github.com/voxgate/voxgate/pkg/router"
)

// Synthesizer implements a simple round-robin router with circuit breaker
// protection. Load is distributed randomly among healthy providers.
type Synthesizer struct {
	synthesizers []provider.Synthesizer
	stats        []*router.ProviderStats

	failureThreshold int
	recoveryTimeout  time.Duration
}

func NewSynthesizer(synthesizers ...provider.Synthesizer) (provider.Synthesizer, error) {
	if len(synthesizers) == 0 {
		return nil, errors.New("at least one synthesizer is required")
	}

	stats := make([]*router.ProviderStats, len(synthesizers))
	for i := range stats {
		stats[i] = router.NewProviderStats()
	}

	return &Synthesizer{
		synthesizers:     synthesizers,
		stats:            stats,
		failureThreshold: router.DefaultFailureThreshold,
		recoveryTimeout:  router.DefaultRecoveryTimeout,
	}, nil
}

// Synthesize routes the request to a randomly selected healthy provider
func (s *Synthesizer) Synthesize(ctx context.Context, input string, options *provider.SynthesizeOptions) iter.Seq2[*provider.Chunk, error] {
	return func(yield func(*provider.Chunk, error) bool) {
		index := s.selectProvider()

		if index < 0 {
			yield(nil, errors.New("all providers are unavailable"))
			return
		}

		s.stats[index].AddInflight(1)
		defer s.stats[index].AddInflight(-1)

		var hasResponse bool

		for chunk, err := range s.synthesizers[index].Synthesize(ctx, input, options) {
			if err != nil {
				if !yield(chunk, err) {
					break
				}

				continue
			}

			hasResponse = true

			if !yield(chunk, nil) {
				break
			}
		}

		if hasResponse {
			s.stats[index].RecordSuccess()
		} else {
			s.stats[index].RecordFailure(s.failureThreshold)
		}
	}
}

// selectProvider randomly selects from available (healthy) providers
func (s *Synthesizer) selectProvider() int {
	candidates := make([]int, 0, len(s.synthesizers))

	for i, stat := range s.stats {
		if stat.IsAvailable(s.recoveryTimeout) {
			candidates = append(candidates, i)
		}
	}

	if len(candidates) == 0 {
		// All circuits are open - fallback to least recently failed
		return s.fallbackProvider()
	}

	return candidates[rand.Intn(len(candidates))]
}

func (s *Synthesizer) fallbackProvider() int {
	bestIndex := 0

	var oldestFailure time.Time

	for i, stat := range s.stats {
		lastFailure := stat.LastFailure()

		if i == 0 || lastFailure.Before(oldestFailure) {
			oldestFailure = lastFailure
			bestIndex = i
		}
	}

	s.stats[bestIndex].SetHalfOpen()

	return bestIndex
}
