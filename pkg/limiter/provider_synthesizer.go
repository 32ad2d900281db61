package limiter

import (
	"context"
	"iter"

	"github.com/voxgate/voxgate/pkg/provider"

	"golang.org/x/time/rate"
)

type Limiter interface {
	limiterSetup()
}

type Synthesizer interface {
	Limiter
	provider.Synthesizer
}

type limitedSynthesizer struct {
	limiter  *rate.Limiter
	provider provider.Synthesizer
}

func NewSynthesizer(l *rate.Limiter, p provider.Synthesizer) Synthesizer {
	return &limitedSynthesizer{
		limiter:  l,
		provider: p,
	}
}

func (p *limitedSynthesizer) limiterSetup() {
}

func (p *limitedSynthesizer) Synthesize(ctx context.Context, input string, options *provider.SynthesizeOptions) iter.Seq2[*provider.Chunk, error] {
	return func(yield func(*provider.Chunk, error) bool) {
		if p.limiter != nil {
			p.limiter.Wait(ctx)
		}

		for chunk, err := range p.provider.Synthesize(ctx, input, options) {
			if !yield(chunk, err) {
				return
			}
		}
	}
}
