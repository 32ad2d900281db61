package otel

import (
	"context"
	"iter"

	"github.com/voxgate/voxgate/pkg/provider"

	"go.opentelemetry.io/otel"
)

type Synthesizer interface {
	Observable
	provider.Synthesizer
}

type observableSynthesizer struct {
	model    string
	provider string

	synthesizer provider.Synthesizer
}

func NewSynthesizer(provider, model string, p provider.Synthesizer) Synthesizer {
	return &observableSynthesizer{
		synthesizer: p,

		model:    model,
		provider: provider,
	}
}

func (p *observableSynthesizer) otelSetup() {
}

func (p *observableSynthesizer) Synthesize(ctx context.Context, input string, options *provider.SynthesizeOptions) iter.Seq2[*provider.Chunk, error] {
	return func(yield func(*provider.Chunk, error) bool) {
		ctx, span := otel.Tracer(instrumentationName).Start(ctx, "synthesize "+p.model)
		defer span.End()

		attrs := KeyValues(
			[]KeyValue{
				String("synthesizer.provider", p.provider),
				String("synthesizer.model", p.model),
			},
			EndUserAttrs(ctx),
		)

		span.SetAttributes(attrs...)

		for chunk, err := range p.synthesizer.Synthesize(ctx, input, options) {
			if err != nil {
				span.RecordError(err)
			}

			if !yield(chunk, err) {
				return
			}
		}
	}
}
