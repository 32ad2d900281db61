package provider

import (
	"context"
	"iter"
)

type Synthesizer interface {
	Synthesize(ctx context.Context, input string, options *SynthesizeOptions) iter.Seq2[*Chunk, error]
}

type SynthesizeOptions struct {
	Voice string
	Speed *float32

	Instructions string

	Format string
}

// Chunk is one slice of synthesized audio. Index is strictly increasing
// within a stream, starting at zero.
type Chunk struct {
	Index int

	Content     []byte
	ContentType string
}
