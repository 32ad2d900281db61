package client

import (
	"context"
	"iter"
	"strings"

	"github.com/voxgate/voxgate/pkg/provider"
	"github.com/voxgate/voxgate/pkg/provider/openai"
)

type SynthesisService struct {
	Options []RequestOption
}

func NewSynthesisService(opts ...RequestOption) SynthesisService {
	return SynthesisService{
		Options: opts,
	}
}

type Chunk = provider.Chunk
type SynthesizeOptions = provider.SynthesizeOptions

type Synthesis struct {
	Content []byte

	ContentType string
}

type SynthesizeRequest struct {
	SynthesizeOptions

	Model string

	Input string
}

// New synthesizes the input and returns the complete audio.
func (r *SynthesisService) New(ctx context.Context, input SynthesizeRequest, opts ...RequestOption) (*Synthesis, error) {
	var result Synthesis

	for chunk, err := range r.Stream(ctx, input, opts...) {
		if err != nil {
			return nil, err
		}

		result.Content = append(result.Content, chunk.Content...)
		result.ContentType = chunk.ContentType
	}

	return &result, nil
}

// Stream synthesizes the input and yields audio chunks as they arrive.
func (r *SynthesisService) Stream(ctx context.Context, input SynthesizeRequest, opts ...RequestOption) iter.Seq2[*Chunk, error] {
	cfg := newRequestConfig(append(r.Options, opts...)...)
	url := strings.TrimRight(cfg.URL, "/") + "/v1/"

	options := []openai.Option{}

	if cfg.Token != "" {
		options = append(options, openai.WithToken(cfg.Token))
	}

	if cfg.Client != nil {
		options = append(options, openai.WithClient(cfg.Client))
	}

	p, err := openai.NewSynthesizer(url, input.Model, options...)

	if err != nil {
		return func(yield func(*Chunk, error) bool) {
			yield(nil, err)
		}
	}

	return p.Synthesize(ctx, input.Input, &input.SynthesizeOptions)
}
