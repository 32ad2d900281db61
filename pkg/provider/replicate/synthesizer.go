package replicate

import (
	"context"
	"errors"
	"io"
	"iter"

	"github.com/voxgate/voxgate/pkg/provider"

	"github.com/replicate/replicate-go"
)

var _ provider.Synthesizer = (*Synthesizer)(nil)

const chunkSize = 16 * 1024

type Synthesizer struct {
	*Config
	client *replicate.Client
}

func NewSynthesizer(model string, options ...Option) (*Synthesizer, error) {
	cfg := &Config{
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	client, err := replicate.NewClient(cfg.Options()...)

	if err != nil {
		return nil, err
	}

	return &Synthesizer{
		Config: cfg,
		client: client,
	}, nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, input string, options *provider.SynthesizeOptions) iter.Seq2[*provider.Chunk, error] {
	if options == nil {
		options = new(provider.SynthesizeOptions)
	}

	return func(yield func(*provider.Chunk, error) bool) {
		in := replicate.PredictionInput{
			"text": input,
		}

		if options.Voice != "" {
			in["voice"] = options.Voice
		}

		output, err := s.client.RunWithOptions(ctx, s.model, in, nil, replicate.WithBlockUntilDone(), replicate.WithFileOutput())

		if err != nil {
			yield(nil, convertError(err))
			return
		}

		file := fileOutput(output)

		if file == nil {
			yield(nil, provider.NewError(provider.ErrorUnavailable, "no audio returned"))
			return
		}

		defer file.Close()

		index := 0

		for {
			buf := make([]byte, chunkSize)

			n, err := io.ReadFull(file, buf)

			if n > 0 {
				chunk := &provider.Chunk{
					Index: index,

					Content:     buf[:n],
					ContentType: provider.FormatContentType(provider.FormatMP3),
				}

				if !yield(chunk, nil) {
					return
				}

				index++
			}

			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return
			}

			if err != nil {
				yield(nil, provider.NewError(provider.ErrorUnavailable, err.Error()))
				return
			}
		}
	}
}

func fileOutput(output replicate.PredictionOutput) *replicate.FileOutput {
	switch val := output.(type) {
	case *replicate.FileOutput:
		return val

	case []any:
		if len(val) > 0 {
			if file, ok := val[0].(*replicate.FileOutput); ok {
				return file
			}
		}
	}

	return nil
}

func convertError(err error) error {
	var apierr *replicate.APIError

	if errors.As(err, &apierr) {
		return provider.ErrorFromStatus(apierr.Status, apierr.Detail)
	}

	return err
}
