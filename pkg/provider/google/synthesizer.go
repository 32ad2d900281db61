package google

import (
	"context"
	"errors"
	"iter"

	"github.com/voxgate/voxgate/pkg/provider"

	"google.golang.org/genai"
)

var _ provider.Synthesizer = (*Synthesizer)(nil)

const chunkSize = 16 * 1024

type Synthesizer struct {
	*Config
}

func NewSynthesizer(model string, options ...Option) (*Synthesizer, error) {
	cfg := &Config{
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	return &Synthesizer{
		Config: cfg,
	}, nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, input string, options *provider.SynthesizeOptions) iter.Seq2[*provider.Chunk, error] {
	if options == nil {
		options = new(provider.SynthesizeOptions)
	}

	return func(yield func(*provider.Chunk, error) bool) {
		client, err := s.newClient(ctx)

		if err != nil {
			yield(nil, err)
			return
		}

		config := &genai.GenerateContentConfig{
			ResponseModalities: []string{"AUDIO"},
		}

		if options.Voice != "" {
			config.SpeechConfig = &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
						VoiceName: options.Voice,
					},
				},
			}
		}

		contents := []*genai.Content{
			genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(input)}, genai.RoleUser),
		}

		resp, err := client.Models.GenerateContent(ctx, s.model, contents, config)

		if err != nil {
			yield(nil, convertError(err))
			return
		}

		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			yield(nil, provider.NewError(provider.ErrorUnavailable, "no audio returned"))
			return
		}

		index := 0

		for _, part := range resp.Candidates[0].Content.Parts {
			if part.InlineData == nil {
				continue
			}

			data := part.InlineData.Data

			// Gemini returns raw 24kHz 16-bit PCM in one part.
			for len(data) > 0 {
				n := min(len(data), chunkSize)

				chunk := &provider.Chunk{
					Index: index,

					Content:     data[:n],
					ContentType: provider.FormatContentType(provider.FormatPCM),
				}

				if !yield(chunk, nil) {
					return
				}

				index++
				data = data[n:]
			}
		}
	}
}

func convertError(err error) error {
	var apierr genai.APIError

	if errors.As(err, &apierr) {
		return provider.ErrorFromStatus(apierr.Code, apierr.Message)
	}

	return err
}
