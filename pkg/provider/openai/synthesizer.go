package openai

import (
	"context"
	"io"
	"iter"

	"github.com/voxgate/voxgate/pkg/provider"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"
)

var _ provider.Synthesizer = (*Synthesizer)(nil)

const chunkSize = 16 * 1024

type Synthesizer struct {
	*Config
	speech openai.AudioSpeechService
}

func NewSynthesizer(url, model string, options ...Option) (*Synthesizer, error) {
	cfg := &Config{
		url:   url,
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	return &Synthesizer{
		Config: cfg,
		speech: openai.NewAudioSpeechService(cfg.Options()...),
	}, nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, input string, options *provider.SynthesizeOptions) iter.Seq2[*provider.Chunk, error] {
	if options == nil {
		options = new(provider.SynthesizeOptions)
	}

	return func(yield func(*provider.Chunk, error) bool) {
		voice := openai.AudioSpeechNewParamsVoiceUnion{
			OfString: openai.String(string(openai.AudioSpeechNewParamsVoiceStringAlloy)),
		}

		if options.Voice != "" {
			voice = openai.AudioSpeechNewParamsVoiceUnion{
				OfString: openai.String(options.Voice),
			}
		}

		format, contentType := responseFormat(options.Format)

		params := openai.AudioSpeechNewParams{
			Model: s.model,
			Input: input,

			Voice: voice,

			ResponseFormat: format,
		}

		if options.Speed != nil {
			params.Speed = param.NewOpt(float64(*options.Speed))
		}

		if options.Instructions != "" {
			params.Instructions = param.NewOpt(options.Instructions)
		}

		result, err := s.speech.New(ctx, params)

		if err != nil {
			yield(nil, convertError(err))
			return
		}

		defer result.Body.Close()

		index := 0

		for {
			buf := make([]byte, chunkSize)

			n, err := io.ReadFull(result.Body, buf)

			if n > 0 {
				chunk := &provider.Chunk{
					Index: index,

					Content:     buf[:n],
					ContentType: contentType,
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

func responseFormat(format string) (openai.AudioSpeechNewParamsResponseFormat, string) {
	switch format {
	case provider.FormatOpus:
		return openai.AudioSpeechNewParamsResponseFormatOpus, provider.FormatContentType(provider.FormatOpus)

	case provider.FormatAAC:
		return openai.AudioSpeechNewParamsResponseFormatAAC, provider.FormatContentType(provider.FormatAAC)

	case provider.FormatFLAC:
		return openai.AudioSpeechNewParamsResponseFormatFLAC, provider.FormatContentType(provider.FormatFLAC)

	case provider.FormatWAV:
		return openai.AudioSpeechNewParamsResponseFormatWAV, provider.FormatContentType(provider.FormatWAV)

	case provider.FormatPCM:
		return openai.AudioSpeechNewParamsResponseFormatPCM, provider.FormatContentType(provider.FormatPCM)

	default:
		return openai.AudioSpeechNewParamsResponseFormatMP3, provider.FormatContentType(provider.FormatMP3)
	}
}
