package polly

import (
	"context"
	"errors"
	"io"
	"iter"
	"strings"

	"github.com/voxgate/voxgate/pkg/provider"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"
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

	if cfg.model == "" {
		cfg.model = string(types.EngineNeural)
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

		voice := types.VoiceIdJoanna

		if options.Voice != "" {
			voice = types.VoiceId(options.Voice)
		}

		format, contentType := outputFormat(options.Format)

		result, err := client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
			Text: aws.String(input),

			VoiceId: voice,
			Engine:  types.Engine(s.model),

			OutputFormat: format,
		})

		if err != nil {
			yield(nil, convertError(err))
			return
		}

		defer result.AudioStream.Close()

		index := 0

		for {
			buf := make([]byte, chunkSize)

			n, err := io.ReadFull(result.AudioStream, buf)

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

func outputFormat(format string) (types.OutputFormat, string) {
	switch format {
	case provider.FormatOGG, provider.FormatOpus:
		return types.OutputFormatOggVorbis, provider.FormatContentType(provider.FormatOGG)

	case provider.FormatPCM:
		return types.OutputFormatPcm, provider.FormatContentType(provider.FormatPCM)

	default:
		return types.OutputFormatMp3, provider.FormatContentType(provider.FormatMP3)
	}
}

func convertError(err error) error {
	var apierr smithy.APIError

	if !errors.As(err, &apierr) {
		return err
	}

	code := apierr.ErrorCode()

	switch {
	case code == "ThrottlingException":
		return provider.NewError(provider.ErrorRateLimit, apierr.ErrorMessage())

	case strings.Contains(code, "AccessDenied"), code == "UnrecognizedClientException", code == "InvalidSignatureException":
		return provider.NewError(provider.ErrorAuth, apierr.ErrorMessage())

	case code == "TextLengthExceededException", code == "InvalidSsmlException", code == "ValidationException":
		return provider.NewError(provider.ErrorInvalidRequest, apierr.ErrorMessage())

	default:
		return provider.NewError(provider.ErrorUnavailable, apierr.ErrorMessage())
	}
}
