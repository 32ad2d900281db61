package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"iter"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/voxgate/voxgate/pkg/provider"
)

var _ provider.Synthesizer = (*Synthesizer)(nil)

const (
	chunkSize = 16 * 1024

	maxAttempts = 3
)

type Synthesizer struct {
	*Config
}

func NewSynthesizer(url, model string, options ...Option) (*Synthesizer, error) {
	cfg := &Config{
		url:   url,
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	if cfg.model == "" {
		cfg.model = "eleven_multilingual_v2"
	}

	if cfg.client == nil {
		cfg.client = http.DefaultClient
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
		if input == "" {
			yield(nil, provider.NewError(provider.ErrorInvalidRequest, "input must not be empty"))
			return
		}

		if options.Voice == "" {
			yield(nil, provider.NewError(provider.ErrorInvalidRequest, "voice must not be empty"))
			return
		}

		format, contentType := outputFormat(options.Format)

		var resp *http.Response

		for attempt := range maxAttempts {
			var err error

			resp, err = s.open(ctx, input, options.Voice, format)

			if err == nil {
				break
			}

			// Retrying is only safe before any chunk left this call.
			if !provider.IsRetryable(err) || attempt == maxAttempts-1 {
				yield(nil, err)
				return
			}

			if waitErr := wait(ctx, backoff(attempt, err)); waitErr != nil {
				yield(nil, err)
				return
			}
		}

		defer resp.Body.Close()

		index := 0

		for {
			buf := make([]byte, chunkSize)

			n, err := io.ReadFull(resp.Body, buf)

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

func (s *Synthesizer) open(ctx context.Context, input, voice, format string) (*http.Response, error) {
	body := map[string]any{
		"text":     input,
		"model_id": s.model,
	}

	data, _ := json.Marshal(body)

	url := s.baseURL() + "/v1/text-to-speech/" + voice + "/stream?output_format=" + format

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))

	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.token)

	resp, err := s.client.Do(req)

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return nil, provider.NewError(provider.ErrorUnavailable, err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()

		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		result := provider.ErrorFromStatus(resp.StatusCode, string(text))

		if val, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			result.RetryAfter = time.Duration(val) * time.Second
		}

		return nil, result
	}

	return resp, nil
}

func outputFormat(format string) (string, string) {
	switch format {
	case provider.FormatPCM:
		return "pcm_24000", provider.FormatContentType(provider.FormatPCM)

	case provider.FormatOpus:
		return "opus_48000_128", provider.FormatContentType(provider.FormatOpus)

	default:
		return "mp3_44100_128", provider.FormatContentType(provider.FormatMP3)
	}
}

func backoff(attempt int, err error) time.Duration {
	if e, ok := provider.AsError(err); ok && e.RetryAfter > 0 {
		return e.RetryAfter
	}

	delay := time.Duration(1<<attempt) * 500 * time.Millisecond

	return delay + time.Duration(rand.Int63n(int64(250*time.Millisecond)))
}

func wait(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()

	case <-timer.C:
		return nil
	}
}
