package transcoder

import (
	"context"
	"iter"

	"github.com/voxgate/voxgate/pkg/provider"
)

type Provider interface {
	Transcode(ctx context.Context, input iter.Seq2[*provider.Chunk, error], target string) iter.Seq2[*provider.Chunk, error]
}

// Error is terminal. Transcoding the same input fails the same way, so
// callers must not retry.
type Error struct {
	Output string

	Err error
}

func (e *Error) Error() string {
	text := "transcode failed"

	if e.Err != nil {
		text += ": " + e.Err.Error()
	}

	if e.Output != "" {
		text += ": " + e.Output
	}

	return text
}

func (e *Error) Unwrap() error {
	return e.Err
}
