package ffmpeg_test

import (
	"bytes"
	"context"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/voxgate/voxgate/pkg/provider"
	"github.com/voxgate/voxgate/pkg/transcoder"
	"github.com/voxgate/voxgate/pkg/transcoder/ffmpeg"

	"github.com/stretchr/testify/require"
)

func script(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "transcode.sh")

	err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755)
	require.NoError(t, err)

	return path
}

func chunks(contentType string, sizes ...int) iter.Seq2[*provider.Chunk, error] {
	return func(yield func(*provider.Chunk, error) bool) {
		for i, size := range sizes {
			chunk := &provider.Chunk{
				Index: i,

				Content:     bytes.Repeat([]byte{byte(i + 1)}, size),
				ContentType: contentType,
			}

			if !yield(chunk, nil) {
				return
			}
		}
	}
}

func TestTranscode(t *testing.T) {
	tr, err := ffmpeg.New(ffmpeg.WithCommand(script(t, "exec cat")), ffmpeg.WithLimit(1))
	require.NoError(t, err)

	input := chunks("audio/pcm", 4096, 4096, 4096)

	var total int
	var index int

	for chunk, err := range tr.Transcode(context.Background(), input, provider.FormatMP3) {
		require.NoError(t, err)
		require.Equal(t, index, chunk.Index)
		require.Equal(t, "audio/mpeg", chunk.ContentType)

		total += len(chunk.Content)
		index++
	}

	require.Equal(t, 3*4096, total)
}

func TestTranscodePassthrough(t *testing.T) {
	// A command that cannot be executed proves no subprocess is spawned
	// when the input already matches the target format.
	tr, err := ffmpeg.New(ffmpeg.WithCommand("/nonexistent/ffmpeg"))
	require.NoError(t, err)

	input := chunks("audio/mpeg", 4096, 4096, 4096)

	var collected []*provider.Chunk

	for chunk, err := range tr.Transcode(context.Background(), input, provider.FormatMP3) {
		require.NoError(t, err)

		collected = append(collected, chunk)
	}

	require.Len(t, collected, 3)

	for i, chunk := range collected {
		require.Equal(t, i, chunk.Index)
	}
}

func TestTranscodeFailure(t *testing.T) {
	tr, err := ffmpeg.New(ffmpeg.WithCommand(script(t, "echo boom >&2; exit 1")))
	require.NoError(t, err)

	input := chunks("audio/pcm", 4096)

	var failure error

	for _, err := range tr.Transcode(context.Background(), input, provider.FormatMP3) {
		if err != nil {
			failure = err
		}
	}

	require.Error(t, failure)

	var terr *transcoder.Error
	require.ErrorAs(t, failure, &terr)
	require.Contains(t, terr.Output, "boom")
}

func TestTranscodeUpstreamError(t *testing.T) {
	tr, err := ffmpeg.New(ffmpeg.WithCommand(script(t, "exec cat")))
	require.NoError(t, err)

	// One chunk reaches the subprocess, then the upstream dies. The
	// partial output must not end the stream without the error.
	input := func(yield func(*provider.Chunk, error) bool) {
		if !yield(&provider.Chunk{Content: bytes.Repeat([]byte{0x01}, 4096), ContentType: "audio/pcm"}, nil) {
			return
		}

		yield(nil, provider.NewError(provider.ErrorUnavailable, "connection reset"))
	}

	var failure error

	for _, err := range tr.Transcode(context.Background(), input, provider.FormatMP3) {
		if err != nil {
			failure = err
		}
	}

	require.Error(t, failure)

	e, ok := provider.AsError(failure)
	require.True(t, ok)
	require.Equal(t, provider.ErrorUnavailable, e.Kind)
}

func TestTranscodeCancel(t *testing.T) {
	tr, err := ffmpeg.New(ffmpeg.WithCommand(script(t, "exec cat")))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One chunk, then the upstream stalls until cancellation.
	input := func(yield func(*provider.Chunk, error) bool) {
		if !yield(&provider.Chunk{Content: bytes.Repeat([]byte{0x01}, 4096), ContentType: "audio/pcm"}, nil) {
			return
		}

		<-ctx.Done()
		yield(nil, ctx.Err())
	}

	done := make(chan struct{})

	go func() {
		defer close(done)

		for range tr.Transcode(ctx, input, provider.FormatMP3) {
		}
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("transcoder did not terminate after cancellation")
	}
}
