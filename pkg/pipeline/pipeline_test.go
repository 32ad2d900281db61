package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/voxgate/voxgate/pkg/pipeline"
	"github.com/voxgate/voxgate/pkg/provider"
	"github.com/voxgate/voxgate/pkg/transcoder/ffmpeg"

	"github.com/stretchr/testify/require"
)

type mockSynthesizer struct {
	chunks []*provider.Chunk
	err    error

	block bool
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, input string, options *provider.SynthesizeOptions) iter.Seq2[*provider.Chunk, error] {
	return func(yield func(*provider.Chunk, error) bool) {
		for _, chunk := range m.chunks {
			if !yield(chunk, nil) {
				return
			}
		}

		if m.block {
			<-ctx.Done()
			yield(nil, ctx.Err())
			return
		}

		if m.err != nil {
			yield(nil, m.err)
		}
	}
}

type mockResolver struct {
	synthesizer provider.Synthesizer
}

func (m *mockResolver) Synthesizer(model string) (provider.Synthesizer, error) {
	if m.synthesizer == nil {
		return nil, errors.New("synthesizer not found: " + model)
	}

	return m.synthesizer, nil
}

type passTranscoder struct{}

func (passTranscoder) Transcode(ctx context.Context, input iter.Seq2[*provider.Chunk, error], target string) iter.Seq2[*provider.Chunk, error] {
	return input
}

type recodeTranscoder struct {
	contentType string
}

func (t *recodeTranscoder) Transcode(ctx context.Context, input iter.Seq2[*provider.Chunk, error], target string) iter.Seq2[*provider.Chunk, error] {
	return func(yield func(*provider.Chunk, error) bool) {
		for chunk, err := range input {
			if err != nil {
				yield(nil, err)
				return
			}

			if !yield(&provider.Chunk{Index: chunk.Index, Content: chunk.Content, ContentType: t.contentType}, nil) {
				return
			}
		}
	}
}

func mockChunks(count, size int) []*provider.Chunk {
	var result []*provider.Chunk

	for i := range count {
		result = append(result, &provider.Chunk{
			Index: i,

			Content:     bytes.Repeat([]byte{byte(i + 1)}, size),
			ContentType: "audio/mpeg",
		})
	}

	return result
}

func TestHandle(t *testing.T) {
	resolver := &mockResolver{synthesizer: &mockSynthesizer{chunks: mockChunks(3, 4096)}}

	p, err := pipeline.New(resolver, passTranscoder{})
	require.NoError(t, err)

	job := pipeline.NewJob()

	request := pipeline.Request{
		Input:  "hello",
		Voice:  "v1",
		Format: "mp3",
	}

	var total int
	var index int

	for chunk, err := range p.HandleJob(context.Background(), job, request) {
		require.NoError(t, err)
		require.Equal(t, index, chunk.Index)

		total += len(chunk.Content)
		index++
	}

	require.Equal(t, 3, index)
	require.Equal(t, 3*4096, total)

	require.Equal(t, pipeline.StatusDone, job.Status())
	require.False(t, job.Cancelled())
}

func TestHandleTranscoding(t *testing.T) {
	resolver := &mockResolver{synthesizer: &mockSynthesizer{chunks: mockChunks(2, 1024)}}

	p, err := pipeline.New(resolver, &recodeTranscoder{contentType: "audio/wav"})
	require.NoError(t, err)

	job := pipeline.NewJob()

	var seen bool

	for _, err := range p.HandleJob(context.Background(), job, pipeline.Request{Input: "hello", Format: "wav"}) {
		require.NoError(t, err)

		if job.Status() == pipeline.StatusTranscoding {
			seen = true
		}
	}

	require.True(t, seen)
	require.Equal(t, pipeline.StatusDone, job.Status())
}

func TestHandleValidation(t *testing.T) {
	resolver := &mockResolver{synthesizer: &mockSynthesizer{}}

	p, err := pipeline.New(resolver, passTranscoder{}, pipeline.WithMaxInputLength(10))
	require.NoError(t, err)

	tests := []struct {
		name    string
		request pipeline.Request
	}{
		{name: "empty input", request: pipeline.Request{}},
		{name: "input too long", request: pipeline.Request{Input: "this input is too long"}},
		{name: "unknown format", request: pipeline.Request{Input: "hello", Format: "midi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := pipeline.NewJob()

			var failure error

			for _, err := range p.HandleJob(context.Background(), job, tt.request) {
				failure = err
			}

			e, ok := provider.AsError(failure)
			require.True(t, ok)
			require.Equal(t, provider.ErrorInvalidRequest, e.Kind)

			require.Equal(t, pipeline.StatusFailed, job.Status())
			require.False(t, job.Cancelled())
		})
	}
}

func TestHandleProviderError(t *testing.T) {
	resolver := &mockResolver{synthesizer: &mockSynthesizer{err: provider.NewError(provider.ErrorAuth, "bad key")}}

	p, err := pipeline.New(resolver, passTranscoder{})
	require.NoError(t, err)

	job := pipeline.NewJob()

	var failure error

	for _, err := range p.HandleJob(context.Background(), job, pipeline.Request{Input: "hello"}) {
		failure = err
	}

	e, ok := provider.AsError(failure)
	require.True(t, ok)
	require.Equal(t, provider.ErrorAuth, e.Kind)
	require.False(t, e.Retryable)

	require.Equal(t, pipeline.StatusFailed, job.Status())
	require.False(t, job.Cancelled())
}

func TestHandleProviderErrorMidStream(t *testing.T) {
	chunks := mockChunks(1, 4096)

	for _, chunk := range chunks {
		chunk.ContentType = "audio/pcm"
	}

	resolver := &mockResolver{synthesizer: &mockSynthesizer{
		chunks: chunks,
		err:    provider.NewError(provider.ErrorUnavailable, "connection reset"),
	}}

	command := filepath.Join(t.TempDir(), "transcode.sh")
	require.NoError(t, os.WriteFile(command, []byte("#!/bin/sh\nexec cat\n"), 0o755))

	transcoder, err := ffmpeg.New(ffmpeg.WithCommand(command))
	require.NoError(t, err)

	p, err := pipeline.New(resolver, transcoder)
	require.NoError(t, err)

	job := pipeline.NewJob()

	var failure error

	for _, err := range p.HandleJob(context.Background(), job, pipeline.Request{Input: "hello", Format: "mp3"}) {
		if err != nil {
			failure = err
		}
	}

	e, ok := provider.AsError(failure)
	require.True(t, ok)
	require.Equal(t, provider.ErrorUnavailable, e.Kind)

	require.Equal(t, pipeline.StatusFailed, job.Status())
	require.False(t, job.Cancelled())
}

func TestHandleDisconnect(t *testing.T) {
	resolver := &mockResolver{synthesizer: &mockSynthesizer{chunks: mockChunks(10, 1024)}}

	p, err := pipeline.New(resolver, passTranscoder{})
	require.NoError(t, err)

	job := pipeline.NewJob()

	count := 0

	for chunk, err := range p.HandleJob(context.Background(), job, pipeline.Request{Input: "hello"}) {
		require.NoError(t, err)
		require.NotNil(t, chunk)

		count++

		if count == 2 {
			break
		}
	}

	require.Equal(t, pipeline.StatusFailed, job.Status())
	require.True(t, job.Cancelled())
}

func TestHandleContextCancelled(t *testing.T) {
	resolver := &mockResolver{synthesizer: &mockSynthesizer{chunks: mockChunks(1, 1024), block: true}}

	p, err := pipeline.New(resolver, passTranscoder{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job := pipeline.NewJob()

	var failure error

	for chunk, err := range p.HandleJob(ctx, job, pipeline.Request{Input: "hello"}) {
		if err != nil {
			failure = err
			continue
		}

		require.NotNil(t, chunk)
		cancel()
	}

	require.ErrorIs(t, failure, context.Canceled)

	require.Equal(t, pipeline.StatusFailed, job.Status())
	require.True(t, job.Cancelled())
}

func TestHandleTimeout(t *testing.T) {
	resolver := &mockResolver{synthesizer: &mockSynthesizer{block: true}}

	p, err := pipeline.New(resolver, passTranscoder{}, pipeline.WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	job := pipeline.NewJob()

	start := time.Now()

	var failure error

	for _, err := range p.HandleJob(context.Background(), job, pipeline.Request{Input: "hello"}) {
		failure = err
	}

	require.ErrorIs(t, failure, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 5*time.Second)

	require.Equal(t, pipeline.StatusFailed, job.Status())
	require.False(t, job.Cancelled())
}

func TestHandleUnknownModel(t *testing.T) {
	p, err := pipeline.New(&mockResolver{}, passTranscoder{})
	require.NoError(t, err)

	var failure error

	for _, err := range p.Handle(context.Background(), pipeline.Request{Input: "hello", Model: "missing"}) {
		failure = err
	}

	e, ok := provider.AsError(failure)
	require.True(t, ok)
	require.Equal(t, provider.ErrorInvalidRequest, e.Kind)
}
