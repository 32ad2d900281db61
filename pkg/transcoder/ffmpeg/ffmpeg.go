package ffmpeg

import (
	"bytes"
	"context"
	"io"
	"iter"
	"os/exec"
	"strings"

	"github.com/voxgate/voxgate/pkg/provider"
	"github.com/voxgate/voxgate/pkg/transcoder"
)

var _ transcoder.Provider = (*Transcoder)(nil)

const chunkSize = 16 * 1024

type Transcoder struct {
	command string

	limit chan struct{}
}

type Option func(*Transcoder)

func WithCommand(command string) Option {
	return func(t *Transcoder) {
		t.command = command
	}
}

// WithLimit bounds the number of concurrent subprocesses.
func WithLimit(limit int) Option {
	return func(t *Transcoder) {
		if limit > 0 {
			t.limit = make(chan struct{}, limit)
		}
	}
}

func New(options ...Option) (*Transcoder, error) {
	t := &Transcoder{
		command: "ffmpeg",
	}

	for _, option := range options {
		option(t)
	}

	return t, nil
}

func (t *Transcoder) Transcode(ctx context.Context, input iter.Seq2[*provider.Chunk, error], target string) iter.Seq2[*provider.Chunk, error] {
	return func(yield func(*provider.Chunk, error) bool) {
		next, stop := iter.Pull2(input)

		first, err, ok := pull(next)

		if err != nil {
			stop()
			yield(nil, err)
			return
		}

		if !ok {
			stop()
			return
		}

		contentType := provider.FormatContentType(target)

		// Already in the requested format, or no conversion requested:
		// pass chunks through without spawning anything.
		if target == "" || first.ContentType == contentType {
			defer stop()

			chunk := first

			for {
				if !yield(chunk, nil) {
					return
				}

				chunk, err, ok = pull(next)

				if err != nil {
					yield(nil, err)
					return
				}

				if !ok {
					return
				}
			}
		}

		if t.limit != nil {
			select {
			case t.limit <- struct{}{}:
			case <-ctx.Done():
				stop()
				yield(nil, ctx.Err())
				return
			}

			defer func() { <-t.limit }()
		}

		t.run(ctx, yield, first, next, stop, target, contentType)
	}
}

func (t *Transcoder) run(ctx context.Context, yield func(*provider.Chunk, error) bool, first *provider.Chunk, next func() (*provider.Chunk, error, bool), stop func(), target, contentType string) {
	cmd := exec.CommandContext(ctx, t.command, args(first.ContentType, target)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()

	if err != nil {
		stop()
		yield(nil, err)
		return
	}

	stdout, err := cmd.StdoutPipe()

	if err != nil {
		stop()
		yield(nil, err)
		return
	}

	if err := cmd.Start(); err != nil {
		stop()
		yield(nil, &transcoder.Error{Err: err})
		return
	}

	waited := false

	defer func() {
		stdin.Close()

		if !waited {
			cmd.Process.Kill()
			cmd.Wait()
		}
	}()

	// The writer owns the input iterator from here on. A failed stdin
	// write (subprocess gone) ends the pump. An upstream error is kept
	// so it surfaces after the subprocess has drained the partial input.
	var pullErr error

	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		defer stop()
		defer stdin.Close()

		chunk := first

		for {
			if _, err := stdin.Write(chunk.Content); err != nil {
				return
			}

			var err error
			var ok bool

			chunk, err, ok = pull(next)

			if err != nil {
				pullErr = err
				return
			}

			if !ok {
				return
			}
		}
	}()

	index := 0

	for {
		buf := make([]byte, chunkSize)

		n, err := io.ReadFull(stdout, buf)

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
			break
		}

		if err != nil {
			// Reap before reading stderr, the subprocess may still write it.
			waited = true

			cmd.Process.Kill()
			cmd.Wait()

			<-writerDone

			if pullErr != nil {
				yield(nil, pullErr)
				return
			}

			yield(nil, &transcoder.Error{Err: err, Output: diagnostics(&stderr)})
			return
		}
	}

	waited = true

	waitErr := cmd.Wait()

	<-writerDone

	if pullErr != nil {
		yield(nil, pullErr)
		return
	}

	if waitErr != nil {
		yield(nil, &transcoder.Error{Err: waitErr, Output: diagnostics(&stderr)})
	}
}

func pull(next func() (*provider.Chunk, error, bool)) (*provider.Chunk, error, bool) {
	for {
		chunk, err, ok := next()

		if err != nil || !ok {
			return nil, err, false
		}

		if len(chunk.Content) == 0 {
			continue
		}

		return chunk, nil, true
	}
}

func args(source, target string) []string {
	result := []string{
		"-hide_banner",
		"-loglevel", "error",
	}

	// Raw PCM cannot be probed. Providers emit 24kHz mono s16le.
	if source == provider.FormatContentType(provider.FormatPCM) {
		result = append(result, "-f", "s16le", "-ar", "24000", "-ac", "1")
	}

	result = append(result, "-i", "pipe:0")

	switch target {
	case provider.FormatMP3:
		result = append(result, "-f", "mp3")

	case provider.FormatWAV:
		result = append(result, "-f", "wav")

	case provider.FormatOGG:
		result = append(result, "-f", "ogg")

	case provider.FormatOpus:
		result = append(result, "-f", "opus")

	case provider.FormatFLAC:
		result = append(result, "-f", "flac")

	case provider.FormatAAC:
		result = append(result, "-f", "adts")

	case provider.FormatPCM:
		result = append(result, "-f", "s16le")

	default:
		result = append(result, "-f", target)
	}

	return append(result, "pipe:1")
}

func diagnostics(buf *bytes.Buffer) string {
	return strings.TrimSpace(buf.String())
}
