package pipeline

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voxgate/voxgate/pkg/provider"
	"github.com/voxgate/voxgate/pkg/transcoder"

	"github.com/google/uuid"
)

type Resolver interface {
	Synthesizer(model string) (provider.Synthesizer, error)
}

type Request struct {
	Input string

	Model string
	Voice string

	Format string

	Speed        *float32
	Instructions string
}

type Status string

const (
	StatusPending     Status = "pending"
	StatusStreaming   Status = "streaming"
	StatusTranscoding Status = "transcoding"
	StatusDone        Status = "done"
	StatusFailed      Status = "failed"
)

// Job tracks one request through the pipeline. Status moves forward only
// and never leaves done or failed.
type Job struct {
	ID string

	Created time.Time

	mu sync.Mutex

	status    Status
	cancelled bool
}

func NewJob() *Job {
	return &Job{
		ID: uuid.NewString(),

		Created: time.Now(),

		status: StatusPending,
	}
}

func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.status
}

func (j *Job) Cancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.cancelled
}

func (j *Job) transition(status Status) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status == StatusDone || j.status == StatusFailed {
		return
	}

	j.status = status
}

func (j *Job) fail(cancelled bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status == StatusDone || j.status == StatusFailed {
		return
	}

	j.status = StatusFailed
	j.cancelled = cancelled
}

type Pipeline struct {
	resolver   Resolver
	transcoder transcoder.Provider

	timeout  time.Duration
	maxInput int
}

type Option func(*Pipeline)

func WithTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) {
		p.timeout = timeout
	}
}

func WithMaxInputLength(length int) Option {
	return func(p *Pipeline) {
		p.maxInput = length
	}
}

func New(resolver Resolver, transcoder transcoder.Provider, options ...Option) (*Pipeline, error) {
	if resolver == nil {
		return nil, errors.New("resolver is required")
	}

	if transcoder == nil {
		return nil, errors.New("transcoder is required")
	}

	p := &Pipeline{
		resolver:   resolver,
		transcoder: transcoder,

		timeout:  2 * time.Minute,
		maxInput: 5000,
	}

	for _, option := range options {
		option(p)
	}

	return p, nil
}

func (p *Pipeline) Handle(ctx context.Context, request Request) iter.Seq2[*provider.Chunk, error] {
	return p.HandleJob(ctx, NewJob(), request)
}

func (p *Pipeline) HandleJob(ctx context.Context, job *Job, request Request) iter.Seq2[*provider.Chunk, error] {
	return func(yield func(*provider.Chunk, error) bool) {
		if err := p.validate(request); err != nil {
			job.fail(false)
			yield(nil, err)
			return
		}

		synthesizer, err := p.resolver.Synthesizer(request.Model)

		if err != nil {
			job.fail(false)
			yield(nil, provider.NewError(provider.ErrorInvalidRequest, err.Error()))
			return
		}

		// One deadline covers synthesis and transcoding.
		ctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		options := &provider.SynthesizeOptions{
			Voice: request.Voice,
			Speed: request.Speed,

			Instructions: request.Instructions,

			Format: request.Format,
		}

		job.transition(StatusStreaming)

		slog.Debug("synthesis started",
			"job", job.ID,
			"model", request.Model,
			"voice", request.Voice,
			"format", request.Format)

		var source atomic.Value

		stream := func(yield func(*provider.Chunk, error) bool) {
			for chunk, err := range synthesizer.Synthesize(ctx, request.Input, options) {
				if chunk != nil {
					source.CompareAndSwap(nil, chunk.ContentType)
				}

				if !yield(chunk, err) {
					return
				}
			}
		}

		delivered := 0

		for chunk, err := range p.transcoder.Transcode(ctx, stream, request.Format) {
			if err != nil {
				p.finish(job, err, delivered)
				yield(nil, err)
				return
			}

			if val, ok := source.Load().(string); ok && val != chunk.ContentType {
				job.transition(StatusTranscoding)
			}

			if !yield(chunk, nil) {
				job.fail(true)

				slog.Debug("synthesis cancelled", "job", job.ID, "chunks", delivered)
				return
			}

			delivered++
		}

		job.transition(StatusDone)

		slog.Info("synthesis done",
			"job", job.ID,
			"model", request.Model,
			"chunks", delivered,
			"duration", time.Since(job.Created))
	}
}

func (p *Pipeline) finish(job *Job, err error, delivered int) {
	cancelled := errors.Is(err, context.Canceled)

	job.fail(cancelled)

	// Cancellation is expected behavior, not a failure worth alerting on.
	if cancelled {
		slog.Debug("synthesis cancelled", "job", job.ID, "chunks", delivered)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		slog.Warn("synthesis deadline exceeded", "job", job.ID, "chunks", delivered)
		return
	}

	slog.Error("synthesis failed", "job", job.ID, "chunks", delivered, "error", err)
}

func (p *Pipeline) validate(request Request) error {
	if request.Input == "" {
		return provider.NewError(provider.ErrorInvalidRequest, "input must not be empty")
	}

	if len(request.Input) > p.maxInput {
		return provider.NewError(provider.ErrorInvalidRequest, "input exceeds maximum length")
	}

	if request.Format != "" && !provider.IsFormat(request.Format) {
		return provider.NewError(provider.ErrorInvalidRequest, "unsupported format: "+request.Format)
	}

	return nil
}
