package roundrobin

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"
	"testing"
	"time"

	"github.com/voxgate/voxgate/pkg/provider"
	"github.com/voxgate/voxgate/pkg/router"
)

// mockSynthesizer is a configurable mock for testing
type mockSynthesizer struct {
	err   error
	audio []byte
	calls atomic.Int64
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, input string, options *provider.SynthesizeOptions) iter.Seq2[*provider.Chunk, error] {
	return func(yield func(*provider.Chunk, error) bool) {
		m.calls.Add(1)

		if m.err != nil {
			yield(nil, m.err)
			return
		}

		yield(&provider.Chunk{
			Content:     m.audio,
			ContentType: "audio/mpeg",
		}, nil)
	}
}

func TestNewSynthesizer(t *testing.T) {
	t.Run("requires at least one synthesizer", func(t *testing.T) {
		_, err := NewSynthesizer()
		if err == nil {
			t.Error("expected error for empty synthesizers")
		}
	})

	t.Run("creates synthesizer with providers", func(t *testing.T) {
		mock := &mockSynthesizer{audio: []byte("audio")}
		s, err := NewSynthesizer(mock)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s == nil {
			t.Error("expected non-nil synthesizer")
		}
	})
}

func TestSynthesize(t *testing.T) {
	t.Run("routes to available provider", func(t *testing.T) {
		mock := &mockSynthesizer{audio: []byte("audio")}
		s, _ := NewSynthesizer(mock)

		var result *provider.Chunk
		for chunk, err := range s.Synthesize(context.Background(), "test", nil) {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			result = chunk
		}

		if result == nil {
			t.Fatal("expected a chunk")
		}

		if string(result.Content) != "audio" {
			t.Errorf("expected 'audio', got '%s'", result.Content)
		}
	})

	t.Run("records failure on error", func(t *testing.T) {
		mock := &mockSynthesizer{err: errors.New("provider error")}
		s, _ := NewSynthesizer(mock)
		rr := s.(*Synthesizer)

		for _, err := range s.Synthesize(context.Background(), "test", nil) {
			if err == nil {
				t.Error("expected error")
			}
		}

		state, _, failures := rr.stats[0].Metrics()
		if failures != 1 {
			t.Errorf("expected 1 failure, got %d", failures)
		}
		if state != router.CircuitClosed {
			t.Errorf("expected circuit closed after 1 failure")
		}
	})

	t.Run("opens circuit after threshold failures", func(t *testing.T) {
		mock := &mockSynthesizer{err: errors.New("provider error")}
		s, _ := NewSynthesizer(mock)
		rr := s.(*Synthesizer)

		for i := 0; i < router.DefaultFailureThreshold; i++ {
			for range s.Synthesize(context.Background(), "test", nil) {
			}
		}

		state, _, _ := rr.stats[0].Metrics()
		if state != router.CircuitOpen {
			t.Errorf("expected circuit open after %d failures", router.DefaultFailureThreshold)
		}
	})
}

func TestRandomDistribution(t *testing.T) {
	mock1 := &mockSynthesizer{audio: []byte("one")}
	mock2 := &mockSynthesizer{audio: []byte("two")}
	mock3 := &mockSynthesizer{audio: []byte("three")}

	s, _ := NewSynthesizer(mock1, mock2, mock3)

	for i := 0; i < 300; i++ {
		for range s.Synthesize(context.Background(), "test", nil) {
		}
	}

	// Each should get roughly 100 calls (with some variance)
	for i, calls := range []int64{mock1.calls.Load(), mock2.calls.Load(), mock3.calls.Load()} {
		if calls < 50 || calls > 150 {
			t.Errorf("provider %d got %d calls, expected roughly 100", i+1, calls)
		}
	}
}

func TestCircuitRecovery(t *testing.T) {
	mock := &mockSynthesizer{err: errors.New("error")}
	s, _ := NewSynthesizer(mock)
	rr := s.(*Synthesizer)

	rr.recoveryTimeout = 10 * time.Millisecond

	for i := 0; i < router.DefaultFailureThreshold; i++ {
		for range s.Synthesize(context.Background(), "test", nil) {
		}
	}

	state, _, _ := rr.stats[0].Metrics()
	if state != router.CircuitOpen {
		t.Fatal("expected circuit to be open")
	}

	time.Sleep(20 * time.Millisecond)

	mock.err = nil
	mock.audio = []byte("recovered")

	var result *provider.Chunk
	for chunk, err := range s.Synthesize(context.Background(), "test", nil) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		result = chunk
	}

	if string(result.Content) != "recovered" {
		t.Errorf("expected 'recovered', got '%s'", result.Content)
	}

	state, _, _ = rr.stats[0].Metrics()
	if state != router.CircuitClosed {
		t.Errorf("expected circuit closed after recovery, got %v", state)
	}
}
