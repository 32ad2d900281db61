package server

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"

	"github.com/voxgate/voxgate/config"
	"github.com/voxgate/voxgate/pkg/provider"
	"github.com/voxgate/voxgate/pkg/transcoder"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Server struct {
	*config.Config

	handler http.Handler
}

func New(cfg *config.Config) (*Server, error) {
	s := &Server{
		Config: cfg,
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Use(s.handleAuth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/models", s.handleModels)
		r.Get("/models/{id}", s.handleModel)

		r.Post("/audio/speech", s.handleAudioSpeech)
		r.Post("/synthesize", s.handleSynthesize)
	})

	s.handler = otelhttp.NewHandler(r, "http")

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(s.Address, s)
}

func (s *Server) handleAuth(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var err error

		for _, a := range s.Authorizers {
			ctx, err = a.Authenticate(ctx, r)

			if err != nil {
				writeError(w, http.StatusUnauthorized, err)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	}

	return http.HandlerFunc(fn)
}

func writeJson(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	errorType := "invalid_request_error"

	if code >= 500 {
		errorType = "internal_server_error"
	}

	resp := ErrorResponse{
		Error: Error{
			Type:    errorType,
			Message: err.Error(),
		},
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	enc.Encode(resp)
}

func errorCode(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}

	var transcodeErr *transcoder.Error

	if errors.As(err, &transcodeErr) {
		return http.StatusBadGateway
	}

	if providerErr, ok := provider.AsError(err); ok {
		switch providerErr.Kind {
		case provider.ErrorInvalidRequest:
			return http.StatusBadRequest

		case provider.ErrorRateLimit:
			return http.StatusTooManyRequests

		case provider.ErrorAuth, provider.ErrorQuota, provider.ErrorUnavailable:
			return http.StatusBadGateway
		}
	}

	return http.StatusInternalServerError
}

// streamChunks copies an audio stream to the response, flushing per chunk so
// playback can start before synthesis finishes. Errors after the first byte
// can only abort the connection, the status line is already gone.
func streamChunks(w http.ResponseWriter, stream iter.Seq2[*provider.Chunk, error]) {
	rc := http.NewResponseController(w)

	started := false

	for chunk, err := range stream {
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}

			if !started {
				writeError(w, errorCode(err), err)
			}

			return
		}

		if !started {
			w.Header().Set("Content-Type", chunk.ContentType)
			started = true
		}

		if _, err := w.Write(chunk.Content); err != nil {
			return
		}

		if err := rc.Flush(); err != nil {
			return
		}
	}

	if !started {
		writeError(w, http.StatusBadGateway, errors.New("no audio produced"))
	}
}
