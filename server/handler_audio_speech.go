package server

import (
	"encoding/json"
	"net/http"

	"github.com/voxgate/voxgate/pkg/pipeline"
)

func (s *Server) handleAudioSpeech(w http.ResponseWriter, r *http.Request) {
	var req SpeechRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	request := pipeline.Request{
		Input: req.Input,

		Model: req.Model,
		Voice: req.Voice,

		Format: req.ResponseFormat,

		Speed:        req.Speed,
		Instructions: req.Instructions,
	}

	streamChunks(w, s.Pipeline.Handle(r.Context(), request))
}
