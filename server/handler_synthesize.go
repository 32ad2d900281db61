package server

import (
	"net/http"
	"strconv"

	"github.com/voxgate/voxgate/pkg/pipeline"
)

func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 10); err != nil {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	request := pipeline.Request{
		Input: r.FormValue("text"),

		Model: r.FormValue("model"),
		Voice: r.FormValue("voice"),

		Format: r.FormValue("format"),

		Instructions: r.FormValue("instructions"),
	}

	if val := r.FormValue("speed"); val != "" {
		speed, err := strconv.ParseFloat(val, 32)

		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		speed32 := float32(speed)
		request.Speed = &speed32
	}

	w.Header().Set("Content-Disposition", "attachment")

	streamChunks(w, s.Pipeline.Handle(r.Context(), request))
}
