package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	result := ModelList{
		Object: "list",
	}

	for _, m := range s.Models() {
		result.Models = append(result.Models, Model{
			Object: "model",

			ID: m.ID,
		})
	}

	writeJson(w, result)
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	for _, m := range s.Models() {
		if m.ID != id {
			continue
		}

		writeJson(w, Model{
			Object: "model",

			ID: m.ID,
		})

		return
	}

	writeError(w, http.StatusNotFound, errors.New("model not found"))
}
