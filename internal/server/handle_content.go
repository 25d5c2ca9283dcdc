package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/wildkids/internal/content"
)

func handleEncyclopedia(lib *content.Library) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		writeJSON(w, http.StatusOK, lib.Search(content.Filter{
			Query:    q.Get("q"),
			Category: q.Get("category"),
			Type:     q.Get("type"),
			Habitat:  q.Get("habitat"),
		}))
	}
}

func handleSuggest(lib *content.Library) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, lib.Suggest(r.URL.Query().Get("q")))
	}
}

func handleEncyclopediaEntry(lib *content.Library) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := lib.Entry(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "entry not found")
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func handleMarkers(lib *content.Library) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, lib.Markers(r.URL.Query().Get("type")))
	}
}

func handleMarker(lib *content.Library) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := lib.Marker(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "marker not found")
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}
