package handler

import (
	"net/http"

	"github.com/gorilla/schema"
)

var queryDecoder = schema.NewDecoder()

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
}

type marketsQuery struct {
	Q      string `schema:"q"`
	Search string `schema:"search"`
}

func (h *Handler) handleMarkets(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r, "") {
		writeUnauthorized(w)
		return
	}

	var query marketsQuery
	if err := queryDecoder.Decode(&query, r.URL.Query()); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "invalid query: " + err.Error(),
		})
		return
	}

	term := query.Q
	if term == "" {
		term = query.Search
	}

	if term == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "missing query param ?q=",
		})
		return
	}

	writeJSON(w, http.StatusOK, h.markets.SearchInstruments(r.Context(), term))
}
