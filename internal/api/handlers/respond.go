package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arenz/postboard/internal/services"
	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps the service error taxonomy onto HTTP status codes. Login
// maps invalid credentials to 404 itself; everything else funnels through
// here.
func writeError(w http.ResponseWriter, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeDetail(w, http.StatusUnprocessableEntity, vErr.Error())
	case errors.Is(err, services.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrForbidden):
		writeDetail(w, http.StatusForbidden, "Not authorized to perform requested action")
	case errors.Is(err, services.ErrDuplicateEmail):
		writeDetail(w, http.StatusConflict, "Email is already registered")
	case errors.Is(err, services.ErrDuplicateVote):
		writeDetail(w, http.StatusConflict, "Vote already exists")
	default:
		log.Error().Err(err).Msg("Unhandled service error")
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}
