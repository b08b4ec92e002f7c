package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/arenz/postboard/internal/auth"
	"github.com/arenz/postboard/internal/services"
)

// VoteHandler handles HTTP requests for votes.
type VoteHandler struct {
	service services.VoteServiceProvider
}

// NewVoteHandler creates a new VoteHandler.
func NewVoteHandler(service services.VoteServiceProvider) *VoteHandler {
	return &VoteHandler{service: service}
}

// VotePayload defines the structure for vote requests. Dir 1 casts a vote,
// dir 0 removes one.
type VotePayload struct {
	PostID int64 `json:"post_id"`
	Dir    int   `json:"dir"`
}

// Cast creates or removes the caller's vote on a post.
func (h *VoteHandler) Cast(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	var payload VotePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.Dir != 0 && payload.Dir != 1 {
		writeDetail(w, http.StatusUnprocessableEntity, "dir: must be 0 or 1")
		return
	}

	if payload.Dir == 1 {
		if err := h.service.Create(r.Context(), user.ID, payload.PostID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"message": "Vote added"})
		return
	}

	if err := h.service.Remove(r.Context(), user.ID, payload.PostID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Vote deleted"})
}
