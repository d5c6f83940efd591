package app

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *HTTPServer) handleFollow(w http.ResponseWriter, r *http.Request, caller Session) {
	status, err := s.service.Follow(r.Context(), caller, mux.Vars(r)["email"])
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "following": status.Following})
}

func (s *HTTPServer) handleUnfollow(w http.ResponseWriter, r *http.Request, caller Session) {
	status, err := s.service.Unfollow(r.Context(), caller, mux.Vars(r)["email"])
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "following": status.Following})
}

func (s *HTTPServer) handleFollowStatus(w http.ResponseWriter, r *http.Request, caller Session) {
	status, err := s.service.Following(r.Context(), caller, mux.Vars(r)["email"])
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "following": status.Following})
}

func (s *HTTPServer) handleFollowCounts(w http.ResponseWriter, r *http.Request, _ Session) {
	counts, err := s.service.Counts(r.Context(), mux.Vars(r)["email"])
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "followers": counts.Followers, "following": counts.Following})
}
