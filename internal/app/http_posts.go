package app

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

func (s *HTTPServer) handleListPosts(w http.ResponseWriter, r *http.Request, _ Session) {
	posts, err := s.service.ListPosts(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "posts": posts})
}

func (s *HTTPServer) handleGetPost(w http.ResponseWriter, r *http.Request, _ Session) {
	post, err := s.service.GetPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "post": post})
}

func (s *HTTPServer) handleCreatePost(w http.ResponseWriter, r *http.Request, caller Session) {
	var body struct {
		Caption string `json:"caption"`
		Image   string `json:"image"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	post, err := s.service.CreatePost(r.Context(), caller, body.Caption, body.Image)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "post": post})
}

func (s *HTTPServer) handleLikePost(w http.ResponseWriter, r *http.Request, caller Session) {
	post, err := s.service.ToggleLike(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "post": post})
}

func (s *HTTPServer) handleCommentPost(w http.ResponseWriter, r *http.Request, caller Session) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	post, err := s.service.AddComment(r.Context(), caller, mux.Vars(r)["id"], body.Text)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "post": post})
}

func (s *HTTPServer) handleDeleteComment(w http.ResponseWriter, r *http.Request, caller Session) {
	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "comment index must be an integer", nil)
		return
	}

	post, err := s.service.DeleteComment(r.Context(), caller, vars["id"], index)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "post": post})
}

func (s *HTTPServer) handleUpdatePost(w http.ResponseWriter, r *http.Request, caller Session) {
	var body struct {
		Caption string `json:"caption"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	post, err := s.service.UpdateCaption(r.Context(), caller, mux.Vars(r)["id"], body.Caption)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "post": post})
}

func (s *HTTPServer) handleDeletePost(w http.ResponseWriter, r *http.Request, caller Session) {
	if err := s.service.DeletePost(r.Context(), caller, mux.Vars(r)["id"]); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) handleSearchPosts(w http.ResponseWriter, r *http.Request, _ Session) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	author := r.URL.Query().Get("email")

	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "limit must be an integer", nil)
			return
		}
		limit = parsed
	}
	offset := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "offset must be an integer", nil)
			return
		}
		offset = parsed
	}

	payload, err := s.service.SearchPosts(r.Context(), q, author, limit, offset)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "results": payload.Results, "total": payload.Total, "query": payload.Query})
}
