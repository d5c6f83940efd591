package app

import (
	"net/http"

	"plantpal/api/internal/authpw"
)

func sessionPayload(s Session) map[string]any {
	payload := map[string]any{
		"success":     true,
		"accessToken": s.Token,
		"userId":      s.UserID,
		"email":       s.Email,
		"name":        s.Name,
		"expiresAt":   s.ExpiresAt.Unix(),
	}
	if s.RefreshToken != "" {
		payload["refreshToken"] = s.RefreshToken
	}
	return payload
}

func (s *HTTPServer) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Age      int    `json:"age"`
		Gender   string `json:"gender"`
		Password string `json:"password"`
		Type     string `json:"type"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	result, err := s.service.SignUp(r.Context(), authpw.SignUpRequest{
		Name:     body.Name,
		Email:    body.Email,
		Age:      body.Age,
		Gender:   body.Gender,
		Password: body.Password,
		Type:     body.Type,
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionPayload(result))
}

func (s *HTTPServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	result, err := s.service.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(result))
}

func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	result, err := s.service.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(result))
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = decodeBody(r, &body)
	_ = s.service.Logout(r.Context(), body.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) handleProfile(w http.ResponseWriter, r *http.Request, caller Session) {
	user, err := s.service.Profile(r.Context(), caller.Email)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}
