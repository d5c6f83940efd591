package app

import "net/http"

func (s *HTTPServer) handleAIChat(w http.ResponseWriter, r *http.Request, _ Session) {
	var body struct {
		Message string `json:"message"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	reply, err := s.service.AIChat(r.Context(), body.Message)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "reply": reply})
}

func (s *HTTPServer) handleAITest(w http.ResponseWriter, _ *http.Request, _ Session) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "configured": s.service.AIConfigured()})
}

func (s *HTTPServer) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	if err := s.service.SendOTP(r.Context(), body.Email, body.Message); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
