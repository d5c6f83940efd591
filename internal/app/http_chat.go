package app

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *HTTPServer) handleChatUsers(w http.ResponseWriter, r *http.Request, caller Session) {
	users, err := s.service.ChatUsers(r.Context(), caller)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "users": users})
}

func (s *HTTPServer) handleChatSend(w http.ResponseWriter, r *http.Request, caller Session) {
	var body struct {
		ReceiverEmail string `json:"receiverEmail"`
		Message       string `json:"message"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	saved, err := s.service.SendMessage(r.Context(), caller, body.ReceiverEmail, body.Message)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": saved})
}

func (s *HTTPServer) handleChatThread(w http.ResponseWriter, r *http.Request, caller Session) {
	partner := mux.Vars(r)["receiverEmail"]
	messages, err := s.service.Thread(r.Context(), caller, partner)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "messages": messages})
}

func (s *HTTPServer) handleConversations(w http.ResponseWriter, r *http.Request, caller Session) {
	conversations, err := s.service.Conversations(r.Context(), caller)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "conversations": conversations})
}
