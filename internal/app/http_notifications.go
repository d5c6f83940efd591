package app

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *HTTPServer) handleNotifications(w http.ResponseWriter, r *http.Request, caller Session) {
	items, err := s.service.Notifications(r.Context(), caller)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "notifications": items})
}

func (s *HTTPServer) handleNotificationUnreadCount(w http.ResponseWriter, r *http.Request, caller Session) {
	count, err := s.service.UnreadNotificationCount(r.Context(), caller)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": count})
}

func (s *HTTPServer) handleNotificationRead(w http.ResponseWriter, r *http.Request, caller Session) {
	updated, err := s.service.MarkNotificationRead(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "notification": updated})
}

func (s *HTTPServer) handleNotificationReadAll(w http.ResponseWriter, r *http.Request, caller Session) {
	if err := s.service.MarkAllNotificationsRead(r.Context(), caller); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) handleNotificationDelete(w http.ResponseWriter, r *http.Request, caller Session) {
	if err := s.service.DeleteNotification(r.Context(), caller, mux.Vars(r)["id"]); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) handleNotificationClearAll(w http.ResponseWriter, r *http.Request, caller Session) {
	deleted, err := s.service.ClearNotifications(r.Context(), caller)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": deleted})
}
