package app

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"plantpal/api/internal/auth"
)

type HTTPServer struct {
	service    *Service
	ws         http.Handler
	corsOrigin string
}

// NewHTTPServer builds the HTTP surface. ws handles websocket upgrades and may
// be nil in tests that never dial /ws.
func NewHTTPServer(service *Service, ws http.Handler, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, ws: ws, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/ready", s.handleReady).Methods(http.MethodGet, http.MethodHead)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	if s.ws != nil {
		r.Handle("/ws", s.ws).Methods(http.MethodGet)
	}

	r.HandleFunc("/auth/signup", s.handleSignUp).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.handleSignIn).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/auth/me", s.withSession(s.handleProfile)).Methods(http.MethodGet)

	r.HandleFunc("/chat/users", s.withSession(s.handleChatUsers)).Methods(http.MethodGet)
	r.HandleFunc("/chat/send", s.withSession(s.handleChatSend)).Methods(http.MethodPost)
	r.HandleFunc("/chat/messages/{receiverEmail}", s.withSession(s.handleChatThread)).Methods(http.MethodGet)
	r.HandleFunc("/chat/conversations", s.withSession(s.handleConversations)).Methods(http.MethodGet)

	r.HandleFunc("/notifications", s.withSession(s.handleNotifications)).Methods(http.MethodGet)
	r.HandleFunc("/notifications/unread-count", s.withSession(s.handleNotificationUnreadCount)).Methods(http.MethodGet)
	r.HandleFunc("/notifications/read/{id}", s.withSession(s.handleNotificationRead)).Methods(http.MethodPut)
	r.HandleFunc("/notifications/read-all", s.withSession(s.handleNotificationReadAll)).Methods(http.MethodPut)
	r.HandleFunc("/notifications/clear-all", s.withSession(s.handleNotificationClearAll)).Methods(http.MethodDelete)
	r.HandleFunc("/notifications/{id}", s.withSession(s.handleNotificationDelete)).Methods(http.MethodDelete)

	r.HandleFunc("/follow/follow/{email}", s.withSession(s.handleFollow)).Methods(http.MethodPost)
	r.HandleFunc("/follow/unfollow/{email}", s.withSession(s.handleUnfollow)).Methods(http.MethodPost)
	r.HandleFunc("/follow/status/{email}", s.withSession(s.handleFollowStatus)).Methods(http.MethodGet)
	r.HandleFunc("/follow/counts/{email}", s.withSession(s.handleFollowCounts)).Methods(http.MethodGet)

	r.HandleFunc("/posts/getposts", s.withSession(s.handleListPosts)).Methods(http.MethodGet)
	r.HandleFunc("/posts/search", s.withSession(s.handleSearchPosts)).Methods(http.MethodGet)
	r.HandleFunc("/posts/addPost", s.withSession(s.handleCreatePost)).Methods(http.MethodPost)
	r.HandleFunc("/posts/like/{id}", s.withSession(s.handleLikePost)).Methods(http.MethodPut)
	r.HandleFunc("/posts/comment/{id}", s.withSession(s.handleCommentPost)).Methods(http.MethodPut)
	r.HandleFunc("/posts/comment/{id}/{index}", s.withSession(s.handleDeleteComment)).Methods(http.MethodDelete)
	r.HandleFunc("/posts/update/{id}", s.withSession(s.handleUpdatePost)).Methods(http.MethodPut)
	r.HandleFunc("/posts/delete/{id}", s.withSession(s.handleDeletePost)).Methods(http.MethodDelete)
	r.HandleFunc("/posts/{id}", s.withSession(s.handleGetPost)).Methods(http.MethodGet)

	r.HandleFunc("/plants", s.withSession(s.handleListPlants)).Methods(http.MethodGet)
	r.HandleFunc("/plants", s.withSession(s.handleCreatePlant)).Methods(http.MethodPost)
	r.HandleFunc("/plants/{id}", s.withSession(s.handleGetPlant)).Methods(http.MethodGet)
	r.HandleFunc("/plants/{id}", s.withSession(s.handleUpdatePlant)).Methods(http.MethodPut)
	r.HandleFunc("/plants/{id}", s.withSession(s.handleDeletePlant)).Methods(http.MethodDelete)
	r.HandleFunc("/plants/{id}/entries", s.withSession(s.handleAddPlantEntry)).Methods(http.MethodPost)
	r.HandleFunc("/plants/{id}/schedule", s.withSession(s.handlePlantSchedule)).Methods(http.MethodPut)

	r.HandleFunc("/ai/chat", s.withSession(s.handleAIChat)).Methods(http.MethodPost)
	r.HandleFunc("/ai/test", s.withSession(s.handleAITest)).Methods(http.MethodGet)

	r.HandleFunc("/mailer/send-otp", s.handleSendOTP).Methods(http.MethodPost)

	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return s.withMiddleware(r)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database": map[string]any{"status": "ok"},
	}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["database"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

// withSession resolves the bearer token before the wrapped handler runs.
func (s *HTTPServer) withSession(next func(http.ResponseWriter, *http.Request, Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return
		}
		resolved, err := s.service.SessionFromToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
				return
			}
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
			return
		}
		next(w, r, resolved)
	}
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrader take over the connection through the
// access-log wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"success": false,
		"code":    code,
		"error":   message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}

func writeFailure(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	writeError(w, status, code, message, details)
}
