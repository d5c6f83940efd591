package app

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
)

const aiFallbackMessage = "Sorry, I'm having trouble responding right now. Please try again later."

// AIChat proxies a plant-care question to the completion upstream. Upstream
// failures surface as a server error carrying an apologetic message; the wait
// is bounded by the client's configured timeout.
func (s *Service) AIChat(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", domainError(http.StatusBadRequest, "INVALID_ARGUMENT", "message is required", nil)
	}
	if !s.ai.IsConfigured() {
		return "", domainError(http.StatusServiceUnavailable, "AI_UNAVAILABLE", "AI service not configured", nil)
	}

	reply, err := s.ai.Complete(ctx, message)
	if err != nil {
		return "", domainError(http.StatusInternalServerError, "AI_UPSTREAM_FAILED", aiFallbackMessage, nil)
	}
	return reply, nil
}

// AIConfigured reports whether the completion upstream has credentials.
func (s *Service) AIConfigured() bool {
	return s.ai.IsConfigured()
}

// SendOTP emails a one-time code to an address.
func (s *Service) SendOTP(ctx context.Context, to, message string) error {
	to = strings.TrimSpace(to)
	if _, err := mail.ParseAddress(to); err != nil {
		return domainError(http.StatusBadRequest, "INVALID_ARGUMENT", "a valid recipient email is required", nil)
	}
	if strings.TrimSpace(message) == "" {
		return domainError(http.StatusBadRequest, "INVALID_ARGUMENT", "message is required", nil)
	}
	if !s.mailer.IsConfigured() {
		return domainError(http.StatusServiceUnavailable, "MAILER_UNAVAILABLE", "Email service not configured", nil)
	}
	if err := s.mailer.SendOTP(to, message); err != nil {
		return domainError(http.StatusInternalServerError, "MAILER_FAILED", "Could not send email", nil)
	}
	return nil
}
