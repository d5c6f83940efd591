package aichat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCompleteReturnsAssistantReply(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req completionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("expected system+user messages, got %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Water it weekly."}},
			},
		})
	}))
	defer server.Close()

	svc := NewService(Config{APIKey: "test-key", BaseURL: server.URL, Model: "test-model"})
	reply, err := svc.Complete(context.Background(), "How often should I water a monstera?")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "Water it weekly." {
		t.Errorf("unexpected reply %q", reply)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
}

func TestCompleteFailsWithoutKey(t *testing.T) {
	svc := NewService(Config{})
	if _, err := svc.Complete(context.Background(), "hello"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCompleteSurfacesUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited"},
		})
	}))
	defer server.Close()

	svc := NewService(Config{APIKey: "test-key", BaseURL: server.URL, Model: "test-model"})
	if _, err := svc.Complete(context.Background(), "hello"); err == nil {
		t.Fatal("expected error from upstream failure")
	}
}

func TestCompleteTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewService(Config{APIKey: "test-key", BaseURL: server.URL, Model: "test-model", Timeout: 20 * time.Millisecond})
	if _, err := svc.Complete(context.Background(), "hello"); err == nil {
		t.Fatal("expected timeout error")
	}
}
