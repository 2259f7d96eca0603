package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chatcore/internal/fault"
	"chatcore/internal/models"
)

func TestOllamaComplete(t *testing.T) {
	var gotReq ollamaChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "the answer"},
			Done:    true,
		})
	}))
	defer server.Close()

	o := NewOllama(server.URL)
	history := []models.Message{
		{Role: models.RoleUser, Content: "first"},
		{Role: models.RoleAssistant, Content: "reply"},
		{Role: models.RoleUser, Content: "second"},
	}
	reply, err := o.Complete(context.Background(), "llama3", history)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply != "the answer" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if gotReq.Model != "llama3" || gotReq.Stream {
		t.Fatalf("unexpected request: %#v", gotReq)
	}
	if len(gotReq.Messages) != 3 || gotReq.Messages[2].Content != "second" {
		t.Fatalf("history not forwarded: %#v", gotReq.Messages)
	}
}

func TestOllamaCompleteStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   fault.ProviderKind
	}{
		{http.StatusUnauthorized, fault.ProviderUnauthorized},
		{http.StatusForbidden, fault.ProviderUnauthorized},
		{http.StatusTooManyRequests, fault.ProviderRateLimited},
		{http.StatusGatewayTimeout, fault.ProviderTimeout},
		{http.StatusInternalServerError, fault.ProviderUnavailable},
	}

	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		o := NewOllama(server.URL)
		_, err := o.Complete(context.Background(), "m", []models.Message{{Role: models.RoleUser, Content: "x"}})
		server.Close()

		var providerErr *fault.ProviderError
		if !errors.As(err, &providerErr) {
			t.Fatalf("status %d: expected provider error, got %v", tc.status, err)
		}
		if providerErr.Kind != tc.want {
			t.Fatalf("status %d: kind %s, want %s", tc.status, providerErr.Kind, tc.want)
		}
		if providerErr.Provider != "ollama" {
			t.Fatalf("status %d: provider %q", tc.status, providerErr.Provider)
		}
	}
}

func TestOllamaCompleteMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	o := NewOllama(server.URL)
	_, err := o.Complete(context.Background(), "m", []models.Message{{Role: models.RoleUser, Content: "x"}})
	var providerErr *fault.ProviderError
	if !errors.As(err, &providerErr) || providerErr.Kind != fault.ProviderMalformedResponse {
		t.Fatalf("expected malformed response, got %v", err)
	}
}

func TestOllamaCompleteEmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaChatResponse{Done: true})
	}))
	defer server.Close()

	o := NewOllama(server.URL)
	_, err := o.Complete(context.Background(), "m", []models.Message{{Role: models.RoleUser, Content: "x"}})
	var providerErr *fault.ProviderError
	if !errors.As(err, &providerErr) || providerErr.Kind != fault.ProviderMalformedResponse {
		t.Fatalf("expected malformed response for empty completion, got %v", err)
	}
}

func TestOllamaCompleteUnreachable(t *testing.T) {
	// Reserved port with nothing listening.
	o := NewOllama("http://127.0.0.1:1")
	_, err := o.Complete(context.Background(), "m", []models.Message{{Role: models.RoleUser, Content: "x"}})
	var providerErr *fault.ProviderError
	if !errors.As(err, &providerErr) || providerErr.Kind != fault.ProviderUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestOllamaCompleteContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	o := NewOllama(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := o.Complete(ctx, "m", []models.Message{{Role: models.RoleUser, Content: "x"}})
	var providerErr *fault.ProviderError
	if !errors.As(err, &providerErr) || providerErr.Kind != fault.ProviderTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestOllamaListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"models":[{"name":"llama3:8b"},{"name":"qwen2:7b"}]}`))
	}))
	defer server.Close()

	o := NewOllama(server.URL)
	names, err := o.ListModels(context.Background())
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	if len(names) != 2 || names[0] != "llama3:8b" || names[1] != "qwen2:7b" {
		t.Fatalf("unexpected models: %v", names)
	}
}

func TestStatusKind(t *testing.T) {
	cases := map[int]fault.ProviderKind{
		401: fault.ProviderUnauthorized,
		403: fault.ProviderUnauthorized,
		429: fault.ProviderRateLimited,
		408: fault.ProviderTimeout,
		504: fault.ProviderTimeout,
		500: fault.ProviderUnavailable,
		503: fault.ProviderUnavailable,
	}
	for status, want := range cases {
		if got := statusKind(status); got != want {
			t.Fatalf("statusKind(%d) = %s, want %s", status, got, want)
		}
	}
}

func TestTransportKind(t *testing.T) {
	if got := transportKind(context.DeadlineExceeded); got != fault.ProviderTimeout {
		t.Fatalf("deadline should map to timeout, got %s", got)
	}
	if got := transportKind(errors.New("connection refused")); got != fault.ProviderUnavailable {
		t.Fatalf("plain error should map to unavailable, got %s", got)
	}
}
