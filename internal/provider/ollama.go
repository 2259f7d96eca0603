package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"chatcore/internal/fault"
	"chatcore/internal/models"
)

const ollamaName = "ollama"

// Ollama talks to a local Ollama server over its native HTTP API.
type Ollama struct {
	baseURL string
	client  *http.Client
}

// NewOllama builds the adapter. baseURL defaults to the standard local
// server address.
func NewOllama(baseURL string) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	client := &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 120 * time.Second,
		},
	}
	return &Ollama{baseURL: baseURL, client: client}
}

func (o *Ollama) Name() string { return ollamaName }

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Complete runs a non-streaming chat call against /api/chat.
func (o *Ollama) Complete(ctx context.Context, model string, history []models.Message) (string, error) {
	msgs := make([]ollamaMessage, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, ollamaMessage{Role: string(m.Role), Content: m.Content})
	}
	body, err := json.Marshal(ollamaChatRequest{Model: model, Messages: msgs, Stream: false})
	if err != nil {
		return "", providerErr(ollamaName, fault.ProviderMalformedResponse, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", providerErr(ollamaName, fault.ProviderUnavailable, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", providerErr(ollamaName, transportKind(err), fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", providerErr(ollamaName, statusKind(resp.StatusCode), fmt.Errorf("ollama status %d: %s", resp.StatusCode, detail))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", providerErr(ollamaName, fault.ProviderMalformedResponse, fmt.Errorf("decode response: %w", err))
	}
	if chatResp.Message.Content == "" {
		return "", providerErr(ollamaName, fault.ProviderMalformedResponse, errors.New("empty completion"))
	}
	return chatResp.Message.Content, nil
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels reports the models installed on the local server (/api/tags).
func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, providerErr(ollamaName, fault.ProviderUnavailable, fmt.Errorf("create request: %w", err))
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, providerErr(ollamaName, transportKind(err), fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, providerErr(ollamaName, statusKind(resp.StatusCode), fmt.Errorf("ollama status %d", resp.StatusCode))
	}
	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, providerErr(ollamaName, fault.ProviderMalformedResponse, fmt.Errorf("decode tags: %w", err))
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// transportKind classifies a failed round trip.
func transportKind(err error) fault.ProviderKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return fault.ProviderTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fault.ProviderTimeout
	}
	return fault.ProviderUnavailable
}

// statusKind classifies a non-200 HTTP status.
func statusKind(status int) fault.ProviderKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fault.ProviderUnauthorized
	case status == http.StatusTooManyRequests:
		return fault.ProviderRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return fault.ProviderTimeout
	default:
		return fault.ProviderUnavailable
	}
}
