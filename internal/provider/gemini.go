package provider

import (
	"context"
	"errors"
	"fmt"

	"chatcore/internal/fault"
	"chatcore/internal/models"

	"google.golang.org/genai"
)

const geminiName = "gemini"

// Gemini completes turns through the Gemini API.
type Gemini struct {
	client *genai.Client
}

// NewGemini builds the adapter and validates client construction eagerly so
// a bad credential setup fails at startup, not mid-turn.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("new gemini client: %w", err)
	}
	return &Gemini{client: client}, nil
}

func (g *Gemini) Name() string { return geminiName }

func (g *Gemini) Complete(ctx context.Context, model string, history []models.Message) (string, error) {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := genai.Role(genai.RoleUser)
		if m.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", providerErr(geminiName, geminiKind(err), fmt.Errorf("generate content: %w", err))
	}
	text := resp.Text()
	if text == "" {
		return "", providerErr(geminiName, fault.ProviderMalformedResponse, errors.New("empty completion"))
	}
	return text, nil
}

func geminiKind(err error) fault.ProviderKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return fault.ProviderTimeout
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return statusKind(apiErr.Code)
	}
	return transportKind(err)
}
