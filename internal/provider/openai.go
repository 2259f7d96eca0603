package provider

import (
	"context"
	"errors"
	"fmt"

	"chatcore/internal/fault"
	"chatcore/internal/models"

	openai "github.com/sashabaranov/go-openai"
)

const openaiName = "openai"

// OpenAI completes turns through the chat completions API.
type OpenAI struct {
	client *openai.Client
}

// NewOpenAI builds the adapter. baseURL overrides the default endpoint for
// OpenAI-compatible gateways; empty means api.openai.com.
func NewOpenAI(apiKey, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg)}
}

func (o *OpenAI) Name() string { return openaiName }

func (o *OpenAI) Complete(ctx context.Context, model string, history []models.Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: msgs,
	})
	if err != nil {
		return "", providerErr(openaiName, openaiKind(err), fmt.Errorf("chat completion: %w", err))
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", providerErr(openaiName, fault.ProviderMalformedResponse, errors.New("no completion choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

func openaiKind(err error) fault.ProviderKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return fault.ProviderTimeout
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusKind(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return statusKind(reqErr.HTTPStatusCode)
	}
	if errors.Is(err, openai.ErrChatCompletionInvalidModel) {
		return fault.ProviderUnavailable
	}
	return transportKind(err)
}
