package provider

import (
	"context"
	"fmt"
	"sync"

	"chatcore/internal/models"
)

const mockName = "mock"

// Mock is a deterministic adapter for tests and offline development. By
// default it echoes the last user message; a scripted reply or failure can
// be installed per call.
type Mock struct {
	mu      sync.Mutex
	replyFn func(model string, history []models.Message) (string, error)
	nextErr error
}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Name() string { return mockName }

// SetReply installs a custom reply function for subsequent calls.
func (m *Mock) SetReply(fn func(model string, history []models.Message) (string, error)) {
	m.mu.Lock()
	m.replyFn = fn
	m.mu.Unlock()
}

// FailNext makes the next Complete call return err, then clears it.
func (m *Mock) FailNext(err error) {
	m.mu.Lock()
	m.nextErr = err
	m.mu.Unlock()
}

func (m *Mock) Complete(ctx context.Context, model string, history []models.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", providerErr(mockName, transportKind(err), err)
	}

	m.mu.Lock()
	err := m.nextErr
	m.nextErr = nil
	fn := m.replyFn
	m.mu.Unlock()

	if err != nil {
		return "", err
	}
	if fn != nil {
		return fn(model, history)
	}
	if len(history) == 0 {
		return "Hello!", nil
	}
	return fmt.Sprintf("Mock reply to %q", history[len(history)-1].Content), nil
}
