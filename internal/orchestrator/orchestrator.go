// Package orchestrator sequences chat turns: persist the user input, ask
// the provider for a reply, persist the reply, then advance the
// conversation's metadata. It is a single-attempt pipeline; retrying a
// failed turn is always the caller's decision.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chatcore/internal/fault"
	"chatcore/internal/models"
	"chatcore/internal/provider"
	"chatcore/internal/store"
	"chatcore/internal/title"
	"chatcore/internal/worker"
)

// Orchestrator is the only mutation entry point callers use for chat turns.
// Turns for the same conversation are serialized through the dispatcher;
// turns for different conversations proceed in parallel.
type Orchestrator struct {
	store       *store.Store
	registry    *provider.Registry
	dispatcher  *worker.Dispatcher
	turnTimeout time.Duration
}

// TurnRequest describes one submitted turn. Model, when set, overrides the
// conversation's model for this call only; it is never persisted.
type TurnRequest struct {
	ConversationID string
	Model          string
	Content        string
}

type turnResult struct {
	message *models.Message
	err     error
}

// New wires the orchestrator. turnTimeout bounds each provider call; zero
// means the caller's context is the only bound.
func New(st *store.Store, registry *provider.Registry, cfg worker.Config, turnTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		store:       st,
		registry:    registry,
		dispatcher:  worker.NewDispatcher(cfg),
		turnTimeout: turnTimeout,
	}
}

// SubmitTurn runs one full turn and returns the persisted assistant
// message. On a provider failure the user message persisted in step one
// remains: user input is never lost, and updated_at stays untouched so the
// failed turn does not reorder the conversation listing.
func (o *Orchestrator) SubmitTurn(ctx context.Context, req TurnRequest) (*models.Message, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, &fault.ValidationError{Field: "content", Reason: "must not be empty"}
	}

	conv, err := o.store.GetConversation(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	adapter, err := o.registry.Lookup(conv.Provider)
	if err != nil {
		return nil, err
	}
	model := conv.Model
	if strings.TrimSpace(req.Model) != "" {
		model = strings.TrimSpace(req.Model)
	}
	needsTitle := !conv.HasGeneratedTitle()

	resultCh := make(chan turnResult, 1)
	job := worker.Job{
		ConversationID: conv.ID,
		Run: func() {
			msg, err := o.runTurn(ctx, conv.ID, adapter, model, req.Content, needsTitle)
			resultCh <- turnResult{message: msg, err: err}
		},
	}
	if err := o.dispatcher.Submit(job); err != nil {
		return nil, err
	}
	res := <-resultCh
	return res.message, res.err
}

// runTurn executes on a pool worker with exclusive ownership of the
// conversation for its duration.
func (o *Orchestrator) runTurn(ctx context.Context, conversationID string, adapter provider.Adapter, model, content string, needsTitle bool) (*models.Message, error) {
	// Cancelled while queued: nothing has been persisted yet, bail out
	// before writing the user message. The provider was never invoked, so
	// the caller gets the bare cancellation, not a provider failure.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("turn aborted before start: %w", err)
	}

	if _, err := o.store.SaveMessage(ctx, conversationID, models.RoleUser, content); err != nil {
		return nil, err
	}

	history, err := o.store.GetMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	callCtx := ctx
	if o.turnTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.turnTimeout)
		defer cancel()
	}
	reply, err := adapter.Complete(callCtx, model, history)
	if err != nil {
		// The user message stays; metadata is deliberately not touched.
		return nil, err
	}

	assistantMsg, err := o.store.SaveMessage(ctx, conversationID, models.RoleAssistant, reply)
	if err != nil {
		return nil, err
	}

	// The store only applies the candidate while the title is still the
	// placeholder, so even a stale needsTitle cannot overwrite a real title.
	candidate := ""
	if needsTitle {
		candidate = title.Generate(firstUserContent(history))
	}
	if err := o.store.TouchConversation(ctx, conversationID, candidate); err != nil {
		return nil, err
	}

	return assistantMsg, nil
}

func firstUserContent(history []models.Message) string {
	for _, m := range history {
		if m.Role == models.RoleUser {
			return m.Content
		}
	}
	return ""
}
