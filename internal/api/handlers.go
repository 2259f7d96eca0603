package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chatcore/internal/fault"
	"chatcore/internal/orchestrator"
	"chatcore/internal/provider"
	"chatcore/internal/store"
	"chatcore/internal/worker"
)

// Handler wires HTTP routes to the store (read paths) and the orchestrator
// (the single mutation entry point for turns).
type Handler struct {
	store        *store.Store
	orchestrator *orchestrator.Orchestrator
	ollama       *provider.Ollama
}

// NewHandler constructs a Handler instance. ollama may be nil when the
// local provider is not configured; its model listing route then 404s.
func NewHandler(st *store.Store, orch *orchestrator.Orchestrator, ollama *provider.Ollama) *Handler {
	return &Handler{
		store:        st,
		orchestrator: orch,
		ollama:       ollama,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/conversations", h.listConversations)
	api.POST("/conversations", h.createConversation)
	api.GET("/conversations/:id", h.getConversation)
	api.PUT("/conversations/:id/title", h.renameConversation)
	api.DELETE("/conversations/:id", h.deleteConversation)
	api.GET("/conversations/:id/messages", h.getMessages)
	api.POST("/conversations/:id/turns", h.submitTurn)
	if h.ollama != nil {
		api.GET("/providers/ollama/models", h.listOllamaModels)
	}
}

type createConversationRequest struct {
	Title    string `json:"title"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

func (h *Handler) createConversation(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	conv, err := h.store.CreateConversation(c.Request.Context(), req.Title, req.Provider, req.Model)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (h *Handler) listConversations(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	conversations, err := h.store.GetConversations(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

func (h *Handler) getConversation(c *gin.Context) {
	conv, err := h.store.GetConversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

type renameRequest struct {
	Title string `json:"title"`
}

func (h *Handler) renameConversation(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.store.UpdateConversationTitle(c.Request.Context(), c.Param("id"), req.Title); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteConversation(c *gin.Context) {
	if err := h.store.DeleteConversation(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getMessages(c *gin.Context) {
	messages, err := h.store.GetMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

type turnRequest struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}

func (h *Handler) submitTurn(c *gin.Context) {
	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	message, err := h.orchestrator.SubmitTurn(c.Request.Context(), orchestrator.TurnRequest{
		ConversationID: c.Param("id"),
		Model:          req.Model,
		Content:        req.Content,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (h *Handler) listOllamaModels(c *gin.Context) {
	names, err := h.ollama.ListModels(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": names})
}

// writeError maps the shared taxonomy onto HTTP statuses. The body always
// carries enough structure for the UI to phrase a user-facing message.
func (h *Handler) writeError(c *gin.Context, err error) {
	var validationErr *fault.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
		return
	}
	var notFoundErr *fault.NotFoundError
	if errors.As(err, &notFoundErr) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
		return
	}
	if errors.Is(err, worker.ErrBusy) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "server is busy, please retry"})
		return
	}
	var providerErr *fault.ProviderError
	if errors.As(err, &providerErr) {
		status := http.StatusBadGateway
		switch providerErr.Kind {
		case fault.ProviderRateLimited:
			status = http.StatusTooManyRequests
		case fault.ProviderTimeout:
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, gin.H{
			"error": providerErr.Error(),
			"kind":  string(providerErr.Kind),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
