package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/newsrag/internal/chat"
	"github.com/mohammad-safakhou/newsrag/models"
)

const (
	msgRequired     = "Query and sessionId are required."
	msgChatFailed   = "Failed to process chat message."
	msgHistoryFail  = "Failed to fetch chat history."
	msgClearFailed  = "Failed to clear session."
	msgSessionClear = "Session cleared successfully."
)

// ChatService is the chat pipeline behind the API.
type ChatService interface {
	NewSession() string
	Turn(ctx context.Context, sessionID, query string) (string, error)
	History(ctx context.Context, sessionID string) ([]models.Turn, error)
	Clear(ctx context.Context, sessionID string) error
}

type ChatHandler struct {
	Service ChatService
}

type chatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"sessionId"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

type sessionResponse struct {
	SessionID string `json:"sessionId"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.GET("/session", h.newSession)
	g.POST("/chat", h.chat)
	g.GET("/history/:sessionId", h.history)
	g.POST("/clear/:sessionId", h.clear)
}

func (h *ChatHandler) newSession(c echo.Context) error {
	return c.JSON(http.StatusOK, sessionResponse{SessionID: h.Service.NewSession()})
}

func (h *ChatHandler) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgRequired).SetInternal(err)
	}
	answer, err := h.Service.Turn(c.Request().Context(), req.SessionID, req.Query)
	if err != nil {
		if errors.Is(err, chat.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, msgRequired).SetInternal(err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, msgChatFailed).SetInternal(err)
	}
	return c.JSON(http.StatusOK, chatResponse{Answer: answer})
}

func (h *ChatHandler) history(c echo.Context) error {
	turns, err := h.Service.History(c.Request().Context(), c.Param("sessionId"))
	if err != nil {
		if errors.Is(err, chat.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, msgRequired).SetInternal(err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, msgHistoryFail).SetInternal(err)
	}
	if turns == nil {
		turns = []models.Turn{}
	}
	return c.JSON(http.StatusOK, turns)
}

func (h *ChatHandler) clear(c echo.Context) error {
	if err := h.Service.Clear(c.Request().Context(), c.Param("sessionId")); err != nil {
		if errors.Is(err, chat.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, msgRequired).SetInternal(err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, msgClearFailed).SetInternal(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msgSessionClear})
}
