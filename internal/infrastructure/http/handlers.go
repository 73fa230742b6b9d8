package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
	"github.com/0xcro3dile/latentqa-go/internal/domain/usecases"
)

// completionErrorPrefix keeps the reply shape clients already handle when
// the model call fails.
const completionErrorPrefix = "Error while generating response: "

type chatRequest struct {
	SessionID *string `json:"session_id"`
	Message   *string `json:"message"`
}

type retrieveResponse struct {
	Intent    entities.Intent     `json:"intent"`
	Documents []entities.Document `json:"documents"`
	Context   string              `json:"context"`
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// handleRoot reports liveness in the original client's format.
func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "Backend is running"})
}

// handleChat answers one message for a session.
func (s *Server) handleChat(c echo.Context) error {
	var req chatRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}
	if req.SessionID == nil || *req.SessionID == "" {
		return errorJSON(c, http.StatusBadRequest, "missing session_id")
	}
	if req.Message == nil {
		return errorJSON(c, http.StatusBadRequest, "missing message")
	}

	ctx := c.Request().Context()
	resp, err := s.chat.Chat(ctx, &entities.ChatRequest{SessionID: *req.SessionID, Query: *req.Message})
	switch {
	case errors.Is(err, usecases.ErrCompletion):
		s.logger.WarnContext(ctx, "completion failed", "session_id", *req.SessionID, "error", err)
		return c.JSON(http.StatusOK, map[string]string{"response": completionErrorPrefix + completionCause(err)})
	case err != nil:
		s.logger.ErrorContext(ctx, "chat failed", "session_id", *req.SessionID, "error", err)
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{"response": resp.Answer})
}

// handleChatStream streams the answer as server-sent events.
func (s *Server) handleChatStream(c echo.Context) error {
	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return errorJSON(c, http.StatusBadRequest, "missing session_id")
	}

	ctx := c.Request().Context()
	tokens, err := s.chat.ChatStream(ctx, &entities.ChatRequest{SessionID: sessionID, Query: c.QueryParam("q")})
	if err != nil && !errors.Is(err, usecases.ErrCompletion) {
		s.logger.ErrorContext(ctx, "chat stream failed", "session_id", sessionID, "error", err)
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err != nil {
		return sendSSE(c, map[string]any{"error": completionErrorPrefix + completionCause(err), "done": true})
	}

	for tok := range tokens {
		if tok.Error != nil {
			return sendSSE(c, map[string]any{"error": completionErrorPrefix + completionCause(tok.Error), "done": true})
		}
		if err := sendSSE(c, map[string]any{"content": tok.Content, "done": tok.Done}); err != nil {
			return err
		}
	}
	return nil
}

func sendSSE(c echo.Context, data map[string]any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", jsonData); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}

// handleRetrieve shows what context a query would be answered with.
func (s *Server) handleRetrieve(c echo.Context) error {
	q := c.QueryParam("q")
	if strings.TrimSpace(q) == "" {
		return errorJSON(c, http.StatusBadRequest, "missing q")
	}

	p, err := s.chat.Prepare(c.Request().Context(), &entities.ChatRequest{Query: q})
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}

	docs := make([]entities.Document, len(p.Sources))
	for i, d := range p.Sources {
		d.Embedding = nil
		docs[i] = d
	}

	return c.JSON(http.StatusOK, retrieveResponse{Intent: p.Intent, Documents: docs, Context: p.Context})
}

// handleEndSession forgets a session's history.
func (s *Server) handleEndSession(c echo.Context) error {
	if !s.chat.EndSession(c.Request().Context(), c.Param("id")) {
		return errorJSON(c, http.StatusNotFound, "unknown session")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports ready once the index holds documents.
func (s *Server) handleReady(c echo.Context) error {
	n, err := s.index.Count(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "index unavailable", "error": err.Error()})
	}
	if n == 0 {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "index empty"})
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "ready", "documents": n})
}

// completionCause strips the sentinel prefix so clients see the provider error.
func completionCause(err error) string {
	return strings.TrimPrefix(err.Error(), usecases.ErrCompletion.Error()+": ")
}
