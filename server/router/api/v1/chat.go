package v1

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesero-ai/mesero/ai/agent"
	"github.com/mesero-ai/mesero/store"
)

type chatMessageRequest struct {
	Query            string `json:"query"`
	ConversationID   string `json:"conversation_id"`
	ConversationName string `json:"conversation_name"`
	UserID           string `json:"user_id"`
	RestaurantName   string `json:"restaurant_name"`
}

type chatMessageResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Message runs one chat turn. The reply is always a friendly text:
// oracle failures degrade to an apology inside the orchestrator, so
// this handler only fails on malformed input or a dead store.
func (s *APIV1Service) Message(c echo.Context) error {
	req := &chatMessageRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.Query == "" || req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query and user_id are required")
	}

	ctx := c.Request().Context()
	if err := s.turnSemaphore.Acquire(ctx, 1); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "server is busy, try again shortly")
	}
	defer s.turnSemaphore.Release(1)

	result, err := s.Orchestrator.ProcessMessage(ctx, &agent.ChatRequest{
		Query:             req.Query,
		UserID:            req.UserID,
		ConversationID:    req.ConversationID,
		ConversationLabel: req.ConversationName,
		RestaurantID:      req.RestaurantName,
	})
	if err != nil {
		slog.Error("chat turn failed", "user_id", req.UserID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process the message")
	}

	return c.JSON(http.StatusOK, &chatMessageResponse{ID: result.TurnUID, Text: result.Text})
}

type voteRequest struct {
	ID   string `json:"id"`
	Rate bool   `json:"rate"`
}

type voteResponse struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	State bool   `json:"state"`
}

// Vote records helpful/unhelpful feedback on a past turn.
func (s *APIV1Service) Vote(c echo.Context) error {
	req := &voteRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	if err := s.Store.SetTurnFeedback(c.Request().Context(), req.ID, req.Rate); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("no message found with id %s", req.ID))
		}
		slog.Error("failed to record feedback", "turn_uid", req.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to record feedback")
	}

	return c.JSON(http.StatusOK, &voteResponse{ID: req.ID, Text: "OK", State: true})
}

type sessionsRequest struct {
	UserID string `json:"user_id"`
}

type sessionEntry struct {
	ConversationID   string `json:"conversation_id"`
	ConversationName string `json:"conversation_name"`
	CreatedTs        int64  `json:"created_ts"`
}

type sessionsResponse struct {
	UserID   string         `json:"user_id"`
	Sessions []sessionEntry `json:"sessions"`
}

// Sessions lists a user's conversations, earliest first. 404 when the
// user has none.
func (s *APIV1Service) Sessions(c echo.Context) error {
	req := &sessionsRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	summaries, err := s.Store.ListConversations(c.Request().Context(), req.UserID)
	if err != nil {
		slog.Error("failed to list conversations", "user_id", req.UserID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list conversations")
	}
	if len(summaries) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("no conversations found for user_id %s", req.UserID))
	}

	sessions := make([]sessionEntry, 0, len(summaries))
	for _, summary := range summaries {
		sessions = append(sessions, sessionEntry{
			ConversationID:   summary.ConversationID,
			ConversationName: summary.ConversationLabel,
			CreatedTs:        summary.EarliestCreatedTs,
		})
	}
	return c.JSON(http.StatusOK, &sessionsResponse{UserID: req.UserID, Sessions: sessions})
}

type oneSessionRequest struct {
	ConversationID string `json:"conversation_id"`
}

type turnEntry struct {
	ID               string `json:"id"`
	UserMessage      string `json:"user_message"`
	AssistantMessage string `json:"assistant_message"`
	Helpful          bool   `json:"helpful"`
	CreatedTs        int64  `json:"created_ts"`
}

// GetOneSession replays one conversation in order. 404 when it has no
// turns.
func (s *APIV1Service) GetOneSession(c echo.Context) error {
	req := &oneSessionRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.ConversationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation_id is required")
	}

	turns, err := s.Store.ListTurnsByConversation(c.Request().Context(), req.ConversationID)
	if err != nil {
		slog.Error("failed to load conversation", "conversation_id", req.ConversationID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load conversation")
	}
	if len(turns) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("no conversation found with conversation_id %s", req.ConversationID))
	}

	entries := make([]turnEntry, 0, len(turns))
	for _, turn := range turns {
		entries = append(entries, turnEntry{
			ID:               turn.UID,
			UserMessage:      turn.UserMessage,
			AssistantMessage: turn.AssistantMessage,
			Helpful:          turn.Helpful,
			CreatedTs:        turn.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, entries)
}
