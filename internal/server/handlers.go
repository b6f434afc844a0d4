package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/atopos-hq/chatcore/internal/domain"
	"github.com/atopos-hq/chatcore/internal/service"
	"github.com/atopos-hq/chatcore/internal/workflow"
)

type messageResponse struct {
	ID        string    `json:"id"`
	ChatbotID string    `json:"chatbotId"`
	SessionID string    `json:"sessionId"`
	FromUser  *bool     `json:"fromUser"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toMessageResponse(m *domain.ChatMessage) messageResponse {
	return messageResponse{
		ID:        m.ID,
		ChatbotID: m.ChatbotID,
		SessionID: m.SessionID,
		FromUser:  m.FromUser,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toMessageResponses(msgs []domain.ChatMessage) []messageResponse {
	resp := make([]messageResponse, 0, len(msgs))
	for i := range msgs {
		resp = append(resp, toMessageResponse(&msgs[i]))
	}
	return resp
}

type createMessageRequest struct {
	ChatbotID string `json:"chatbotId"`
	SessionID string `json:"sessionId"`
	FromUser  *bool  `json:"fromUser"`
	Message   string `json:"message"`
}

func (s *Server) createMessage(c *echo.Context) error {
	var req createMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ChatbotID == "" || req.SessionID == "" || req.FromUser == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "chatbotId, sessionId and fromUser are required")
	}
	msg, err := s.history.Create(c.Request().Context(), req.ChatbotID, req.SessionID, *req.FromUser, req.Message)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, toMessageResponse(msg))
}

func (s *Server) listMessages(c *echo.Context) error {
	limit, offset := pageParams(c)
	msgs, err := s.history.ListAll(c.Request().Context(), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toMessageResponses(msgs))
}

func (s *Server) listSessionMessages(c *echo.Context) error {
	limit, offset := pageParams(c)
	msgs, err := s.history.ListBySession(c.Request().Context(), c.Param("sessionID"), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toMessageResponses(msgs))
}

type updateMessageRequest struct {
	ChatbotID *string `json:"chatbotId"`
	SessionID *string `json:"sessionId"`
	FromUser  *bool   `json:"fromUser"`
	Message   *string `json:"message"`
}

func (s *Server) updateMessage(c *echo.Context) error {
	var req updateMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	msg, err := s.history.Update(c.Request().Context(), c.Param("id"), service.UpdateMessageParams{
		ChatbotID: req.ChatbotID,
		SessionID: req.SessionID,
		FromUser:  req.FromUser,
		Message:   req.Message,
	})
	if err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "message not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toMessageResponse(msg))
}

func (s *Server) deleteMessage(c *echo.Context) error {
	if err := s.history.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "message not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type conversationMessageResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (s *Server) getConversation(c *echo.Context) error {
	conversation, err := s.history.LLMConversation(c.Request().Context(), c.Param("sessionID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]conversationMessageResponse, 0, len(conversation))
	for _, m := range conversation {
		resp = append(resp, conversationMessageResponse{Role: string(m.Role), Content: m.Content})
	}
	return c.JSON(http.StatusOK, resp)
}

type queryResponsePair struct {
	UserQuery   string `json:"userQuery"`
	BotResponse string `json:"botResponse"`
}

func (s *Server) getRetrievalPairs(c *echo.Context) error {
	limit := intQuery(c, "limit", 0)
	pairs, err := s.history.RetrievalPairs(c.Request().Context(), c.Param("sessionID"), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]queryResponsePair, 0, len(pairs))
	for _, p := range pairs {
		resp = append(resp, queryResponsePair{UserQuery: p.UserQuery, BotResponse: p.BotResponse})
	}
	return c.JSON(http.StatusOK, resp)
}

type sessionSummaryResponse struct {
	SessionID    string           `json:"sessionId"`
	FirstMessage *messageResponse `json:"firstMessage"`
}

func (s *Server) listSessionSummaries(c *echo.Context) error {
	limit, offset := pageParams(c)
	summaries, err := s.history.SessionSummaries(c.Request().Context(), c.Param("botID"), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]sessionSummaryResponse, 0, len(summaries))
	for _, sum := range summaries {
		item := sessionSummaryResponse{SessionID: sum.SessionID}
		if sum.FirstMessage != nil {
			first := toMessageResponse(sum.FirstMessage)
			item.FirstMessage = &first
		}
		resp = append(resp, item)
	}
	return c.JSON(http.StatusOK, resp)
}

type runWorkflowRequest struct {
	Workflow *workflow.Definition `json:"workflow"`
	Schema   map[string]any       `json:"schema"`
	Text     string               `json:"text"`
	Headers  map[string]string    `json:"headers"`
	BaseURL  string               `json:"baseUrl"`
	App      string               `json:"app"`
}

// runWorkflow always answers 200 with the {response, error} envelope; a
// failed workflow is a successful HTTP exchange.
func (s *Server) runWorkflow(c *echo.Context) error {
	var req runWorkflowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	output := s.workflows.Execute(c.Request().Context(), req.Workflow, req.Schema, service.WorkflowInput{
		Text:          req.Text,
		Headers:       req.Headers,
		ServerBaseURL: req.BaseURL,
	}, req.App)
	return c.JSON(http.StatusOK, output)
}

func pageParams(c *echo.Context) (limit, offset int) {
	return intQuery(c, "limit", 0), intQuery(c, "offset", 0)
}

func intQuery(c *echo.Context, name string, def int) int {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
