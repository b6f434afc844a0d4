package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/atopos-hq/chatcore/internal/service"
)

// Server exposes the chat-history repository and workflow execution over a
// REST API.
type Server struct {
	echo      *echo.Echo
	http      *http.Server
	history   *service.ChatHistoryService
	workflows *service.WorkflowService
}

func New(port int, history *service.ChatHistoryService, workflows *service.WorkflowService) *Server {
	e := echo.New()
	s := &Server{
		echo:      e,
		history:   history,
		workflows: workflows,
		http: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: e,
		},
	}

	e.Use(Recover(), RequestLogging())

	g := e.Group("/api/v1")
	g.POST("/messages", s.createMessage)
	g.GET("/messages", s.listMessages)
	g.PATCH("/messages/:id", s.updateMessage)
	g.DELETE("/messages/:id", s.deleteMessage)
	g.GET("/sessions/:sessionID/messages", s.listSessionMessages)
	g.GET("/sessions/:sessionID/conversation", s.getConversation)
	g.GET("/sessions/:sessionID/pairs", s.getRetrievalPairs)
	g.GET("/bots/:botID/sessions", s.listSessionSummaries)
	g.POST("/workflows/run", s.runWorkflow)

	return s
}

// Handler returns the underlying HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
