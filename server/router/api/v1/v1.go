// Package v1 exposes the JSON HTTP surface: the chat agent endpoints,
// conversation replay, and the staff order dashboard.
package v1

import (
	"context"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/mesero-ai/mesero/ai/agent"
	"github.com/mesero-ai/mesero/internal/metrics"
	"github.com/mesero-ai/mesero/internal/profile"
	"github.com/mesero-ai/mesero/store"
)

// maxConcurrentTurns bounds in-flight oracle turns per process; excess
// requests queue on the semaphore instead of piling onto the provider.
const maxConcurrentTurns = 8

// ChatOrchestrator is the slice of the agent the HTTP layer needs.
type ChatOrchestrator interface {
	ProcessMessage(ctx context.Context, req *agent.ChatRequest) (*agent.ChatResult, error)
}

type APIV1Service struct {
	Profile      *profile.Profile
	Store        *store.Store
	Orchestrator ChatOrchestrator
	Metrics      *metrics.Exporter

	turnSemaphore *semaphore.Weighted
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, orchestrator ChatOrchestrator, exporter *metrics.Exporter) *APIV1Service {
	return &APIV1Service{
		Profile:       profile,
		Store:         store,
		Orchestrator:  orchestrator,
		Metrics:       exporter,
		turnSemaphore: semaphore.NewWeighted(maxConcurrentTurns),
	}
}

// RegisterRoutes mounts the API on the echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	chat := e.Group("/api/agent/chat")
	chat.POST("/message", s.Message)
	chat.POST("/vote", s.Vote)
	chat.POST("/sessions", s.Sessions)
	chat.POST("/get_one_session", s.GetOneSession)

	orders := e.Group("/orders")
	orders.GET("/today", s.TodayOrders)
	orders.POST("/update_state", s.UpdateOrderState)

	e.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
}
