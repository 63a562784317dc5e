package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/claritytasks/backend/api/handler"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	Task   *apiHandler.TaskHandler
	Score  *apiHandler.ScoreHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/register", handlers.Auth.Register)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/refresh", handlers.Auth.Refresh)
	r.POST("/api/v1/auth/logout", authMiddleware(handlers.Auth.Logout))

	// Task routes
	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.List))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.Create))
	r.POST("/api/v1/tasks/sweep", authMiddleware(handlers.Task.Sweep))
	r.GET("/api/v1/tasks/{id}", authMiddleware(handlers.Task.Get))
	r.PUT("/api/v1/tasks/{id}", authMiddleware(handlers.Task.Edit))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Task.Delete))
	r.POST("/api/v1/tasks/{id}/done", authMiddleware(handlers.Task.MarkDone))
	r.POST("/api/v1/tasks/{id}/pin", authMiddleware(handlers.Task.TogglePin))
	r.POST("/api/v1/tasks/{id}/activities", authMiddleware(handlers.Task.AddActivity))
	r.POST("/api/v1/tasks/{id}/subtasks", authMiddleware(handlers.Task.AddSubtask))
	r.POST("/api/v1/tasks/{id}/subtasks/{subId}/toggle", authMiddleware(handlers.Task.ToggleSubtask))
	r.DELETE("/api/v1/tasks/{id}/subtasks/{subId}", authMiddleware(handlers.Task.DeleteSubtask))

	// Scoring routes
	r.GET("/api/v1/leaderboard", authMiddleware(handlers.Score.Leaderboard))
	r.GET("/api/v1/score", authMiddleware(handlers.Score.OwnerScore))
	r.GET("/api/v1/progress/weekly", authMiddleware(handlers.Score.WeeklyProgress))

	return r
}
