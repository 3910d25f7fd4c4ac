package server

import (
	"github.com/dangun/myaccount/internal/handlers"
	"github.com/dangun/myaccount/internal/middleware"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"
)

// Action requests allowed per client IP.
const (
	actionRatePerSecond = 2
	actionBurst         = 10
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	myPage := do.MustInvoke[*handlers.MyPageHandler](s.injector)
	reg := do.MustInvoke[*prometheus.Registry](s.injector)
	rateLimiter := middleware.RateLimiter(actionRatePerSecond, actionBurst)

	s.E.GET(handlers.MyPagePath, myPage.Get)

	actions := s.E.Group(handlers.MyPagePath, rateLimiter)
	actions.POST("/profile", myPage.UpdateProfile)
	actions.POST("/address", myPage.UpdateAddress)
	actions.POST("/delete", myPage.Delete)
	actions.POST("/posts", myPage.MyPosts)

	s.E.GET("/health", handlers.Health)
	s.E.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))
}
