package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/dangun/myaccount/internal/audit"
	"github.com/dangun/myaccount/internal/config"
	"github.com/dangun/myaccount/internal/credentials"
	"github.com/dangun/myaccount/internal/handlers"
	"github.com/dangun/myaccount/internal/logging"
	"github.com/dangun/myaccount/internal/memberapi"
	"github.com/dangun/myaccount/internal/metrics"
	appmiddleware "github.com/dangun/myaccount/internal/middleware"
	"github.com/dangun/myaccount/internal/mypage"
	"github.com/dangun/myaccount/internal/pubsub"
	"github.com/dangun/myaccount/internal/rendering"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
)

const (
	redisKeyPrefix = "myaccount"
	authCookieAge  = 86400 * 7 // 7 days
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E      *echo.Echo
	Cfg    config.Provider
	Logger *slog.Logger

	injector    *do.RootScope
	bus         *pubsub.WatermillBridge
	redis       *redis.Client
	stopAuditor context.CancelFunc
}

// New loads the configuration and logger from the environment and builds
// the server.
func New() (*Server, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg, logging.New())
}

// NewWithConfig builds the server from explicit configuration. Every
// dependency is provided through the injector and resolved lazily from the
// echo instance down.
func NewWithConfig(cfg config.Provider, logger *slog.Logger) (*Server, error) {
	injector := do.New()
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.Provide(injector, provideMemberAPI)
	do.Provide(injector, provideBus)
	do.Provide(injector, provideRegistry)
	do.Provide(injector, provideFlowRecorder)
	do.Provide(injector, provideRedis)
	do.Provide(injector, provideTokens)
	do.ProvideValue[rendering.Renderer](injector, rendering.New())
	do.Provide(injector, provideMyPageHandler)
	do.Provide(injector, provideEcho)

	e, err := do.Invoke[*echo.Echo](injector)
	if err != nil {
		return nil, fmt.Errorf("build server: %w", err)
	}

	s := &Server{
		E:        e,
		Cfg:      cfg,
		Logger:   logger,
		injector: injector,
		bus:      do.MustInvoke[*pubsub.WatermillBridge](injector),
	}
	if cfg.GetTokenBackend() == "redis" {
		s.redis = do.MustInvoke[*redis.Client](injector)
	}

	// The auditor lives as long as the server.
	ctx, cancel := context.WithCancel(context.Background())
	s.stopAuditor = cancel
	if err := audit.Subscribe(ctx, s.bus, logger); err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe auditor: %w", err)
	}

	s.RegisterRoutes()
	return s, nil
}

func provideMemberAPI(i do.Injector) (*memberapi.Client, error) {
	cfg := do.MustInvoke[config.Provider](i)
	return memberapi.New(cfg.GetBackendURL(), memberapi.WithTimeout(cfg.GetRequestTimeout())), nil
}

func provideBus(do.Injector) (*pubsub.WatermillBridge, error) {
	return pubsub.NewWatermillBridge(), nil
}

func provideRegistry(do.Injector) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, nil
}

func provideFlowRecorder(i do.Injector) (*metrics.FlowRecorder, error) {
	return metrics.NewFlowRecorder(do.MustInvoke[*prometheus.Registry](i))
}

func provideRedis(i do.Injector) (*redis.Client, error) {
	cfg := do.MustInvoke[config.Provider](i)
	client := redis.NewClient(&redis.Options{Addr: cfg.GetRedisAddr()})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.GetRedisAddr(), err)
	}
	return client, nil
}

func provideTokens(i do.Injector) (handlers.TokenStoreFunc, error) {
	cfg := do.MustInvoke[config.Provider](i)
	if cfg.GetTokenBackend() != "redis" {
		return handlers.CookieTokens, nil
	}
	client, err := do.Invoke[*redis.Client](i)
	if err != nil {
		return nil, err
	}
	return handlers.RedisTokens(credentials.NewRedisStore(client, redisKeyPrefix, authCookieAge*time.Second)), nil
}

func provideMyPageHandler(i do.Injector) (*handlers.MyPageHandler, error) {
	cfg := do.MustInvoke[config.Provider](i)
	tokens, err := do.Invoke[handlers.TokenStoreFunc](i)
	if err != nil {
		return nil, err
	}
	flows, err := do.Invoke[*metrics.FlowRecorder](i)
	if err != nil {
		return nil, err
	}
	bus := do.MustInvoke[*pubsub.WatermillBridge](i)

	opts := []handlers.MyPageOption{
		handlers.WithTokens(tokens),
		handlers.WithRenderer(do.MustInvoke[rendering.Renderer](i)),
		handlers.WithRecorders(func(_ echo.Context, sessionID string) mypage.Recorder {
			return mypage.Recorders{flows, audit.NewRecorder(bus, sessionID)}
		}),
	}
	if cfg.GetGuardInFlight() {
		opts = append(opts, handlers.WithGate(mypage.NewGate()))
	}

	paths := mypage.Paths{
		Login:   cfg.GetLoginPath(),
		Listing: cfg.GetListingPath(),
		Home:    cfg.GetHomePath(),
	}
	return handlers.NewMyPageHandler(do.MustInvoke[*memberapi.Client](i), paths, opts...), nil
}

func provideEcho(i do.Injector) (*echo.Echo, error) {
	cfg := do.MustInvoke[config.Provider](i)
	reg := do.MustInvoke[*prometheus.Registry](i)
	logger := do.MustInvoke[*slog.Logger](i)

	e := echo.New()
	e.HideBanner = true
	setupErrorHandling(e)

	e.Use(middleware.RequestID())
	e.Use(appmiddleware.Logger(logger))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			appmiddleware.FromContext(c.Request().Context()).Info("request",
				"uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "myaccount",
		Registerer: reg,
	}))

	// Configure and use session middleware
	store := sessions.NewCookieStore([]byte(cfg.GetSessionSecret()))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   authCookieAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))

	return e, nil
}

// setupErrorHandling logs errors that are not echo.HTTPErrors with a stack
// trace before echo's default handler answers.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			appmiddleware.FromContext(c.Request().Context()).Error("Internal Server Error (Unhandled)",
				"error", err.Error(),
				"stack_trace", string(debug.Stack()),
			)
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}

// Close releases the server's background resources.
func (s *Server) Close() error {
	s.stopAuditor()
	var errs []error
	if err := s.bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close event bus: %w", err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	s.injector.Shutdown()
	return errors.Join(errs...)
}
