package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
	"github.com/leaguewatch/schedule-notifier/internal/biz/usecase"
)

// MatchPoller triggers an out-of-band poll of one match
type MatchPoller interface {
	PollMatch(ctx context.Context, matchID int64) (*usecase.PollResult, error)
}

// Overviews previews and sends team overviews
type Overviews interface {
	Preview(ctx context.Context, teamID int64) ([]domain.NotificationPayload, error)
	SendOverview(ctx context.Context, teamID int64) ([]domain.DeliveryReport, error)
}

// Digests runs the weekly digest of a game day
type Digests interface {
	Run(ctx context.Context, gameDay int) (*usecase.WeeklyResult, error)
}

// Registry manages teams, matches and subscriptions
type Registry interface {
	RegisterTeam(ctx context.Context, team *domain.Team) error
	RegisterMatch(ctx context.Context, matchID, teamID, enemyTeamID int64, gameDay int) (*domain.MatchState, error)
	Subscribe(ctx context.Context, sub *domain.TeamSubscription) error
	Unsubscribe(ctx context.Context, channelID string) error
}

// Deps are the usecases the ops API exposes
type Deps struct {
	Poller    MatchPoller
	Overviews Overviews
	Digests   Digests
	Registry  Registry
	Gatherer  prometheus.Gatherer
	Health    func(ctx context.Context) error
}

// Server is the ops HTTP API
type Server struct {
	e    *echo.Echo
	deps Deps
}

// NewServer creates the API server and registers its routes
func NewServer(logger *slog.Logger, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	s := &Server{e: e, deps: deps}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.e.GET("/health", s.handleHealth)
	if s.deps.Gatherer != nil {
		s.e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	g := s.e.Group("/api")
	g.POST("/matches", s.handleRegisterMatch)
	g.POST("/matches/:id/poll", s.handlePollMatch)
	g.PUT("/teams/:id", s.handleRegisterTeam)
	g.GET("/teams/:id/overview", s.handlePreviewOverview)
	g.POST("/teams/:id/overview", s.handleSendOverview)
	g.POST("/weekly/:gameDay", s.handleWeekly)
	g.PUT("/subscriptions", s.handleSubscribe)
	g.DELETE("/subscriptions/:channel", s.handleUnsubscribe)
}

// Handler returns the http handler, used by tests
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start runs the HTTP server until Shutdown
func (s *Server) Start(addr string) error {
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.e.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	if s.deps.Health != nil {
		if err := s.deps.Health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// httpError maps domain errors to status codes
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrMatchNotFound), errors.Is(err, domain.ErrUnresolvableReference):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrMatchBusy):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	var se *domain.StageError
	if errors.As(err, &se) {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
