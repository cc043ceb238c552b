// Package api implements the JSON HTTP interface over the coral
// identity and observation model.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/coralwatch/coralwatch-go/internal/conf"
	"github.com/coralwatch/coralwatch-go/internal/datastore"
	"github.com/coralwatch/coralwatch-go/internal/errors"
	"github.com/coralwatch/coralwatch-go/internal/logging"
	"github.com/coralwatch/coralwatch-go/internal/observation"
)

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface
	Settings *conf.Settings
	Ingestor *observation.Ingestor

	apiLogger    *slog.Logger
	accessLogger *slog.Logger
	closeLogger  func() error
}

// ErrorResponse is the wire shape of a failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// New creates a new API controller and registers its routes on the
// given echo instance.
func New(e *echo.Echo, ds datastore.Interface, settings *conf.Settings) *Controller {
	c := &Controller{
		Echo:      e,
		DS:        ds,
		Settings:  settings,
		Ingestor:  observation.NewIngestor(ds),
		apiLogger: logging.ForService("api"),
	}
	c.accessLogger = c.apiLogger

	if settings.WebServer.Log.Enabled {
		fileLogger, closeFunc, err := logging.NewFileLogger(settings.WebServer.Log.Path, "api", slog.LevelInfo)
		if err != nil {
			c.apiLogger.Error("Failed to open access log file, logging requests to stdout",
				"path", settings.WebServer.Log.Path,
				"error", err)
		} else {
			c.accessLogger = fileLogger
			c.closeLogger = closeFunc
		}
	}

	c.Group = e.Group("/api/v1")
	c.Group.Use(middleware.Recover())
	c.Group.Use(middleware.CORS())
	c.Group.Use(c.LoggingMiddleware())

	c.initRoutes()
	return c
}

// initRoutes registers all API endpoints
func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	c.Group.GET("/dive_sites", c.ListSites)
	c.Group.POST("/dive_sites", c.CreateSite)
	c.Group.GET("/corals_at_site/:id", c.CoralsAtSite)
	c.Group.GET("/coral_timeline/:internal_id", c.CoralTimeline)

	c.Group.POST("/upload", c.Upload)
	if c.Settings.Upload.ServeImages {
		c.Group.GET("/images/:filename", c.ServeImage)
	}
}

// Shutdown releases controller resources, closing the access log file
// if one was opened.
func (c *Controller) Shutdown() error {
	if c.closeLogger != nil {
		return c.closeLogger()
	}
	return nil
}

// HealthCheck handles the API health check endpoint
func (c *Controller) HealthCheck(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// LoggingMiddleware logs each request with method, path, status and latency.
func (c *Controller) LoggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)
			c.accessLogger.Info("API request",
				"method", ctx.Request().Method,
				"path", ctx.Request().URL.Path,
				"status", ctx.Response().Status,
				"latency_ms", time.Since(start).Milliseconds(),
				"ip", ctx.RealIP())
			return err
		}
	}
}

// HandleError constructs and returns an appropriate error response,
// mapping the core's error kinds onto HTTP status codes.
func (c *Controller) HandleError(ctx echo.Context, err error, message string) error {
	code := mapErrorToStatus(err)

	c.apiLogger.Error("API Error",
		"message", message,
		"error", err.Error(),
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP())

	return ctx.JSON(code, ErrorResponse{
		Error:   message,
		Message: err.Error(),
		Code:    code,
	})
}

// mapErrorToStatus translates error kinds to status codes: not-found vs
// conflict vs bad input vs internal fault.
func mapErrorToStatus(err error) int {
	var enhanced *errors.EnhancedError
	if errors.As(err, &enhanced) {
		switch enhanced.GetCategory() {
		case errors.CategoryValidation:
			return http.StatusBadRequest
		case errors.CategoryNotFound:
			return http.StatusNotFound
		case errors.CategoryConflict:
			return http.StatusConflict
		case errors.CategoryDatabase, errors.CategoryFileIO:
			return http.StatusInternalServerError
		}
	}
	switch {
	case errors.Is(err, datastore.ErrCoralNotFound),
		errors.Is(err, datastore.ErrDiveSiteNotFound):
		return http.StatusNotFound
	case errors.Is(err, datastore.ErrDuplicateSiteName),
		errors.Is(err, datastore.ErrDuplicateInternalID):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
