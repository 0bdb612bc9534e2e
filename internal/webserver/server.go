package webserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/orangeboy/storefront/internal/app"
	"github.com/orangeboy/storefront/pkg/metrics"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	_ "github.com/orangeboy/storefront/docs"
)

const appContextKey = "appctx"

// MaxUploadSize bounds request bodies, uploads included.
const MaxUploadSize = "12M"

// WebServer holds the echo instance and the route groups handlers register on.
type WebServer struct {
	root   *echo.Echo
	api    *echo.Group
	admin  *echo.Group
	appCtx app.AppContext
}

var server *WebServer

// CustomValidator adapts validator/v10 to echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// Init builds the server. Handlers are registered afterwards through the
// ApiXXX and AdminXXX helpers.
func Init(appCtx app.AppContext) {
	server = NewWebServer(appCtx)
}

func NewWebServer(appCtx app.AppContext) *WebServer {
	cfg := appCtx.Config()
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &CustomValidator{validator: validator.New()}
	if cfg.System.Debug {
		e.Logger.SetLevel(log.DEBUG)
	} else {
		e.Logger.SetLevel(log.INFO)
	}

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(MaxUploadSize))
	e.Use(zapRequestLogger())
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(cfg.Web.Secret))))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(appContextKey, appCtx)
			return next(c)
		}
	})

	e.GET("/health", healthHandler)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	admin := api.Group("/admin", RequireAdmin(appCtx))

	return &WebServer{root: e, api: api, admin: admin, appCtx: appCtx}
}

// Handler returns the root http.Handler (used by tests).
func Handler() http.Handler {
	return server.root
}

// Start serves until the context is cancelled.
func Start(ctx context.Context) error {
	cfg := server.appCtx.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	zap.S().Infof("storefront web server listening on %s", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := server.root.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.root.Shutdown(shutdownCtx)
	}
}

// GetAppContext returns the application context injected by the server.
func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(appContextKey).(app.AppContext)
}

func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.GET(path, h, m...)
}

func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.POST(path, h, m...)
}

func ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.PUT(path, h, m...)
}

func ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.DELETE(path, h, m...)
}

func AdminGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.admin.GET(path, h, m...)
}

func AdminPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.admin.POST(path, h, m...)
}

func AdminPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.admin.PUT(path, h, m...)
}

func AdminDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.admin.DELETE(path, h, m...)
}

type healthStatus struct {
	Status      string `json:"status"`
	Backend     string `json:"backend"`
	BackendUp   bool   `json:"backendUp"`
	Translation bool   `json:"translation"`
	Fallback    int    `json:"fallbackProducts"`
}

// healthHandler reports liveness plus durable backend reachability. The
// service stays healthy without a backend since the fallback store serves.
func healthHandler(c echo.Context) error {
	appCtx := GetAppContext(c)
	svc := appCtx.Catalog()
	st := healthStatus{
		Status:      "ok",
		Backend:     svc.BackendName(),
		Translation: appCtx.Translator().Enabled(),
		Fallback:    svc.Store().Len(),
	}
	if st.Backend == "" {
		st.Backend = "fallback"
	} else {
		st.BackendUp = svc.Ping(c.Request().Context()) == nil
	}
	return c.JSON(http.StatusOK, st)
}

func zapRequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			if strings.HasPrefix(req.URL.Path, "/metrics") {
				return nil
			}
			zap.L().Debug("http request",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote", c.RealIP()))
			return nil
		}
	}
}
