package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Alisaqulain/madarcrm-sub000/core"
	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		DemoCtl    *demo.Controller
		Validate   *validator.Validate
		Translator ut.Translator
		Gatherer   prometheus.Gatherer // optional, /metrics is not served without it
	}

	Server struct {
		app      *echo.Echo
		address  string
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	srv := &Server{
		app:      echo.New(),
		address:  deps.Conf.Server.Address,
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(srv.shutdown, os.Interrupt, syscall.SIGTERM)
	srv.setup(deps)
	return srv
}

func (srv *Server) setup(deps ServerDeps) {
	app := srv.app
	conf := deps.Conf

	app.HideBanner = true
	app.Debug = conf.Debug
	app.HTTPErrorHandler = newAppHTTPErrorHandler(deps.Logger, deps.Translator, srv.SignalShutdown)

	app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	app.GET("/", home(conf.AppName))
	if deps.Gatherer != nil {
		app.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := app.Group("/v1")
	if conf.Server.APIKey != "" {
		v1.Use(apiKeyMiddleware(conf.Server.APIKey))
	}

	registerDemoAPI(v1, deps.DemoCtl)
}

// Start blocks until the listener stops. Errors other than a graceful shutdown are sent to Errors().
func (srv *Server) Start() {
	if err := srv.app.Start(srv.address); err != nil && err != http.ErrServerClosed {
		srv.errors <- err
	}
}

func (srv *Server) Errors() <-chan error {
	return srv.errors
}

func (srv *Server) ShutdownSignal() <-chan os.Signal {
	return srv.shutdown
}

func (srv *Server) SignalShutdown() {
	select {
	case srv.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (srv *Server) Shutdown(ctx context.Context) error {
	return srv.app.Shutdown(ctx)
}

func (srv *Server) Close() error {
	return srv.app.Close()
}

func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	srv.app.ServeHTTP(w, r)
}

func home(appName string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, "Welcome to "+appName+" API!")
	}
}
