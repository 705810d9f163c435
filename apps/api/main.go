package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof on the default mux
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	echoapi "github.com/Alisaqulain/madarcrm-sub000/apps/api/echo"
	"github.com/Alisaqulain/madarcrm-sub000/core"
	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
	redislock "github.com/Alisaqulain/madarcrm-sub000/services/lock"
	logsvc "github.com/Alisaqulain/madarcrm-sub000/services/logger"
	"github.com/Alisaqulain/madarcrm-sub000/services/metrics"
	"github.com/Alisaqulain/madarcrm-sub000/storage"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger, err := logsvc.New(conf, "api")
	if err != nil {
		panic(fmt.Sprintf("setting up logger: %v", err))
	}
	defer func() { _ = logger.Zap().Sync() }()

	validate, translator := core.NewValidator()
	demo.InitValidators(validate, translator)

	// set up storage
	repos, err := storage.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s storage: %v", conf.Storage, err), err)
	}
	defer repos.Close()

	// set up metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewRecorder(registry)
	if err != nil {
		logger.Fatal(fmt.Sprintf("registering metrics: %v", err), err)
	}

	deps := demo.Deps{
		Repo:                repos.Demo,
		Logger:              logger,
		Validate:            validate,
		Translator:          translator,
		Plan:                demo.NewPlan(conf.Demo),
		PlaceholderPassword: conf.Demo.PlaceholderPassword,
		LeaseTTL:            conf.Demo.LeaseTTL,
		Metrics:             recorder,
	}

	// cross-process lock
	if conf.Redis.Enabled {
		rdb := redislock.NewClient(conf.Redis)
		defer func() { _ = rdb.Close() }()
		if err = pingRedis(rdb); err != nil {
			logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
		}
		deps.Locker = redislock.New(rdb, conf.Redis.LockTTL, logger)
	}

	demoCtl, err := demo.NewController(deps)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up demo controller: %v", err), err)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build), map[string]interface{}{"storage": conf.Storage})
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Storage)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			DemoCtl:    demoCtl,
			Validate:   validate,
			Translator: translator,
			Gatherer:   registry,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func pingRedis(rdb *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return rdb.Ping(ctx).Err()
}
