package main

import (
	"context"
	"fmt"
	"log"
	"os"

	portalweb "github.com/campusgate/campusgate/apps/portal/echo"
	"github.com/campusgate/campusgate/core"
	"github.com/campusgate/campusgate/core/session"
	logsvc "github.com/campusgate/campusgate/services/logger"
	"github.com/campusgate/campusgate/services/sessioncache"
	"github.com/campusgate/campusgate/services/toast"
	"github.com/campusgate/campusgate/services/upstream"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Load()

	std := log.New(os.Stdout, "PORTAL : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.Debug || conf.TestMode {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// principal cache: redis when configured, in-process otherwise
	var cache session.Cache
	if conf.Redis.Address != "" {
		cache = sessioncache.NewRedis(conf)
	} else {
		cache = sessioncache.NewMemory(conf.Session.CacheTTL)
	}

	validate, translator := core.NewValidator()

	// =========================================================================
	// Start Web Service

	logger.Info(fmt.Sprintf("Portal initializing : version %q", conf.Build))
	defer logger.Info("Portal stopped")

	server := portalweb.NewServer(portalweb.ServerDeps{
		Logger:     logger,
		Upstream:   upstream.NewClient(conf),
		Cache:      cache,
		Toasts:     toast.NewSink(conf.Toast.SuccessDuration, conf.Toast.ErrorDuration),
		Validate:   validate,
		Translator: translator,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
