package main

import (
	"context"
	"fmt"
	"log"
	"os"

	campusdapi "github.com/campusgate/campusgate/apps/campusd/echo"
	"github.com/campusgate/campusgate/core"
	"github.com/campusgate/campusgate/core/auth"
	"github.com/campusgate/campusgate/core/user"
	emailsvc "github.com/campusgate/campusgate/services/email"
	logsvc "github.com/campusgate/campusgate/services/logger"
	"github.com/campusgate/campusgate/storage/database"
	inmemdb "github.com/campusgate/campusgate/storage/database/inmem"
	sqlxrepos "github.com/campusgate/campusgate/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Load()

	std := log.New(os.Stdout, "CAMPUSD : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.Debug || conf.TestMode {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	var mailSvc emailsvc.Service
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	// set up storage: in-memory in DEV, Postgres everywhere else
	var repo user.Repository
	if conf.Debug {
		repo = inmemdb.NewUserRepository(inmemdb.NewDB())
	} else {
		db, err := database.Open(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() { _ = db.Close() }()

		if err = database.Migrate(db); err != nil {
			logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
		}
		repo = sqlxrepos.NewUserRepository(db)
	}

	usrSvc := user.NewService(repo, mailSvc, logger)
	if conf.Debug {
		seedDevUsers(usrSvc, logger)
	}

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Campusd initializing : version %q", conf.Build))
	defer logger.Info("Campusd stopped")

	server := campusdapi.NewServer(campusdapi.ServerDeps{
		Logger:  logger,
		UserSvc: usrSvc,
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

// seedDevUsers creates well-known accounts so a fresh DEV setup is usable.
func seedDevUsers(svc *user.Service, logger core.Logger) {
	ctx := context.Background()
	seeds := []user.NewUser{
		{
			Name:     "Awa Ndiaye",
			Username: "awa",
			Email:    "student@example.com",
			Role:     string(auth.RoleStudent),
			Password: "LeSecret!10",
		},
		{
			Name:     "Moussa Diop",
			Username: "moussa",
			Email:    "admin@example.com",
			Role:     string(auth.RoleAdmin),
			Password: "LeSecret!10",
		},
	}
	for _, nu := range seeds {
		if _, err := svc.GetByEmail(ctx, nu.Email); err == nil {
			continue
		}
		if _, err := svc.Create(ctx, nu); err != nil {
			logger.Warn(fmt.Sprintf("seeding %s: %v", nu.Email, err))
		}
	}
}
