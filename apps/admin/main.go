package main

import (
	"log"
	"os"

	"github.com/campusgate/campusgate/core"
	"github.com/campusgate/campusgate/core/user"
	emailsvc "github.com/campusgate/campusgate/services/email"
	logsvc "github.com/campusgate/campusgate/services/logger"
	"github.com/campusgate/campusgate/storage/database"
	sqlxrepos "github.com/campusgate/campusgate/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.Load()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()

	// start CLI
	cli := commandLine{
		db: db,
		usrSvc: user.NewService(
			sqlxrepos.NewUserRepository(db),
			emailsvc.NewConsoleService(),
			logsvc.NewConsoleLogger(logger),
		),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
