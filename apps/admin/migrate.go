package main

import (
	"github.com/campusgate/campusgate/storage/database"
)

var migrationFunc = database.MigrationCommand // mockable

func (cli *commandLine) migrate(args []string) error {
	command := args[0]
	return migrationFunc(cli.db, command, args[1:]...)
}
