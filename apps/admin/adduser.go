package main

import (
	"context"

	"github.com/campusgate/campusgate/core"
	"github.com/campusgate/campusgate/core/user"
)

// addUser creates an active account with the given role.
func (cli *commandLine) addUser(name, uname, email, role, pwd string) error {
	nu := user.NewUser{
		Name:            core.CleanString(name),
		Username:        core.CleanString(uname, true /* lower */),
		Email:           core.CleanString(email, true /* lower */),
		Role:            core.CleanString(role, true /* lower */),
		Password:        pwd,
		PasswordConfirm: pwd,
	}
	if err := nu.Validate(cli.usrSvc); err != nil {
		return err
	}
	_, err := cli.usrSvc.Create(context.Background(), nu)
	return err
}
