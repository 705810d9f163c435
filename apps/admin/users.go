package main

import (
	"context"

	"github.com/Alisaqulain/madarcrm-sub000/core"
	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

// addUser creates a real administrator account.
func (cli *commandLine) addUser(tenantID, name, uname, email, pwd string, superAdmin bool) error {
	if name == "" {
		name = uname
	}
	role := user.RoleAdminOwner
	if superAdmin {
		role = user.RoleSuperAdmin
	}
	nu := user.NewUser{
		TenantID:        tenantID,
		Name:            name,
		Username:        uname,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
		Roles:           []string{role},
	}
	if err := nu.Validate(cli.validate, cli.usrSvc); err != nil {
		return core.TranslateValidation(err, cli.translator)
	}
	usr, err := cli.usrSvc.Create(context.Background(), nu)
	if err != nil {
		return err
	}
	logger.Info("user created", usr, map[string]interface{}{"tenant": usr.TenantID, "roles": usr.Roles})
	return nil
}

func (cli *commandLine) resetPassword(uname, pwd string) error {
	usr, err := cli.usrSvc.ResetPassword(context.Background(), uname, pwd)
	if err != nil {
		return err
	}
	logger.Info("password reset", usr)
	return nil
}
