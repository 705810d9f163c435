package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
	"github.com/Alisaqulain/madarcrm-sub000/core/user"
	"github.com/Alisaqulain/madarcrm-sub000/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword      // mockable
	gooseRunFunc     = database.RunMigrations // mockable

	errHelp           = errors.New("help provided")
	errPwdMismatch    = errors.New("passwords do not match")
	errNoRelationalDB = errors.New("migrate requires the postgres storage backend")
)

type commandLine struct {
	db         *sql.DB // nil unless the postgres backend is configured
	usrSvc     *user.Service
	demoCtl    *demo.Controller
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run goose migrations (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  adduser -tenant TENANT -username USERNAME -email EMAIL [-name NAME] [-superadmin] - create an administrator")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  demo -tenant TENANT status|enable|disable|load|reset|clear - manage the tenant demo data")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserCmd.SetOutput(cli.out)
	addUserTenant := addUserCmd.String("tenant", "", "The tenant the administrator belongs to.")
	addUserName := addUserCmd.String("name", "", "The user's full name. Defaults to the username.")
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserSuper := addUserCmd.Bool("superadmin", false, "Grant the super administrator role instead of owner.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	demoCmd := flag.NewFlagSet("demo", flag.ContinueOnError)
	demoCmd.SetOutput(cli.out)
	demoTenant := demoCmd.String("tenant", "", "The tenant to operate on.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserTenant == "" || (*addUserUname == "" && *addUserEmail == "") {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		confirm, err := cli.promptPassword("Confirm password:")
		if err != nil {
			return err
		}
		if confirm != pwd {
			return errPwdMismatch
		}
		return cli.addUser(*addUserTenant, *addUserName, *addUserUname, *addUserEmail, pwd, *addUserSuper)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "demo":
		if err := demoCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *demoTenant == "" || demoCmd.NArg() != 1 {
			demoCmd.Usage()
			return errHelp
		}
		return cli.demo(*demoTenant, demoCmd.Arg(0))

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword(prompt string) (string, error) {
	fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
