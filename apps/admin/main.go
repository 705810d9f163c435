package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Alisaqulain/madarcrm-sub000/core"
	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
	"github.com/Alisaqulain/madarcrm-sub000/core/user"
	redislock "github.com/Alisaqulain/madarcrm-sub000/services/lock"
	logsvc "github.com/Alisaqulain/madarcrm-sub000/services/logger"
	"github.com/Alisaqulain/madarcrm-sub000/storage"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.New(conf, "admin")
	if err != nil {
		fmt.Fprintf(os.Stderr, "setting up logger: %v\n", err)
		os.Exit(1)
	}
	logger = zl
	defer func() { _ = zl.Zap().Sync() }()

	// set up storage
	repos, err := storage.Open(context.Background(), conf)
	errAndDie(err)
	defer repos.Close()

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	demo.InitValidators(validate, translator)

	deps := demo.Deps{
		Repo:                repos.Demo,
		Logger:              logger,
		Validate:            validate,
		Translator:          translator,
		Plan:                demo.NewPlan(conf.Demo),
		PlaceholderPassword: conf.Demo.PlaceholderPassword,
		LeaseTTL:            conf.Demo.LeaseTTL,
	}
	if conf.Redis.Enabled {
		rdb := redislock.NewClient(conf.Redis)
		defer func() { _ = rdb.Close() }()
		deps.Locker = redislock.New(rdb, conf.Redis.LockTTL, logger)
	}
	demoCtl, err := demo.NewController(deps)
	errAndDie(err)

	// start CLI
	cli := commandLine{
		db:         repos.SQL,
		usrSvc:     user.NewService(repos.Users),
		demoCtl:    demoCtl,
		validate:   validate,
		translator: translator,
		out:        os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("admin %s failed", os.Args[1]), err)
		}
		repos.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
