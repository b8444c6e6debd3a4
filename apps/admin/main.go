package main

import (
	"log"
	"os"

	"github.com/dsteam/cohortboard/core"
	"github.com/dsteam/cohortboard/core/report"
	"github.com/dsteam/cohortboard/core/snapshot"
	emailsvc "github.com/dsteam/cohortboard/services/email"
	logsvc "github.com/dsteam/cohortboard/services/logger"
	storagesvc "github.com/dsteam/cohortboard/services/storage"
	localstore "github.com/dsteam/cohortboard/services/storage/local"
	"github.com/dsteam/cohortboard/storage/database"
	sqlxrepos "github.com/dsteam/cohortboard/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)
	refData, err := core.LoadRefData(conf.RefDataPath)
	errAndDie(err)

	// set up report archive
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()

	// set up services
	appLogger := logsvc.NewStdLogger(logger)
	store := storagesvc.NewTTLCache(localstore.NewStorage(conf.Storage.BasePath))
	resolver := snapshot.NewResolver(store, appLogger)
	svc := report.NewService(conf, refData, resolver, sqlxrepos.NewReportRepository(db), emailsvc.NewConsoleService(conf), appLogger)

	// start CLI
	cli := commandLine{reportSvc: svc, out: os.Stdout}
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
