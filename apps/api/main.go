package main

import (
	"context"
	"fmt"
	"log"
	"os"

	echoapi "github.com/dsteam/cohortboard/apps/api/echo"
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

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	var logger core.Logger
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		rl := logsvc.NewRollbarLogger(std, conf)
		rl.Enable(true)
		logger = rl
	}

	refData, err := core.LoadRefData(conf.RefDataPath)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading ref data: %v", err), err)
	}

	// set up report archive
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("failed to close DB", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	store := storagesvc.NewTTLCache(localstore.NewStorage(conf.Storage.BasePath))
	resolver := snapshot.NewResolver(store, logger)
	reportSvc := report.NewService(conf, refData, resolver, sqlxrepos.NewReportRepository(db), mailSvc, logger)

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:      conf,
		Logger:    logger,
		ReportSvc: reportSvc,
	})

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
