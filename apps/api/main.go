package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	echoapi "github.com/trezcool/sikap/apps/api/echo"
	"github.com/trezcool/sikap/core"
	"github.com/trezcool/sikap/core/attendance"
	"github.com/trezcool/sikap/core/grade"
	"github.com/trezcool/sikap/core/journal"
	"github.com/trezcool/sikap/core/report"
	"github.com/trezcool/sikap/core/staff"
	"github.com/trezcool/sikap/core/workload"
	emailsvc "github.com/trezcool/sikap/services/email"
	logsvc "github.com/trezcool/sikap/services/logger"
	"github.com/trezcool/sikap/storage/database"
	sqlxrepos "github.com/trezcool/sikap/storage/database/sqlx"
)

// TODO:
// - APM/Tracing
// - Serve static files | Web Server ? (for mailers)
func main() {
	// set up logger
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		core.Conf,
	)
	logger.Enable(!core.Conf.Debug)

	// set up DB
	db, err := database.OpenX(core.Conf)
	errAndDie(err)
	defer db.Close()

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	stfSvc := staff.NewService(sqlxrepos.NewStaffRepository(db), mailSvc)
	attSvc := attendance.NewService(sqlxrepos.NewAttendanceRepository(db))
	jourSvc := journal.NewService(sqlxrepos.NewJournalRepository(db))
	gradeSvc := grade.NewService(sqlxrepos.NewGradeRepository(db))
	wlSvc := workload.NewService(sqlxrepos.NewWorkloadRepository(db), core.Conf.MinWorkloadHours)
	repSvc := report.NewService(
		sqlxrepos.NewReportRepository(db), attSvc, jourSvc, gradeSvc, wlSvc, stfSvc, mailSvc)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:       core.Conf.Server.Address(),
			Logger:        logger,
			StaffSvc:      stfSvc,
			AttendanceSvc: attSvc,
			JournalSvc:    jourSvc,
			GradeSvc:      gradeSvc,
			WorkloadSvc:   wlSvc,
			ReportSvc:     repSvc,
		},
	)
	go app.Start()

	// graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: starting shutdown...", sig))

	ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownTimeout)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		logger.Error("graceful shutdown failed", err)
	}
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
