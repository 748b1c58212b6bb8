package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/sikap/core"
	"github.com/trezcool/sikap/core/attendance"
	"github.com/trezcool/sikap/core/grade"
	"github.com/trezcool/sikap/core/journal"
	"github.com/trezcool/sikap/core/report"
	"github.com/trezcool/sikap/core/staff"
	"github.com/trezcool/sikap/core/workload"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		Logger         core.Logger

		StaffSvc      staff.Service
		AttendanceSvc attendance.Service
		JournalSvc    journal.Service
		GradeSvc      grade.Service
		WorkloadSvc   workload.Service
		ReportSvc     report.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	debug := core.Conf.Debug

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger)
	s.app.Debug = debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerStaffAPI(v1, jwt, s.opts.StaffSvc)
	registerAttendanceAPI(v1, jwt, s.opts.AttendanceSvc)
	registerJournalAPI(v1, jwt, s.opts.JournalSvc)
	registerGradeAPI(v1, jwt, s.opts.GradeSvc)
	registerWorkloadAPI(v1, jwt, s.opts.WorkloadSvc)
	registerReportAPI(v1, jwt, s.opts.ReportSvc, s.opts.StaffSvc)

	// TODO: swagger !!
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Sikap API!")
}
