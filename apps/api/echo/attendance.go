package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sikap/core"
	"github.com/trezcool/sikap/core/attendance"
)

type attendanceApi struct {
	svc attendance.Service
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc attendance.Service) {
	api := attendanceApi{svc: svc}

	ag := g.Group("/attendance", jwt)

	ag.POST("/sessions", api.openSession)
	ag.GET("/sessions", api.querySessions)
	ag.GET("/sessions/:id", api.retrieveSession)
	ag.GET("/sessions/:id/records", api.queryRecords)
	ag.PUT("/sessions/:id/records", api.saveRecords)
	ag.POST("/sessions/:id/finalize", api.finalize)
	ag.POST("/sessions/:id/reopen", api.reopen)
	ag.GET("/summary", api.summary)
}

func (api *attendanceApi) openSession(ctx echo.Context) error {
	var data attendance.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}

	sess, err := api.svc.OpenSession(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sess)
}

func (api *attendanceApi) querySessions(ctx echo.Context) error {
	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []attendance.Session{})
	}

	sessions, err := api.svc.Filter(*filter)
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	if sessions == nil {
		sessions = []attendance.Session{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *attendanceApi) retrieveSession(ctx echo.Context) error {
	sess, err := api.svc.GetSession(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *attendanceApi) queryRecords(ctx echo.Context) error {
	records, err := api.svc.GetRecords(ctx.Param("id"))
	if err != nil {
		return err
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) saveRecords(ctx echo.Context) error {
	var inputs []attendance.RecordInput
	if err := ctx.Bind(&inputs); err != nil {
		return errors.Wrap(err, "binding to RecordInput list")
	}

	records, err := api.svc.SaveRecords(ctx.Param("id"), inputs)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) finalize(ctx echo.Context) error {
	var inputs []attendance.RecordInput
	if err := ctx.Bind(&inputs); err != nil {
		return errors.Wrap(err, "binding to RecordInput list")
	}

	sess, err := api.svc.Finalize(ctx.Param("id"), inputs)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *attendanceApi) reopen(ctx echo.Context) error {
	sess, err := api.svc.Reopen(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *attendanceApi) summary(ctx echo.Context) error {
	nip := core.CleanString(ctx.QueryParam("teacher_nip"))
	if nip == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "teacher_nip", Error: "this field is required"})
	}

	var dr dateRange
	if err := dr.Bind(ctx); err != nil {
		return err
	}

	summaries, err := api.svc.SummaryCounts(nip, dr.From, dr.To)
	if err != nil {
		return errors.Wrap(err, "summarizing attendance")
	}
	if summaries == nil {
		summaries = []attendance.Summary{}
	}
	return ctx.JSON(http.StatusOK, summaries)
}
