package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sikap/core"
	"github.com/trezcool/sikap/core/workload"
)

type workloadApi struct {
	svc workload.Service
}

func registerWorkloadAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc workload.Service) {
	api := workloadApi{svc: svc}

	wg := g.Group("/workload", jwt)

	wg.PUT("/assignments", api.saveAssignment)
	wg.GET("/assignments", api.queryAssignments)
	wg.GET("/assignment", api.retrieveAssignment)
	wg.GET("/totals", api.totals)
	wg.POST("/duty-logs", api.logDuty)
	wg.GET("/duty-logs", api.queryDutyLogs)
}

func (api *workloadApi) saveAssignment(ctx echo.Context) error {
	var data workload.Assignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Assignment")
	}

	a, err := api.svc.SaveAssignment(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *workloadApi) queryAssignments(ctx echo.Context) error {
	filter := new(workload.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []workload.Assignment{})
	}

	assignments, err := api.svc.Filter(*filter)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []workload.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *workloadApi) retrieveAssignment(ctx echo.Context) error {
	nip, semester, year, err := assignmentKeyParams(ctx)
	if err != nil {
		return err
	}

	a, err := api.svc.Get(nip, semester, year)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *workloadApi) totals(ctx echo.Context) error {
	nip, semester, year, err := assignmentKeyParams(ctx)
	if err != nil {
		return err
	}

	totals, err := api.svc.Totals(nip, semester, year)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, totals)
}

func (api *workloadApi) logDuty(ctx echo.Context) error {
	var data workload.NewDutyLogInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDutyLogInput")
	}

	dl, err := api.svc.LogDuty(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, dl)
}

func (api *workloadApi) queryDutyLogs(ctx echo.Context) error {
	nip := core.CleanString(ctx.QueryParam("staff_nip"))
	if nip == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "staff_nip", Error: "this field is required"})
	}

	var dr dateRange
	if err := dr.Bind(ctx); err != nil {
		return err
	}

	logs, err := api.svc.DutyLogs(nip, dr.From, dr.To)
	if err != nil {
		return errors.Wrap(err, "querying duty logs")
	}
	if logs == nil {
		logs = []workload.DutyLog{}
	}
	return ctx.JSON(http.StatusOK, logs)
}

func assignmentKeyParams(ctx echo.Context) (nip, semester, year string, err error) {
	nip = core.CleanString(ctx.QueryParam("staff_nip"))
	semester = core.CleanString(ctx.QueryParam("semester"))
	year = core.CleanString(ctx.QueryParam("academic_year"))

	var flds []core.FieldError
	if nip == "" {
		flds = append(flds, core.FieldError{Field: "staff_nip", Error: "this field is required"})
	}
	if semester == "" {
		flds = append(flds, core.FieldError{Field: "semester", Error: "this field is required"})
	}
	if year == "" {
		flds = append(flds, core.FieldError{Field: "academic_year", Error: "this field is required"})
	}
	if len(flds) > 0 {
		return "", "", "", core.NewValidationError(nil, flds...)
	}
	return nip, semester, year, nil
}
