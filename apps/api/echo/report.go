package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sikap/core"
	"github.com/trezcool/sikap/core/report"
	"github.com/trezcool/sikap/core/staff"
)

type reportApi struct {
	svc      report.Service
	staffSvc staff.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc report.Service, staffSvc staff.Service) {
	api := reportApi{svc: svc, staffSvc: staffSvc}

	rg := g.Group("/reports", jwt)

	rg.POST("", api.create)
	rg.GET("", api.query)
	rg.GET("/preview", api.preview)
	rg.GET("/:id", api.retrieve)
	rg.PUT("/:id/draft", api.saveDraft)
	rg.POST("/:id/submit", api.submit)
	rg.POST("/:id/withdraw", api.withdraw)
	rg.DELETE("/:id", api.destroy)
	rg.GET("/:id/narrative", api.narrative)
	rg.GET("/:id/logs", api.logs)

	// approval chain; reviewer roles are re-checked by the workflow itself
	rg.POST("/:id/approve", api.approve, adminMiddleware())
	rg.POST("/:id/reject", api.reject, adminMiddleware())
}

func (api *reportApi) create(ctx echo.Context) error {
	var data report.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}

	sub, err := api.svc.Create(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *reportApi) query(ctx echo.Context) error {
	filter := new(report.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []report.Submission{})
	}

	subs, err := api.svc.Filter(*filter)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []report.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

// preview compiles a snapshot for a period without opening a submission.
func (api *reportApi) preview(ctx echo.Context) error {
	nip := core.CleanString(ctx.QueryParam("staff_nip"))
	if nip == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "staff_nip", Error: "this field is required"})
	}

	var dr dateRange
	if err := dr.Bind(ctx); err != nil {
		return err
	}

	snap, err := api.svc.GenerateSnapshot(nip, dr.From, dr.To)
	if err != nil {
		return errors.Wrap(err, "generating snapshot")
	}
	return ctx.JSON(http.StatusOK, snap)
}

func (api *reportApi) retrieve(ctx echo.Context) error {
	sub, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *reportApi) saveDraft(ctx echo.Context) error {
	sub, err := api.svc.SaveDraft(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *reportApi) submit(ctx echo.Context) error {
	sub, err := api.svc.Submit(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *reportApi) withdraw(ctx echo.Context) error {
	sub, err := api.svc.Withdraw(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *reportApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *reportApi) narrative(ctx echo.Context) error {
	sub, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return err
	}
	rows := api.svc.Narrative(sub.Snapshot)
	if rows == nil {
		rows = []report.NarrativeRow{}
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *reportApi) logs(ctx echo.Context) error {
	logs, err := api.svc.Logs(ctx.Param("id"))
	if err != nil {
		return err
	}
	if logs == nil {
		logs = []report.ApprovalLog{}
	}
	return ctx.JSON(http.StatusOK, logs)
}

func (api *reportApi) approve(ctx echo.Context) error {
	actor, err := contextActor(ctx, api.staffSvc)
	if err != nil {
		return err
	}

	sub, err := api.svc.Approve(ctx.Param("id"), actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *reportApi) reject(ctx echo.Context) error {
	var data RejectRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RejectRequest")
	}

	actor, err := contextActor(ctx, api.staffSvc)
	if err != nil {
		return err
	}

	sub, err := api.svc.Reject(ctx.Param("id"), actor, data.Note)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

type RejectRequest struct {
	Note string `json:"note"`
}
