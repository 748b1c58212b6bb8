package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sikap/core"
	"github.com/trezcool/sikap/core/grade"
)

type gradeApi struct {
	svc grade.Service
}

func registerGradeAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc grade.Service) {
	api := gradeApi{svc: svc}

	gg := g.Group("/grades", jwt)

	gg.GET("/ledger", api.ledger)
	gg.POST("/value", api.setValue)
	gg.POST("/topic", api.setTopic)
	gg.DELETE("/column", api.deleteColumn)
	gg.GET("/weights", api.getWeights)
	gg.PUT("/weights", api.saveWeights)
	gg.GET("/entries", api.entries)
}

func (api *gradeApi) ledger(ctx echo.Context) error {
	scope, err := bindScope(ctx)
	if err != nil {
		return err
	}

	ledger, err := api.svc.LoadLedger(scope)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newLedgerResponse(ledger))
}

func (api *gradeApi) setValue(ctx echo.Context) error {
	var data SetValueRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetValueRequest")
	}

	entry, err := api.svc.SetValue(data.Scope, data.SetValueInput)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *gradeApi) setTopic(ctx echo.Context) error {
	var data SetTopicRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetTopicRequest")
	}

	if err := api.svc.SetTopic(data.Scope, data.Category, data.UnitLabel, data.ColumnLabel, data.Topic); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradeApi) deleteColumn(ctx echo.Context) error {
	scope, err := bindScope(ctx)
	if err != nil {
		return err
	}
	category := grade.Category(ctx.QueryParam("category"))
	unit := core.CleanString(ctx.QueryParam("unit_label"))
	label := core.CleanString(ctx.QueryParam("column_label"))
	confirm := ctx.QueryParam("confirm") == "true"

	if err := api.svc.DeleteColumn(scope, category, unit, label, confirm); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradeApi) getWeights(ctx echo.Context) error {
	scope, err := bindScope(ctx)
	if err != nil {
		return err
	}

	wc, err := api.svc.GetWeights(scope)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, wc)
}

func (api *gradeApi) saveWeights(ctx echo.Context) error {
	var data grade.WeightConfig
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to WeightConfig")
	}

	wc, err := api.svc.SaveWeights(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, wc)
}

func (api *gradeApi) entries(ctx echo.Context) error {
	nip := core.CleanString(ctx.QueryParam("teacher_nip"))
	if nip == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "teacher_nip", Error: "this field is required"})
	}

	var dr dateRange
	if err := dr.Bind(ctx); err != nil {
		return err
	}

	entries, err := api.svc.EntriesInRange(nip, dr.From, dr.To)
	if err != nil {
		return errors.Wrap(err, "querying grade entries")
	}
	if entries == nil {
		entries = []grade.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func bindScope(ctx echo.Context) (grade.Scope, error) {
	var scope grade.Scope
	if err := ctx.Bind(&scope); err != nil {
		return grade.Scope{}, errors.Wrap(err, "binding to Scope")
	}
	if err := scope.Validate(); err != nil {
		return grade.Scope{}, err
	}
	return scope, nil
}

type (
	SetValueRequest struct {
		Scope grade.Scope `json:"scope"`
		grade.SetValueInput
	}

	SetTopicRequest struct {
		Scope       grade.Scope    `json:"scope"`
		Category    grade.Category `json:"category"`
		UnitLabel   string         `json:"unit_label"`
		ColumnLabel string         `json:"column_label"`
		Topic       string         `json:"topic"`
	}

	// LedgerColumn is one grid column; the rows' Cells align to the ledger
	// response's Columns by index.
	LedgerColumn struct {
		UnitLabel string         `json:"unit_label"`
		Category  grade.Category `json:"category"`
		Label     string         `json:"label"`
		Topic     string         `json:"topic,omitempty"`
	}

	LedgerRow struct {
		StudentID        string                  `json:"student_id"`
		Cells            []null.Float64          `json:"cells"`
		UnitScores       map[string]null.Float64 `json:"unit_scores"`
		FinalExamAverage null.Float64            `json:"final_exam_average"`
		ReportScore      int                     `json:"report_score"`
	}

	LedgerResponse struct {
		Scope    grade.Scope        `json:"scope"`
		Weights  grade.WeightConfig `json:"weights"`
		SumUnits []string           `json:"sum_units"`
		Columns  []LedgerColumn     `json:"columns"`
		Rows     []LedgerRow        `json:"rows"`
	}
)

var ledgerCategories = []grade.Category{
	grade.CategoryAssignment,
	grade.CategoryQuiz,
	grade.CategoryDailyTest,
	grade.CategorySum,
}

func newLedgerResponse(l *grade.Ledger) LedgerResponse {
	resp := LedgerResponse{
		Scope:    l.Scope(),
		Weights:  l.Weights(),
		SumUnits: l.SumUnitLabels(),
		Columns:  make([]LedgerColumn, 0),
	}

	for _, unit := range resp.SumUnits {
		for _, category := range ledgerCategories {
			for _, label := range l.VisibleColumns(category, unit) {
				resp.Columns = append(resp.Columns, LedgerColumn{
					UnitLabel: unit,
					Category:  category,
					Label:     label,
					Topic:     l.Topic(category, unit, label),
				})
			}
		}
	}
	for _, label := range l.VisibleColumns(grade.CategoryFinalExam, grade.FinalExamUnit) {
		resp.Columns = append(resp.Columns, LedgerColumn{
			UnitLabel: grade.FinalExamUnit,
			Category:  grade.CategoryFinalExam,
			Label:     label,
			Topic:     l.Topic(grade.CategoryFinalExam, grade.FinalExamUnit, label),
		})
	}

	resp.Rows = make([]LedgerRow, 0, len(l.Students()))
	for _, studentID := range l.Students() {
		row := LedgerRow{
			StudentID:        studentID,
			Cells:            make([]null.Float64, 0, len(resp.Columns)),
			UnitScores:       make(map[string]null.Float64, len(resp.SumUnits)),
			FinalExamAverage: l.FinalExamAverage(studentID),
			ReportScore:      l.ReportScore(studentID),
		}
		for _, col := range resp.Columns {
			row.Cells = append(row.Cells, l.Value(studentID, col.Category, col.UnitLabel, col.Label))
		}
		for _, unit := range resp.SumUnits {
			row.UnitScores[unit] = l.UnitScore(studentID, unit)
		}
		resp.Rows = append(resp.Rows, row)
	}
	return resp
}
