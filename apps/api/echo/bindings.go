package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/sikap/core"
)

const dateLayout = "2006-01-02"

// dateRange binds the `from`/`to` query params shared by the period-scoped
// endpoints (attendance summaries, grade entries, duty logs).
type dateRange struct {
	From time.Time
	To   time.Time
}

func (dr *dateRange) Bind(ctx echo.Context) error {
	var err error
	if dr.From, err = parseDateParam(ctx, "from"); err != nil {
		return err
	}
	if dr.To, err = parseDateParam(ctx, "to"); err != nil {
		return err
	}
	if dr.From.IsZero() || dr.To.IsZero() {
		return core.NewValidationError(nil, core.FieldError{Field: "from", Error: "both from and to dates are required"})
	}
	if dr.To.Before(dr.From) {
		return core.NewValidationError(nil, core.FieldError{Field: "to", Error: "to must not precede from"})
	}
	return nil
}

func parseDateParam(ctx echo.Context, name string) (time.Time, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(dateLayout, val)
	if err != nil {
		return time.Time{}, core.NewValidationError(nil, core.FieldError{Field: name, Error: "invalid date"})
	}
	return t, nil
}
