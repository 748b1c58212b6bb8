package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sikap/core/journal"
)

type journalApi struct {
	svc journal.Service
}

func registerJournalAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc journal.Service) {
	api := journalApi{svc: svc}

	jg := g.Group("/journal", jwt)

	jg.POST("", api.create)
	jg.GET("", api.query)
	jg.GET("/:id", api.retrieve)
	jg.PUT("/:id", api.update)
	jg.DELETE("/:id", api.destroy)
}

func (api *journalApi) create(ctx echo.Context) error {
	var data journal.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}

	entry, err := api.svc.Create(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (api *journalApi) query(ctx echo.Context) error {
	filter := new(journal.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []journal.Entry{})
	}

	entries, err := api.svc.Filter(*filter)
	if err != nil {
		return errors.Wrap(err, "querying journal entries")
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *journalApi) retrieve(ctx echo.Context) error {
	entry, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *journalApi) update(ctx echo.Context) error {
	var data journal.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}

	entry, err := api.svc.Update(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *journalApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
