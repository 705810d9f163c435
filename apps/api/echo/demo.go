package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Alisaqulain/madarcrm-sub000/core"
	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
)

type demoApi struct {
	ctl *demo.Controller
}

func registerDemoAPI(g *echo.Group, ctl *demo.Controller) {
	api := demoApi{ctl: ctl}

	dg := g.Group("/tenants/:tenant/demo")
	dg.GET("", api.run(ctl.Status))
	dg.POST("/enable", api.run(ctl.Enable))
	dg.POST("/disable", api.run(ctl.Disable))
	dg.POST("/load", api.run(ctl.Load))
	dg.POST("/reset", api.run(ctl.Reset))
	dg.POST("/clear", api.run(ctl.Clear))
}

// run adapts a lifecycle operation to a handler. The Result is always the response body,
// except for invalid tenants which get the usual field errors.
func (api *demoApi) run(op func(context.Context, string) (demo.Result, error)) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		res, err := op(ctx.Request().Context(), ctx.Param("tenant"))
		if err != nil && core.IsValidationError(err) {
			return err
		}
		return ctx.JSON(resultCode(res.Status), res)
	}
}

func resultCode(status demo.Status) int {
	switch status {
	case demo.StatusBusy:
		return http.StatusConflict
	case demo.StatusError:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}
