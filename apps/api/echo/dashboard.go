package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/dsteam/cohortboard/core/report"
	"github.com/dsteam/cohortboard/core/snapshot"
)

type dashboardApi struct {
	svc *report.Service
}

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *report.Service) {
	api := dashboardApi{svc: svc}

	// all dashboard endpoints sit behind the password gate
	pg := g.Group("/panels", jwt)
	pg.GET("/grades", api.gradePanel)
	pg.GET("/attendance-scores", api.attendanceScorePanel)
	pg.GET("/on-time", api.onTimePanel)
	pg.GET("/missing", api.missingPanel)
	pg.GET("/meetings", api.meetings)
	pg.GET("/progression", api.progression)

	rg := g.Group("/reports", jwt)
	rg.POST("/ipp", api.generateIPP)
	rg.GET("/ipp", api.queryIPP)
	rg.GET("/ipp/:id", api.getIPP)

	g.POST("/notify", api.notify, jwt)
}

// panelError maps resolution/aggregation failures to a panel-scoped 422
// echoing the triggering filter values. Anything unrecognized passes
// through to the global handler. Each panel endpoint fails on its own;
// siblings are untouched.
func panelError(err error, f report.Filter) error {
	cause := errors.Cause(err)
	switch cause {
	case snapshot.ErrNoMatchingSnapshots, snapshot.ErrNoSnapshotBeforeCutoff,
		snapshot.ErrCourseMismatch, report.ErrEmptyCohort:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, echo.Map{
			"error":   cause.Error(),
			"filters": filterEcho(f),
		})
	}
	if mfe, ok := cause.(*snapshot.MalformedFilenameError); ok {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, echo.Map{
			"error":   mfe.Error(),
			"filters": filterEcho(f),
		})
	}
	return err
}

// Handlers

func (api *dashboardApi) panel(ctx echo.Context, fn func(report.Filter) (report.Panel, error)) error {
	var params filterParams
	f, err := params.bind(ctx)
	if err != nil {
		return err
	}
	panel, err := fn(f)
	if err != nil {
		return panelError(err, f)
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"title":   panel.Title,
		"slices":  panel.Slices,
		"filters": filterEcho(f),
	})
}

func (api *dashboardApi) gradePanel(ctx echo.Context) error {
	return api.panel(ctx, func(f report.Filter) (report.Panel, error) {
		return api.svc.GradePanel(ctx.Request().Context(), f)
	})
}

func (api *dashboardApi) attendanceScorePanel(ctx echo.Context) error {
	return api.panel(ctx, func(f report.Filter) (report.Panel, error) {
		return api.svc.AttendanceScorePanel(ctx.Request().Context(), f)
	})
}

func (api *dashboardApi) onTimePanel(ctx echo.Context) error {
	return api.panel(ctx, func(f report.Filter) (report.Panel, error) {
		return api.svc.OnTimePanel(ctx.Request().Context(), f)
	})
}

func (api *dashboardApi) missingPanel(ctx echo.Context) error {
	var params filterParams
	f, err := params.bind(ctx)
	if err != nil {
		return err
	}
	missing, err := api.svc.MissingPanel(ctx.Request().Context(), f)
	if err != nil {
		return panelError(err, f)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"missing": missing, "filters": filterEcho(f)})
}

func (api *dashboardApi) meetings(ctx echo.Context) error {
	var params filterParams
	f, err := params.bind(ctx)
	if err != nil {
		return err
	}
	sessions, err := api.svc.Meetings(ctx.Request().Context(), f)
	if err != nil {
		return panelError(err, f)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"sessions": sessions, "filters": filterEcho(f)})
}

func (api *dashboardApi) progression(ctx echo.Context) error {
	var params filterParams
	f, err := params.bind(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.Progression(ctx.Request().Context(), f)
	if err != nil {
		return panelError(err, f)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"students": students, "filters": filterEcho(f)})
}

func (api *dashboardApi) generateIPP(ctx echo.Context) error {
	var params filterParams
	f, err := params.bind(ctx)
	if err != nil {
		return err
	}
	rpt, err := api.svc.GenerateIPP(ctx.Request().Context(), f)
	if err != nil {
		return panelError(err, f)
	}
	return ctx.JSON(http.StatusCreated, rpt)
}

func (api *dashboardApi) queryIPP(ctx echo.Context) error {
	rpts, err := api.svc.QueryAllIPP(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying reports")
	}
	return ctx.JSON(http.StatusOK, rpts)
}

func (api *dashboardApi) getIPP(ctx echo.Context) error {
	rpt, err := api.svc.GetIPP(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == report.ErrReportNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting report")
	}
	return ctx.JSON(http.StatusOK, rpt)
}

func (api *dashboardApi) notify(ctx echo.Context) error {
	var params filterParams
	f, err := params.bind(ctx)
	if err != nil {
		return err
	}
	n, err := api.svc.NotifyBelowThreshold(ctx.Request().Context(), f)
	if err != nil {
		return panelError(err, f)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"notified": n})
}
