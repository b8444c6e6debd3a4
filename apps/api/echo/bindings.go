package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/dsteam/cohortboard/core"
	"github.com/dsteam/cohortboard/core/report"
)

// filterParams is the user-adjustable scope carried by every panel and
// action request. Panels (GET) carry it in the query string, actions
// (POST) in the JSON body. End defaults to today.
type filterParams struct {
	Course string `query:"course" json:"course" validate:"required,numeric"`
	Start  string `query:"start" json:"start" validate:"required,isodate"`
	End    string `query:"end" json:"end" validate:"omitempty,isodate"`
}

func (p *filterParams) bind(ctx echo.Context) (report.Filter, error) {
	if err := ctx.Bind(p); err != nil {
		return report.Filter{}, errors.Wrap(err, "binding to filterParams")
	}
	if err := core.Validate.Struct(p); err != nil {
		return report.Filter{}, err
	}

	start, err := core.ParseDate(p.Start)
	if err != nil {
		return report.Filter{}, errors.Wrap(err, "parsing start") // unreachable post-validation
	}
	end := core.Date(time.Now())
	if p.End != "" {
		if end, err = core.ParseDate(p.End); err != nil {
			return report.Filter{}, errors.Wrap(err, "parsing end")
		}
	}
	if end.Before(start) {
		return report.Filter{}, core.NewValidationError(nil, core.FieldError{Field: "end", Error: "end date is before start date"})
	}
	return report.Filter{Course: p.Course, Start: start, End: end}, nil
}

// filterEcho is the filter as echoed back with panel failures, so the
// user can adjust the date range or course selection.
func filterEcho(f report.Filter) echo.Map {
	return echo.Map{
		"course": f.Course,
		"start":  f.Start.Format(core.DateFormat),
		"end":    f.End.Format(core.DateFormat),
	}
}
