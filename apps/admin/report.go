package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dsteam/cohortboard/core"
	"github.com/dsteam/cohortboard/core/report"
)

func (cli *commandLine) generateReport(course, start, end string) error {
	startDate, err := core.ParseDate(start)
	if err != nil {
		return err
	}
	endDate := core.Date(time.Now())
	if end != "" {
		if endDate, err = core.ParseDate(end); err != nil {
			return err
		}
	}

	rpt, err := cli.reportSvc.GenerateIPP(context.Background(), report.Filter{
		Course: course,
		Start:  startDate,
		End:    endDate,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(rpt)
}
