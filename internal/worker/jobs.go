package worker

import (
	"context"

	"github.com/geoliga/geoliga/internal/models"
	"github.com/geoliga/geoliga/internal/services"
)

// RebuildReportJob rebuilds the league report in the background and hands
// the result to OnDone (serve mode swaps its published report there).
type RebuildReportJob struct {
	Service services.ReportService
	Weeks   []models.WeekSpec
	OnDone  func(*models.Report, error)
}

func (j *RebuildReportJob) Name() string { return "rebuild_report" }

func (j *RebuildReportJob) Run(ctx context.Context) error {
	report, err := j.Service.BuildReport(ctx, j.Weeks)
	if j.OnDone != nil {
		j.OnDone(report, err)
	}
	return err
}
