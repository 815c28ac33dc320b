package jobs

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/logger"
)

const (
	NamePerformanceReport = "performance-report"

	reportKeyPrefix = "reports/performance/"
)

// PerformanceReport builds yesterday's report, logs it and, when a sink is
// configured, exports it as JSON.
type PerformanceReport struct {
	reporter Reporter
	sink     ReportSink
	clock    Clock
}

// NewPerformanceReport accepts a nil sink.
func NewPerformanceReport(reporter Reporter, sink ReportSink, clock Clock) *PerformanceReport {
	return &PerformanceReport{reporter: reporter, sink: sink, clock: clock}
}

func (j *PerformanceReport) Name() string { return NamePerformanceReport }

func (j *PerformanceReport) Run(ctx context.Context) error {
	day := j.clock.Now().UTC().AddDate(0, 0, -1)
	report, err := j.reporter.DailyReport(ctx, day)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	log := logger.Component("jobs")
	log.Info().
		Str("date", report.Date).
		Int64("shown", report.Shown).
		Int64("clicks", report.Clicks).
		Int64("conversions", report.Conversions).
		Int64("interactions", report.TotalInteractions).
		Float64("ctr", report.CTR).
		Float64("conversion_rate", report.ConversionRate).
		Msg("daily recommendation report")

	if j.sink == nil {
		return nil
	}
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	key := reportKeyPrefix + report.Date + ".json"
	if err := j.sink.PutReport(ctx, key, body); err != nil {
		return fmt.Errorf("export report %s: %w", key, err)
	}
	return nil
}
