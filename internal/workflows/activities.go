package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/ww1air/frontlines/internal/core/domain"
	"github.com/ww1air/frontlines/internal/core/usecases"
)

// Builder runs a build; implemented by *usecases.BuildService.
type Builder interface {
	Build(ctx context.Context, req usecases.BuildRequest) (*usecases.BuildReport, error)
}

// BuildActivities holds the activity implementations for the build workflow.
type BuildActivities struct {
	Builder Builder
}

// BuildFrontlines runs one build. Malformed period labels are passed on
// unparsed so that they fail in the report like any other period.
func (a *BuildActivities) BuildFrontlines(ctx context.Context, input BuildInput) (BuildResult, error) {
	periods := make([]domain.OutputPeriod, 0, len(input.Periods))
	for _, label := range input.Periods {
		p, err := domain.ParsePeriod(label)
		if err != nil {
			p = domain.OutputPeriod{Label: label}
		}
		periods = append(periods, p)
	}

	activity.RecordHeartbeat(ctx, input.Theater)
	report, err := a.Builder.Build(ctx, usecases.BuildRequest{
		Theater: input.Theater,
		Periods: periods,
		DryRun:  input.DryRun,
	})
	if err != nil {
		return BuildResult{}, activityError(err)
	}

	result := BuildResult{
		RunID:      report.RunID,
		Succeeded:  report.Succeeded,
		Failed:     report.Failed,
		ReportPath: report.ReportPath,
	}
	for _, f := range report.Failures() {
		result.Failures = append(result.Failures, fmt.Sprintf("%s: %s", f.Period, f.ErrorKind))
	}
	return result, nil
}

// activityError marks input errors as non-retryable. I/O failures and
// unclassified errors are retried.
func activityError(err error) error {
	kind := domain.ErrorKind(err)
	switch kind {
	case "IoFailure", "Internal":
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return temporal.NewNonRetryableApplicationError(err.Error(), kind, err)
}
