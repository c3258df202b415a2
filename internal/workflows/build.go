package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// BuildInput is the input for the front line build workflow.
type BuildInput struct {
	Theater string
	Periods []string // period labels
	DryRun  bool
}

// BuildResult summarises a finished build.
type BuildResult struct {
	RunID      string
	Succeeded  int
	Failed     int
	Failures   []string // "<period>: <kind>"
	ReportPath string
}

// FrontlineBuildWorkflow rebuilds the outputs of one theater. Failing
// periods do not fail the workflow; they are listed in the result. A
// theater that cannot be loaded fails it without retry.
func FrontlineBuildWorkflow(ctx workflow.Context, input BuildInput) (BuildResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting front line build", "theater", input.Theater, "periods", len(input.Periods))

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		HeartbeatTimeout:    time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 5 * time.Second,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var result BuildResult
	if err := workflow.ExecuteActivity(ctx, "BuildFrontlines", input).Get(ctx, &result); err != nil {
		return BuildResult{}, err
	}

	if result.Failed > 0 {
		logger.Warn("Build finished with failed periods", "failed", result.Failed, "failures", result.Failures)
	} else {
		logger.Info("Build finished", "succeeded", result.Succeeded, "run_id", result.RunID)
	}
	return result, nil
}
