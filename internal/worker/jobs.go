package worker

import "context"

// BuildRunner executes a previously registered tree build. Declared here
// so the worker package does not import services.
type BuildRunner interface {
	RunBuild(ctx context.Context, buildID string) error
}

type BuildTreeJob struct {
	Runner  BuildRunner
	BuildID string
}

func (j *BuildTreeJob) Name() string { return "build_tree:" + j.BuildID }

func (j *BuildTreeJob) Run(ctx context.Context) error {
	return j.Runner.RunBuild(ctx, j.BuildID)
}
