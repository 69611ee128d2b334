package pipeline

import (
	"context"
	"path/filepath"

	workspaceentity "github.com/veedubyou/cover-gen-be/src/shared/workspace/entity"
)

// Execution is everything a runner needs for one stage invocation.
// Runners write their outputs into OutputDirPath and must not touch the
// workspace otherwise - the orchestrator commits the directory.
type Execution struct {
	SongID    string
	Stage     Stage
	Options   map[string]any
	Upstreams map[Stage]workspaceentity.Artifact

	OutputDirPath string
}

func (e Execution) UpstreamFile(stage Stage, fileName string) string {
	return e.Upstreams[stage].OutputPath(fileName)
}

func (e Execution) OutputFile(fileName string) string {
	return filepath.Join(e.OutputDirPath, fileName)
}

//counterfeiter:generate . StageRunner
type StageRunner interface {
	Run(ctx context.Context, execution Execution) error
}

// RunnerMap binds each stage to its runner implementation.
type RunnerMap map[Stage]StageRunner
