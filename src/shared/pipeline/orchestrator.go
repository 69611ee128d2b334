package pipeline

import (
	"context"
	"os"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/errors/mark"
	voicemodelstore "github.com/veedubyou/cover-gen-be/src/shared/voicemodel/store"
	workspaceentity "github.com/veedubyou/cover-gen-be/src/shared/workspace/entity"
	workspacestore "github.com/veedubyou/cover-gen-be/src/shared/workspace/store"
)

// Orchestrator drives pipeline runs. One-click runs walk the whole
// graph to the final mix, step runs execute a single stage against the
// committed outputs of its upstream stages. Both paths go through the
// same cache, so a one-click run after step experiments only reruns
// what actually changed.
type Orchestrator struct {
	workspaceStore workspacestore.Store
	cache          Cache
	runners        RunnerMap
	modelStore     *voicemodelstore.Store
	inflight       *inflightTable
}

func NewOrchestrator(
	workspaceStore workspacestore.Store,
	cache Cache,
	runners RunnerMap,
	modelStore *voicemodelstore.Store,
) *Orchestrator {
	return &Orchestrator{
		workspaceStore: workspaceStore,
		cache:          cache,
		runners:        runners,
		modelStore:     modelStore,
		inflight:       newInflightTable(),
	}
}

// RunOneClick generates a complete cover for the song and returns the
// mix artifact. The voice model is leased for the duration of the run
// so it can't be deleted mid-conversion.
func (o *Orchestrator) RunOneClick(ctx context.Context, songID string, options Options) (workspaceentity.Artifact, error) {
	if err := options.Validate(); err != nil {
		return workspaceentity.Artifact{}, errors.Wrap(err, "The run options are invalid")
	}

	if _, err := o.workspaceStore.Ensure(songID); err != nil {
		return workspaceentity.Artifact{}, errors.Wrap(err, "Failed to ensure the workspace")
	}

	release, err := o.modelStore.Acquire(options.ConvertVocals.VoiceModel)
	if err != nil {
		return workspaceentity.Artifact{}, errors.Wrap(err, "Failed to lease the voice model")
	}
	defer release()

	if err := o.saveSnapshot(songID, options); err != nil {
		return workspaceentity.Artifact{}, err
	}

	fingerprints, err := FingerprintAll(options)
	if err != nil {
		return workspaceentity.Artifact{}, errors.Wrap(err, "Failed to fingerprint the pipeline")
	}

	artifact, err := o.ensureStage(ctx, songID, StageMix, options, fingerprints)
	if err != nil {
		return workspaceentity.Artifact{}, errors.Wrap(err, "The pipeline run failed")
	}

	return artifact, nil
}

// RunStep executes exactly one stage. The stage's own options come from
// the request, everything else comes from the workspace's last option
// snapshot so upstream fingerprints resolve to the artifacts the user
// actually produced. On success the snapshot absorbs the new options.
func (o *Orchestrator) RunStep(ctx context.Context, songID string, stage Stage, options Options) (workspaceentity.Artifact, error) {
	if !KnownStage(stage) {
		return workspaceentity.Artifact{}, mark.Message(UnknownStageMark, "No such pipeline stage")
	}

	if _, err := o.workspaceStore.Ensure(songID); err != nil {
		return workspaceentity.Artifact{}, errors.Wrap(err, "Failed to ensure the workspace")
	}

	snapshot, err := o.workspaceStore.OptionSnapshot(songID)
	if err != nil {
		return workspaceentity.Artifact{}, errors.Wrap(err, "Failed to load the option snapshot")
	}

	baseOptions, err := OptionsFromSnapshot(snapshot)
	if err != nil {
		return workspaceentity.Artifact{}, mark.Wrap(err, DefaultErrorMark, "Failed to decode the option snapshot")
	}

	effectiveOptions := baseOptions.ReplaceStage(stage, options)
	if err := effectiveOptions.ValidateStage(stage); err != nil {
		return workspaceentity.Artifact{}, errors.Wrap(err, "The stage options are invalid")
	}

	fingerprints, err := FingerprintAll(effectiveOptions)
	if err != nil {
		return workspaceentity.Artifact{}, errors.Wrap(err, "Failed to fingerprint the pipeline")
	}

	upstreamArtifacts := map[Stage]workspaceentity.Artifact{}
	for _, upstream := range stageUpstreams[stage] {
		upstreamArtifact, found, err := o.cache.Lookup(songID, upstream, fingerprints[upstream])
		if err != nil {
			return workspaceentity.Artifact{}, errors.Wrap(err, "Failed to look up an upstream artifact")
		}

		if !found {
			return workspaceentity.Artifact{}, errors.Mark(
				MissingPrerequisiteError{Stage: upstream},
				MissingPrerequisiteMark,
			)
		}

		upstreamArtifacts[upstream] = upstreamArtifact
	}

	if stage == StageConvertVocals {
		release, err := o.modelStore.Acquire(effectiveOptions.ConvertVocals.VoiceModel)
		if err != nil {
			return workspaceentity.Artifact{}, errors.Wrap(err, "Failed to lease the voice model")
		}
		defer release()
	}

	artifact, err := o.runStage(ctx, songID, stage, effectiveOptions, fingerprints[stage], upstreamArtifacts)
	if err != nil {
		return workspaceentity.Artifact{}, errors.Wrap(err, "The stage run failed")
	}

	if err := o.saveSnapshot(songID, effectiveOptions); err != nil {
		return workspaceentity.Artifact{}, err
	}

	return artifact, nil
}

func (o *Orchestrator) saveSnapshot(songID string, options Options) error {
	snapshot, err := options.ToSnapshot()
	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "Failed to encode the option snapshot")
	}

	if err := o.workspaceStore.SaveOptionSnapshot(songID, snapshot); err != nil {
		return errors.Wrap(err, "Failed to save the option snapshot")
	}

	return nil
}

// ensureStage produces the stage's artifact, recursively producing its
// upstreams first. Stages with more than one upstream run their
// branches concurrently.
func (o *Orchestrator) ensureStage(
	ctx context.Context,
	songID string,
	stage Stage,
	options Options,
	fingerprints map[Stage]string,
) (workspaceentity.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return workspaceentity.Artifact{}, mark.Wrap(err, RunCancelledMark, "The run was cancelled")
	}

	upstreams := stageUpstreams[stage]
	upstreamArtifacts := map[Stage]workspaceentity.Artifact{}

	switch len(upstreams) {
	case 0:

	case 1:
		upstreamArtifact, err := o.ensureStage(ctx, songID, upstreams[0], options, fingerprints)
		if err != nil {
			return workspaceentity.Artifact{}, err
		}

		upstreamArtifacts[upstreams[0]] = upstreamArtifact

	default:
		type branchResult struct {
			stage    Stage
			artifact workspaceentity.Artifact
			err      error
		}

		results := make(chan branchResult, len(upstreams))
		for _, upstream := range upstreams {
			go func(upstream Stage) {
				upstreamArtifact, err := o.ensureStage(ctx, songID, upstream, options, fingerprints)
				results <- branchResult{stage: upstream, artifact: upstreamArtifact, err: err}
			}(upstream)
		}

		var branchErr error
		for range upstreams {
			result := <-results
			if result.err != nil {
				if branchErr == nil {
					branchErr = result.err
				}
				continue
			}

			upstreamArtifacts[result.stage] = result.artifact
		}

		if branchErr != nil {
			return workspaceentity.Artifact{}, branchErr
		}
	}

	return o.runStage(ctx, songID, stage, options, fingerprints[stage], upstreamArtifacts)
}

// runStage resolves one stage invocation to a committed artifact, via
// the cache when possible, executing the runner otherwise. Concurrent
// invocations for the same (song, stage) slot are coordinated through
// the inflight table.
func (o *Orchestrator) runStage(
	ctx context.Context,
	songID string,
	stage Stage,
	options Options,
	fingerprint string,
	upstreamArtifacts map[Stage]workspaceentity.Artifact,
) (workspaceentity.Artifact, error) {
	for {
		artifact, found, err := o.cache.Lookup(songID, stage, fingerprint)
		if err != nil {
			return workspaceentity.Artifact{}, errors.Wrap(err, "Failed to look up the stage in the cache")
		}

		if found {
			return artifact, nil
		}

		entry, claimed := o.inflight.claim(songID, stage, fingerprint)
		if !claimed {
			select {
			case <-entry.done:
			case <-ctx.Done():
				return workspaceentity.Artifact{}, mark.Wrap(ctx.Err(), RunCancelledMark, "The run was cancelled")
			}

			if entry.fingerprint == fingerprint {
				if entry.err != nil {
					return workspaceentity.Artifact{}, entry.err
				}

				return entry.artifact, nil
			}

			// A run with different options held the slot. Loop around
			// and try again.
			continue
		}

		artifact, err = o.executeStage(ctx, songID, stage, options, fingerprint, upstreamArtifacts)
		o.inflight.finish(songID, stage, artifact, err)
		return artifact, err
	}
}

func (o *Orchestrator) executeStage(
	ctx context.Context,
	songID string,
	stage Stage,
	options Options,
	fingerprint string,
	upstreamArtifacts map[Stage]workspaceentity.Artifact,
) (workspaceentity.Artifact, error) {
	runner, ok := o.runners[stage]
	if !ok {
		return workspaceentity.Artifact{}, mark.Message(UnknownStageMark, "No runner is registered for this stage")
	}

	stageOptions, err := options.ForStage(stage)
	if err != nil {
		return workspaceentity.Artifact{}, errors.Wrap(err, "Failed to get the stage options")
	}

	stagingPath, err := o.cache.NewStaging(songID)
	if err != nil {
		return workspaceentity.Artifact{}, errors.Wrap(err, "Failed to create the staging directory")
	}
	defer os.RemoveAll(stagingPath)

	logger := log.WithFields(log.Fields{
		"song_id":     songID,
		"stage":       stage,
		"fingerprint": fingerprint,
	})

	logger.Info("Executing pipeline stage")

	err = runner.Run(ctx, Execution{
		SongID:        songID,
		Stage:         stage,
		Options:       stageOptions,
		Upstreams:     upstreamArtifacts,
		OutputDirPath: stagingPath,
	})
	if err != nil {
		logger.WithError(err).Error("Pipeline stage failed")
		return workspaceentity.Artifact{}, mark.Wrap(err, StageFailedMark, "The stage runner failed")
	}

	artifact, err := o.cache.Commit(songID, stage, fingerprint, stagingPath)
	if err != nil {
		return workspaceentity.Artifact{}, errors.Wrap(err, "Failed to commit the stage output")
	}

	logger.Info("Committed pipeline stage output")
	return artifact, nil
}
