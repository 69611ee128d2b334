package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/errors/mark"
	workspaceentity "github.com/veedubyou/cover-gen-be/src/shared/workspace/entity"
	workspacestore "github.com/veedubyou/cover-gen-be/src/shared/workspace/store"
)

// Cache reads and commits stage artifacts inside workspace directories.
// A stage invocation is cached iff <workspace>/<stage>.<fingerprint>/
// exists with all its expected output files. Commit is a directory
// rename, so a committed artifact is always complete.
type Cache struct {
	workspaceStore workspacestore.Store
}

func NewCache(workspaceStore workspacestore.Store) Cache {
	return Cache{workspaceStore: workspaceStore}
}

// Lookup reports whether a committed artifact exists for this stage
// invocation. An artifact directory missing any expected output file is
// removed and reported as a miss, so the stage reruns instead of
// feeding partial output downstream.
func (c Cache) Lookup(songID string, stage Stage, fingerprint string) (workspaceentity.Artifact, bool, error) {
	workspace, err := c.workspaceStore.Get(songID)
	if err != nil {
		if errors.Is(err, workspacestore.WorkspaceNotFoundMark) {
			return workspaceentity.Artifact{}, false, nil
		}

		return workspaceentity.Artifact{}, false, errors.Wrap(err, "Failed to get the workspace")
	}

	artifactPath := filepath.Join(workspace.Path, workspaceentity.ArtifactDirName(string(stage), fingerprint))
	info, err := os.Stat(artifactPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return workspaceentity.Artifact{}, false, nil
		}

		return workspaceentity.Artifact{}, false, mark.Wrap(err, DefaultErrorMark, "Failed to stat the artifact directory")
	}

	// corruption downgrades to a miss so the stage reruns, it never
	// fails the run
	if !info.IsDir() || !artifactComplete(stage, artifactPath) {
		log.WithFields(log.Fields{
			"song_id":     songID,
			"stage":       stage,
			"fingerprint": fingerprint,
		}).Warn("Removing a corrupted cache entry")

		if err := os.RemoveAll(artifactPath); err != nil {
			return workspaceentity.Artifact{}, false, mark.Wrap(err, CacheCorruptionMark, "Failed to remove the corrupted artifact")
		}

		return workspaceentity.Artifact{}, false, nil
	}

	return workspaceentity.Artifact{
		Stage:       string(stage),
		Fingerprint: fingerprint,
		Path:        artifactPath,
		CreatedAt:   info.ModTime(),
	}, true, nil
}

// NewStaging creates a hidden scratch directory inside the workspace
// for a stage to write into. Hidden directories are invisible to the
// cache and the artifact listing until committed.
func (c Cache) NewStaging(songID string) (string, error) {
	workspace, err := c.workspaceStore.Ensure(songID)
	if err != nil {
		return "", errors.Wrap(err, "Failed to ensure the workspace")
	}

	stagingPath, err := os.MkdirTemp(workspace.Path, ".staging-*")
	if err != nil {
		return "", mark.Wrap(err, DefaultErrorMark, "Failed to create the staging directory")
	}

	return stagingPath, nil
}

// Commit promotes a staging directory to the artifact directory with a
// rename. When two identical invocations race, the rename of the loser
// fails against the winner's directory and the winner's artifact is
// returned, so both callers observe the same committed output.
func (c Cache) Commit(songID string, stage Stage, fingerprint string, stagingPath string) (workspaceentity.Artifact, error) {
	workspace, err := c.workspaceStore.Get(songID)
	if err != nil {
		return workspaceentity.Artifact{}, errors.Wrap(err, "Failed to get the workspace")
	}

	artifactPath := filepath.Join(workspace.Path, workspaceentity.ArtifactDirName(string(stage), fingerprint))

	if err := os.Rename(stagingPath, artifactPath); err != nil {
		committed, found, lookupErr := c.Lookup(songID, stage, fingerprint)
		if lookupErr == nil && found {
			_ = os.RemoveAll(stagingPath)
			return committed, nil
		}

		return workspaceentity.Artifact{}, mark.Wrap(err, DefaultErrorMark, "Failed to commit the artifact directory")
	}

	info, err := os.Stat(artifactPath)
	if err != nil {
		return workspaceentity.Artifact{}, mark.Wrap(err, DefaultErrorMark, "Failed to stat the committed artifact")
	}

	return workspaceentity.Artifact{
		Stage:       string(stage),
		Fingerprint: fingerprint,
		Path:        artifactPath,
		CreatedAt:   info.ModTime(),
	}, nil
}

func artifactComplete(stage Stage, artifactPath string) bool {
	if stage == StageMix {
		dirEntries, err := os.ReadDir(artifactPath)
		if err != nil {
			return false
		}

		for _, dirEntry := range dirEntries {
			if strings.HasPrefix(dirEntry.Name(), CoverFileNamePrefix+".") {
				return true
			}
		}

		return false
	}

	for _, fileName := range stageOutputs[stage] {
		info, err := os.Stat(filepath.Join(artifactPath, fileName))
		if err != nil || info.IsDir() {
			return false
		}
	}

	return true
}
