package workspacestore

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	workspaceentity "github.com/veedubyou/cover-gen-be/src/shared/workspace/entity"

	"github.com/veedubyou/cover-gen-be/src/shared/lib/errors/mark"
)

const optionSnapshotFileName = "options.json"

// Store maps song IDs to workspace directories under one root. Every
// operation re-reads the filesystem so external changes to the root are
// tolerated between calls.
type Store struct {
	rootPath string
}

func NewStore(rootPathStr string) (Store, error) {
	rootPath, err := filepath.Abs(rootPathStr)
	if err != nil {
		return Store{}, errors.Wrap(err, "Failed to convert workspace root to absolute format")
	}

	if err := os.MkdirAll(rootPath, os.ModePerm); err != nil {
		return Store{}, errors.Wrap(err, "Failed to create the workspace root")
	}

	return Store{rootPath: rootPath}, nil
}

func (s Store) RootPath() string {
	return s.rootPath
}

func ValidateSongID(songID string) error {
	if strings.TrimSpace(songID) == "" {
		return mark.Message(InvalidIdentifierMark, "Song ID is empty")
	}

	if songID == "." || songID == ".." {
		return mark.Message(InvalidIdentifierMark, "Song ID collides with a reserved name")
	}

	if strings.ContainsAny(songID, `/\`) || strings.HasPrefix(songID, ".") {
		return mark.Message(InvalidIdentifierMark, "Song ID contains filesystem-unsafe characters")
	}

	return nil
}

// Ensure returns the workspace for the song, creating an empty one when
// the song hasn't been seen before.
func (s Store) Ensure(songID string) (workspaceentity.Workspace, error) {
	if err := ValidateSongID(songID); err != nil {
		return workspaceentity.Workspace{}, err
	}

	workspacePath := filepath.Join(s.rootPath, songID)
	if err := os.MkdirAll(workspacePath, os.ModePerm); err != nil {
		return workspaceentity.Workspace{}, mark.Wrap(err, DefaultErrorMark, "Failed to create the workspace directory")
	}

	return workspaceentity.Workspace{
		SongID: songID,
		Path:   workspacePath,
	}, nil
}

// Get returns an existing workspace without creating one.
func (s Store) Get(songID string) (workspaceentity.Workspace, error) {
	if err := ValidateSongID(songID); err != nil {
		return workspaceentity.Workspace{}, err
	}

	workspacePath := filepath.Join(s.rootPath, songID)
	info, err := os.Stat(workspacePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return workspaceentity.Workspace{}, mark.Wrap(err, WorkspaceNotFoundMark, "No workspace exists for this song")
		}

		return workspaceentity.Workspace{}, mark.Wrap(err, DefaultErrorMark, "Failed to stat the workspace directory")
	}

	if !info.IsDir() {
		return workspaceentity.Workspace{}, mark.Message(DefaultErrorMark, "The workspace path is not a directory")
	}

	return workspaceentity.Workspace{
		SongID: songID,
		Path:   workspacePath,
	}, nil
}

// List returns the IDs of every song with a workspace, sorted so UI
// dropdowns are stable between refreshes.
func (s Store) List() ([]string, error) {
	dirEntries, err := os.ReadDir(s.rootPath)
	if err != nil {
		return nil, mark.Wrap(err, DefaultErrorMark, "Failed to read the workspace root")
	}

	songIDs := []string{}
	for _, dirEntry := range dirEntries {
		if !dirEntry.IsDir() || strings.HasPrefix(dirEntry.Name(), ".") {
			continue
		}

		songIDs = append(songIDs, dirEntry.Name())
	}

	sort.Strings(songIDs)
	return songIDs, nil
}

// ArtifactsOf rescans the workspace directory and rebuilds the artifact
// set from the deterministic <stage>.<fingerprint> directory names.
func (s Store) ArtifactsOf(songID string) ([]workspaceentity.Artifact, error) {
	workspace, err := s.Get(songID)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to get the workspace")
	}

	dirEntries, err := os.ReadDir(workspace.Path)
	if err != nil {
		return nil, mark.Wrap(err, DefaultErrorMark, "Failed to read the workspace directory")
	}

	artifacts := []workspaceentity.Artifact{}
	for _, dirEntry := range dirEntries {
		if !dirEntry.IsDir() || strings.HasPrefix(dirEntry.Name(), ".") {
			continue
		}

		stage, fingerprint, ok := workspaceentity.ParseArtifactDirName(dirEntry.Name())
		if !ok {
			continue
		}

		info, err := dirEntry.Info()
		if err != nil {
			return nil, mark.Wrap(err, DefaultErrorMark, "Failed to stat an artifact directory")
		}

		artifacts = append(artifacts, workspaceentity.Artifact{
			Stage:       stage,
			Fingerprint: fingerprint,
			Path:        filepath.Join(workspace.Path, dirEntry.Name()),
			CreatedAt:   info.ModTime(),
		})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].ID() < artifacts[j].ID()
	})

	return artifacts, nil
}

// Delete removes each workspace and all artifacts inside it. Deleting a
// song that has no workspace is a no-op so concurrent deletions don't
// race into errors.
func (s Store) Delete(songIDs []string) error {
	for _, songID := range songIDs {
		if err := ValidateSongID(songID); err != nil {
			return errors.Wrap(err, "Refusing to delete an invalid song ID")
		}

		workspacePath := filepath.Join(s.rootPath, songID)
		if err := os.RemoveAll(workspacePath); err != nil {
			return mark.Wrap(err, DefaultErrorMark, "Failed to remove the workspace directory")
		}
	}

	return nil
}

// SaveOptionSnapshot persists the last options used for this workspace.
// Step-by-step runs re-derive prerequisite fingerprints from it.
func (s Store) SaveOptionSnapshot(songID string, snapshot map[string]any) error {
	workspace, err := s.Ensure(songID)
	if err != nil {
		return errors.Wrap(err, "Failed to ensure the workspace")
	}

	contents, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "Failed to marshal the option snapshot")
	}

	// written to a unique hidden file first so concurrent saves can't
	// clobber each other's rename
	tempFile, err := os.CreateTemp(workspace.Path, ".options-*")
	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "Failed to create the snapshot temp file")
	}

	tempPath := tempFile.Name()
	if _, err := tempFile.Write(contents); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return mark.Wrap(err, DefaultErrorMark, "Failed to write the option snapshot")
	}

	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return mark.Wrap(err, DefaultErrorMark, "Failed to close the option snapshot")
	}

	snapshotPath := filepath.Join(workspace.Path, optionSnapshotFileName)
	if err := os.Rename(tempPath, snapshotPath); err != nil {
		_ = os.Remove(tempPath)
		return mark.Wrap(err, DefaultErrorMark, "Failed to move the option snapshot into place")
	}

	return nil
}

func (s Store) OptionSnapshot(songID string) (map[string]any, error) {
	workspace, err := s.Get(songID)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to get the workspace")
	}

	contents, err := os.ReadFile(filepath.Join(workspace.Path, optionSnapshotFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]any{}, nil
		}

		return nil, mark.Wrap(err, DefaultErrorMark, "Failed to read the option snapshot")
	}

	snapshot := map[string]any{}
	if err := json.Unmarshal(contents, &snapshot); err != nil {
		return nil, mark.Wrap(err, DefaultErrorMark, "Failed to unmarshal the option snapshot")
	}

	return snapshot, nil
}
