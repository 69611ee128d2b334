package workspaceentity

import (
	"path/filepath"
	"strings"
	"time"
)

// Workspace is the directory holding every intermediate audio file
// produced for one song. The directory is the source of truth - there is
// no separate index of its contents.
type Workspace struct {
	SongID string
	Path   string
}

// Artifact is the committed output of exactly one stage invocation.
// It lives at <workspace>/<stage>.<fingerprint>/ and is immutable once
// committed - changed inputs produce a sibling directory, not an update.
type Artifact struct {
	Stage       string
	Fingerprint string
	Path        string
	CreatedAt   time.Time
}

func (a Artifact) ID() string {
	return a.Stage + "." + a.Fingerprint
}

func (a Artifact) OutputPath(fileName string) string {
	return filepath.Join(a.Path, fileName)
}

// ParseArtifactDirName recovers the (stage, fingerprint) pair from an
// artifact directory name. Stage kinds never contain dots so the first
// dot is the separator.
func ParseArtifactDirName(dirName string) (stage string, fingerprint string, ok bool) {
	stage, fingerprint, found := strings.Cut(dirName, ".")
	if !found || stage == "" || fingerprint == "" {
		return "", "", false
	}

	return stage, fingerprint, true
}

func ArtifactDirName(stage string, fingerprint string) string {
	return stage + "." + fingerprint
}
