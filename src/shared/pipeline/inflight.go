package pipeline

import (
	"sync"

	workspaceentity "github.com/veedubyou/cover-gen-be/src/shared/workspace/entity"
)

type inflightKey struct {
	songID string
	stage  Stage
}

type inflightEntry struct {
	fingerprint string
	done        chan struct{}

	artifact workspaceentity.Artifact
	err      error
}

// inflightTable serializes stage execution per (song, stage). Two
// identical invocations collapse onto one execution, while invocations
// with different fingerprints take turns instead of clobbering the same
// working files.
type inflightTable struct {
	lock    sync.Mutex
	entries map[inflightKey]*inflightEntry
}

func newInflightTable() *inflightTable {
	return &inflightTable{
		entries: map[inflightKey]*inflightEntry{},
	}
}

// claim registers an execution for the slot. When the slot is already
// taken, the existing entry is returned for the caller to wait on.
func (t *inflightTable) claim(songID string, stage Stage, fingerprint string) (*inflightEntry, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	key := inflightKey{songID: songID, stage: stage}
	if existing, ok := t.entries[key]; ok {
		return existing, false
	}

	entry := &inflightEntry{
		fingerprint: fingerprint,
		done:        make(chan struct{}),
	}
	t.entries[key] = entry
	return entry, true
}

func (t *inflightTable) finish(songID string, stage Stage, artifact workspaceentity.Artifact, err error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	key := inflightKey{songID: songID, stage: stage}
	entry := t.entries[key]
	delete(t.entries, key)

	entry.artifact = artifact
	entry.err = err
	close(entry.done)
}
