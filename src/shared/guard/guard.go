package guard

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/errors/mark"
)

// Staged is a deletion awaiting confirmation. The token round-trips
// through the client so a confirm click can't act on a different
// selection than the one the user was shown.
type Staged struct {
	Token    string
	Items    []string
	StagedAt time.Time
}

// Guard holds deletions in a two phase protocol. Stage records the
// selection and hands back a token, Confirm trades the token for the
// items to actually delete, Cancel discards it. One Guard instance
// exists per deletable resource kind.
type Guard struct {
	lock    sync.Mutex
	pending map[string]Staged
}

func NewGuard() *Guard {
	return &Guard{
		pending: map[string]Staged{},
	}
}

// Stage registers the selection for deletion. Duplicates collapse and
// items come back sorted so the confirmation prompt is stable. An empty
// selection is a no-op: no token is issued and nothing becomes
// confirmable.
func (g *Guard) Stage(items []string) Staged {
	seen := map[string]bool{}
	deduped := []string{}
	for _, item := range items {
		if seen[item] {
			continue
		}

		seen[item] = true
		deduped = append(deduped, item)
	}

	if len(deduped) == 0 {
		return Staged{Items: []string{}}
	}

	sort.Strings(deduped)

	staged := Staged{
		Token:    uuid.New().String(),
		Items:    deduped,
		StagedAt: time.Now(),
	}

	g.lock.Lock()
	defer g.lock.Unlock()

	g.pending[staged.Token] = staged
	return staged
}

// Confirm consumes the token and returns the staged items. A token can
// be confirmed at most once.
func (g *Guard) Confirm(token string) ([]string, error) {
	g.lock.Lock()
	defer g.lock.Unlock()

	staged, ok := g.pending[token]
	if !ok {
		return nil, mark.Message(UnknownTokenMark, "No staged deletion exists for this token")
	}

	delete(g.pending, token)
	return staged.Items, nil
}

// Cancel discards the staged deletion. Cancelling an already consumed
// or unknown token is an error so double clicks surface to the caller.
func (g *Guard) Cancel(token string) error {
	g.lock.Lock()
	defer g.lock.Unlock()

	if _, ok := g.pending[token]; !ok {
		return mark.Message(UnknownTokenMark, "No staged deletion exists for this token")
	}

	delete(g.pending, token)
	return nil
}

// Pending lists the staged deletions, newest first.
func (g *Guard) Pending() []Staged {
	g.lock.Lock()
	defer g.lock.Unlock()

	staged := []Staged{}
	for _, entry := range g.pending {
		staged = append(staged, entry)
	}

	sort.Slice(staged, func(i, j int) bool {
		return staged[i].StagedAt.After(staged[j].StagedAt)
	})

	return staged
}
