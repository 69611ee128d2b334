package voicemodelentity

import "time"

// VoiceModel is an installed set of conversion weights, one directory
// per model under the registry root, named by the model itself.
type VoiceModel struct {
	Name        string
	Path        string
	InstalledAt time.Time
}

// DeleteOutcome reports a batch deletion per name. A refused name never
// aborts the rest of the batch.
type DeleteOutcome struct {
	Deleted []string
	Refused map[string]error
}
