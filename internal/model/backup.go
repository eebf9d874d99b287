package model

// Backup is the single most recent pre-apply snapshot of a note.
type Backup struct {
	NoteID       string `json:"note_id"`
	SnapshotText string `json:"snapshot_text"`
	Timestamp    int64  `json:"timestamp"`
}
