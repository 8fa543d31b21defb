package models

import "time"

// ItemSummary is the persisted summary for one library item, keyed by the
// item's key. A new run for the same item overwrites the previous record;
// the item and its summary are joined by identifier lookup, never by
// embedded references.
type ItemSummary struct {
	ItemID string `json:"item_id" badgerhold:"key"`
	JobID  string `json:"job_id" badgerholdIndex:"JobID"`

	Title   string `json:"title,omitempty"`
	Content string `json:"content"`

	// Confidence reported by the summarizer, clamped to [0,1]
	Confidence float64 `json:"confidence"`

	// NoteID is the remote note key when the summary was published to the
	// library; empty for local-only summaries.
	NoteID    string `json:"note_id,omitempty"`
	LocalOnly bool   `json:"local_only"`

	CreatedAt time.Time `json:"created_at"`
}
