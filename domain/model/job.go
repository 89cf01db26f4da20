package model

import "time"

// Clip job statuses as persisted. DONE and FAILED are terminal; the progress
// stream resolves jobs in either state immediately without subscribing.
const (
	JobStatusQueued     = "QUEUED"
	JobStatusProcessing = "PROCESSING"
	JobStatusDone       = "DONE"
	JobStatusFailed     = "FAILED"
)

// ClipJob tracks one video-clipping request handed to the external workflow
// engine. The engine owns the actual processing; this record is the canonical
// status the API reports.
type ClipJob struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	SourceURL     string    `json:"source_url"`
	SourceTitle   *string   `json:"source_title,omitempty"`
	DurationSecs  *int64    `json:"duration_secs,omitempty"`
	Status        string    `json:"status"`
	Progress      int       `json:"progress"`
	ClipCount     int       `json:"clip_count"`
	ErrorMessage  *string   `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Terminal reports whether the persisted status admits no further progress.
func (j *ClipJob) Terminal() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusFailed
}
