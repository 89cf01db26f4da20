package model

// ProgressStatus is the fixed vocabulary of progress phases reported by the
// workflow engine. Completed and error are terminal.
type ProgressStatus string

const (
	ProgressDownloading  ProgressStatus = "downloading"
	ProgressTranscribing ProgressStatus = "transcribing"
	ProgressAnalyzing    ProgressStatus = "analyzing"
	ProgressRendering    ProgressStatus = "rendering"
	ProgressUploading    ProgressStatus = "uploading"
	ProgressCompleted    ProgressStatus = "completed"
	ProgressError        ProgressStatus = "error"
)

// Valid reports whether s belongs to the vocabulary.
func (s ProgressStatus) Valid() bool {
	switch s {
	case ProgressDownloading, ProgressTranscribing, ProgressAnalyzing,
		ProgressRendering, ProgressUploading, ProgressCompleted, ProgressError:
		return true
	}
	return false
}

// Terminal reports whether no further events follow s for the same job.
func (s ProgressStatus) Terminal() bool {
	return s == ProgressCompleted || s == ProgressError
}

// ProgressEvent is a single status update about a job's processing progress.
// Serialized one-per-line (NDJSON) on the stream endpoint.
type ProgressEvent struct {
	Status     ProgressStatus `json:"status"`
	Progress   int            `json:"progress"`
	Message    string         `json:"message,omitempty"`
	ClipIndex  *int           `json:"clipIndex,omitempty"`
	TotalClips *int           `json:"totalClips,omitempty"`
	ErrorText  *string        `json:"error,omitempty"`
}
