package dto

// CreateJobRequest starts a clipping job for a source video.
type CreateJobRequest struct {
	SourceURL string `json:"source_url" binding:"required"`
	ClipCount int    `json:"clip_count,omitempty"`
}

// ShareClipRequest shares one finished clip to a connected platform.
type ShareClipRequest struct {
	ClipIndex int    `json:"clip_index"`
	Title     string `json:"title,omitempty"`
}
