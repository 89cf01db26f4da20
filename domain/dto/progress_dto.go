package dto

// ProgressCallbackRequest is the body POSTed by the workflow engine for each
// progress update. Field names match the engine's webhook payload.
type ProgressCallbackRequest struct {
	Status     string  `json:"status" binding:"required"`
	Progress   int     `json:"progress"`
	Message    string  `json:"message,omitempty"`
	ClipIndex  *int    `json:"clipIndex,omitempty"`
	TotalClips *int    `json:"totalClips,omitempty"`
	Error      *string `json:"error,omitempty"`
}
