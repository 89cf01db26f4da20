package persistence

import (
	"context"
	"time"

	"clipforge/domain/model"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ProgressArchive appends every progress event to MongoDB for later audit.
// Entirely optional; a nil client disables archiving.
type ProgressArchive struct {
	collection *mongo.Collection
}

type archivedEvent struct {
	JobID      string                `bson:"job_id"`
	Status     model.ProgressStatus  `bson:"status"`
	Progress   int                   `bson:"progress"`
	Message    string                `bson:"message,omitempty"`
	ClipIndex  *int                  `bson:"clip_index,omitempty"`
	TotalClips *int                  `bson:"total_clips,omitempty"`
	ErrorText  *string               `bson:"error,omitempty"`
	ReceivedAt time.Time             `bson:"received_at"`
}

func NewProgressArchive(client *mongo.Client, database string) *ProgressArchive {
	if client == nil {
		return &ProgressArchive{}
	}
	return &ProgressArchive{collection: client.Database(database).Collection("progress_events")}
}

// Append stores one event. Failures are returned but callers treat archiving
// as best-effort.
func (a *ProgressArchive) Append(ctx context.Context, jobID string, evt model.ProgressEvent) error {
	if a == nil || a.collection == nil {
		return nil
	}
	_, err := a.collection.InsertOne(ctx, archivedEvent{
		JobID:      jobID,
		Status:     evt.Status,
		Progress:   evt.Progress,
		Message:    evt.Message,
		ClipIndex:  evt.ClipIndex,
		TotalClips: evt.TotalClips,
		ErrorText:  evt.ErrorText,
		ReceivedAt: time.Now().UTC(),
	})
	return err
}
