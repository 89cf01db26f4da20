package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"

	"clipforge/domain/model"
	"clipforge/infrastructure/logger"
)

// NewPubSub creates the Google Pub/Sub client. Optional collaborator.
func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("pubsub project id not configured")
	}
	return pubsub.NewClient(ctx, projectID)
}

type IProgressMirror interface {
	Mirror(ctx context.Context, jobID string, evt model.ProgressEvent) error
}

// ProgressMirror republishes every progress event to a Pub/Sub topic so
// downstream consumers (analytics, a future multi-instance broker) see the
// same stream the in-memory hub fans out. A nil client disables mirroring.
type ProgressMirror struct {
	client    *pubsub.Client
	topicName string
}

func NewProgressMirror(client *pubsub.Client, topicName string) IProgressMirror {
	return &ProgressMirror{client: client, topicName: topicName}
}

type mirroredEvent struct {
	JobID string `json:"job_id"`
	model.ProgressEvent
}

func (m *ProgressMirror) Mirror(ctx context.Context, jobID string, evt model.ProgressEvent) error {
	if m.client == nil || m.topicName == "" {
		return nil
	}
	payload, err := json.Marshal(mirroredEvent{JobID: jobID, ProgressEvent: evt})
	if err != nil {
		return err
	}
	topic := m.client.Topic(m.topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		logger.GetLogger().WithField("topic", m.topicName).Info("Topic doesn't exist - creating it")
		if _, err = m.client.CreateTopic(ctx, m.topicName); err != nil {
			return err
		}
	}
	serverID, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().WithField("server ID", serverID).Debug("Progress event mirrored")
	return nil
}
