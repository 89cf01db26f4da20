package servicebus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"clipforge/domain/model"
	"clipforge/infrastructure/logger"
)

// NewServiceBus creates the Azure Service Bus client using the default Azure
// credential chain. Optional collaborator.
func NewServiceBus(ctx context.Context, namespace string) (*azservicebus.Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("service bus namespace not configured")
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

type IJobDispatcher interface {
	Dispatch(ctx context.Context, job *model.ClipJob) error
	Configured() bool
}

// JobDispatcher hands newly created jobs to the workflow engine's intake
// queue. A nil client disables queue dispatch (the webhook path remains).
type JobDispatcher struct {
	client *azservicebus.Client
	queue  string
}

func NewJobDispatcher(client *azservicebus.Client, queue string) IJobDispatcher {
	return &JobDispatcher{client: client, queue: queue}
}

// Configured reports whether queue dispatch can actually reach a broker.
// Callers fall back to the intake webhook when this is false.
func (d *JobDispatcher) Configured() bool {
	return d.client != nil && d.queue != ""
}

func (d *JobDispatcher) Dispatch(ctx context.Context, job *model.ClipJob) error {
	if !d.Configured() {
		return nil
	}
	sender, err := d.client.NewSender(d.queue, nil)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while making new sender service bus.")
		return err
	}
	defer func(sender *azservicebus.Sender, ctx context.Context) {
		if err := sender.Close(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing sender.")
		}
	}(sender, context.Background())

	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return sender.SendMessage(ctx, &azservicebus.Message{Body: body}, nil)
}
