package servicebus

import (
	"context"

	"speakcraft-social/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

// NewServiceBus creates a Service Bus client using the ambient Azure
// credential chain.
func NewServiceBus(ctx context.Context, namespace string) (*azservicebus.Client, error) {
	if namespace == "" {
		return nil, nil
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

type IPublishEvents interface {
	SendMessage(ctx context.Context, queue string, message []byte) error
}

// PublishEvents mirrors publish outcomes onto a Service Bus queue. A nil
// client silently drops events.
type PublishEvents struct {
	AzservicebusClient *azservicebus.Client
}

func NewPublishEvents(client *azservicebus.Client) IPublishEvents {
	return &PublishEvents{AzservicebusClient: client}
}

func (p *PublishEvents) SendMessage(ctx context.Context, queue string, message []byte) error {
	if p.AzservicebusClient == nil {
		return nil
	}
	sender, err := p.AzservicebusClient.NewSender(queue, nil)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while making new sender service bus.")
		return err
	}
	defer func() {
		if err := sender.Close(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing sender.")
		}
	}()

	if err := sender.SendMessage(ctx, &azservicebus.Message{Body: message}, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}
