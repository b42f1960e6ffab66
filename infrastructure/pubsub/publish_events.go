package pubsub

import (
	"context"
	"log"

	"speakcraft-social/infrastructure/logger"

	"cloud.google.com/go/pubsub"
)

// NewPubSub creates a Pub/Sub client for publish-outcome events.
func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, nil
	}
	return pubsub.NewClient(ctx, projectID)
}

type IPublishEvents interface {
	Publish(ctx context.Context, topic string, payload []byte) (string, error)
}

// PublishEvents fans publish outcomes out to a Pub/Sub topic for downstream
// analytics. A nil client silently drops events.
type PublishEvents struct {
	PubSubClient *pubsub.Client
}

func NewPublishEvents(client *pubsub.Client) IPublishEvents {
	return &PublishEvents{PubSubClient: client}
}

func (p *PublishEvents) Publish(ctx context.Context, topicName string, payload []byte) (string, error) {
	if p.PubSubClient == nil {
		return "", nil
	}
	topic := p.PubSubClient.Topic(topicName)

	exists, err := topic.Exists(ctx)
	if err != nil {
		return "", err
	}
	if !exists {
		log.Printf("Topic %v doesn't exist - creating it", topicName)
		if _, err = p.PubSubClient.CreateTopic(ctx, topicName); err != nil {
			return "", err
		}
	}

	serverID, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return "", err
	}
	logger.GetLogger().WithField("server ID", serverID).Debug("Publish event emitted")
	return serverID, nil
}
