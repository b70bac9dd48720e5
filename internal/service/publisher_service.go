package service

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"portfolio-assistant-be/internal/dto"
)

type IPublisherService interface {
	PublishQueryCompleted(msg *dto.QueryCompletedMessage) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

// PublishQueryCompleted puts a finished query on the in-process bus. The
// request path does not wait for the log writer.
func (ps *publisherService) PublishQueryCompleted(msg *dto.QueryCompletedMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal query completed message: %w", err)
	}

	wmMsg := message.NewMessage(watermill.NewUUID(), payload)
	return ps.pubSub.Publish(ps.topicName, wmMsg)
}
