package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"portfolio-assistant-be/internal/dto"
	"portfolio-assistant-be/internal/entity"
	"portfolio-assistant-be/internal/repository/contract"
	pktNats "portfolio-assistant-be/pkg/nats"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService persists finished queries to the query_logs table and
// mirrors them onto the NATS bus. Runs off the request path.
type consumerService struct {
	pubSub       *gochannel.GoChannel
	topicName    string
	queryLogRepo contract.QueryLogRepository
	natsPub      *pktNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	queryLogRepo contract.QueryLogRepository,
	natsPub *pktNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:       pubSub,
		topicName:    topicName,
		queryLogRepo: queryLogRepo,
		natsPub:      natsPub,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.QueryCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal query completed message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	requestId, err := uuid.Parse(payload.RequestId)
	if err != nil {
		log.Printf("[ERROR] Invalid request id %q: %v", payload.RequestId, err)
		msg.Ack()
		return
	}

	queryLog := &entity.QueryLog{
		Id:         uuid.New(),
		RequestId:  requestId,
		Query:      payload.Query,
		Intent:     payload.Intent,
		Response:   payload.Response,
		State:      payload.State,
		RetryCount: payload.RetryCount,
		Degraded:   payload.Degraded,
		ChunkCount: payload.ChunkCount,
		Sources:    payload.Sources,
		LatencyMS:  payload.LatencyMS,
		CreatedAt:  time.Now(),
	}

	if err := cs.queryLogRepo.Create(ctx, queryLog); err != nil {
		log.Printf("[ERROR] Failed to persist query log for %s: %v", payload.RequestId, err)
		msg.Nack() // Retriable
		return
	}

	// Mirror to NATS for out-of-process consumers. Best effort.
	if cs.natsPub != nil {
		natsCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := cs.natsPub.Publish(natsCtx, pktNats.SubjectQueryCompleted, map[string]any{
			"request_id":  payload.RequestId,
			"intent":      payload.Intent,
			"state":       payload.State,
			"degraded":    payload.Degraded,
			"retry_count": payload.RetryCount,
			"latency_ms":  payload.LatencyMS,
		})
		cancel()
		if err != nil {
			log.Printf("[WARN] Failed to mirror query log to NATS: %v", err)
		}
	}

	log.Printf("[INFO] Query log persisted for request %s (intent=%s state=%s)",
		payload.RequestId, payload.Intent, payload.State)
	msg.Ack()
}
