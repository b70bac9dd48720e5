package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"portfolio-assistant-be/internal/pkg/logger"
	"portfolio-assistant-be/pkg/events"
)

// Hub routes pipeline progress events to streaming clients. Clients are
// keyed by request id: a visitor opens one socket per query. Redis pub/sub
// carries frames across instances when the pipeline runs elsewhere.
type Hub struct {
	// Registered clients map: RequestID -> List of Clients
	clients map[uuid.UUID][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb *redis.Client

	// Dedicated Logger
	logger logger.ILogger
}

const redisStreamChannel = "assistant_stream_events"

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.RequestID] = append(h.clients[client.RequestID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"request_id": client.RequestID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.RequestID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.RequestID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.RequestID]) == 0 {
					delete(h.clients, client.RequestID)
					h.logger.Info("Hub", "Request fully unsubscribed", map[string]interface{}{"request_id": client.RequestID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish implements events.Sink: one progress event for one request.
func (h *Hub) Publish(requestID uuid.UUID, ev events.Event) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "progress",
		"data": ev,
	})

	h.deliverLocal(requestID, data)

	// Forward to other instances. The request may have connected its socket
	// to a different replica than the one running the pipeline.
	if h.rdb != nil {
		payload := map[string]interface{}{
			"request_id": requestID.String(),
			"message":    data,
		}
		jsonPayload, _ := json.Marshal(payload)
		h.rdb.Publish(context.Background(), redisStreamChannel, jsonPayload)
	}
}

// SendFinal pushes the terminal result frame to the request's clients.
func (h *Hub) SendFinal(requestID uuid.UUID, result interface{}) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "result",
		"data": result,
	})

	h.deliverLocal(requestID, data)

	if h.rdb != nil {
		payload := map[string]interface{}{
			"request_id": requestID.String(),
			"message":    data,
		}
		jsonPayload, _ := json.Marshal(payload)
		h.rdb.Publish(context.Background(), redisStreamChannel, jsonPayload)
	}
}

func (h *Hub) deliverLocal(requestID uuid.UUID, data []byte) {
	h.mu.RLock()
	clients, ok := h.clients[requestID]
	h.mu.RUnlock()

	if !ok {
		return
	}

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping frame", map[string]interface{}{"request_id": requestID})
			close(client.Send)
			h.unregister <- client
		}
	}
}

func (h *Hub) subscribeToRedis() {
	// All instances subscribe to one channel and filter by local request
	// ids. The per-query audience is one or two sockets, so the fan-out
	// cost stays negligible.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, redisStreamChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			RequestID string          `json:"request_id"`
			Message   json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		rid, err := uuid.Parse(payload.RequestID)
		if err != nil {
			continue
		}

		h.deliverLocal(rid, payload.Message)
	}
}
