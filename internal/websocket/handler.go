package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"portfolio-assistant-be/internal/dto"
	"portfolio-assistant-be/internal/service"
)

// streamRequest is the first frame a streaming client sends after connect.
type streamRequest struct {
	Query  string `json:"query"`
	Intent string `json:"intent,omitempty"`
}

// ServeQueryStream drives one streamed query over a fresh websocket
// connection: read the query frame, register the socket under a new request
// id, run the pipeline with the hub as event sink, push the final frame.
func ServeQueryStream(hub *Hub, assistant service.IAssistantService, c *websocket.Conn) {
	c.SetReadDeadline(time.Now().Add(30 * time.Second))
	_, raw, err := c.ReadMessage()
	if err != nil {
		c.Close()
		return
	}

	var req streamRequest
	if err := json.Unmarshal(raw, &req); err != nil || req.Query == "" {
		errFrame, _ := json.Marshal(map[string]interface{}{
			"type": "error",
			"data": "first frame must be {\"query\": \"...\"}",
		})
		c.WriteMessage(websocket.TextMessage, errFrame)
		c.Close()
		return
	}

	requestID := uuid.New()
	client := &Client{Hub: hub, Conn: c, RequestID: requestID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()

	// Run the pipeline in its own goroutine so readPump keeps the socket
	// alive underneath it.
	go func() {
		result := assistant.HandleQuery(context.Background(), &dto.QueryRequest{
			Query:     req.Query,
			Intent:    req.Intent,
			RequestId: requestID.String(),
		}, hub, true)

		hub.SendFinal(requestID, result)
	}()

	client.readPump()
}
