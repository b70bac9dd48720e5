package dto

import (
	"portfolio-assistant-be/pkg/store"
)

type QueryRequest struct {
	Query string `json:"query" validate:"required,min=1,max=2000"`
	// Intent optionally forces a classification, mainly for UI deep links.
	Intent string `json:"intent,omitempty"`
	// RequestId lets a streaming client correlate its websocket subscription
	// with this query. Optional; the server generates one when absent.
	RequestId string `json:"request_id,omitempty" validate:"omitempty,uuid4"`
}

type QueryResponse struct {
	RequestId  string            `json:"request_id"`
	Response   string            `json:"response"`
	Intent     string            `json:"intent"`
	Sources    []store.SourceRef `json:"sources,omitempty"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
	State      string            `json:"state"`
	ChunkCount int               `json:"chunk_count"`
	LatencyMS  int64             `json:"latency_ms"`
}

type IntentInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// QueryCompletedMessage is the payload published on the in-process bus after
// every finished query, consumed by the query log writer.
type QueryCompletedMessage struct {
	RequestId  string            `json:"request_id"`
	Query      string            `json:"query"`
	Intent     string            `json:"intent"`
	Response   string            `json:"response"`
	State      string            `json:"state"`
	RetryCount int               `json:"retry_count"`
	Degraded   bool              `json:"degraded"`
	ChunkCount int               `json:"chunk_count"`
	Sources    []store.SourceRef `json:"sources,omitempty"`
	LatencyMS  int64             `json:"latency_ms"`
}
