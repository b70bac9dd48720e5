package entity

import (
	"time"

	"github.com/google/uuid"

	"portfolio-assistant-be/pkg/store"
)

type QueryLog struct {
	Id         uuid.UUID
	RequestId  uuid.UUID
	Query      string
	Intent     string
	Response   string
	State      string
	RetryCount int
	Degraded   bool
	ChunkCount int
	Sources    []store.SourceRef
	LatencyMS  int64
	CreatedAt  time.Time
}
