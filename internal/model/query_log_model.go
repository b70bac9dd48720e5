package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type QueryLog struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RequestId  uuid.UUID      `gorm:"type:uuid;not null;index"`
	Query      string         `gorm:"type:text;not null"`
	Intent     string         `gorm:"type:varchar(32);not null;index"`
	Response   string         `gorm:"type:text"`
	State      string         `gorm:"type:varchar(16);not null"`
	RetryCount int            `gorm:"default:0"`
	Degraded   bool           `gorm:"default:false"`
	ChunkCount int            `gorm:"default:0"`
	Sources    datatypes.JSON `gorm:"type:jsonb"`
	LatencyMS  int64          `gorm:"default:0"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index"`
}

func (QueryLog) TableName() string {
	return "query_logs"
}
