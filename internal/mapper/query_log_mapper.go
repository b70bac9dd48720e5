package mapper

import (
	"encoding/json"

	"gorm.io/datatypes"

	"portfolio-assistant-be/internal/entity"
	"portfolio-assistant-be/internal/model"
	"portfolio-assistant-be/pkg/store"
)

type QueryLogMapper struct{}

func NewQueryLogMapper() *QueryLogMapper {
	return &QueryLogMapper{}
}

func (m *QueryLogMapper) ToEntity(q *model.QueryLog) *entity.QueryLog {
	if q == nil {
		return nil
	}

	var sources []store.SourceRef
	if len(q.Sources) > 0 {
		_ = json.Unmarshal(q.Sources, &sources)
	}

	return &entity.QueryLog{
		Id:         q.Id,
		RequestId:  q.RequestId,
		Query:      q.Query,
		Intent:     q.Intent,
		Response:   q.Response,
		State:      q.State,
		RetryCount: q.RetryCount,
		Degraded:   q.Degraded,
		ChunkCount: q.ChunkCount,
		Sources:    sources,
		LatencyMS:  q.LatencyMS,
		CreatedAt:  q.CreatedAt,
	}
}

func (m *QueryLogMapper) ToModel(q *entity.QueryLog) *model.QueryLog {
	if q == nil {
		return nil
	}

	var sources datatypes.JSON
	if q.Sources != nil {
		if raw, err := json.Marshal(q.Sources); err == nil {
			sources = raw
		}
	}

	return &model.QueryLog{
		Id:         q.Id,
		RequestId:  q.RequestId,
		Query:      q.Query,
		Intent:     q.Intent,
		Response:   q.Response,
		State:      q.State,
		RetryCount: q.RetryCount,
		Degraded:   q.Degraded,
		ChunkCount: q.ChunkCount,
		Sources:    sources,
		LatencyMS:  q.LatencyMS,
		CreatedAt:  q.CreatedAt,
	}
}
