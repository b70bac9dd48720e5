package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"portfolio-assistant-be/internal/dto"
	"portfolio-assistant-be/internal/pkg/logger"
	"portfolio-assistant-be/pkg/events"
	"portfolio-assistant-be/pkg/intent"
	"portfolio-assistant-be/pkg/orchestrator"
	"portfolio-assistant-be/pkg/store"
)

type IAssistantService interface {
	HandleQuery(ctx context.Context, req *dto.QueryRequest, sink events.Sink, stream bool) *dto.QueryResponse
	ListIntents() []dto.IntentInfo
}

type assistantService struct {
	orchestrator *orchestrator.Orchestrator
	publisher    IPublisherService
	logger       logger.ILogger
}

func NewAssistantService(
	orch *orchestrator.Orchestrator,
	publisher IPublisherService,
	sysLogger logger.ILogger,
) IAssistantService {
	return &assistantService{
		orchestrator: orch,
		publisher:    publisher,
		logger:       sysLogger,
	}
}

// HandleQuery runs the pipeline and publishes the completion event for the
// query log writer. Like the pipeline itself it never fails; worst case the
// response is the safe fallback.
func (s *assistantService) HandleQuery(ctx context.Context, req *dto.QueryRequest, sink events.Sink, stream bool) *dto.QueryResponse {
	start := time.Now()

	requestId := uuid.Nil
	if req.RequestId != "" {
		if parsed, err := uuid.Parse(req.RequestId); err == nil {
			requestId = parsed
		}
	}

	result := s.orchestrator.HandleQuery(ctx, req.Query, orchestrator.Options{
		Stream:      stream,
		ForceIntent: req.Intent,
		RequestID:   requestId,
		Sink:        sink,
	})

	latency := time.Since(start).Milliseconds()

	s.logger.Info("Assistant", "Query handled", map[string]interface{}{
		"request_id": result.RequestID.String(),
		"intent":     result.Intent.String(),
		"state":      string(result.State),
		"latency_ms": latency,
	})

	degraded := false
	if v, ok := result.Metadata[store.MetaDegraded].(bool); ok {
		degraded = v
	}
	retryCount := 0
	if v, ok := result.Metadata[store.MetaRetryCount].(int); ok {
		retryCount = v
	}

	if err := s.publisher.PublishQueryCompleted(&dto.QueryCompletedMessage{
		RequestId:  result.RequestID.String(),
		Query:      req.Query,
		Intent:     result.Intent.String(),
		Response:   result.Response,
		State:      string(result.State),
		RetryCount: retryCount,
		Degraded:   degraded,
		ChunkCount: result.ChunkCount,
		Sources:    result.Sources,
		LatencyMS:  latency,
	}); err != nil {
		s.logger.Warn("Assistant", "Failed to publish query completed event", map[string]interface{}{
			"request_id": result.RequestID.String(),
			"error":      err.Error(),
		})
	}

	return &dto.QueryResponse{
		RequestId:  result.RequestID.String(),
		Response:   result.Response,
		Intent:     result.Intent.String(),
		Sources:    result.Sources,
		Metadata:   result.Metadata,
		State:      string(result.State),
		ChunkCount: result.ChunkCount,
		LatencyMS:  latency,
	}
}

func (s *assistantService) ListIntents() []dto.IntentInfo {
	descriptions := map[intent.Intent]string{
		intent.IntentEducation:       "Degrees, certifications, and academic background",
		intent.IntentExperience:      "Jobs, roles, and career history",
		intent.IntentPersonalProject: "Side projects and open-source work",
		intent.IntentSkills:          "Languages, frameworks, and competencies",
		intent.IntentCaseStudy:       "Deep dives into delivered work",
		intent.IntentProjectTour:     "Guided walkthrough of the project catalog",
		intent.IntentGeneral:         "Everything else, including small talk",
	}

	infos := make([]dto.IntentInfo, 0, len(intent.All()))
	for _, it := range intent.All() {
		infos = append(infos, dto.IntentInfo{
			Name:        it.String(),
			Description: descriptions[it],
		})
	}
	return infos
}
