package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coursemind/coursemind/internal/models"
	"github.com/coursemind/coursemind/internal/security"
	"github.com/coursemind/coursemind/internal/session"
	"github.com/coursemind/coursemind/internal/tools"
	"github.com/rs/zerolog/log"
)

// ErrInvalidQuery marks user-input failures so the HTTP layer can
// answer 400 instead of 500.
var ErrInvalidQuery = errors.New("invalid query")

// queryRunner is what CourseHandler needs from the orchestrator.
type queryRunner interface {
	Run(ctx context.Context, query, history string, registry *tools.Registry) (Answer, error)
}

// CourseHandler runs the full query pipeline: validate, recall
// session history, orchestrate the model, record the exchange.
type CourseHandler struct {
	runner      queryRunner
	registry    *tools.Registry
	sessions    session.Store
	promptVal   *security.PromptValidator
	auditLogger *security.AuditLogger
}

func NewCourseHandler(
	runner queryRunner,
	registry *tools.Registry,
	sessions session.Store,
	promptVal *security.PromptValidator,
	auditLogger *security.AuditLogger,
) *CourseHandler {
	return &CourseHandler{
		runner:      runner,
		registry:    registry,
		sessions:    sessions,
		promptVal:   promptVal,
		auditLogger: auditLogger,
	}
}

// Handle processes one top-level query.
func (h *CourseHandler) Handle(ctx context.Context, req *models.QueryRequest, apiKey string) (*models.QueryResponse, error) {
	start := time.Now()

	if vr := h.promptVal.Validate(req.Query); !vr.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, vr.Message)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		var err error
		sessionID, err = h.sessions.Create(ctx)
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
	}

	history, err := h.sessions.History(ctx, sessionID)
	if err != nil {
		// A lost history degrades the answer, it doesn't block it.
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to load session history")
		history = ""
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(req.Timeout)*time.Second)
	defer cancel()

	answer, err := h.runner.Run(runCtx, req.Query, history, h.registry)
	durationMs := time.Since(start).Milliseconds()
	if err != nil {
		h.auditLogger.LogQuery(req.Query, apiKey, sessionID, durationMs, 0, false, err.Error())
		return nil, fmt.Errorf("orchestrator run: %w", err)
	}

	if err := h.sessions.AddExchange(ctx, sessionID, req.Query, answer.Text); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to record exchange")
	}

	h.auditLogger.LogQuery(req.Query, apiKey, sessionID, durationMs, len(answer.Sources), true, "")

	sources := answer.Sources
	if sources == nil {
		sources = []models.Source{}
	}
	return &models.QueryResponse{
		Answer:    answer.Text,
		Sources:   sources,
		SessionID: sessionID,
		Metadata: map[string]interface{}{
			"duration_ms": durationMs,
		},
	}, nil
}
