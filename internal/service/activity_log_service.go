package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/participant-registry/internal/dto"
	"github.com/noah-isme/participant-registry/internal/lifecycle"
	"github.com/noah-isme/participant-registry/internal/logselect"
	"github.com/noah-isme/participant-registry/internal/models"
	"github.com/noah-isme/participant-registry/internal/observability"
	"github.com/noah-isme/participant-registry/internal/repository"
)

const activityStreamBufferSize = 16

// ActivityActor is the authenticated administrator performing an action.
type ActivityActor struct {
	Name  string
	Email string
}

// ActivityEntry captures the details required to persist an audit entry.
type ActivityEntry struct {
	Actor       ActivityActor
	Action      string
	StudentName string
	StudentID   *uint
	Details     string
	Metadata    map[string]interface{}
}

// ActivityRecorder defines behaviour for recording activity logs.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (dto.ActivityLogResponse, error)
}

// ActivityLogService queries, appends and streams activity logs.
type ActivityLogService interface {
	ActivityRecorder
	List(ctx context.Context, req dto.ActivityLogListRequest) (dto.ActivityLogListResponse, error)
	Create(ctx context.Context, actor ActivityActor, payload dto.ActivityLogCreateRequest) (dto.ActivityLogResponse, error)
	Clear(ctx context.Context) (int64, error)
	Subscribe() (<-chan dto.ActivityLogResponse, func())
	Start(ctx context.Context)
}

type activityLogService struct {
	repo        repository.ActivityLogRepository
	nats        *nats.Conn
	natsSubject string
	validator   *validator.Validate
	location    *time.Location
	logger      zerolog.Logger
	tracer      trace.Tracer
	sanitizer   *bluemonday.Policy
	broker      *activityBroker
	nodeID      string
}

type activityEvent struct {
	Source string                  `json:"source"`
	Entry  dto.ActivityLogResponse `json:"entry"`
	SentAt time.Time               `json:"sent_at"`
}

type activityBroker struct {
	mu          sync.RWMutex
	subscribers map[chan dto.ActivityLogResponse]struct{}
}

// NewActivityLogService constructs the activity log service. natsConn may be
// nil, in which case entries are only streamed to local subscribers.
func NewActivityLogService(repo repository.ActivityLogRepository, natsConn *nats.Conn, natsSubject string, validate *validator.Validate, location *time.Location, logger zerolog.Logger) ActivityLogService {
	if location == nil {
		location = time.UTC
	}

	return &activityLogService{
		repo:        repo,
		nats:        natsConn,
		natsSubject: natsSubject,
		validator:   validate,
		location:    location,
		logger:      logger.With().Str("component", "activity_log_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/participant-registry/internal/service/activity_log"),
		sanitizer:   bluemonday.StrictPolicy(),
		broker: &activityBroker{
			subscribers: make(map[chan dto.ActivityLogResponse]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *activityLogService) Start(ctx context.Context) {
	if s.nats != nil && s.natsSubject != "" {
		s.consumeNATS(ctx)
	}
}

func (s *activityLogService) Create(ctx context.Context, actor ActivityActor, payload dto.ActivityLogCreateRequest) (dto.ActivityLogResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityLogResponse{}, err
	}

	if name := strings.TrimSpace(payload.AdminName); name != "" {
		actor.Name = name
	}
	if email := strings.TrimSpace(payload.AdminEmail); email != "" {
		actor.Email = email
	}

	return s.Record(ctx, ActivityEntry{
		Actor:       actor,
		Action:      payload.Action,
		StudentName: payload.StudentName,
		StudentID:   payload.StudentID,
		Details:     payload.Details,
		Metadata:    payload.Metadata,
	})
}

func (s *activityLogService) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityLogResponse, error) {
	action := logselect.NormalizeAction(entry.Action)
	if action == logselect.ActionAll || !logselect.IsValidAction(action) {
		return dto.ActivityLogResponse{}, newValidationError("action", "must be one of LOGIN, LOGOUT, ADD, EDIT, DELETE")
	}

	spanCtx, span := s.tracer.Start(ctx, "activity_logs.record", trace.WithAttributes(
		attribute.String("activity.action", action),
	))
	defer span.End()

	adminName := strings.TrimSpace(entry.Actor.Name)
	if adminName == "" {
		adminName = "Unknown admin"
	}

	model := models.ActivityLog{
		AdminName:   adminName,
		AdminEmail:  strings.ToLower(strings.TrimSpace(entry.Actor.Email)),
		Action:      action,
		StudentName: strings.TrimSpace(entry.StudentName),
		StudentID:   entry.StudentID,
		Details:     strings.TrimSpace(s.sanitizer.Sanitize(entry.Details)),
		Metadata:    sanitizeMetadata(entry.Metadata),
	}

	if err := s.repo.Create(spanCtx, &model); err != nil {
		span.RecordError(err)
		s.logger.Error().Err(err).Str("action", action).Msg("failed to persist activity log")
		return dto.ActivityLogResponse{}, err
	}

	observability.ActivityLogsRecorded().WithLabelValues(action).Inc()

	response := dto.NewActivityLogResponse(model)
	s.broker.broadcast(response)
	if err := s.publish(response); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish activity event")
	}

	return response, nil
}

func (s *activityLogService) List(ctx context.Context, req dto.ActivityLogListRequest) (dto.ActivityLogListResponse, error) {
	action := logselect.NormalizeAction(req.Action)
	if !logselect.IsValidAction(action) {
		return dto.ActivityLogListResponse{}, newValidationError("action", "must be one of ALL, LOGIN, LOGOUT, ADD, EDIT, DELETE")
	}

	from, err := parseOptionalDate("from", req.From)
	if err != nil {
		return dto.ActivityLogListResponse{}, err
	}
	to, err := parseOptionalDate("to", req.To)
	if err != nil {
		return dto.ActivityLogListResponse{}, err
	}
	if from != nil && to != nil && from.After(*to) {
		return dto.ActivityLogListResponse{}, newValidationError("from", "must not be after to")
	}

	filter := logselect.Filter{
		Action:   action,
		From:     from,
		To:       to,
		Search:   strings.TrimSpace(req.Search),
		Mode:     logselect.NormalizeMode(req.Mode),
		Location: s.location,
	}

	spanCtx, span := s.tracer.Start(ctx, "activity_logs.list", trace.WithAttributes(
		attribute.String("activity.action", action),
		attribute.String("activity.mode", filter.Mode),
	))
	defer span.End()

	repoFilter := repository.ActivityLogFilter{}
	if action != logselect.ActionAll {
		repoFilter.Action = action
	}

	entries, err := s.repo.List(spanCtx, repoFilter)
	if err != nil {
		span.RecordError(err)
		return dto.ActivityLogListResponse{}, err
	}

	matched := logselect.Apply(entries, filter)
	selected := logselect.Select(matched, logselect.Filter{Mode: filter.Mode})
	span.SetAttributes(attribute.Int("activity.matched", len(matched)), attribute.Int("activity.selected", len(selected)))

	return dto.ActivityLogListResponse{
		Items:   dto.NewActivityLogResponses(selected),
		Mode:    filter.Mode,
		Matched: len(matched),
	}, nil
}

func (s *activityLogService) Clear(ctx context.Context) (int64, error) {
	removed, err := s.repo.Clear(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to clear activity logs")
		return 0, err
	}

	s.logger.Info().Int64("removed", removed).Msg("activity logs cleared")
	return removed, nil
}

func (s *activityLogService) Subscribe() (<-chan dto.ActivityLogResponse, func()) {
	channel := make(chan dto.ActivityLogResponse, activityStreamBufferSize)

	s.broker.subscribe(channel)
	observability.ActivityStreamClients().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(channel)
			observability.ActivityStreamClients().Dec()
		})
	}

	return channel, cleanup
}

func (s *activityLogService) publish(entry dto.ActivityLogResponse) error {
	if s.nats == nil || s.natsSubject == "" {
		return nil
	}

	payload, err := json.Marshal(activityEvent{
		Source: s.nodeID,
		Entry:  entry,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return s.nats.Publish(s.natsSubject, payload)
}

func (s *activityLogService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats activity subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			s.logger.Warn().Err(err).Msg("failed to drain activity nats subscription")
		}
	}()
}

func (s *activityLogService) handleEvent(payload []byte) {
	var event activityEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid activity event payload")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	s.broker.broadcast(event.Entry)
}

func (b *activityBroker) subscribe(ch chan dto.ActivityLogResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[ch] = struct{}{}
}

func (b *activityBroker) unsubscribe(ch chan dto.ActivityLogResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

// broadcast never blocks; slow subscribers miss entries.
func (b *activityBroker) broadcast(entry dto.ActivityLogResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- entry:
		default:
		}
	}
}

func parseOptionalDate(field, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	parsed := lifecycle.ParseDate(value)
	if parsed == nil {
		return nil, newValidationError(field, "must be a date in YYYY-MM-DD or DD-MM-YYYY format")
	}
	return parsed, nil
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "password") || strings.Contains(lower, "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}
