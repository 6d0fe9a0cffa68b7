package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/participant-registry/internal/dto"
	"github.com/noah-isme/participant-registry/internal/lifecycle"
	"github.com/noah-isme/participant-registry/internal/models"
	"github.com/noah-isme/participant-registry/internal/observability"
	"github.com/noah-isme/participant-registry/internal/repository"
)

// ParticipantService orchestrates participant registration, edits and lookups.
type ParticipantService interface {
	List(ctx context.Context, req dto.ParticipantListRequest) (dto.ParticipantListResponse, error)
	Get(ctx context.Context, id uint) (dto.ParticipantResponse, error)
	GetByPhone(ctx context.Context, phone string) (dto.ParticipantResponse, error)
	Create(ctx context.Context, payload dto.ParticipantCreateRequest, actor ActivityActor) (dto.ParticipantResponse, error)
	Update(ctx context.Context, id uint, payload dto.ParticipantUpdateRequest, actor ActivityActor) (dto.ParticipantResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
	Export(ctx context.Context) ([]byte, error)
}

type participantService struct {
	repo      repository.ParticipantRepository
	validator *validator.Validate
	activity  ActivityRecorder
	location  *time.Location
	logger    zerolog.Logger
	tracer    trace.Tracer
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

// NewParticipantService constructs the participant service. Calendar days are
// evaluated in location.
func NewParticipantService(repo repository.ParticipantRepository, validate *validator.Validate, activity ActivityRecorder, location *time.Location, logger zerolog.Logger) ParticipantService {
	if location == nil {
		location = time.UTC
	}

	return &participantService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		location:  location,
		logger:    logger.With().Str("component", "participant_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/participant-registry/internal/service/participant"),
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}
}

func (s *participantService) today() time.Time {
	return lifecycle.DayIn(s.now(), s.location)
}

func (s *participantService) List(ctx context.Context, req dto.ParticipantListRequest) (dto.ParticipantListResponse, error) {
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status != "" && status != models.StatusActive && status != models.StatusInactive {
		return dto.ParticipantListResponse{}, newValidationError("status", "must be ACTIVE or INACTIVE")
	}

	spanCtx, span := s.tracer.Start(ctx, "participants.list")
	defer span.End()

	today := s.today()
	if err := s.healAll(spanCtx, today); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "heal_failed")
		return dto.ParticipantListResponse{}, err
	}

	participants, total, err := s.repo.List(spanCtx, repository.ParticipantFilter{
		Search:   strings.TrimSpace(req.Search),
		Status:   status,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		span.RecordError(err)
		return dto.ParticipantListResponse{}, err
	}
	span.SetAttributes(attribute.Int64("participants.total", total))

	responses := make([]dto.ParticipantResponse, 0, len(participants))
	for _, participant := range participants {
		responses = append(responses, dto.NewParticipantResponse(participant, today))
	}

	return dto.ParticipantListResponse{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *participantService) Get(ctx context.Context, id uint) (dto.ParticipantResponse, error) {
	participant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.ParticipantResponse{}, mapLookupError(err)
	}

	today := s.today()
	if err := s.heal(ctx, &participant, today); err != nil {
		return dto.ParticipantResponse{}, err
	}

	return dto.NewParticipantResponse(participant, today), nil
}

func (s *participantService) GetByPhone(ctx context.Context, phone string) (dto.ParticipantResponse, error) {
	phone = strings.TrimSpace(phone)
	if !isPhoneNumber(phone) {
		return dto.ParticipantResponse{}, newValidationError("phoneNumber", "must be exactly 12 digits")
	}

	participant, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		return dto.ParticipantResponse{}, mapLookupError(err)
	}

	today := s.today()
	if err := s.heal(ctx, &participant, today); err != nil {
		return dto.ParticipantResponse{}, err
	}

	return dto.NewParticipantResponse(participant, today), nil
}

func (s *participantService) Create(ctx context.Context, payload dto.ParticipantCreateRequest, actor ActivityActor) (dto.ParticipantResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ParticipantResponse{}, err
	}

	joined := lifecycle.ParseDate(payload.DateOfJoining)
	if joined == nil {
		return dto.ParticipantResponse{}, newValidationError("dateOfJoining", "must be a date in YYYY-MM-DD or DD-MM-YYYY format")
	}

	inactiveOn, err := parseOptionalDate("inactiveOn", payload.InactiveOn)
	if err != nil {
		return dto.ParticipantResponse{}, err
	}

	today := s.today()
	participant := models.Participant{
		Name:              strings.TrimSpace(payload.Name),
		PhoneNumber:       strings.TrimSpace(payload.PhoneNumber),
		Email:             normalizeEmail(payload.Email),
		Type:              payload.Type,
		AmountPaid:        payload.AmountPaid,
		DueAmount:         payload.DueAmount,
		Discount:          payload.Discount,
		IncentivesPaid:    payload.IncentivesPaid,
		DateOfJoining:     datatypes.Date(*joined),
		InactiveOn:        toDate(inactiveOn),
		InactivityReason:  s.cleanText(payload.InactivityReason),
		Country:           strings.TrimSpace(payload.Country),
		State:             strings.TrimSpace(payload.State),
		Address:           strings.TrimSpace(payload.Address),
		GovernmentIDProof: strings.TrimSpace(payload.GovernmentIDProof),
	}

	if strings.EqualFold(payload.ActivityStatus, models.StatusInactive) {
		if err := deactivateManually(&participant, today); err != nil {
			return dto.ParticipantResponse{}, err
		}
	}

	derived := s.applyDerived(&participant, today)

	spanCtx, span := s.tracer.Start(ctx, "participants.create", trace.WithAttributes(
		attribute.String("participant.status", participant.ActivityStatus),
	))
	defer span.End()

	if err := s.ensureUnique(spanCtx, participant, 0); err != nil {
		return dto.ParticipantResponse{}, err
	}

	if err := s.repo.Create(spanCtx, &participant); err != nil {
		span.RecordError(err)
		return dto.ParticipantResponse{}, mapWriteError(err)
	}

	if derived.Deactivated {
		observability.ParticipantsDeactivated().WithLabelValues("write").Inc()
	}

	s.record(ctx, actor, models.ActionAdd, participant, fmt.Sprintf("Added student %s", participant.Name), map[string]interface{}{
		"status": participant.ActivityStatus,
	})

	return dto.NewParticipantResponse(participant, today), nil
}

func (s *participantService) Update(ctx context.Context, id uint, payload dto.ParticipantUpdateRequest, actor ActivityActor) (dto.ParticipantResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ParticipantResponse{}, err
	}

	participant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.ParticipantResponse{}, mapLookupError(err)
	}

	original := participant
	today := s.today()
	// Explicit status overrides compare against the current derived status,
	// not a stored value that may have gone stale since the last read.
	s.applyDerived(&participant, today)

	changed, err := s.applyUpdate(&participant, payload, today)
	if err != nil {
		return dto.ParticipantResponse{}, err
	}

	s.applyDerived(&participant, today)
	deactivated := participant.ActivityStatus == models.StatusInactive &&
		!strings.EqualFold(original.ActivityStatus, models.StatusInactive)
	if participant.ActivityStatus != original.ActivityStatus {
		changed = appendField(changed, "activityStatus")
	}
	if participant.InactivityReason != original.InactivityReason {
		changed = appendField(changed, "inactivityReason")
	}

	spanCtx, span := s.tracer.Start(ctx, "participants.update", trace.WithAttributes(
		attribute.Int("participant.id", int(id)),
		attribute.StringSlice("participant.fields", changed),
	))
	defer span.End()

	if err := s.ensureUnique(spanCtx, participant, id); err != nil {
		return dto.ParticipantResponse{}, err
	}

	if err := s.repo.Update(spanCtx, &participant); err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ParticipantResponse{}, ErrParticipantNotFound
		}
		return dto.ParticipantResponse{}, mapWriteError(err)
	}

	if deactivated {
		observability.ParticipantsDeactivated().WithLabelValues("write").Inc()
	}

	s.record(ctx, actor, models.ActionEdit, participant, fmt.Sprintf("Updated student %s", participant.Name), map[string]interface{}{
		"fields": changed,
		"status": participant.ActivityStatus,
	})

	return dto.NewParticipantResponse(participant, today), nil
}

func (s *participantService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	participant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return mapLookupError(err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapLookupError(err)
	}

	s.record(ctx, actor, models.ActionDelete, participant, fmt.Sprintf("Deleted student %s", participant.Name), map[string]interface{}{
		"phoneNumber": participant.PhoneNumber,
	})

	return nil
}

// applyUpdate copies the provided fields onto participant and handles explicit
// status overrides. It returns the names of the fields that changed.
func (s *participantService) applyUpdate(participant *models.Participant, payload dto.ParticipantUpdateRequest, today time.Time) ([]string, error) {
	changed := make([]string, 0)
	setString := func(field string, target *string, value *string, normalize func(string) string) {
		if value == nil {
			return
		}
		next := normalize(*value)
		if next != *target {
			*target = next
			changed = append(changed, field)
		}
	}
	setAmount := func(field string, target *float64, value *float64) {
		if value != nil && *value != *target {
			*target = *value
			changed = append(changed, field)
		}
	}

	setString("name", &participant.Name, payload.Name, strings.TrimSpace)
	setString("phoneNumber", &participant.PhoneNumber, payload.PhoneNumber, strings.TrimSpace)
	setString("email", &participant.Email, payload.Email, normalizeEmail)
	setString("type", &participant.Type, payload.Type, strings.TrimSpace)
	setString("country", &participant.Country, payload.Country, strings.TrimSpace)
	setString("state", &participant.State, payload.State, strings.TrimSpace)
	setString("address", &participant.Address, payload.Address, strings.TrimSpace)
	setString("governmentIdProof", &participant.GovernmentIDProof, payload.GovernmentIDProof, strings.TrimSpace)
	setString("inactivityReason", &participant.InactivityReason, payload.InactivityReason, s.cleanText)
	setAmount("amountPaid", &participant.AmountPaid, payload.AmountPaid)
	setAmount("dueAmount", &participant.DueAmount, payload.DueAmount)
	setAmount("discount", &participant.Discount, payload.Discount)
	setAmount("incentivesPaid", &participant.IncentivesPaid, payload.IncentivesPaid)

	if payload.DateOfJoining != nil {
		joined := lifecycle.ParseDate(*payload.DateOfJoining)
		if joined == nil {
			return nil, newValidationError("dateOfJoining", "must be a date in YYYY-MM-DD or DD-MM-YYYY format")
		}
		if !joined.Equal(time.Time(participant.DateOfJoining)) {
			participant.DateOfJoining = datatypes.Date(*joined)
			changed = append(changed, "dateOfJoining")
		}
	}

	if payload.InactiveOn != nil {
		inactiveOn, err := parseOptionalDate("inactiveOn", *payload.InactiveOn)
		if err != nil {
			return nil, err
		}
		if !sameDay(inactiveOn, participant.InactiveOnTime()) {
			participant.InactiveOn = toDate(inactiveOn)
			changed = append(changed, "inactiveOn")
		}
	}

	if payload.ActivityStatus == nil {
		return changed, nil
	}

	requested := strings.ToUpper(strings.TrimSpace(*payload.ActivityStatus))
	stored := strings.ToUpper(participant.ActivityStatus)

	switch {
	case requested == models.StatusActive && stored == models.StatusInactive:
		reactivated := lifecycle.Reactivate(lifecycle.Input{
			InactiveOn: participant.InactiveOnTime(),
			Status:     participant.ActivityStatus,
			Reason:     participant.InactivityReason,
		})
		if participant.InactiveOn != nil {
			changed = appendField(changed, "inactiveOn")
		}
		participant.InactiveOn = toDate(reactivated.InactiveOn)
		participant.InactivityReason = reactivated.Reason
	case requested == models.StatusInactive && stored != models.StatusInactive:
		previous := participant.InactiveOnTime()
		if err := deactivateManually(participant, today); err != nil {
			return nil, err
		}
		if !sameDay(previous, participant.InactiveOnTime()) {
			changed = appendField(changed, "inactiveOn")
		}
	}

	return changed, nil
}

// applyDerived runs the status rule against participant and stores the result.
func (s *participantService) applyDerived(participant *models.Participant, today time.Time) lifecycle.Result {
	derived := lifecycle.Derive(statusInput(*participant), today)
	participant.ActivityStatus = derived.Status
	participant.InactivityReason = derived.Reason
	return derived
}

// heal persists the derived status when the stored one has gone stale.
func (s *participantService) heal(ctx context.Context, participant *models.Participant, today time.Time) error {
	input := statusInput(*participant)
	if !lifecycle.IsStale(input, today) {
		return nil
	}

	derived := lifecycle.Derive(input, today)
	if err := s.repo.UpdateStatus(ctx, participant.ID, derived.Status, derived.Reason); err != nil {
		s.logger.Error().Err(err).Uint("participant_id", participant.ID).Msg("failed to persist derived status")
		return err
	}

	participant.ActivityStatus = derived.Status
	participant.InactivityReason = derived.Reason
	if derived.Deactivated {
		observability.ParticipantsDeactivated().WithLabelValues("read").Inc()
		s.logger.Info().Uint("participant_id", participant.ID).Msg("participant reached inactive date")
	}
	return nil
}

func (s *participantService) healAll(ctx context.Context, today time.Time) error {
	candidates, err := s.repo.ListStatusCandidates(ctx, today)
	if err != nil {
		return err
	}

	for i := range candidates {
		if err := s.heal(ctx, &candidates[i], today); err != nil {
			return err
		}
	}
	return nil
}

func (s *participantService) ensureUnique(ctx context.Context, participant models.Participant, excludeID uint) error {
	exists, err := s.repo.ExistsByPhone(ctx, participant.PhoneNumber, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return &ConflictError{Field: "phoneNumber"}
	}

	exists, err = s.repo.ExistsByEmail(ctx, participant.Email, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return &ConflictError{Field: "email"}
	}
	return nil
}

func (s *participantService) record(ctx context.Context, actor ActivityActor, action string, participant models.Participant, details string, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}

	id := participant.ID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		Actor:       actor,
		Action:      action,
		StudentName: participant.Name,
		StudentID:   &id,
		Details:     details,
		Metadata:    metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Uint("participant_id", id).Msg("failed to record activity")
	}
}

func (s *participantService) cleanText(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}

// deactivateManually expresses an explicit INACTIVE request as a due date of
// today unless an earlier date is already scheduled. A reason is mandatory.
func deactivateManually(participant *models.Participant, today time.Time) error {
	if strings.TrimSpace(participant.InactivityReason) == "" {
		return newValidationError("inactivityReason", "is required when marking a participant inactive")
	}

	current := participant.InactiveOnTime()
	if current == nil || lifecycle.CalendarDay(*current).After(today) {
		participant.InactiveOn = toDate(&today)
	}
	return nil
}

func statusInput(participant models.Participant) lifecycle.Input {
	return lifecycle.Input{
		InactiveOn: participant.InactiveOnTime(),
		Status:     participant.ActivityStatus,
		Reason:     participant.InactivityReason,
	}
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrParticipantNotFound
	}
	return err
}

func mapWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &ConflictError{Field: "phoneNumber or email"}
	}
	return err
}

func toDate(t *time.Time) *datatypes.Date {
	if t == nil {
		return nil
	}
	date := datatypes.Date(lifecycle.CalendarDay(*t))
	return &date
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return lifecycle.CalendarDay(*a).Equal(lifecycle.CalendarDay(*b))
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isPhoneNumber(value string) bool {
	if len(value) != 12 {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func appendField(fields []string, field string) []string {
	for _, existing := range fields {
		if existing == field {
			return fields
		}
	}
	return append(fields, field)
}
