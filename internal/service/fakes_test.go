package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/participant-registry/internal/dto"
	"github.com/noah-isme/participant-registry/internal/lifecycle"
	"github.com/noah-isme/participant-registry/internal/models"
	"github.com/noah-isme/participant-registry/internal/repository"
)

var fixedNow = time.Date(2024, time.June, 10, 9, 30, 0, 0, time.UTC)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type fakeParticipantRepo struct {
	mu            sync.Mutex
	items         map[uint]models.Participant
	nextID        uint
	statusUpdates int
}

func newFakeParticipantRepo(participants ...models.Participant) *fakeParticipantRepo {
	repo := &fakeParticipantRepo{items: make(map[uint]models.Participant)}
	for _, participant := range participants {
		repo.nextID++
		if participant.ID == 0 {
			participant.ID = repo.nextID
		}
		repo.items[participant.ID] = participant
	}
	return repo
}

func (f *fakeParticipantRepo) sorted() []models.Participant {
	result := make([]models.Participant, 0, len(f.items))
	for _, item := range f.items {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool {
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})
	return result
}

func (f *fakeParticipantRepo) List(ctx context.Context, filter repository.ParticipantFilter) ([]models.Participant, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]models.Participant, 0)
	for _, item := range f.sorted() {
		if filter.Status != "" && item.ActivityStatus != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, item)
	}
	return result, int64(len(result)), nil
}

func (f *fakeParticipantRepo) ListAll(ctx context.Context) ([]models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(), nil
}

func (f *fakeParticipantRepo) ListStatusCandidates(ctx context.Context, today time.Time) ([]models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]models.Participant, 0)
	for _, item := range f.sorted() {
		if lifecycle.IsStale(statusInput(item), today) {
			result = append(result, item)
		}
	}
	return result, nil
}

func (f *fakeParticipantRepo) GetByID(ctx context.Context, id uint) (models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.items[id]
	if !ok {
		return models.Participant{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (f *fakeParticipantRepo) GetByPhone(ctx context.Context, phone string) (models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, item := range f.items {
		if item.PhoneNumber == phone {
			return item, nil
		}
	}
	return models.Participant{}, gorm.ErrRecordNotFound
}

func (f *fakeParticipantRepo) ExistsByPhone(ctx context.Context, phone string, excludeID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, item := range f.items {
		if id != excludeID && item.PhoneNumber == phone {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeParticipantRepo) ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, item := range f.items {
		if id != excludeID && strings.EqualFold(item.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeParticipantRepo) Create(ctx context.Context, participant *models.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	participant.ID = f.nextID
	participant.CreatedAt = fixedNow
	participant.UpdatedAt = fixedNow
	f.items[participant.ID] = *participant
	return nil
}

func (f *fakeParticipantRepo) Update(ctx context.Context, participant *models.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.items[participant.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.items[participant.ID] = *participant
	return nil
}

func (f *fakeParticipantRepo) UpdateStatus(ctx context.Context, id uint, status, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.ActivityStatus = status
	item.InactivityReason = reason
	f.items[id] = item
	f.statusUpdates++
	return nil
}

func (f *fakeParticipantRepo) Delete(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeActivityLogRepo struct {
	mu      sync.Mutex
	entries []models.ActivityLog
	nextID  uint
}

func (f *fakeActivityLogRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	entry.ID = f.nextID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = fixedNow.Add(time.Duration(f.nextID) * time.Minute)
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeActivityLogRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]models.ActivityLog, 0, len(f.entries))
	for i := len(f.entries) - 1; i >= 0; i-- {
		entry := f.entries[i]
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}

func (f *fakeActivityLogRepo) Clear(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	removed := int64(len(f.entries))
	f.entries = nil
	return removed, nil
}

type recordingActivity struct {
	entries []ActivityEntry
}

func (r *recordingActivity) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityLogResponse, error) {
	r.entries = append(r.entries, entry)
	return dto.ActivityLogResponse{Action: entry.Action, AdminName: entry.Actor.Name}, nil
}

func (r *recordingActivity) actions() []string {
	actions := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

func newValidator() *validator.Validate {
	return validator.New()
}
