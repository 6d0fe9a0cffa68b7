package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/participant-registry/internal/models"
)

// ParticipantFilter defines filters for listing participants.
type ParticipantFilter struct {
	Search   string
	Status   string
	Page     int
	PageSize int
}

// ParticipantRepository is the record store for participants. Lookups return
// gorm.ErrRecordNotFound for unknown rows; unique violations surface as
// gorm.ErrDuplicatedKey when the connection translates dialect errors.
type ParticipantRepository interface {
	List(ctx context.Context, filter ParticipantFilter) ([]models.Participant, int64, error)
	ListAll(ctx context.Context) ([]models.Participant, error)
	ListStatusCandidates(ctx context.Context, today time.Time) ([]models.Participant, error)
	GetByID(ctx context.Context, id uint) (models.Participant, error)
	GetByPhone(ctx context.Context, phone string) (models.Participant, error)
	ExistsByPhone(ctx context.Context, phone string, excludeID uint) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error)
	Create(ctx context.Context, participant *models.Participant) error
	Update(ctx context.Context, participant *models.Participant) error
	UpdateStatus(ctx context.Context, id uint, status, reason string) error
	Delete(ctx context.Context, id uint) error
}

type participantRepository struct {
	db *gorm.DB
}

// NewParticipantRepository constructs the participant repository.
func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) List(ctx context.Context, filter ParticipantFilter) ([]models.Participant, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Participant{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone_number LIKE ?", like, like, "%"+search+"%")
	}

	if filter.Status != "" {
		query = query.Where("activity_status = ?", filter.Status)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("LOWER(name) ASC").Order("id ASC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Limit(filter.PageSize).Offset(offset)
	}

	var participants []models.Participant
	if err := query.Find(&participants).Error; err != nil {
		return nil, 0, err
	}

	return participants, total, nil
}

func (r *participantRepository) ListAll(ctx context.Context) ([]models.Participant, error) {
	var participants []models.Participant
	if err := r.db.WithContext(ctx).Order("LOWER(name) ASC").Order("id ASC").Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

// ListStatusCandidates returns the rows whose stored status or reason can
// disagree with the date rule on the given calendar day: ACTIVE rows past
// their date or carrying a reason, INACTIVE rows without a reached date or
// without a reason, and rows with an unknown status.
func (r *participantRepository) ListStatusCandidates(ctx context.Context, today time.Time) ([]models.Participant, error) {
	day := datatypes.Date(today)
	active, inactive := models.StatusActive, models.StatusInactive

	var participants []models.Participant
	err := r.db.WithContext(ctx).
		Where("activity_status = ? AND inactive_on IS NOT NULL AND inactive_on <= ?", active, day).
		Or("activity_status = ? AND COALESCE(inactivity_reason, '') <> ''", active).
		Or("activity_status = ? AND (inactive_on IS NULL OR inactive_on > ? OR COALESCE(inactivity_reason, '') = '')", inactive, day).
		Or("activity_status NOT IN ?", []string{active, inactive}).
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *participantRepository) GetByID(ctx context.Context, id uint) (models.Participant, error) {
	var participant models.Participant
	if err := r.db.WithContext(ctx).First(&participant, id).Error; err != nil {
		return models.Participant{}, err
	}

	return participant, nil
}

func (r *participantRepository) GetByPhone(ctx context.Context, phone string) (models.Participant, error) {
	var participant models.Participant
	if err := r.db.WithContext(ctx).Where("phone_number = ?", phone).First(&participant).Error; err != nil {
		return models.Participant{}, err
	}

	return participant, nil
}

func (r *participantRepository) ExistsByPhone(ctx context.Context, phone string, excludeID uint) (bool, error) {
	return r.exists(ctx, "phone_number = ?", phone, excludeID)
}

func (r *participantRepository) ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error) {
	return r.exists(ctx, "LOWER(email) = ?", strings.ToLower(email), excludeID)
}

func (r *participantRepository) exists(ctx context.Context, clause string, value string, excludeID uint) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Participant{}).Where(clause, value)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *participantRepository) Create(ctx context.Context, participant *models.Participant) error {
	return r.db.WithContext(ctx).Create(participant).Error
}

func (r *participantRepository) Update(ctx context.Context, participant *models.Participant) error {
	result := r.db.WithContext(ctx).Model(&models.Participant{}).
		Where("id = ?", participant.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(participant)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *participantRepository) UpdateStatus(ctx context.Context, id uint, status, reason string) error {
	result := r.db.WithContext(ctx).Model(&models.Participant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"activity_status":   status,
			"inactivity_reason": reason,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *participantRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Participant{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
