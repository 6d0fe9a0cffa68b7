package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/participant-registry/internal/models"
)

func newParticipant(name, phone, email string) models.Participant {
	return models.Participant{
		Name:              name,
		PhoneNumber:       phone,
		Email:             email,
		Type:              models.ParticipantTypeStudent,
		DateOfJoining:     datatypes.Date(time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)),
		ActivityStatus:    models.StatusActive,
		Country:           "India",
		State:             "Karnataka",
		Address:           "12 MG Road",
		GovernmentIDProof: "AADHAAR-1234",
	}
}

func TestParticipantRepositoryListFiltersAndSorts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewParticipantRepository(db)
	ctx := context.Background()

	charlie := newParticipant("charlie Brown", "919000000003", "charlie@example.com")
	alice := newParticipant("Alice Johnson", "919000000001", "alice@example.com")
	bob := newParticipant("Bob Stone", "919000000002", "bob@example.com")
	bob.ActivityStatus = models.StatusInactive
	for _, p := range []*models.Participant{&charlie, &alice, &bob} {
		require.NoError(t, repo.Create(ctx, p))
	}

	participants, total, err := repo.List(ctx, ParticipantFilter{PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Equal(t, "Alice Johnson", participants[0].Name)
	require.Equal(t, "charlie Brown", participants[2].Name, "expected case-insensitive name order")

	participants, total, err = repo.List(ctx, ParticipantFilter{Search: "ALICE", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, alice.ID, participants[0].ID)

	participants, total, err = repo.List(ctx, ParticipantFilter{Search: "000002"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, bob.ID, participants[0].ID)

	participants, total, err = repo.List(ctx, ParticipantFilter{Status: models.StatusActive, Page: 2, PageSize: 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, participants, 1)
	require.Equal(t, "charlie Brown", participants[0].Name)
}

func TestParticipantRepositoryUniqueConstraints(t *testing.T) {
	db := setupTestDB(t)
	repo := NewParticipantRepository(db)
	ctx := context.Background()

	first := newParticipant("Alice", "919000000001", "alice@example.com")
	require.NoError(t, repo.Create(ctx, &first))

	samePhone := newParticipant("Other", "919000000001", "other@example.com")
	err := repo.Create(ctx, &samePhone)
	require.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

	exists, err := repo.ExistsByPhone(ctx, "919000000001", 0)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.ExistsByPhone(ctx, "919000000001", first.ID)
	require.NoError(t, err)
	require.False(t, exists, "the record itself must not count as a conflict")

	exists, err = repo.ExistsByEmail(ctx, "ALICE@example.com", 0)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestParticipantRepositoryUpdateAndStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewParticipantRepository(db)
	ctx := context.Background()

	participant := newParticipant("Alice", "919000000001", "alice@example.com")
	inactiveOn := datatypes.Date(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	participant.InactiveOn = &inactiveOn
	require.NoError(t, repo.Create(ctx, &participant))

	participant.InactiveOn = nil
	participant.DueAmount = 0
	participant.Address = "New address"
	require.NoError(t, repo.Update(ctx, &participant))

	stored, err := repo.GetByID(ctx, participant.ID)
	require.NoError(t, err)
	require.Nil(t, stored.InactiveOn, "nil dates must be written back")
	require.Equal(t, "New address", stored.Address)

	require.NoError(t, repo.UpdateStatus(ctx, participant.ID, models.StatusInactive, "left"))
	stored, err = repo.GetByPhone(ctx, "919000000001")
	require.NoError(t, err)
	require.Equal(t, models.StatusInactive, stored.ActivityStatus)
	require.Equal(t, "left", stored.InactivityReason)

	missing := newParticipant("Ghost", "919000000009", "ghost@example.com")
	missing.ID = 999
	require.ErrorIs(t, repo.Update(ctx, &missing), gorm.ErrRecordNotFound)
	require.ErrorIs(t, repo.UpdateStatus(ctx, 999, models.StatusActive, ""), gorm.ErrRecordNotFound)
}

func TestParticipantRepositoryListStatusCandidates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewParticipantRepository(db)
	ctx := context.Background()
	today := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	past := datatypes.Date(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	future := datatypes.Date(time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC))
	todayDate := datatypes.Date(today)

	plain := newParticipant("Plain", "919000000001", "plain@example.com")
	scheduled := newParticipant("Scheduled", "919000000002", "scheduled@example.com")
	scheduled.InactiveOn = &future
	settled := newParticipant("Settled", "919000000003", "settled@example.com")
	settled.InactiveOn = &past
	settled.ActivityStatus = models.StatusInactive
	settled.InactivityReason = "Course finished"

	dueToday := newParticipant("Due Today", "919000000004", "due@example.com")
	dueToday.InactiveOn = &todayDate
	overdue := newParticipant("Overdue", "919000000005", "overdue@example.com")
	overdue.InactiveOn = &past
	strayReason := newParticipant("Stray Reason", "919000000006", "stray@example.com")
	strayReason.InactivityReason = "left"
	undated := newParticipant("Undated", "919000000007", "undated@example.com")
	undated.ActivityStatus = models.StatusInactive
	undated.InactivityReason = "left"
	early := newParticipant("Early", "919000000008", "early@example.com")
	early.InactiveOn = &future
	early.ActivityStatus = models.StatusInactive
	early.InactivityReason = "left"
	reasonless := newParticipant("Reasonless", "919000000009", "reasonless@example.com")
	reasonless.InactiveOn = &past
	reasonless.ActivityStatus = models.StatusInactive

	for _, p := range []*models.Participant{&plain, &scheduled, &settled, &dueToday, &overdue, &strayReason, &undated, &early, &reasonless} {
		require.NoError(t, repo.Create(ctx, p))
	}

	candidates, err := repo.ListStatusCandidates(ctx, today)
	require.NoError(t, err)

	names := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		names = append(names, candidate.Name)
	}
	require.ElementsMatch(t, []string{"Due Today", "Overdue", "Stray Reason", "Undated", "Early", "Reasonless"}, names)
}

func TestParticipantRepositoryDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewParticipantRepository(db)
	ctx := context.Background()

	participant := newParticipant("Alice", "919000000001", "alice@example.com")
	require.NoError(t, repo.Create(ctx, &participant))

	require.NoError(t, repo.Delete(ctx, participant.ID))
	_, err := repo.GetByID(ctx, participant.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.ErrorIs(t, repo.Delete(ctx, participant.ID), gorm.ErrRecordNotFound)
}
