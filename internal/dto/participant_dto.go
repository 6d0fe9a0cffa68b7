package dto

import (
	"time"

	"github.com/noah-isme/participant-registry/internal/lifecycle"
	"github.com/noah-isme/participant-registry/internal/models"
)

// ParticipantCreateRequest is the payload for registering a participant.
type ParticipantCreateRequest struct {
	Name              string  `json:"name" validate:"required,max=255"`
	PhoneNumber       string  `json:"phoneNumber" validate:"required,len=12,number"`
	Email             string  `json:"email" validate:"required,email,max=255"`
	Type              string  `json:"type" validate:"required,oneof=STUDENT EMPLOYEE MENTOR LEARNER JOB_SEEKER PAID_INTERN UNPAID_INTERN"`
	AmountPaid        float64 `json:"amountPaid" validate:"gte=0"`
	DueAmount         float64 `json:"dueAmount" validate:"gte=0"`
	Discount          float64 `json:"discount" validate:"gte=0"`
	IncentivesPaid    float64 `json:"incentivesPaid" validate:"gte=0"`
	DateOfJoining     string  `json:"dateOfJoining" validate:"required"`
	InactiveOn        string  `json:"inactiveOn"`
	ActivityStatus    string  `json:"activityStatus" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	InactivityReason  string  `json:"inactivityReason" validate:"max=2000"`
	Country           string  `json:"country" validate:"required,max=128"`
	State             string  `json:"state" validate:"required,max=128"`
	Address           string  `json:"address" validate:"required,max=2000"`
	GovernmentIDProof string  `json:"governmentIdProof" validate:"required,max=255"`
}

// ParticipantUpdateRequest captures an edit; omitted fields keep their value.
type ParticipantUpdateRequest struct {
	Name              *string  `json:"name" validate:"omitempty,min=1,max=255"`
	PhoneNumber       *string  `json:"phoneNumber" validate:"omitempty,len=12,number"`
	Email             *string  `json:"email" validate:"omitempty,email,max=255"`
	Type              *string  `json:"type" validate:"omitempty,oneof=STUDENT EMPLOYEE MENTOR LEARNER JOB_SEEKER PAID_INTERN UNPAID_INTERN"`
	AmountPaid        *float64 `json:"amountPaid" validate:"omitempty,gte=0"`
	DueAmount         *float64 `json:"dueAmount" validate:"omitempty,gte=0"`
	Discount          *float64 `json:"discount" validate:"omitempty,gte=0"`
	IncentivesPaid    *float64 `json:"incentivesPaid" validate:"omitempty,gte=0"`
	DateOfJoining     *string  `json:"dateOfJoining"`
	InactiveOn        *string  `json:"inactiveOn"`
	ActivityStatus    *string  `json:"activityStatus" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	InactivityReason  *string  `json:"inactivityReason" validate:"omitempty,max=2000"`
	Country           *string  `json:"country" validate:"omitempty,min=1,max=128"`
	State             *string  `json:"state" validate:"omitempty,min=1,max=128"`
	Address           *string  `json:"address" validate:"omitempty,min=1,max=2000"`
	GovernmentIDProof *string  `json:"governmentIdProof" validate:"omitempty,min=1,max=255"`
}

// ParticipantListRequest defines filters for listing participants.
type ParticipantListRequest struct {
	Page     int
	PageSize int
	Search   string
	Status   string
}

// ParticipantResponse serializes a participant for API clients.
type ParticipantResponse struct {
	ID                uint      `json:"id"`
	Name              string    `json:"name"`
	PhoneNumber       string    `json:"phoneNumber"`
	Email             string    `json:"email"`
	Type              string    `json:"type"`
	AmountPaid        float64   `json:"amountPaid"`
	DueAmount         float64   `json:"dueAmount"`
	Discount          float64   `json:"discount"`
	IncentivesPaid    float64   `json:"incentivesPaid"`
	DateOfJoining     string    `json:"dateOfJoining"`
	InactiveOn        *string   `json:"inactiveOn"`
	ActivityStatus    string    `json:"activityStatus"`
	InactivityReason  string    `json:"inactivityReason,omitempty"`
	DaysUntilInactive *int      `json:"daysUntilInactive,omitempty"`
	Expiry            string    `json:"expiry,omitempty"`
	Country           string    `json:"country"`
	State             string    `json:"state"`
	Address           string    `json:"address"`
	GovernmentIDProof string    `json:"governmentIdProof"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ParticipantListResponse wraps a paginated participant listing.
type ParticipantListResponse struct {
	Items      []ParticipantResponse `json:"items"`
	Pagination PaginationMeta        `json:"pagination"`
}

// NewParticipantResponse converts a participant model into a DTO; today feeds the expiry fields.
func NewParticipantResponse(participant models.Participant, today time.Time) ParticipantResponse {
	joined := time.Time(participant.DateOfJoining)
	inactiveOn := participant.InactiveOnTime()

	var inactiveOnValue *string
	if inactiveOn != nil {
		formatted := lifecycle.FormatDate(inactiveOn)
		inactiveOnValue = &formatted
	}

	return ParticipantResponse{
		ID:                participant.ID,
		Name:              participant.Name,
		PhoneNumber:       participant.PhoneNumber,
		Email:             participant.Email,
		Type:              participant.Type,
		AmountPaid:        participant.AmountPaid,
		DueAmount:         participant.DueAmount,
		Discount:          participant.Discount,
		IncentivesPaid:    participant.IncentivesPaid,
		DateOfJoining:     lifecycle.FormatDate(&joined),
		InactiveOn:        inactiveOnValue,
		ActivityStatus:    participant.ActivityStatus,
		InactivityReason:  participant.InactivityReason,
		DaysUntilInactive: lifecycle.DaysUntil(inactiveOn, today),
		Expiry:            lifecycle.ExpiryLabel(inactiveOn, today),
		Country:           participant.Country,
		State:             participant.State,
		Address:           participant.Address,
		GovernmentIDProof: participant.GovernmentIDProof,
		CreatedAt:         participant.CreatedAt,
		UpdatedAt:         participant.UpdatedAt,
	}
}
