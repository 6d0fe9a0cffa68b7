package models

import (
	"time"

	"gorm.io/datatypes"
)

// Participant types accepted by the registry.
const (
	ParticipantTypeStudent      = "STUDENT"
	ParticipantTypeEmployee     = "EMPLOYEE"
	ParticipantTypeMentor       = "MENTOR"
	ParticipantTypeLearner      = "LEARNER"
	ParticipantTypeJobSeeker    = "JOB_SEEKER"
	ParticipantTypePaidIntern   = "PAID_INTERN"
	ParticipantTypeUnpaidIntern = "UNPAID_INTERN"
)

// Activity statuses stored on a participant.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Participant is a person tracked by the program (student, mentor, intern, ...).
type Participant struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Name              string          `gorm:"size:255;not null" json:"name"`
	PhoneNumber       string          `gorm:"size:12;uniqueIndex;not null" json:"phoneNumber"`
	Email             string          `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Type              string          `gorm:"size:32;not null" json:"type"`
	AmountPaid        float64         `gorm:"not null;default:0" json:"amountPaid"`
	DueAmount         float64         `gorm:"not null;default:0" json:"dueAmount"`
	Discount          float64         `gorm:"not null;default:0" json:"discount"`
	IncentivesPaid    float64         `gorm:"not null;default:0" json:"incentivesPaid"`
	DateOfJoining     datatypes.Date  `gorm:"not null" json:"dateOfJoining"`
	InactiveOn        *datatypes.Date `json:"inactiveOn"`
	ActivityStatus    string          `gorm:"size:16;not null;default:ACTIVE;index" json:"activityStatus"`
	InactivityReason  string          `gorm:"type:text" json:"inactivityReason"`
	Country           string          `gorm:"size:128;not null" json:"country"`
	State             string          `gorm:"size:128;not null" json:"state"`
	Address           string          `gorm:"type:text;not null" json:"address"`
	GovernmentIDProof string          `gorm:"column:government_id_proof;size:255;not null" json:"governmentIdProof"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// InactiveOnTime returns the scheduled deactivation date, if any.
func (p Participant) InactiveOnTime() *time.Time {
	if p.InactiveOn == nil {
		return nil
	}
	t := time.Time(*p.InactiveOn)
	return &t
}
