package dto

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/participant-registry/internal/models"
)

// ActivityLogListRequest carries the raw query parameters of the logs view.
type ActivityLogListRequest struct {
	Action string
	From   string
	To     string
	Search string
	Mode   string
}

// ActivityLogCreateRequest captures a manually appended log entry.
type ActivityLogCreateRequest struct {
	AdminName   string                 `json:"adminName" validate:"omitempty,max=255"`
	AdminEmail  string                 `json:"adminEmail" validate:"omitempty,email,max=255"`
	Action      string                 `json:"action" validate:"required,oneof=LOGIN LOGOUT ADD EDIT DELETE"`
	StudentName string                 `json:"studentName" validate:"omitempty,max=255"`
	StudentID   *uint                  `json:"studentId"`
	Details     string                 `json:"details" validate:"omitempty,max=5000"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// ActivityLogResponse serializes an activity log entry.
type ActivityLogResponse struct {
	ID          uint                   `json:"id"`
	AdminName   string                 `json:"adminName"`
	AdminEmail  string                 `json:"adminEmail"`
	Action      string                 `json:"action"`
	StudentName string                 `json:"studentName,omitempty"`
	StudentID   *uint                  `json:"studentId,omitempty"`
	Details     string                 `json:"details"`
	Metadata    map[string]interface{} `json:"metadata"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// ActivityLogListResponse wraps the displayed log entries.
type ActivityLogListResponse struct {
	Items []ActivityLogResponse `json:"items"`
	Mode  string                `json:"mode"`
	// Matched counts the entries that passed the filters before any sampling.
	Matched int `json:"matched"`
}

// NewActivityLogResponse converts a model into an activity log DTO.
func NewActivityLogResponse(entry models.ActivityLog) ActivityLogResponse {
	return ActivityLogResponse{
		ID:          entry.ID,
		AdminName:   entry.AdminName,
		AdminEmail:  entry.AdminEmail,
		Action:      entry.Action,
		StudentName: entry.StudentName,
		StudentID:   entry.StudentID,
		Details:     entry.Details,
		Metadata:    metadataFromJSON(entry.Metadata),
		CreatedAt:   entry.CreatedAt,
	}
}

// NewActivityLogResponses converts a slice of models.
func NewActivityLogResponses(entries []models.ActivityLog) []ActivityLogResponse {
	responses := make([]ActivityLogResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, NewActivityLogResponse(entry))
	}
	return responses
}

func metadataFromJSON(data datatypes.JSONMap) map[string]interface{} {
	if data == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}(data)
}
