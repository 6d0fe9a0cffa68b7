// Package logselect shapes the activity log for display: filtering by action,
// date range and admin, then ordering either newest-first or by the
// priority quota scheme.
package logselect

import (
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/participant-registry/internal/lifecycle"
	"github.com/noah-isme/participant-registry/internal/models"
)

// ActionAll disables the action filter.
const ActionAll = "ALL"

// Presentation modes.
const (
	ModeRecent      = "recent"
	ModePrioritized = "prioritized"
)

// Quota percentages for the high and medium classes; low gets the remainder.
const (
	highQuotaPercent   = 50
	mediumQuotaPercent = 30
)

// Filter narrows and orders the log entries.
type Filter struct {
	Action   string
	From     *time.Time
	To       *time.Time
	Search   string
	Mode     string
	Location *time.Location
}

// Select returns the entries to display for the filter.
func Select(logs []models.ActivityLog, filter Filter) []models.ActivityLog {
	filtered := Apply(logs, filter)

	if NormalizeMode(filter.Mode) == ModePrioritized {
		return Prioritize(filtered)
	}

	SortRecent(filtered)
	return filtered
}

// Apply keeps entries matching the action, the inclusive day range and the admin search.
func Apply(logs []models.ActivityLog, filter Filter) []models.ActivityLog {
	action := NormalizeAction(filter.Action)
	query := strings.ToLower(strings.TrimSpace(filter.Search))

	var from, to time.Time
	if filter.From != nil {
		from = lifecycle.CalendarDay(*filter.From)
	}
	if filter.To != nil {
		to = lifecycle.CalendarDay(*filter.To)
	}

	result := make([]models.ActivityLog, 0, len(logs))
	for _, entry := range logs {
		if action != ActionAll && strings.ToUpper(entry.Action) != action {
			continue
		}

		if query != "" &&
			!strings.Contains(strings.ToLower(entry.AdminName), query) &&
			!strings.Contains(strings.ToLower(entry.AdminEmail), query) {
			continue
		}

		if filter.From != nil || filter.To != nil {
			if entry.CreatedAt.IsZero() {
				continue
			}
			entryDay := lifecycle.DayIn(entry.CreatedAt, filter.Location)
			if filter.From != nil && entryDay.Before(from) {
				continue
			}
			if filter.To != nil && entryDay.After(to) {
				continue
			}
		}

		result = append(result, entry)
	}

	return result
}

// Prioritize samples the entries by class: ADD/EDIT first, then DELETE, then
// LOGIN/LOGOUT. Quotas are ceil(50%) and ceil(30%) of the total with the
// remainder for the low class; a class smaller than its quota leaves the
// slots empty. Quotas come from the total across classes, so a single-class
// input is capped at its own class quota.
func Prioritize(logs []models.ActivityLog) []models.ActivityLog {
	total := len(logs)
	if total == 0 {
		return []models.ActivityLog{}
	}

	var high, medium, low []models.ActivityLog
	for _, entry := range logs {
		switch Priority(entry.Action) {
		case PriorityHigh:
			high = append(high, entry)
		case PriorityMedium:
			medium = append(medium, entry)
		default:
			low = append(low, entry)
		}
	}

	highQuota, mediumQuota, lowQuota := Quotas(total)

	result := make([]models.ActivityLog, 0, total)
	result = append(result, head(high, highQuota)...)
	result = append(result, head(medium, mediumQuota)...)
	result = append(result, head(low, lowQuota)...)
	return result
}

// Quotas returns the per-class target counts for total entries.
func Quotas(total int) (high, medium, low int) {
	if total <= 0 {
		return 0, 0, 0
	}
	high = ceilPercent(total, highQuotaPercent)
	medium = ceilPercent(total, mediumQuotaPercent)
	low = total - high - medium
	if low < 0 {
		low = 0
	}
	return high, medium, low
}

// Priority classes.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Priority classifies an action.
func Priority(action string) string {
	switch strings.ToUpper(strings.TrimSpace(action)) {
	case models.ActionAdd, models.ActionEdit:
		return PriorityHigh
	case models.ActionDelete:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// SortRecent orders entries by creation time, newest first. Ties keep their order.
func SortRecent(logs []models.ActivityLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].CreatedAt.After(logs[j].CreatedAt)
	})
}

// NormalizeAction upper-cases the action; empty means ALL.
func NormalizeAction(action string) string {
	action = strings.ToUpper(strings.TrimSpace(action))
	if action == "" {
		return ActionAll
	}
	return action
}

// NormalizeMode falls back to the recent mode for unknown values.
func NormalizeMode(mode string) string {
	if strings.EqualFold(strings.TrimSpace(mode), ModePrioritized) {
		return ModePrioritized
	}
	return ModeRecent
}

// IsValidAction reports whether action is ALL or a recorded admin action.
func IsValidAction(action string) bool {
	switch NormalizeAction(action) {
	case ActionAll, models.ActionLogin, models.ActionLogout, models.ActionAdd, models.ActionEdit, models.ActionDelete:
		return true
	default:
		return false
	}
}

func ceilPercent(total, percent int) int {
	return (total*percent + 99) / 100
}

func head(entries []models.ActivityLog, n int) []models.ActivityLog {
	if n > len(entries) {
		n = len(entries)
	}
	return entries[:n]
}
