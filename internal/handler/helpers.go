package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/participant-registry/internal/middleware"
	"github.com/noah-isme/participant-registry/internal/service"
	"github.com/noah-isme/participant-registry/internal/utils"
)

// FieldError describes one failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(c.Params(name)), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func activityActorFromContext(c *fiber.Ctx) service.ActivityActor {
	name, _ := c.Locals(middleware.LocalAdminName).(string)
	email, _ := c.Locals(middleware.LocalAdminEmail).(string)
	return service.ActivityActor{Name: name, Email: email}
}

func tokenFromContext(c *fiber.Ctx) (string, time.Time) {
	id, _ := c.Locals(middleware.LocalTokenID).(string)
	expiresAt, _ := c.Locals(middleware.LocalTokenExpiresAt).(time.Time)
	return id, expiresAt
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// respondError maps service errors onto HTTP statuses. Unknown errors are
// logged and hidden behind a generic 500 message.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, failure string) error {
	var validationErrs validator.ValidationErrors
	var ruleErr *service.ValidationError
	var conflict *service.ConflictError

	switch {
	case errors.As(err, &validationErrs):
		details := make([]FieldError, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			details = append(details, FieldError{Field: lowerFirst(fieldErr.Field()), Rule: fieldErr.Tag()})
		}
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	case errors.As(err, &ruleErr):
		return utils.Fail(c, fiber.StatusBadRequest, ruleErr.Error(), []FieldError{{Field: ruleErr.Field, Rule: "invalid"}})
	case errors.As(err, &conflict):
		return utils.Fail(c, fiber.StatusConflict, conflict.Error(), fiber.Map{"field": conflict.Field})
	case errors.Is(err, service.ErrParticipantNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	default:
		requestLogger(logger, c).Error().Err(err).Msg(failure)
		return utils.SendError(c, fiber.StatusInternalServerError, failure)
	}
}

func lowerFirst(value string) string {
	if value == "" {
		return value
	}
	return strings.ToLower(value[:1]) + value[1:]
}
