package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/participant-registry/internal/dto"
	"github.com/noah-isme/participant-registry/internal/service"
	"github.com/noah-isme/participant-registry/internal/utils"
)

// AuthHandler exposes admin login and logout.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Login(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to sign in")
	}

	return utils.SendSuccess(c, "signed in", response)
}

// Logout handles POST /logout; the route must sit behind JWTProtected.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	tokenID, expiresAt := tokenFromContext(c)
	if err := h.service.Logout(c.UserContext(), activityActorFromContext(c), tokenID, expiresAt); err != nil {
		return respondError(c, h.logger, err, "failed to sign out")
	}

	return utils.SendSuccess(c, "signed out", nil)
}
