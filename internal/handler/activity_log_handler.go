package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/participant-registry/internal/dto"
	"github.com/noah-isme/participant-registry/internal/service"
	"github.com/noah-isme/participant-registry/internal/utils"
)

const streamPingInterval = 30 * time.Second

// ActivityLogHandler wires the /logs endpoints including the live stream.
type ActivityLogHandler struct {
	service service.ActivityLogService
	logger  zerolog.Logger
}

// NewActivityLogHandler constructs the handler.
func NewActivityLogHandler(service service.ActivityLogService, logger zerolog.Logger) *ActivityLogHandler {
	return &ActivityLogHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_log_handler").Logger(),
	}
}

// Register attaches activity log routes to the router group.
func (h *ActivityLogHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Delete("", h.clear)

	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("admin", activityActorFromContext(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.stream))
}

func (h *ActivityLogHandler) list(c *fiber.Ctx) error {
	response, err := h.service.List(c.UserContext(), dto.ActivityLogListRequest{
		Action: c.Query("action"),
		From:   c.Query("from"),
		To:     c.Query("to"),
		Search: c.Query("search"),
		Mode:   c.Query("mode"),
	})
	if err != nil {
		return respondError(c, h.logger, err, "failed to list activity logs")
	}

	return utils.OK(c, response.Items, "activity logs retrieved", fiber.Map{
		"mode":    response.Mode,
		"matched": response.Matched,
		"count":   len(response.Items),
	})
}

func (h *ActivityLogHandler) create(c *fiber.Ctx) error {
	var payload dto.ActivityLogCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	entry, err := h.service.Create(c.UserContext(), activityActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create activity log")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity log recorded", entry)
}

func (h *ActivityLogHandler) clear(c *fiber.Ctx) error {
	removed, err := h.service.Clear(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to clear activity logs")
	}

	actor := activityActorFromContext(c)
	requestLogger(h.logger, c).Info().Str("admin_email", actor.Email).Int64("removed", removed).Msg("activity logs cleared")
	return utils.SendSuccess(c, "activity logs cleared", fiber.Map{"removed": removed})
}

// stream pushes every newly recorded entry to the connected admin until
// either side closes the connection.
func (h *ActivityLogHandler) stream(conn *websocket.Conn) {
	actor, _ := conn.Locals("admin").(service.ActivityActor)
	logger := h.logger.With().Str("admin_email", actor.Email).Logger()

	entries, cleanup := h.service.Subscribe()
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	logger.Info().Msg("activity stream connected")
	defer logger.Info().Msg("activity stream disconnected")

	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if err := conn.WriteJSON(entry); err != nil {
				logger.Debug().Err(err).Msg("activity stream write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
