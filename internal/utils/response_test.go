package utils_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/participant-registry/internal/utils"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

func TestResponseHelpers(t *testing.T) {
	cases := []struct {
		name    string
		handler fiber.Handler
		status  int
		success bool
		message string
		data    string
		meta    string
		details string
	}{
		{
			name:    "ok with meta",
			handler: func(c *fiber.Ctx) error { return utils.OK(c, []int{}, "", fiber.Map{"page": 1}) },
			status:  fiber.StatusOK,
			success: true,
			message: "success",
			data:    `[]`,
			meta:    `{"page":1}`,
		},
		{
			name: "created",
			handler: func(c *fiber.Ctx) error {
				return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student created", fiber.Map{"id": 7})
			},
			status:  fiber.StatusCreated,
			success: true,
			message: "student created",
			data:    `{"id":7}`,
		},
		{
			name:    "error without details",
			handler: func(c *fiber.Ctx) error { return utils.SendError(c, fiber.StatusNotFound, "student not found") },
			status:  fiber.StatusNotFound,
			message: "student not found",
			data:    `null`,
		},
		{
			name: "error with details",
			handler: func(c *fiber.Ctx) error {
				return utils.Fail(c, fiber.StatusConflict, "", fiber.Map{"field": "phoneNumber"})
			},
			status:  fiber.StatusConflict,
			message: "error",
			data:    `null`,
			details: `{"field":"phoneNumber"}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", tc.handler)

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tc.status, resp.StatusCode)

			var payload envelope
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
			require.Equal(t, tc.success, payload.Success)
			require.Equal(t, tc.message, payload.Message)
			require.JSONEq(t, tc.data, string(payload.Data))
			if tc.meta == "" {
				require.Empty(t, payload.Meta)
			} else {
				require.JSONEq(t, tc.meta, string(payload.Meta))
			}
			if tc.details == "" {
				require.Empty(t, payload.Details)
			} else {
				require.JSONEq(t, tc.details, string(payload.Details))
			}
		})
	}
}
