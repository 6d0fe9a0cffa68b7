package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesRegistryCollectors(t *testing.T) {
	ParticipantsDeactivated().WithLabelValues("read").Inc()
	ActivityLogsRecorded().WithLabelValues("ADD").Inc()

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	require.True(t, strings.Contains(text, "registry_participants_deactivated_total"))
	require.True(t, strings.Contains(text, `registry_activity_logs_recorded_total{action="ADD"}`))
}
