package handler

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/participant-registry/internal/dto"
)

func startFiberServer(t *testing.T, app *fiber.App) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	shutdown := func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}

	return "http://" + listener.Addr().String(), shutdown
}

func TestActivityLogStreamDeliversEntries(t *testing.T) {
	stub := &stubActivityLogService{stream: make(chan dto.ActivityLogResponse, 1)}
	baseURL, shutdown := startFiberServer(t, newActivityLogApp(stub))
	defer shutdown()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/v1/logs/ws"
	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}
	conn, resp, err := dialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	stub.stream <- dto.ActivityLogResponse{ID: 11, AdminName: "Admin User", Action: "EDIT", Details: "Updated student Alice"}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var entry dto.ActivityLogResponse
	require.NoError(t, conn.ReadJSON(&entry))
	require.Equal(t, uint(11), entry.ID)
	require.Equal(t, "EDIT", entry.Action)
}
