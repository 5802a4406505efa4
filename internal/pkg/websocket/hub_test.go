package websocket

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unievents/internal/app/models"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(zerolog.New(io.Discard))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	handler := NewHandler(hub, zerolog.New(io.Discard))
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set("userID", int64(7))
		c.Next()
	}, handler.HandleConnection)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv
}

func TestHub_PushesToConnectedUser(t *testing.T) {
	hub, srv := startHub(t)

	conn, _, err := gorillaws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ConnectedCount(7) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.PushNotification(&models.Notification{ID: 1, UserID: 99, Message: "not yours"})
	hub.PushNotification(&models.Notification{ID: 2, UserID: 7, Message: "hello", NotificationType: models.NotificationAdmin})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "notification", msg.Type)
	require.NotNil(t, msg.Notification)
	assert.Equal(t, int64(2), msg.Notification.ID)
	assert.Equal(t, "hello", msg.Notification.Message)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub, srv := startHub(t)

	conn, _, err := gorillaws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ConnectedCount(7) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ConnectedCount(7) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PushWithoutListenersDoesNotBlock(t *testing.T) {
	hub := NewHub(zerolog.New(io.Discard))
	// Run is not started: the queue fills and further pushes are skipped
	for i := 0; i < 1000; i++ {
		hub.PushNotification(&models.Notification{UserID: 1})
	}
	assert.Equal(t, 0, hub.ConnectedCount(1))
}
