package websocket

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learning-session/internal/models"
	"learning-session/internal/pkg/logger"
)

type staticTokens map[string]string

func (s staticTokens) ParseSessionToken(token string) (string, error) {
	id, ok := s[token]
	if !ok {
		return "", errors.New("invalid token")
	}
	return id, nil
}

type liveSessions map[string]bool

func (l liveSessions) Exists(id string) bool { return l[id] }

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(nil, staticTokens{"good": "session-1", "gone": "session-2"}, liveSessions{"session-1": true}, logger.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(srv.Close)
	return hub, srv
}

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=" + token
}

func TestHub_DeliversSessionUpdates(t *testing.T) {
	hub, srv := newTestHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "good"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.connectionCount("session-1") == 1 }, time.Second, 10*time.Millisecond)

	hub.SendToSession("session-1", models.WSMessage{
		Type:    models.MessageSessionUpdated,
		Payload: models.SessionSnapshot{SessionID: "session-1", FileID: "abc123"},
	})

	var msg struct {
		Type    string                 `json:"type"`
		Payload models.SessionSnapshot `json:"payload"`
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, models.MessageSessionUpdated, msg.Type)
	assert.Equal(t, "abc123", msg.Payload.FileID)

	hub.CloseSession("session-1")
	require.Eventually(t, func() bool { return hub.connectionCount("session-1") == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_RejectsUnknownTokens(t *testing.T) {
	_, srv := newTestHub(t)

	tests := []struct {
		token  string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"bad", http.StatusUnauthorized},
		{"gone", http.StatusNotFound},
	}

	for _, tc := range tests {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, tc.token), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, tc.status, resp.StatusCode, tc.token)
		resp.Body.Close()
	}
}
