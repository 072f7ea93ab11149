package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"complaintdash/cmd/complaint-dashboard/internal/domain"
	"complaintdash/cmd/complaint-dashboard/internal/service"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

// MockProvider 模拟看板计算，FilteredCount 取所选来源数量
type MockProvider struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *MockProvider) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockProvider) GetDashboard(ctx context.Context, req service.DashboardRequest) (*domain.Dashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Dashboard{FilteredCount: len(req.Origins)}, nil
}

func dial(t *testing.T, srv *httptest.Server) *gws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	return conn
}

func readMessage(t *testing.T, conn *gws.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func sendJSON(t *testing.T, conn *gws.Conn, v interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

func TestHub_LiveFeed(t *testing.T) {
	defer goleak.VerifyNone(t)

	provider := &MockProvider{}
	hub := NewHub(provider, HubConfig{MaxConnections: 1}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r)
	}))

	conn := dial(t, srv)

	t.Run("Welcome", func(t *testing.T) {
		msg := readMessage(t, conn)
		assert.Equal(t, MessageTypeWelcome, msg.Type)
		assert.Equal(t, 1, hub.ClientCount())
	})

	t.Run("PingPong", func(t *testing.T) {
		sendJSON(t, conn, Message{Type: MessageTypePing})
		assert.Equal(t, MessageTypePong, readMessage(t, conn).Type)
	})

	t.Run("Filter", func(t *testing.T) {
		sendJSON(t, conn, map[string]interface{}{
			"type": MessageTypeFilter,
			"data": map[string]interface{}{"as_of": "2024-03-10", "origins": []string{"Email", "Web"}},
		})

		msg := readMessage(t, conn)
		require.Equal(t, MessageTypeDashboard, msg.Type)

		var d domain.Dashboard
		require.NoError(t, json.Unmarshal(msg.Data, &d))
		assert.Equal(t, 2, d.FilteredCount)
	})

	t.Run("UnknownType", func(t *testing.T) {
		sendJSON(t, conn, Message{Type: "subscribe"})
		msg := readMessage(t, conn)
		assert.Equal(t, MessageTypeError, msg.Type)
		assert.Contains(t, msg.Content, "subscribe")
	})

	t.Run("MalformedMessage", func(t *testing.T) {
		require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte("{not json")))
		msg := readMessage(t, conn)
		assert.Equal(t, MessageTypeError, msg.Type)
		assert.Contains(t, msg.Content, ErrInvalidMessage.Error())
	})

	t.Run("RefreshPushesLastSelection", func(t *testing.T) {
		hub.OnSnapshotReload(&domain.Table{Version: "v2"})

		msg := readMessage(t, conn)
		require.Equal(t, MessageTypeDashboard, msg.Type)

		var d domain.Dashboard
		require.NoError(t, json.Unmarshal(msg.Data, &d))
		assert.Equal(t, 2, d.FilteredCount)
	})

	t.Run("ConnectionLimit", func(t *testing.T) {
		extra := dial(t, srv)
		defer extra.Close()

		msg := readMessage(t, extra)
		assert.Equal(t, MessageTypeConnectionRejected, msg.Type)
		assert.Equal(t, 1, hub.ClientCount())
	})

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-hub.Done()
	srv.Close()
}

func TestHub_ProviderErrorKeepsSelection(t *testing.T) {
	defer goleak.VerifyNone(t)

	provider := &MockProvider{err: errors.New("snapshot unavailable")}
	hub := NewHub(provider, HubConfig{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r)
	}))

	conn := dial(t, srv)
	assert.Equal(t, MessageTypeWelcome, readMessage(t, conn).Type)

	sendJSON(t, conn, map[string]interface{}{
		"type": MessageTypeFilter,
		"data": map[string]interface{}{"origins": []string{"Email"}},
	})
	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeError, msg.Type)
	assert.Contains(t, msg.Content, "snapshot unavailable")

	// 快照恢复后按已记住的筛选条件推送
	provider.setErr(nil)
	hub.OnSnapshotReload(&domain.Table{Version: "v1"})

	msg = readMessage(t, conn)
	require.Equal(t, MessageTypeDashboard, msg.Type)
	var d domain.Dashboard
	require.NoError(t, json.Unmarshal(msg.Data, &d))
	assert.Equal(t, 1, d.FilteredCount)

	// 关闭 Hub 会断开所有客户端
	cancel()
	<-hub.Done()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	conn.Close()
	srv.Close()
}

func TestHub_CheckOrigin(t *testing.T) {
	hub := NewHub(&MockProvider{}, HubConfig{AllowedOrigins: []string{"https://dash.example.com"}}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/ws/dashboard", nil)
	assert.True(t, hub.checkOrigin(req))

	req.Header.Set("Origin", "https://dash.example.com")
	assert.True(t, hub.checkOrigin(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, hub.checkOrigin(req))
}

func TestClient_SendAfterClose(t *testing.T) {
	hub := NewHub(&MockProvider{}, HubConfig{}, zap.NewNop())
	client := NewClient("c1", nil, hub, 1, zap.NewNop())

	require.NoError(t, client.SendMessage([]byte("a")))
	assert.ErrorIs(t, client.SendMessage([]byte("b")), ErrSendBufferFull)

	client.closeSend()
	client.closeSend()
	assert.ErrorIs(t, client.SendMessage([]byte("c")), ErrClientClosed)
}
