package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"complaintdash/cmd/complaint-dashboard/internal/domain"
	"complaintdash/cmd/complaint-dashboard/internal/service"
	"complaintdash/pkg/monitoring"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// DashboardProvider 看板计算接口
type DashboardProvider interface {
	GetDashboard(ctx context.Context, req service.DashboardRequest) (*domain.Dashboard, error)
}

// HubConfig WebSocket Hub 配置
type HubConfig struct {
	MaxConnections int
	SendBufferSize int
	AllowedOrigins []string // 为空时允许所有来源
	ComputeTimeout time.Duration
}

// Hub WebSocket连接管理中心
//
// 每个客户端记住最近一次筛选条件，快照重新加载后按该条件重新计算并推送。
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	provider DashboardProvider
	config   HubConfig
	upgrader websocket.Upgrader
	logger   *zap.Logger

	refresh chan struct{}
	done    chan struct{}
	stopped bool
}

// NewHub 创建新的Hub
func NewHub(provider DashboardProvider, config HubConfig, logger *zap.Logger) *Hub {
	if config.MaxConnections <= 0 {
		config.MaxConnections = 1000
	}
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = 16
	}
	if config.ComputeTimeout <= 0 {
		config.ComputeTimeout = 10 * time.Second
	}

	h := &Hub{
		clients:  make(map[string]*Client),
		provider: provider,
		config:   config,
		logger:   logger.With(zap.String("module", "ws-hub")),
		refresh:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Run 运行Hub，阻塞直到 ctx 结束；退出时关闭所有客户端
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Hub shutting down")
			return

		case <-h.refresh:
			h.pushAll(ctx)
		}
	}
}

// Refresh 请求向所有客户端重新推送（合并重复请求）
func (h *Hub) Refresh() {
	select {
	case h.refresh <- struct{}{}:
	default:
	}
}

// OnSnapshotReload 快照重新加载回调
func (h *Hub) OnSnapshotReload(table *domain.Table) {
	h.logger.Info("Snapshot reloaded, refreshing clients",
		zap.String("version", table.Version),
		zap.Int("clients", h.ClientCount()),
	)
	h.Refresh()
}

// ServeWS 升级连接并启动读写循环
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade: %w", err)
	}

	client := NewClient(uuid.New().String(), conn, h, h.config.SendBufferSize, h.logger)
	if err := h.registerClient(client); err != nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.TextMessage, encodeText(MessageTypeConnectionRejected, err.Error()))
		conn.Close()
		return nil
	}

	go client.WritePump()
	go client.ReadPump()
	return nil
}

// registerClient 注册客户端
func (h *Hub) registerClient(client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return ErrHubStopped
	}
	if len(h.clients) >= h.config.MaxConnections {
		h.logger.Warn("Rejected connection: max connections reached", zap.Int("max", h.config.MaxConnections))
		return errors.New("server connection limit reached")
	}

	h.clients[client.ID] = client
	monitoring.WebsocketConnections.Inc()
	h.logger.Info("WebSocket client registered", zap.String("client_id", client.ID))

	welcome, _ := encode(MessageTypeWelcome, map[string]interface{}{
		"client_id": client.ID,
	})
	client.SendMessage(welcome)
	return nil
}

// unregisterClient 注销客户端
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		client.closeSend()
		monitoring.WebsocketConnections.Dec()
		h.logger.Info("WebSocket client unregistered", zap.String("client_id", client.ID))
	}
}

// shutdown 关闭所有客户端
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopped = true
	for id, client := range h.clients {
		delete(h.clients, id)
		client.closeSend()
		monitoring.WebsocketConnections.Dec()
	}
	close(h.done)
}

// Done Hub 停止后关闭
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleMessage 处理客户端消息
func (h *Hub) HandleMessage(client *Client, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		client.SendMessage(encodeText(MessageTypeError, fmt.Sprintf("%v: %v", ErrInvalidMessage, err)))
		return
	}

	switch msg.Type {
	case MessageTypePing:
		pong, _ := encode(MessageTypePong, nil)
		client.SendMessage(pong)
	case MessageTypeFilter:
		h.handleFilter(client, msg.Data)
	default:
		client.SendMessage(encodeText(MessageTypeError, fmt.Sprintf("unknown message type %q", msg.Type)))
	}
}

// handleFilter 记住筛选条件并立即推送看板
func (h *Hub) handleFilter(client *Client, data json.RawMessage) {
	var req service.DashboardRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			client.SendMessage(encodeText(MessageTypeError, fmt.Sprintf("%v: %v", ErrInvalidMessage, err)))
			return
		}
	}

	// 先记住筛选条件，快照暂不可用时也能在重新加载后收到推送
	client.setSelection(req)

	ctx, cancel := context.WithTimeout(context.Background(), h.config.ComputeTimeout)
	defer cancel()

	if err := h.push(ctx, client, req); err != nil {
		client.SendMessage(encodeText(MessageTypeError, err.Error()))
	}
}

// pushAll 按各客户端的筛选条件重新推送
func (h *Hub) pushAll(ctx context.Context) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		req, ok := client.Selection()
		if !ok {
			continue
		}

		pushCtx, cancel := context.WithTimeout(ctx, h.config.ComputeTimeout)
		if err := h.push(pushCtx, client, req); err != nil {
			h.logger.Warn("Failed to push dashboard", zap.String("client_id", client.ID), zap.Error(err))
		}
		cancel()
	}
}

func (h *Hub) push(ctx context.Context, client *Client, req service.DashboardRequest) error {
	dashboard, err := h.provider.GetDashboard(ctx, req)
	if err != nil {
		return err
	}

	msg, err := encode(MessageTypeDashboard, dashboard)
	if err != nil {
		return err
	}
	if err := client.SendMessage(msg); err != nil && !errors.Is(err, ErrClientClosed) {
		return err
	}
	return nil
}

// checkOrigin 来源白名单（为空时全部允许）
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.config.AllowedOrigins) == 0 {
		return true
	}
	if lo.Contains(h.config.AllowedOrigins, origin) {
		return true
	}
	h.logger.Warn("Rejected WebSocket connection from origin", zap.String("origin", origin))
	return false
}
