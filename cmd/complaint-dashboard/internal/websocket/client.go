package websocket

import (
	"sync"
	"time"

	"complaintdash/cmd/complaint-dashboard/internal/service"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// writeWait 写入超时
	writeWait = 10 * time.Second

	// pongWait Pong超时
	pongWait = 60 * time.Second

	// pingPeriod Ping周期（必须小于pongWait）
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize 最大入站消息大小
	maxMessageSize = 64 * 1024
)

// Client WebSocket客户端
type Client struct {
	ID          string
	ConnectedAt time.Time
	Conn        *websocket.Conn
	Send        chan []byte
	Hub         *Hub
	logger      *zap.Logger

	mu        sync.Mutex
	closed    bool
	selection *service.DashboardRequest
}

// NewClient 创建新的WebSocket客户端
func NewClient(id string, conn *websocket.Conn, hub *Hub, bufferSize int, logger *zap.Logger) *Client {
	return &Client{
		ID:          id,
		ConnectedAt: time.Now(),
		Conn:        conn,
		Send:        make(chan []byte, bufferSize),
		Hub:         hub,
		logger:      logger.With(zap.String("module", "ws-client"), zap.String("client_id", id)),
	}
}

// ReadPump 从WebSocket读取消息
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregisterClient(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		c.Hub.HandleMessage(c, message)
	}
}

// WritePump 向WebSocket写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// 每条消息单独一帧，客户端按帧解析 JSON
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 发送消息给客户端（不阻塞）
func (c *Client) SendMessage(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.Send <- message:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Selection 最近一次筛选条件
func (c *Client) Selection() (service.DashboardRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selection == nil {
		return service.DashboardRequest{}, false
	}
	return *c.selection, true
}

func (c *Client) setSelection(req service.DashboardRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = &req
}

// closeSend 关闭发送通道，WritePump 随之退出
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}
