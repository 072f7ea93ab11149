package websocket

import (
	"encoding/json"
	"time"
)

// Message WebSocket消息
type Message struct {
	Type      string          `json:"type"`              // filter, dashboard, ping, pong, error, etc.
	Content   string          `json:"content,omitempty"` // 文本内容（错误描述等）
	Data      json.RawMessage `json:"data,omitempty"`    // 负载
	Timestamp int64           `json:"timestamp"`
}

// MessageType 消息类型常量
const (
	MessageTypeFilter             = "filter"
	MessageTypeDashboard          = "dashboard"
	MessageTypePing               = "ping"
	MessageTypePong               = "pong"
	MessageTypeWelcome            = "welcome"
	MessageTypeError              = "error"
	MessageTypeConnectionRejected = "connection_rejected"
)

// encode 构造出站消息
func encode(msgType string, data interface{}) ([]byte, error) {
	msg := Message{Type: msgType, Timestamp: time.Now().Unix()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}

// encodeText 构造带文本内容的出站消息
func encodeText(msgType, content string) []byte {
	msgBytes, _ := json.Marshal(Message{
		Type:      msgType,
		Content:   content,
		Timestamp: time.Now().Unix(),
	})
	return msgBytes
}
