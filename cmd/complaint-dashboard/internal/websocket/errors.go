package websocket

import "errors"

var (
	// ErrSendBufferFull 发送缓冲区已满
	ErrSendBufferFull = errors.New("send buffer is full")

	// ErrClientClosed 客户端已关闭
	ErrClientClosed = errors.New("client is closed")

	// ErrInvalidMessage 无效的消息
	ErrInvalidMessage = errors.New("invalid message")

	// ErrHubStopped Hub 已停止
	ErrHubStopped = errors.New("hub is stopped")
)
