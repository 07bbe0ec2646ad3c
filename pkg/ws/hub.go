package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MessageType WebSocket 消息类型
const (
	MsgTypeInit     = "init"      // 初始化数据（最近的任务）
	MsgTypeRunState = "run_state" // 任务状态变化
	MsgTypeSamples  = "samples"   // 采样数据分批推送
	MsgTypeError    = "error"     // 错误消息
)

// Message WebSocket 消息结构
type Message struct {
	Type  string      `json:"type"`
	RunID string      `json:"run_id,omitempty"`
	Data  interface{} `json:"data"`
}

// InitData 初始化数据
type InitData struct {
	Runs interface{} `json:"runs"`
}

// envelope 广播内容，runID 为空表示发给所有客户端
type envelope struct {
	runID string
	data  []byte
}

// Client WebSocket 客户端
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	runID string // 只接收该任务的消息，为空时接收全部
}

// Hub WebSocket 连接管理中心
type Hub struct {
	logger     *zap.Logger
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex

	// 初始数据提供者回调
	getInitData func() *InitData
}

// NewHub 创建 Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// SetInitDataProvider 设置初始数据提供者
func (h *Hub) SetInitDataProvider(provider func() *InitData) {
	h.getInitData = provider
}

// Run 运行 Hub，直到 Stop 被调用
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("WebSocket client connected", zap.Int("total_clients", total), zap.String("run_id", client.runID))

			// 发送初始数据
			h.sendInitData(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("WebSocket client disconnected", zap.Int("total_clients", total))

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if msg.runID != "" && client.runID != "" && client.runID != msg.runID {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// 慢消费者，关闭连接
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop 停止 Hub 并关闭所有客户端
func (h *Hub) Stop() {
	close(h.done)
}

// sendInitData 发送初始数据给新连接的客户端
func (h *Hub) sendInitData(client *Client) {
	if h.getInitData == nil {
		h.logger.Debug("No init data provider set")
		return
	}

	initData := h.getInitData()
	if initData == nil {
		h.logger.Warn("Init data provider returned nil")
		return
	}

	data, err := json.Marshal(Message{Type: MsgTypeInit, Data: initData})
	if err != nil {
		h.logger.Error("Failed to marshal init data", zap.Error(err))
		return
	}

	select {
	case client.send <- data:
		h.logger.Debug("Sent init data to client")
	default:
		h.logger.Warn("Failed to send init data, client buffer full")
	}
}

// BroadcastRunMessage 广播任务相关的结构化消息
func (h *Hub) BroadcastRunMessage(runID, msgType string, data interface{}) {
	jsonData, err := json.Marshal(Message{Type: msgType, RunID: runID, Data: data})
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- envelope{runID: runID, data: jsonData}:
	case <-h.done:
	}
}

// ClientCount 获取客户端数量
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NewClient 创建客户端，runID 为空时订阅全部任务
func NewClient(hub *Hub, conn *websocket.Conn, runID string) *Client {
	return &Client{
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, 256),
		runID: runID,
	}
}

// Register 注册客户端
func (c *Client) Register() {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		close(c.send)
	}
}

// Unregister 注销客户端
func (c *Client) Unregister() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// ReadPump 读取消息（保持连接活跃）
func (c *Client) ReadPump() {
	defer func() {
		c.Unregister()
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// WritePump 发送消息
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
}
