package adapter

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"yuxian/internal/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 管理端页面与 API 不同源，放开跨域检查
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub 维护管理端的 WebSocket 连接并向其广播订单事件。
// 身份鉴权在外层网关完成，这里只根据握手参数区分管理员连接。
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	lock    sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn    *websocket.Conn
	send    chan []byte
	isAdmin bool
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[*client]struct{}),
	}
}

// Run 是 Hub 的主循环，负责连接注册、注销和事件分发，ctx 取消后退出。
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil
		case c := <-h.register:
			h.lock.Lock()
			h.clients[c] = struct{}{}
			h.lock.Unlock()
			logger.Logger.Info().Bool("admin", c.isAdmin).Int("online", h.online()).Msg("websocket client connected")
		case c := <-h.unregister:
			h.lock.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.lock.Unlock()
			logger.Logger.Info().Int("online", h.online()).Msg("websocket client disconnected")
		case message := <-h.broadcast:
			h.lock.RLock()
			for c := range h.clients {
				if !c.isAdmin {
					continue
				}
				select {
				case c.send <- message:
				default:
					// 发送缓冲已满的连接直接放弃本条消息
				}
			}
			h.lock.RUnlock()
		}
	}
}

// Broadcast 把一条事件送入分发队列；队列满时丢弃，不阻塞调用方。
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		logger.Logger.Warn().Msg("websocket broadcast queue full, event dropped")
	}
}

func (h *Hub) online() int {
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.lock.Lock()
	defer h.lock.Unlock()
	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

// ServeWS 处理 /ws/orders 的握手升级。
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{
		conn:    conn,
		send:    make(chan []byte, 16),
		isAdmin: r.URL.Query().Get("role") == "admin",
	}
	h.register <- c

	go c.writePump()
	go c.readPump(h)
}

func (c *client) writePump() {
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump 消费心跳等入站消息，连接断开时向 Hub 注销自己。
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		_ = c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
