package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/rpchub/internal/domain/synchronizer"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

var (
	// ErrSlowConsumer is returned by Push when the outgoing queue is full
	ErrSlowConsumer = errors.New("websocket client send buffer full")
	// ErrClientClosed is returned by Push after the connection has ended
	ErrClientClosed = errors.New("websocket client closed")
)

// Dispatcher executes RPC requests
type Dispatcher interface {
	Dispatch(ctx context.Context, req *types.RPCRequest) *types.RPCResponse
}

// Emitter broadcasts events to registered listeners
type Emitter interface {
	EmitEvent(event types.Event)
}

// Hub delivers registry snapshots to subscribed clients
type Hub interface {
	Subscribe(sink synchronizer.Sink) id.SubscriptionID
	Unsubscribe(subID id.SubscriptionID)
}

// Handler manages WebSocket connections
type Handler struct {
	dispatcher Dispatcher
	emitter    Emitter
	hub        Hub
	upgrader   websocket.Upgrader
	logger     *zap.Logger
	metrics    *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler
func NewHandler(dispatcher Dispatcher, emitter Emitter, hub Hub, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		dispatcher: dispatcher,
		emitter:    emitter,
		hub:        hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// WithMetrics adds metrics tracking to the handler
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// client is one connection. Outgoing frames go through send so that sync
// pushes from the synchronizer never touch the socket directly.
type client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	metrics *monitoring.Metrics
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *client) enqueue(msgType string, v interface{}) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.send <- data:
		if c.metrics != nil {
			c.metrics.RecordWSMessage("out", msgType)
		}
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		return ErrSlowConsumer
	}
}

// Push implements the synchronizer sink
func (c *client) Push(msg types.SyncMessage) error {
	return c.enqueue(msg.Type, msg)
}

func (c *client) writeLoop(logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debug("WebSocket write failed", zap.String("connection", c.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		metrics: h.metrics,
	}
	logger := h.logger.With(zap.String("connection", cl.id))

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}
	logger.Info("WebSocket client connected")

	go cl.writeLoop(logger)
	defer cl.close()

	cl.enqueue("system", map[string]interface{}{
		"type":       "system",
		"message":    "Connected to RPC service hub",
		"connection": cl.id,
	})

	subID := h.hub.Subscribe(cl)
	defer h.hub.Unsubscribe(subID)

	conn.SetReadLimit(utils.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := c.Request.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket read error", zap.Error(err))
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg types.WSMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.sendError(cl, "invalid message")
			continue
		}
		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", msg.Type)
		}

		switch msg.Type {
		case "rpc":
			h.handleRPC(ctx, cl, msg)
		case "event":
			h.handleEvent(cl, msg)
		case "ping":
			cl.enqueue("pong", map[string]interface{}{"type": "pong"})
		default:
			h.sendError(cl, "unknown message type")
		}
	}

	logger.Info("WebSocket client disconnected")
}

func (h *Handler) handleRPC(ctx context.Context, cl *client, msg types.WSMessage) {
	if msg.RPC == nil {
		h.sendError(cl, "rpc frame missing request")
		return
	}
	resp := h.dispatcher.Dispatch(ctx, msg.RPC)
	if resp == nil {
		return
	}
	cl.enqueue("rpc", map[string]interface{}{
		"type":     "rpc",
		"response": resp,
	})
}

func (h *Handler) handleEvent(cl *client, msg types.WSMessage) {
	if msg.Event == nil {
		h.sendError(cl, "event frame missing event")
		return
	}
	if err := utils.ValidateEventName(msg.Event.Name); err != nil {
		h.sendError(cl, err.Error())
		return
	}

	event := *msg.Event
	if event.Source == "" {
		event.Source = cl.id
	}
	h.emitter.EmitEvent(event)
	cl.enqueue("event_ack", map[string]interface{}{
		"type":  "event_ack",
		"event": event.Name,
	})
}

func (h *Handler) sendError(cl *client, message string) {
	cl.enqueue("error", map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}
