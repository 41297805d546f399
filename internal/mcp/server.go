package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xkilldash9x/otto-cli/internal/config"
	"github.com/xkilldash9x/otto-cli/internal/store"
	"github.com/xkilldash9x/otto-cli/internal/tools"
)

// --- WebSocket Definitions and Configuration ---

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The server listens on loopback; any local page may open a chat.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// MessageType defines the kind of message being sent.
type MessageType string

const (
	MsgTypeUserPrompt    MessageType = "UserPrompt"
	MsgTypeAgentResponse MessageType = "AgentResponse"
	MsgTypeStatusUpdate  MessageType = "StatusUpdate"
	MsgTypeSystemError   MessageType = "SystemError"
)

// WSMessage defines the standardized structure for communication over the WebSocket.
type WSMessage struct {
	Type MessageType    `json:"type"`
	Data map[string]any `json:"data,omitempty"`
	// Timestamp formatted as RFC3339.
	Timestamp string `json:"timestamp"`
	// RequestID correlates a prompt with its status updates and response.
	RequestID string `json:"request_id,omitempty"`
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 8192
	// Send buffer size. Agent responses carry no screenshots, so this is ample.
	sendChannelSize = 256
)

// wsClient represents a single active WebSocket connection.
type wsClient struct {
	server *Server
	conn   *websocket.Conn
	// Buffered channel of outgoing messages. The writePump reads from this.
	send chan WSMessage
	// done is closed once the read side has finished and every prompt
	// goroutine has returned.
	done chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	convOnce sync.Once
	conv     Conversation
	convErr  error
}

// --- End WebSocket Definitions ---

// Server hosts the tool registry and the chat endpoint.
type Server struct {
	cfg           config.ServerConfig
	logger        *zap.Logger
	handlers      *Handlers
	conversations ConversationFactory
	httpServer    *http.Server
}

// NewServer wires the handlers around registry. conversations may be nil,
// in which case chat connections are answered with a SystemError.
func NewServer(cfg config.ServerConfig, registry *tools.Registry, journal store.Journal, conversations ConversationFactory, logger *zap.Logger) *Server {
	logger = logger.Named("mcp_server")
	return &Server{
		cfg:           cfg,
		logger:        logger,
		handlers:      NewHandlers(logger, registry, journal),
		conversations: conversations,
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// WebSocket routes are registered outside the timeout and logging group.
	r.Get("/ws/v1/interact", s.handleAgentInteract())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Logger)
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}
		s.handlers.RegisterRoutes(r)
	})
	return r
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// within the configured grace period.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.logger.Info("Tool server starting", zap.String("address", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("tool server stopped: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down tool server gracefully...")
	grace := s.cfg.ShutdownGrace
	if grace <= 0 {
		grace = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		s.httpServer.Close()
	}
	<-errCh
	s.logger.Info("Tool server stopped.")
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// handleAgentInteract upgrades the connection and runs the message pumps.
func (s *Server) handleAgentInteract() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// upgrader.Upgrade already wrote the HTTP error.
			s.logger.Error("Failed to upgrade connection to WebSocket", zap.Error(err))
			return
		}
		s.logger.Info("WebSocket connection established (/ws/v1/interact).", zap.String("remoteAddr", r.RemoteAddr))

		ctx, cancel := context.WithCancel(r.Context())
		// Shutdown does not track hijacked connections; unblock the reader ourselves.
		stop := context.AfterFunc(ctx, func() { conn.Close() })
		defer stop()
		client := &wsClient{
			server: s,
			conn:   conn,
			send:   make(chan WSMessage, sendChannelSize),
			done:   make(chan struct{}),
			ctx:    ctx,
			cancel: cancel,
		}

		var writer sync.WaitGroup
		writer.Add(1)
		go func() {
			defer writer.Done()
			client.writePump()
		}()
		client.readPump()

		// Stop in-flight prompts, let the writer say goodbye, then release the handler.
		stop()
		client.cancel()
		client.wg.Wait()
		close(client.done)
		writer.Wait()
		s.logger.Debug("WebSocket interaction handler finished.", zap.String("remoteAddr", r.RemoteAddr))
	}
}

// readPump pumps messages from the WebSocket connection until it closes.
func (c *wsClient) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.server.logger.Error("Failed to set initial read deadline", zap.Error(err))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var incomingMsg WSMessage
		if err := c.conn.ReadJSON(&incomingMsg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.logger.Error("WebSocket closed unexpectedly", zap.Error(err))
			} else {
				c.server.logger.Info("WebSocket connection closed.")
			}
			return
		}
		c.server.logger.Debug("Received message from client", zap.String("type", string(incomingMsg.Type)), zap.String("requestID", incomingMsg.RequestID))
		c.processMessage(incomingMsg)
	}
}

// writePump is the only writer on the connection. It also sends pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.server.logger.Error("Error writing JSON message to WebSocket", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

// processMessage handles the logic for different incoming message types.
func (c *wsClient) processMessage(msg WSMessage) {
	switch msg.Type {
	case MsgTypeUserPrompt:
		if msg.RequestID == "" {
			c.sendError(msg.RequestID, "UserPrompt message requires a valid request_id.")
			return
		}
		prompt, ok := msg.Data["prompt"].(string)
		if !ok || strings.TrimSpace(prompt) == "" {
			c.sendError(msg.RequestID, "Invalid or empty 'prompt' provided.")
			return
		}

		// Keep the read side responsive to pongs and close frames.
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.handleAgentInteraction(msg.RequestID, prompt)
		}()

	default:
		c.server.logger.Warn("Received unknown message type from client", zap.String("type", string(msg.Type)))
		c.sendError(msg.RequestID, fmt.Sprintf("Unknown or unsupported message type: %s", msg.Type))
	}
}

func (c *wsClient) conversation() (Conversation, error) {
	c.convOnce.Do(func() {
		if c.server.conversations == nil {
			c.convErr = errors.New("chat is unavailable: no model is configured")
			return
		}
		c.conv, c.convErr = c.server.conversations()
	})
	return c.conv, c.convErr
}

// handleAgentInteraction runs one prompt through the connection's conversation.
func (c *wsClient) handleAgentInteraction(requestID, prompt string) {
	conv, err := c.conversation()
	if err != nil {
		c.sendError(requestID, err.Error())
		return
	}

	c.server.logger.Info("Processing user prompt", zap.String("requestID", requestID))
	c.sendStatus(requestID, "Prompt received.")
	reply, err := conv.Send(c.ctx, prompt, func(status string) {
		c.sendStatus(requestID, status)
	})
	if err != nil {
		c.server.logger.Error("Prompt failed", zap.String("requestID", requestID), zap.Error(err))
		c.sendError(requestID, err.Error())
		return
	}
	c.sendMessage(MsgTypeAgentResponse, requestID, map[string]any{"content": reply})
}

// sendMessage queues a message for the writePump, dropping it when the
// client is not keeping up.
func (c *wsClient) sendMessage(msgType MessageType, requestID string, data map[string]any) {
	msg := WSMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	}
	select {
	case c.send <- msg:
	default:
		c.server.logger.Error("WebSocket send buffer full, dropping message. Client may be unresponsive.",
			zap.String("requestID", requestID), zap.String("type", string(msgType)))
	}
}

func (c *wsClient) sendError(requestID, errorMessage string) {
	c.sendMessage(MsgTypeSystemError, requestID, map[string]any{"error": errorMessage})
}

func (c *wsClient) sendStatus(requestID, statusMessage string) {
	c.sendMessage(MsgTypeStatusUpdate, requestID, map[string]any{"status": statusMessage})
}
