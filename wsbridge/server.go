package wsbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"

	"scout/analyst"
	"scout/store"
	"scout/streamers"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// AskFunc runs one answer session, streaming progress to the handler. The
// serve command wires this to a fresh analyst engine per question.
type AskFunc func(ctx context.Context, question string, priorTurns []analyst.StoredTurn, scopeHint string, handler streamers.ChatHandler) (*analyst.SessionResponse, error)

// Server hosts the WebSocket endpoint the web UI connects to. Each connection
// gets its own read/write pumps and conversation threads; answer sessions run
// in the background and stream session_event envelopes back over the socket.
type Server struct {
	info   InstanceInfo
	ask    AskFunc
	stores *store.Bundle
	logger hclog.Logger

	upgrader websocket.Upgrader
}

// ServerOptions configures a bridge server.
type ServerOptions struct {
	Instance InstanceInfo
	Ask      AskFunc
	Stores   *store.Bundle
	Logger   hclog.Logger
}

// NewServer creates a bridge server. Ask and Stores are required.
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Ask == nil {
		return nil, fmt.Errorf("wsbridge: Ask is required")
	}
	if opts.Stores == nil {
		return nil, fmt.Errorf("wsbridge: Stores is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Server{
		info:   opts.Instance,
		ask:    opts.Ask,
		stores: opts.Stores,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}, nil
}

// Handler returns the HTTP handler serving the /ws endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// ListenAndServe runs the bridge until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("bridge listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := newConn(s, ws)
	go c.writePump()
	c.readPump()
}

// conn is one client connection. Threads accumulate prior turns so follow-up
// questions on the same thread carry conversation history.
type conn struct {
	server *Server
	ws     *websocket.Conn
	send   chan []byte

	threadMu sync.Mutex
	threads  map[string][]analyst.StoredTurn

	handlers map[MessageType]requestHandler

	done     chan struct{}
	doneOnce sync.Once
}

type requestHandler func(env *Envelope) (*Envelope, error)

func newConn(s *Server, ws *websocket.Conn) *conn {
	c := &conn{
		server:  s,
		ws:      ws,
		send:    make(chan []byte, 256),
		threads: make(map[string][]analyst.StoredTurn),
		done:    make(chan struct{}),
	}
	c.handlers = map[MessageType]requestHandler{
		TypeHello:        c.handleHello,
		TypeAsk:          c.handleAsk,
		TypeGetSessions:  c.handleGetSessions,
		TypeGetMessages:  c.handleGetMessages,
		TypeGetToolCalls: c.handleGetToolCalls,
	}
	return c
}

func (c *conn) close() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *conn) readPump() {
	defer func() {
		c.close()
		c.ws.Close()
	}()

	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.logger.Warn("websocket read error", "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.server.logger.Warn("invalid message from client", "error", err)
			continue
		}

		c.dispatch(&env)
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *conn) dispatch(env *Envelope) {
	handler, ok := c.handlers[env.Type]
	if !ok {
		c.server.logger.Warn("unhandled message type", "type", env.Type)
		errEnv, _ := NewError(env.RequestID, "unknown_type", fmt.Sprintf("unknown message type %q", env.Type))
		c.sendEnvelope(errEnv)
		return
	}

	resp, err := handler(env)
	if err != nil {
		errEnv, _ := NewError(env.RequestID, "handler_error", err.Error())
		c.sendEnvelope(errEnv)
		return
	}
	if resp != nil {
		c.sendEnvelope(resp)
	}
}

func (c *conn) sendEnvelope(env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return fmt.Errorf("connection closed")
	}
}

// sendEvent sends a one-way event to the client.
func (c *conn) sendEvent(env *Envelope) error {
	return c.sendEnvelope(env)
}

// priorTurns returns a copy of the thread's stored turns.
func (c *conn) priorTurns(threadID string) []analyst.StoredTurn {
	c.threadMu.Lock()
	defer c.threadMu.Unlock()
	turns := c.threads[threadID]
	out := make([]analyst.StoredTurn, len(turns))
	copy(out, turns)
	return out
}

// recordTurns appends a completed exchange to the thread.
func (c *conn) recordTurns(threadID, question string, resp *analyst.SessionResponse) {
	toolsUsed := make([]string, 0, len(resp.Evidence.ToolTrace))
	seen := make(map[string]bool)
	for _, tc := range resp.Evidence.ToolTrace {
		if !seen[tc.Tool] {
			seen[tc.Tool] = true
			toolsUsed = append(toolsUsed, tc.Tool)
		}
	}

	c.threadMu.Lock()
	defer c.threadMu.Unlock()
	c.threads[threadID] = append(c.threads[threadID],
		analyst.StoredTurn{Role: "user", Content: question},
		analyst.StoredTurn{Role: "assistant", Content: resp.Answer, ToolsUsed: toolsUsed},
	)
}
