package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Server owns the single upgrade endpoint. All protocol selection happens
// via the first authenticate frame, not the URL.
type Server struct {
	upgrader websocket.Upgrader
	svc      Workflow
	registry *Registry
	rooms    *Rooms
	engine   *Engine

	pingEvery time.Duration
}

func NewServer(svc Workflow, registry *Registry, rooms *Rooms, engine *Engine) *Server {
	return &Server{
		svc:      svc,
		registry: registry,
		rooms:    rooms,
		engine:   engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn)
	sess := newSession(c, s.svc, s.registry, s.rooms, s.engine)

	if err := c.Send(Frame{Type: TypeConnectionEstablished}); err != nil {
		slog.Debug("ws greeting failed", "err", err)
	}

	// Cleanup must run even though the request context is gone by then.
	ctx := context.WithoutCancel(r.Context())

	go s.writeLoop(c)
	s.readLoop(ctx, sess, c)

	sess.cleanup()

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "user", c.Email(), "err", err)
	}
}

// readLoop processes inbound frames sequentially: frames from one socket
// are never reordered or handled concurrently.
func (s *Server) readLoop(ctx context.Context, sess *session, c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		sess.handle(ctx, data)
	}
}

// writeLoop keeps the socket alive with periodic pings for the lifetime of
// the connection. A failed ping is not a cleanup trigger on its own; the
// transport's own close/error signal drives teardown.
func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-c.closed:
			return
		}
	}
}

// wsConn wraps a gorilla connection with serialized writes and the identity
// attached at authenticate time. Identity is written once, before the
// connection is published to the registry.
type wsConn struct {
	conn   *websocket.Conn
	email  string
	name   string
	sendMu chan struct{}
	closed chan struct{}
}

func newWsConn(c *websocket.Conn) *wsConn {
	return &wsConn{
		conn:   c,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) setIdentity(email, name string) {
	c.email = email
	c.name = name
}

func (c *wsConn) Send(f Frame) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(f)
}

func (c *wsConn) Open() bool {
	select {
	case <-c.closed:
		return false
	default:
		return true
	}
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
		return nil
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) Email() string { return c.email }
func (c *wsConn) Name() string  { return c.name }
