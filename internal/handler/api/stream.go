package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	models "github.com/lian220/quintiq-backend/internal/domain/models"
	domrepo "github.com/lian220/quintiq-backend/internal/domain/repository"
	xlogger "github.com/lian220/quintiq-backend/pkg/logger"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// OutcomeStream pushes every terminal pipeline outcome to connected websocket clients.
// Clients are read-only; anything they send is discarded.
type OutcomeStream struct {
	logger  *xlogger.Logger
	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
}

func NewOutcomeStream(logger *xlogger.Logger) *OutcomeStream {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &OutcomeStream{logger: logger, clients: make(map[*websocket.Conn]*sync.Mutex)}
}

func (s *OutcomeStream) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/outcomes", s.Serve)
}

func (s *OutcomeStream) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}

	s.mu.Lock()
	s.clients[conn] = &sync.Mutex{}
	total := len(s.clients)
	s.mu.Unlock()
	s.logger.Debug("outcome stream client connected", xlogger.Int("clients", total))

	defer s.remove(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

// Clients returns the number of connected clients.
func (s *OutcomeStream) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// PublishOutcome broadcasts the outcome event envelope. Slow or closed
// clients are dropped; a broadcast never fails the dispatcher.
func (s *OutcomeStream) PublishOutcome(_ context.Context, outcome models.PipelineOutcome) error {
	data, err := json.Marshal(models.NewEvent(outcome))
	if err != nil {
		return err
	}

	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	locks := make([]*sync.Mutex, 0, len(s.clients))
	for conn, mu := range s.clients {
		conns = append(conns, conn)
		locks = append(locks, mu)
	}
	s.mu.RUnlock()

	for i, conn := range conns {
		locks[i].Lock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WriteMessage(websocket.TextMessage, data)
		locks[i].Unlock()
		if err != nil {
			s.logger.Warn("outcome stream write failed", xlogger.Error(err))
			s.remove(conn)
		}
	}
	return nil
}

func (s *OutcomeStream) remove(conn *websocket.Conn) {
	s.mu.Lock()
	_, ok := s.clients[conn]
	delete(s.clients, conn)
	s.mu.Unlock()
	if ok {
		_ = conn.Close()
	}
}

var _ domrepo.OutcomePublisher = (*OutcomeStream)(nil)
