package handlers

import (
	"net/http"
	"time"

	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/caching/sessions"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/messaging"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/performance"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/tenant"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SysOpHandlers contains the operator dashboard HTTP handlers
type SysOpHandlers struct {
	manager     *tenant.Manager
	sessions    *sessions.Store
	broadcaster *messaging.Broadcaster
	perfTracker *performance.Tracker
	logger      *logging.ChanneledLogger
}

// NewSysOpHandlers creates sysop handlers with injected dependencies
func NewSysOpHandlers(manager *tenant.Manager, sessionStore *sessions.Store, broadcaster *messaging.Broadcaster, perfTracker *performance.Tracker, logger *logging.ChanneledLogger) *SysOpHandlers {
	return &SysOpHandlers{
		manager:     manager,
		sessions:    sessionStore,
		broadcaster: broadcaster,
		perfTracker: perfTracker,
		logger:      logger,
	}
}

// GetPool handles GET /api/sysop/pool - per-location connection stats
func (h *SysOpHandlers) GetPool(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"pools":    h.manager.Binder().PoolInfo(),
		"sessions": h.sessions.Len(),
	})
}

// GetPerf handles GET /api/sysop/perf - operation timing stats
func (h *SysOpHandlers) GetPerf(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"uptime": h.perfTracker.Uptime().String(),
		"stats":  h.perfTracker.Stats(),
		"recent": h.perfTracker.RecentMarkers(50),
	})
}

// GetEvents handles GET /api/sysop/events - websocket event stream
func (h *SysOpHandlers) GetEvents(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.System().Error("Websocket upgrade failed", "error", err.Error())
		return
	}

	client := &messaging.Client{
		Conn: conn,
		Send: make(chan []byte, 16),
	}
	h.broadcaster.Register(client)

	go h.writePump(client)
	go h.readPump(client)
}

func (h *SysOpHandlers) writePump(client *messaging.Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *SysOpHandlers) readPump(client *messaging.Client) {
	defer func() {
		h.broadcaster.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(512)
	client.Conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
