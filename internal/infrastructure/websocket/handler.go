package websocket

import (
	"context"
	"errors"
	"net/http"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SnapshotSource supplies the last known state of an item. It is optional.
type SnapshotSource interface {
	GetSnapshot(ctx context.Context, itemID string) (*domain.AuctionItem, error)
}

type Handler struct {
	snapshots   SnapshotSource
	connManager domain.ConnectionManager
	log         logger.Logger
}

func NewHandler(snapshots SnapshotSource, connManager domain.ConnectionManager, log logger.Logger) *Handler {
	return &Handler{
		snapshots:   snapshots,
		connManager: connManager,
		log:         log,
	}
}

// HandleConnection upgrades GET /ws/items/{itemID}?user_id=... and sends
// the item's current snapshot, when one is known, as the first message.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemID"]
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}
	log := h.log.With("item_id", itemID, "user_id", userID)

	var (
		snapshot *domain.AuctionItem
		err      error
	)
	if h.snapshots != nil {
		snapshot, err = h.snapshots.GetSnapshot(r.Context(), itemID)
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		snapshot = nil
	case err != nil:
		log.Warn("Failed to load item snapshot", "error", err)
		snapshot = nil
	case snapshot != nil && snapshot.Status.Terminal():
		log.Info("Rejected connection, item closed", "status", snapshot.Status)
		http.Error(w, "auction has already ended", http.StatusGone)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade connection", "error", err)
		return
	}

	wsConn := NewConnection(conn, userID, itemID)
	if err := h.connManager.RegisterConnection(userID, itemID, wsConn); err != nil {
		log.Error("Failed to register connection", "error", err)
		conn.Close()
		return
	}

	if snapshot != nil {
		if err := wsConn.Send(domain.NewItemUpdatedEvent(snapshot, snapshot.UpdatedAt)); err != nil {
			log.Warn("Failed to send snapshot", "error", err)
		}
	}

	log.Debug("Watcher connected")
	go h.readLoop(wsConn, log)
}

// readLoop answers pings and detects disconnects.
func (h *Handler) readLoop(conn *Connection, log logger.Logger) {
	defer func() {
		h.connManager.UnregisterConnection(conn)
		conn.conn.Close()
	}()

	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := conn.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("Connection read failed", "error", err)
			}
			return
		}

		if msg.Type == "ping" {
			conn.Send(map[string]string{"type": "pong"})
		}
	}
}
