package websocket

import (
	"encoding/json"
	"sync"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
)

// ConnectionManager tracks live websocket connections per item. A user holds
// at most one connection per item; a newer one replaces the older.
type ConnectionManager struct {
	connections map[string]map[string]domain.WebSocketConnection // itemID -> userID -> connection
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]map[string]domain.WebSocketConnection),
		log:         log,
	}
}

func (cm *ConnectionManager) RegisterConnection(userID, itemID string, conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.connections[itemID] == nil {
		cm.connections[itemID] = make(map[string]domain.WebSocketConnection)
	}
	if previous, exists := cm.connections[itemID][userID]; exists && previous != conn {
		previous.Close()
	}
	cm.connections[itemID][userID] = conn

	cm.log.Debug("Connection registered", "user_id", userID, "item_id", itemID)
	return nil
}

// UnregisterConnection is a no-op when conn has already been replaced.
func (cm *ConnectionManager) UnregisterConnection(conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	userID, itemID := conn.UserID(), conn.ItemID()
	itemConns := cm.connections[itemID]
	if itemConns[userID] != conn {
		return nil
	}
	delete(itemConns, userID)
	if len(itemConns) == 0 {
		delete(cm.connections, itemID)
	}

	cm.log.Debug("Connection unregistered", "user_id", userID, "item_id", itemID)
	return nil
}

// CloseAndUnregisterConnections drops every watcher of an item, typically
// once the item can no longer change.
func (cm *ConnectionManager) CloseAndUnregisterConnections(itemID string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	for userID, conn := range cm.connections[itemID] {
		if err := conn.Close(); err != nil {
			cm.log.Warn("Failed to close connection", "user_id", userID, "item_id", itemID, "error", err)
		}
	}
	delete(cm.connections, itemID)

	cm.log.Info("Connections closed for item", "item_id", itemID)
	return nil
}

func (cm *ConnectionManager) GetConnectionsForItem(itemID string) []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	connections := make([]domain.WebSocketConnection, 0, len(cm.connections[itemID]))
	for _, conn := range cm.connections[itemID] {
		connections = append(connections, conn)
	}
	return connections
}

// BroadcastToItem encodes message once and sends it to every watcher. A
// failed send is logged and does not stop the others.
func (cm *ConnectionManager) BroadcastToItem(itemID string, message interface{}) error {
	connections := cm.GetConnectionsForItem(itemID)
	if len(connections) == 0 {
		return nil
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	for _, conn := range connections {
		if err := conn.Send(messageBytes); err != nil {
			cm.log.Warn("Failed to send message", "user_id", conn.UserID(), "item_id", itemID, "error", err)
		}
	}

	cm.log.Debug("Broadcast to item", "item_id", itemID, "connections", len(connections))
	return nil
}
