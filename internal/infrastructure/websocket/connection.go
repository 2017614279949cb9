package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Connection adapts a gorilla connection to domain.WebSocketConnection.
// Writes are serialized since gorilla allows only one concurrent writer.
type Connection struct {
	conn   *websocket.Conn
	userID string
	itemID string

	writeMu sync.Mutex
}

func NewConnection(conn *websocket.Conn, userID, itemID string) *Connection {
	return &Connection{
		conn:   conn,
		userID: userID,
		itemID: itemID,
	}
}

// Send writes pre-encoded JSON as is and encodes anything else.
func (c *Connection) Send(message interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if data, ok := message.([]byte); ok {
		return c.conn.WriteMessage(websocket.TextMessage, data)
	}
	return c.conn.WriteJSON(message)
}

func (c *Connection) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "auction closed"),
		time.Now().Add(writeWait))
	return c.conn.Close()
}

func (c *Connection) UserID() string {
	return c.userID
}

func (c *Connection) ItemID() string {
	return c.itemID
}
