// Package domain holds the types and interfaces shared across the sync
// server: the wire envelope, connection and routing contracts, and the
// document version model.
package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dijonPSU/LiveDocs/delta"
)

// Envelope actions. ActionClientList is server-to-client only.
const (
	ActionIdentify     = "identify"
	ActionJoin         = "join"
	ActionLeave        = "leave"
	ActionSend         = "send"
	ActionCursor       = "cursor"
	ActionNotification = "notification"
	ActionClientList   = "clientList"
)

// Range is a cursor selection inside a document.
type Range struct {
	Index  int `json:"index"`
	Length int `json:"length"`
}

// Envelope is the JSON message carried inside text frames. Which fields
// are required depends on Action; Validate checks them at parse time.
type Envelope struct {
	Action          string                 `json:"action"`
	RoomName        string                 `json:"roomName,omitempty"`
	UserID          string                 `json:"userId,omitempty"`
	From            string                 `json:"from,omitempty"`
	Message         json.RawMessage        `json:"message,omitempty"`
	Reset           bool                   `json:"reset,omitempty"`
	Range           *Range                 `json:"range,omitempty"`
	UserInfo        map[string]interface{} `json:"userInfo,omitempty"`
	Clients         []string               `json:"clients,omitempty"`
	DocumentID      string                 `json:"documentId,omitempty"`
	Error           string                 `json:"error,omitempty"`
	OriginalMessage string                 `json:"originalMessage,omitempty"`
}

// Envelope validation errors.
var (
	ErrUnknownAction   = errors.New("unknown action")
	ErrMissingRoomName = errors.New("missing roomName")
	ErrMissingUserID   = errors.New("missing userId")
	ErrMissingRange    = errors.New("missing range")
)

// Validate checks the fields required by the envelope's action.
func (e *Envelope) Validate() error {
	switch e.Action {
	case ActionIdentify:
		if e.UserID == "" {
			return ErrMissingUserID
		}
	case ActionJoin, ActionLeave, ActionSend:
		if e.RoomName == "" {
			return ErrMissingRoomName
		}
	case ActionCursor:
		if e.RoomName == "" {
			return ErrMissingRoomName
		}
		if e.UserID == "" {
			return ErrMissingUserID
		}
		if e.Range == nil {
			return ErrMissingRange
		}
	case ActionNotification:
		if e.UserID == "" {
			return ErrMissingUserID
		}
	default:
		return ErrUnknownAction
	}
	return nil
}

// Connection is a live client transport handle. Implementations must make
// Send safe for concurrent use and non-blocking: delivery is best-effort
// with no acknowledgment.
type Connection interface {
	ID() string

	// UserID returns the logical user id set by identify, or "" before
	// identification.
	UserID() string
	SetUserID(id string)

	// Rooms returns the names of rooms this connection has joined.
	Rooms() []string
	AddRoom(name string)
	RemoveRoom(name string)

	Send(data []byte) error
	Close() error
}

// Broadcaster routes messages between connections: room-scoped fan-out
// plus unicast-to-identity delivery.
type Broadcaster interface {
	// Join adds conn to the named room, creating it on first join, and
	// broadcasts the updated member list to the room including conn.
	Join(conn Connection, roomName string)

	// Leave removes conn from the room. An emptied room is deleted;
	// otherwise the remaining members get the updated member list.
	Leave(conn Connection, roomName string)

	// Broadcast delivers payload to every member of the room, optionally
	// excluding the sender. Returns ErrRoomNotFound for a missing room.
	Broadcast(sender Connection, roomName string, payload []byte, includeSender bool) error

	// Identify registers conn under userID. A user may hold several
	// connections at once.
	Identify(conn Connection, userID string)

	// Notify delivers payload to every connection registered for userID,
	// independent of room membership.
	Notify(userID string, payload []byte)

	// Disconnect runs ordered cleanup for a closing connection: leave
	// every joined room, then drop it from the user directory.
	Disconnect(conn Connection)

	Stats() (rooms, clients int)
}

// ErrRoomNotFound is returned when a broadcast targets a room that does
// not exist.
var ErrRoomNotFound = errors.New("room does not exist")

// MessageHandler processes one decoded text-frame payload.
type MessageHandler interface {
	Handle(conn Connection, data []byte)
}

// Document is the authoritative current state of a document. Content is a
// full operation log (inserts only).
type Document struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Content   delta.Delta `json:"content"`
	OwnerID   string      `json:"ownerId"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Version is one append-only history row: either an incremental patch or
// a full-content snapshot. Rows are never updated or deleted.
type Version struct {
	ID            string      `json:"id"`
	DocumentID    string      `json:"documentId"`
	UserID        string      `json:"userId"`
	VersionNumber int         `json:"versionNumber"`
	Diff          delta.Delta `json:"diff"`
	IsSnapshot    bool        `json:"isSnapshot"`
	CreatedAt     time.Time   `json:"createdAt"`
}
