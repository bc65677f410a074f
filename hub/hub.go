// Package hub routes real-time traffic: named rooms of connections with
// membership broadcasts, and a user directory mapping a logical identity
// to its live connections.
package hub

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dijonPSU/LiveDocs/domain"
)

// room tracks members by connection id plus their join order, so the
// clientList broadcast reports ids in the order members arrived.
type room struct {
	members map[string]domain.Connection
	order   []string
}

func (r *room) memberIDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

func (r *room) remove(connID string) {
	delete(r.members, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Hub is the coordinator for all shared routing state. One lock guards
// both maps, so a join/leave/broadcast sequence on a room is never
// interleaved with a conflicting operation on the same room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*room
	users map[string]map[string]domain.Connection
}

func New() *Hub {
	return &Hub{
		rooms: make(map[string]*room),
		users: make(map[string]map[string]domain.Connection),
	}
}

// Join adds conn to the named room, creating the room on first join, and
// broadcasts the updated member list to everyone in it, conn included.
func (h *Hub) Join(conn domain.Connection, roomName string) {
	h.mu.Lock()
	r, exists := h.rooms[roomName]
	if !exists {
		r = &room{members: make(map[string]domain.Connection)}
		h.rooms[roomName] = r
	}
	if _, already := r.members[conn.ID()]; !already {
		r.members[conn.ID()] = conn
		r.order = append(r.order, conn.ID())
	}
	conn.AddRoom(roomName)
	targets, ids := snapshotRoom(r)
	h.mu.Unlock()

	slog.Info("client joined room", "room", roomName, "clientId", conn.ID(), "clients", len(ids))
	sendClientList(targets, roomName, ids)
}

// Leave removes conn from the room. The room is deleted once empty;
// otherwise the survivors get the updated member list.
func (h *Hub) Leave(conn domain.Connection, roomName string) {
	h.mu.Lock()
	r, exists := h.rooms[roomName]
	if !exists {
		h.mu.Unlock()
		return
	}
	r.remove(conn.ID())
	conn.RemoveRoom(roomName)

	if len(r.members) == 0 {
		delete(h.rooms, roomName)
		h.mu.Unlock()
		slog.Info("room removed", "room", roomName)
		return
	}
	targets, ids := snapshotRoom(r)
	h.mu.Unlock()

	slog.Info("client left room", "room", roomName, "clientId", conn.ID(), "clients", len(ids))
	sendClientList(targets, roomName, ids)
}

// Broadcast delivers payload to every member of the room, optionally
// excluding the sender. A missing room yields ErrRoomNotFound and nothing
// is delivered.
func (h *Hub) Broadcast(sender domain.Connection, roomName string, payload []byte, includeSender bool) error {
	h.mu.RLock()
	r, exists := h.rooms[roomName]
	if !exists {
		h.mu.RUnlock()
		return domain.ErrRoomNotFound
	}
	targets, _ := snapshotRoom(r)
	h.mu.RUnlock()

	for _, conn := range targets {
		if !includeSender && sender != nil && conn.ID() == sender.ID() {
			continue
		}
		if err := conn.Send(payload); err != nil {
			slog.Warn("broadcast delivery failed", "room", roomName, "clientId", conn.ID(), "error", err)
		}
	}
	return nil
}

// Identify registers conn under userID. Multiple simultaneous connections
// per user are expected (tabs, devices).
func (h *Hub) Identify(conn domain.Connection, userID string) {
	conn.SetUserID(userID)

	h.mu.Lock()
	set, exists := h.users[userID]
	if !exists {
		set = make(map[string]domain.Connection)
		h.users[userID] = set
	}
	set[conn.ID()] = conn
	count := len(set)
	h.mu.Unlock()

	slog.Info("client identified", "userId", userID, "clientId", conn.ID(), "connections", count)
}

// Notify delivers payload to every connection registered for userID,
// independent of any room membership.
func (h *Hub) Notify(userID string, payload []byte) {
	h.mu.RLock()
	set := h.users[userID]
	targets := make([]domain.Connection, 0, len(set))
	for _, conn := range set {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.Send(payload); err != nil {
			slog.Warn("notify delivery failed", "userId", userID, "clientId", conn.ID(), "error", err)
		}
	}
}

// Disconnect runs ordered cleanup for a closing connection: leave every
// joined room (with the resulting membership broadcasts), then remove the
// connection from its user's set, deleting the user entry when it
// empties.
func (h *Hub) Disconnect(conn domain.Connection) {
	for _, roomName := range conn.Rooms() {
		h.Leave(conn, roomName)
	}

	userID := conn.UserID()
	if userID == "" {
		return
	}
	h.mu.Lock()
	if set, exists := h.users[userID]; exists {
		delete(set, conn.ID())
		if len(set) == 0 {
			delete(h.users, userID)
		}
	}
	h.mu.Unlock()

	slog.Info("client disconnected", "userId", userID, "clientId", conn.ID())
}

// Stats reports the number of rooms and distinct connections in them.
func (h *Hub) Stats() (rooms, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms = len(h.rooms)
	seen := make(map[string]struct{})
	for _, r := range h.rooms {
		for id := range r.members {
			seen[id] = struct{}{}
		}
	}
	return rooms, len(seen)
}

// snapshotRoom copies the member list under the hub lock, so sends happen
// without it.
func snapshotRoom(r *room) ([]domain.Connection, []string) {
	targets := make([]domain.Connection, 0, len(r.order))
	for _, id := range r.order {
		targets = append(targets, r.members[id])
	}
	return targets, r.memberIDs()
}

func sendClientList(targets []domain.Connection, roomName string, ids []string) {
	payload, err := json.Marshal(domain.Envelope{
		Action:   domain.ActionClientList,
		RoomName: roomName,
		Clients:  ids,
	})
	if err != nil {
		slog.Error("clientList marshal failed", "room", roomName, "error", err)
		return
	}
	for _, conn := range targets {
		if err := conn.Send(payload); err != nil {
			slog.Warn("clientList delivery failed", "room", roomName, "clientId", conn.ID(), "error", err)
		}
	}
}
