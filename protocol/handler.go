// Package protocol parses the JSON message envelope carried in text
// frames and routes each action to the hub.
package protocol

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/dijonPSU/LiveDocs/auth"
	"github.com/dijonPSU/LiveDocs/domain"
)

// Handler dispatches decoded envelopes. One handler serves every
// connection; it keeps no per-message state.
type Handler struct {
	broadcaster domain.Broadcaster
	verifier    *auth.Verifier
}

func NewHandler(b domain.Broadcaster, v *auth.Verifier) *Handler {
	return &Handler{broadcaster: b, verifier: v}
}

// Handle processes one text-frame payload. Malformed JSON gets an error
// envelope back to the sender; the connection stays usable. All other
// failures are routed per action and never escape to the read loop.
func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Warn("invalid message", "clientId", conn.ID(), "error", err)
		h.sendError(conn, "invalid message format", string(data))
		return
	}

	if err := env.Validate(); err != nil {
		h.handleInvalid(conn, &env, err, data)
		return
	}

	switch env.Action {
	case domain.ActionIdentify:
		h.handleIdentify(conn, &env)
	case domain.ActionJoin:
		h.broadcaster.Join(conn, env.RoomName)
	case domain.ActionLeave:
		h.broadcaster.Leave(conn, env.RoomName)
	case domain.ActionSend:
		h.handleSend(conn, &env)
	case domain.ActionCursor:
		h.handleCursor(conn, &env)
	case domain.ActionNotification:
		h.handleNotification(conn, &env)
	}
}

// handleInvalid applies the per-action failure policy: cursor messages
// are dropped silently, everything else errors back to the sender.
func (h *Handler) handleInvalid(conn domain.Connection, env *domain.Envelope, err error, raw []byte) {
	if env.Action == domain.ActionCursor {
		slog.Debug("dropping cursor message", "clientId", conn.ID(), "error", err)
		return
	}
	slog.Warn("invalid envelope", "clientId", conn.ID(), "action", env.Action, "error", err)
	h.sendError(conn, err.Error(), string(raw))
}

func (h *Handler) handleIdentify(conn domain.Connection, env *domain.Envelope) {
	userID := env.UserID
	if h.verifier != nil {
		resolved, err := h.verifier.Resolve(env.UserID)
		if err != nil {
			slog.Warn("identify rejected", "clientId", conn.ID(), "error", err)
			h.sendError(conn, "identity verification failed", "")
			return
		}
		userID = resolved
	}
	h.broadcaster.Identify(conn, userID)
}

func (h *Handler) handleSend(conn domain.Connection, env *domain.Envelope) {
	out := domain.Envelope{
		Action:   domain.ActionSend,
		From:     senderID(conn),
		RoomName: env.RoomName,
		Message:  env.Message,
		Reset:    env.Reset,
	}
	payload, err := json.Marshal(out)
	if err != nil {
		slog.Error("send marshal failed", "clientId", conn.ID(), "error", err)
		return
	}
	if err := h.broadcaster.Broadcast(conn, env.RoomName, payload, false); errors.Is(err, domain.ErrRoomNotFound) {
		h.sendError(conn, "room "+env.RoomName+" does not exist", "")
	}
}

func (h *Handler) handleCursor(conn domain.Connection, env *domain.Envelope) {
	out := domain.Envelope{
		Action:   domain.ActionCursor,
		UserID:   env.UserID,
		Range:    env.Range,
		UserInfo: env.UserInfo,
	}
	payload, err := json.Marshal(out)
	if err != nil {
		slog.Error("cursor marshal failed", "clientId", conn.ID(), "error", err)
		return
	}
	// Cursor traffic is best-effort; a missing room is dropped silently.
	_ = h.broadcaster.Broadcast(conn, env.RoomName, payload, false)
}

func (h *Handler) handleNotification(conn domain.Connection, env *domain.Envelope) {
	out := domain.Envelope{
		Action:     domain.ActionNotification,
		Message:    env.Message,
		DocumentID: env.DocumentID,
	}
	payload, err := json.Marshal(out)
	if err != nil {
		slog.Error("notification marshal failed", "clientId", conn.ID(), "error", err)
		return
	}
	h.broadcaster.Notify(env.UserID, payload)
}

func (h *Handler) sendError(conn domain.Connection, message, original string) {
	payload, err := json.Marshal(domain.Envelope{
		Error:           message,
		OriginalMessage: original,
	})
	if err != nil {
		return
	}
	if err := conn.Send(payload); err != nil {
		slog.Warn("error reply failed", "clientId", conn.ID(), "error", err)
	}
}

// senderID prefers the identified user id, falling back to the
// connection id before identification.
func senderID(conn domain.Connection) string {
	if id := conn.UserID(); id != "" {
		return id
	}
	return conn.ID()
}
