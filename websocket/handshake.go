package websocket

import (
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Magic GUID from RFC 6455 Section 1.3.
const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// ErrMissingSecKey is returned when the upgrade request has no
// Sec-WebSocket-Key header.
var ErrMissingSecKey = errors.New("missing Sec-WebSocket-Key header")

// AcceptKey derives the Sec-WebSocket-Accept token for a handshake key:
// base64(SHA-1(key + GUID)). Deterministic; same key, same token.
func AcceptKey(key string) string {
	sum := sha1.Sum([]byte(key + websocketGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Upgrader completes the HTTP-to-WebSocket handshake by hijacking the
// underlying connection and writing the 101 response directly.
type Upgrader struct {
	// CheckOrigin reports whether the request origin is allowed. Nil
	// allows every origin.
	CheckOrigin func(r *http.Request) bool
}

// Upgrade performs the handshake and returns the raw connection, now
// speaking WebSocket frames. A request without a Sec-WebSocket-Key is
// rejected with 400 and the transport is torn down.
func (u *Upgrader) Upgrade(w http.ResponseWriter, r *http.Request) (net.Conn, error) {
	if u.CheckOrigin != nil && !u.CheckOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return nil, errors.New("origin not allowed")
	}

	key := r.Header.Get("Sec-WebSocket-Key")
	if key == "" {
		http.Error(w, "missing Sec-WebSocket-Key", http.StatusBadRequest)
		return nil, ErrMissingSecKey
	}

	hijacker, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "upgrade not supported", http.StatusInternalServerError)
		return nil, errors.New("response writer does not support hijacking")
	}

	conn, _, err := hijacker.Hijack()
	if err != nil {
		return nil, fmt.Errorf("hijack failed: %w", err)
	}

	response := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + AcceptKey(key) + "\r\n\r\n"

	if _, err := conn.Write([]byte(response)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake write failed: %w", err)
	}

	return conn, nil
}
