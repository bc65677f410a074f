package websocket

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptKey(t *testing.T) {
	// Canonical vector from RFC 6455 Section 1.3.
	assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", AcceptKey("dGhlIHNhbXBsZSBub25jZQ=="))
}

func TestAcceptKeyDeterministic(t *testing.T) {
	assert.Equal(t, AcceptKey("AQIDBAUGBwgJCgsMDQ4PEC=="), AcceptKey("AQIDBAUGBwgJCgsMDQ4PEC=="))
	assert.NotEqual(t, AcceptKey("a"), AcceptKey("b"))
}

func TestUpgradeMissingKey(t *testing.T) {
	upgrader := &Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := upgrader.Upgrade(w, r)
		assert.ErrorIs(t, err, ErrMissingSecKey)
	}))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpgradeWritesSwitchingProtocols(t *testing.T) {
	upgrader := &Upgrader{}
	upgraded := make(chan net.Conn, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r)
		require.NoError(t, err)
		upgraded <- conn
	}))
	defer server.Close()

	raw, err := net.Dial("tcp", strings.TrimPrefix(server.URL, "http://"))
	require.NoError(t, err)
	defer raw.Close()

	request := "GET /ws HTTP/1.1\r\n" +
		"Host: example.test\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
		"Sec-WebSocket-Version: 13\r\n\r\n"
	_, err = raw.Write([]byte(request))
	require.NoError(t, err)

	reader := bufio.NewReader(raw)
	status, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, status, "101 Switching Protocols")

	headers := map[string]string{}
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		parts := strings.SplitN(line, ":", 2)
		require.Len(t, parts, 2)
		headers[parts[0]] = strings.TrimSpace(parts[1])
	}
	assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", headers["Sec-WebSocket-Accept"])
	assert.Equal(t, "websocket", headers["Upgrade"])

	(<-upgraded).Close()
}
