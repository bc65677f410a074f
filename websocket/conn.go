package websocket

import (
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dijonPSU/LiveDocs/domain"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 54 * time.Second
	readBufferSize = 4096

	// sendQueueSize bounds outstanding writes per connection. Sends are
	// fire-and-forget: when the queue is full the frame is dropped for
	// that connection instead of blocking the broadcaster.
	sendQueueSize = 256
)

// ErrSendQueueFull is returned when a connection's outbound queue is full
// and the frame was dropped.
var ErrSendQueueFull = errors.New("send queue full, frame dropped")

// Conn is one upgraded client connection. It owns the raw transport, the
// frame decoder's accumulation buffer, the identity set by identify, and
// the set of joined rooms. The read loop is the only goroutine touching
// the decoder, so frame extraction is strictly sequential.
type Conn struct {
	id          string
	raw         net.Conn
	decoder     Decoder
	send        chan []byte
	broadcaster domain.Broadcaster
	handler     domain.MessageHandler
	limiter     *rate.Limiter

	mu     sync.Mutex
	userID string
	rooms  map[string]struct{}

	closeOnce sync.Once
	done      chan struct{}
}

// NewConn wraps an upgraded raw connection. limiter may be nil to disable
// per-connection message rate limiting.
func NewConn(id string, raw net.Conn, b domain.Broadcaster, h domain.MessageHandler, limiter *rate.Limiter) *Conn {
	return &Conn{
		id:          id,
		raw:         raw,
		send:        make(chan []byte, sendQueueSize),
		broadcaster: b,
		handler:     h,
		limiter:     limiter,
		rooms:       make(map[string]struct{}),
		done:        make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Conn) SetUserID(id string) {
	c.mu.Lock()
	c.userID = id
	c.mu.Unlock()
}

func (c *Conn) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.rooms))
	for name := range c.rooms {
		names = append(names, name)
	}
	return names
}

func (c *Conn) AddRoom(name string) {
	c.mu.Lock()
	c.rooms[name] = struct{}{}
	c.mu.Unlock()
}

func (c *Conn) RemoveRoom(name string) {
	c.mu.Lock()
	delete(c.rooms, name)
	c.mu.Unlock()
}

// Send encodes data as a text frame and queues it for delivery.
func (c *Conn) Send(data []byte) error {
	return c.queueFrame(OpcodeText, data)
}

func (c *Conn) queueFrame(opcode Opcode, payload []byte) error {
	frame, err := EncodeFrame(opcode, payload)
	if err != nil {
		slog.Warn("frame not sent", "clientId", c.id, "error", err)
		return err
	}
	select {
	case <-c.done:
		return net.ErrClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close tears down the transport. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.raw.Close()
	})
	return err
}

// Start launches the read and write pumps.
func (c *Conn) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Conn) readPump() {
	defer func() {
		c.broadcaster.Disconnect(c)
		c.Close()
	}()

	buf := make([]byte, readBufferSize)
	for {
		n, err := c.raw.Read(buf)
		if err != nil {
			return
		}
		c.decoder.Push(buf[:n])

		for {
			frame, err := c.decoder.Next()
			if err != nil {
				// 64-bit length tier: terminate this connection only.
				slog.Warn("unsupported frame", "clientId", c.id, "error", err)
				return
			}
			if frame == nil {
				break
			}
			if done := c.handleFrame(frame); done {
				return
			}
		}
	}
}

// handleFrame dispatches one frame by opcode. Returns true when the
// connection should end.
func (c *Conn) handleFrame(frame *Frame) bool {
	switch frame.Opcode {
	case OpcodeText:
		if c.limiter != nil && !c.limiter.Allow() {
			slog.Debug("message rate limited", "clientId", c.id)
			return false
		}
		c.handler.Handle(c, frame.Payload)
	case OpcodePing:
		c.queueFrame(OpcodePong, frame.Payload)
	case OpcodeClose:
		return true
	case OpcodePong:
		// Ignored.
	default:
		slog.Debug("ignoring frame", "clientId", c.id, "opcode", frame.Opcode)
	}
	return false
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.raw.SetWriteDeadline(time.Now().Add(writeWait))
			if _, err := c.raw.Write(frame); err != nil {
				return
			}
		case <-ticker.C:
			ping, err := EncodeFrame(OpcodePing, nil)
			if err != nil {
				return
			}
			c.raw.SetWriteDeadline(time.Now().Add(writeWait))
			if _, err := c.raw.Write(ping); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
