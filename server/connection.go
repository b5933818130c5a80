package server

import (
	"io"
	"log"
	"net"
	"sync"

	"nuke-ms/msglayer"
)

// receivedMessageFunc is invoked once per inbound packet body, tagged by
// its layer byte. id identifies the sending peer.
type receivedMessageFunc func(id uint64, data msglayer.SerializedData)

// disconnectedFunc is invoked at most once, when the peer's connection
// has gone away for any reason.
type disconnectedFunc func(id uint64)

// ConnectedClient is the server-side handle for one accepted TCP peer:
// a header-then-body receive loop, a buffered async write queue, and the
// two signals a dispatcher needs to route traffic and clean up.
//
// Only a single subscriber exists for each signal (the dispatching
// server), so each is a plain typed callback wired once at construction
// instead of a subscriber list.
type ConnectedClient struct {
	ID   uint64
	conn net.Conn

	writeChan chan []byte
	closeChan chan struct{}
	closeOnce sync.Once

	onReceived     receivedMessageFunc
	onDisconnected disconnectedFunc
}

// NewConnectedClient wraps conn as a registered peer identified by id.
// The caller must call Start to begin the read/write loops.
func NewConnectedClient(id uint64, conn net.Conn, onReceived receivedMessageFunc, onDisconnected disconnectedFunc) *ConnectedClient {
	return &ConnectedClient{
		ID:             id,
		conn:           conn,
		writeChan:      make(chan []byte, 256),
		closeChan:      make(chan struct{}),
		onReceived:     onReceived,
		onDisconnected: onDisconnected,
	}
}

// Start launches the receive and write loops on their own goroutines.
func (c *ConnectedClient) Start() {
	go c.writeLoop()
	go c.receiveLoop()
}

// SendPacket enqueues buf for asynchronous write. Returns an error if
// the connection has already shut down.
func (c *ConnectedClient) SendPacket(buf []byte) error {
	if c.IsClosed() {
		return net.ErrClosed
	}
	select {
	case c.writeChan <- buf:
		return nil
	case <-c.closeChan:
		return net.ErrClosed
	default:
		log.Printf("[Conn-%d] write queue full, dropping packet", c.ID)
		return nil
	}
}

// writeLoop drains writeChan onto the socket, one packet at a time, in
// submission order. A write error triggers shutdown.
func (c *ConnectedClient) writeLoop() {
	for {
		select {
		case <-c.closeChan:
			return
		case buf := <-c.writeChan:
			if _, err := c.conn.Write(buf); err != nil {
				log.Printf("[Conn-%d] write error: %v", c.ID, err)
				c.Shutdown()
				return
			}
		}
	}
}

// receiveLoop reads one segmentation frame at a time: a 4-byte header,
// then exactly size-4 body bytes, and delivers the body via onReceived.
// Framing errors and I/O errors both trigger Shutdown and fire
// disconnected exactly once.
func (c *ConnectedClient) receiveLoop() {
	header := make([]byte, msglayer.SegmentationHeaderLen)
	for {
		if _, err := io.ReadFull(c.conn, header); err != nil {
			c.fireDisconnected()
			return
		}

		hdr, err := msglayer.DecodeHeader(header)
		if err != nil {
			c.fireDisconnected()
			return
		}

		bodyLen := int(hdr.Size) - msglayer.SegmentationHeaderLen
		body := make([]byte, bodyLen)
		if bodyLen > 0 {
			if _, err := io.ReadFull(c.conn, body); err != nil {
				c.fireDisconnected()
				return
			}
		}

		c.onReceived(c.ID, msglayer.NewSerializedData(body))
	}
}

// fireDisconnected shuts the connection down and notifies the
// dispatcher. Shutdown's closeOnce guarantees this runs its close
// exactly once even if both loops hit an error simultaneously.
func (c *ConnectedClient) fireDisconnected() {
	c.Shutdown()
	if c.onDisconnected != nil {
		c.onDisconnected(c.ID)
	}
}

// Shutdown is idempotent. It closes both the write-loop's close signal
// and the underlying socket; pending reads/writes then fail and their
// loops return.
func (c *ConnectedClient) Shutdown() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
		if tc, ok := c.conn.(*net.TCPConn); ok {
			tc.CloseWrite()
		}
		c.conn.Close()
	})
}

// IsClosed reports whether Shutdown has already run.
func (c *ConnectedClient) IsClosed() bool {
	select {
	case <-c.closeChan:
		return true
	default:
		return false
	}
}
