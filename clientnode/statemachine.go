package clientnode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"nuke-ms/msglayer"
)

// machine is the event-driven protocol state machine. All transitions
// happen on the single goroutine running loop; async I/O completions
// communicate back into it by posting events on m.events; the one field
// written outside the loop is pendingConn, set by the dial goroutine.
type machine struct {
	state State
	conn  net.Conn

	// pendingConn is set by a dial goroutine just before it posts
	// evtConnectReport{ok:true}; the channel send/receive pair gives
	// the happens-before relationship the loop goroutine needs to
	// read it safely, with no other writer active at the same time
	// (Negotiating rejects concurrent connect requests).
	pendingConn net.Conn

	dialCancel context.CancelFunc

	events chan event
	done   chan struct{}

	sig *signals
}

func newMachine(sig *signals) *machine {
	m := &machine{
		state:  StateWaiting,
		events: make(chan event, 32),
		done:   make(chan struct{}),
		sig:    sig,
	}
	go m.loop()
	return m
}

// postEvent enqueues ev for the loop goroutine. If the machine has
// already torn down, the event is silently dropped - the same
// "operation_aborted is absorbed" rule that governs stale I/O
// completions.
func (m *machine) postEvent(ev event) {
	select {
	case m.events <- ev:
	case <-m.done:
	}
}

func (m *machine) loop() {
	defer close(m.done)
	for ev := range m.events {
		if _, ok := ev.(evtShutdown); ok {
			m.teardown()
			return
		}
		m.handle(ev)
	}
}

func (m *machine) teardown() {
	if m.dialCancel != nil {
		m.dialCancel()
	}
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
}

func (m *machine) handle(ev event) {
	switch m.state {
	case StateWaiting:
		m.handleWaiting(ev)
	case StateNegotiating:
		m.handleNegotiating(ev)
	case StateConnected:
		m.handleConnected(ev)
	}
}

func (m *machine) handleWaiting(ev event) {
	switch e := ev.(type) {
	case evtConnectRequest:
		m.state = StateNegotiating
		m.startDial(e.host, e.service)
	case evtSendMessage:
		m.sig.emitSendReport(SendReport{
			MsgID:   e.msgID,
			OK:      false,
			Reason:  SendNotConnected,
			Message: "Not Connected.",
		})
	default:
		// discard
	}
}

func (m *machine) handleNegotiating(ev event) {
	switch e := ev.(type) {
	case evtConnectReport:
		if e.ok {
			m.conn = m.pendingConn
			m.pendingConn = nil
			m.dialCancel = nil
			m.state = StateConnected
			m.sig.emitConnectionStatus(ConnectionStatusReport{Status: StatusConnected})
			go m.receiveLoop(m.conn)
		} else {
			m.state = StateWaiting
			m.sig.emitConnectionStatus(ConnectionStatusReport{
				Status:  StatusDisconnected,
				Reason:  ReasonConnectFailed,
				Message: e.message,
			})
		}
	case evtDisconnectRequest:
		if m.dialCancel != nil {
			m.dialCancel()
		}
		m.state = StateWaiting
		m.sig.emitConnectionStatus(ConnectionStatusReport{
			Status: StatusDisconnected,
			Reason: ReasonUserRequested,
		})
	case evtSendMessage:
		m.sig.emitSendReport(SendReport{
			MsgID:   e.msgID,
			OK:      false,
			Reason:  SendNotConnected,
			Message: "Not Connected.",
		})
	case evtConnectRequest:
		m.sig.emitConnectionStatus(ConnectionStatusReport{
			Status:  StatusConnecting,
			Reason:  ReasonBusy,
			Message: "Already connecting.",
		})
	default:
		// discard
	}
}

func (m *machine) handleConnected(ev event) {
	switch e := ev.(type) {
	case evtSendMessage:
		msg := msglayer.NewNearUserMessage(e.msgID, e.recipient, 0, e.text)
		seg := msglayer.NewSegmentationLayer[msglayer.NearUserMessage](msg)
		buf := msglayer.Serialize(seg)
		go m.asyncWrite(m.conn, e.msgID, buf)

	case evtReceivedMessage:
		b := e.data.Bytes()
		if len(b) == 0 {
			m.sig.emitLogLine("dropped empty inbound packet")
			return
		}
		if b[0] != msglayer.NearUserMessageTag {
			m.sig.emitLogLine(fmt.Sprintf("dropped packet with unknown layer tag %#x", b[0]))
			return
		}
		parsed, err := msglayer.NearUserMessageFromSerialized(e.data)
		if err != nil {
			m.sig.emitLogLine(fmt.Sprintf("dropped malformed NearUserMessage: %v", err))
			return
		}
		m.sig.emitRcvMessage(ReceivedMessage{Message: parsed})

	case evtDisconnected:
		if e.conn != nil && e.conn != m.conn {
			return // stale completion from a superseded connection
		}
		if m.conn != nil {
			m.conn.Close()
			m.conn = nil
		}
		m.state = StateWaiting
		m.sig.emitConnectionStatus(ConnectionStatusReport{
			Status:  StatusDisconnected,
			Reason:  ReasonSocketClosed,
			Message: e.reason,
		})

	case evtDisconnectRequest:
		if m.conn != nil {
			m.conn.Close()
			m.conn = nil
		}
		m.state = StateWaiting
		m.sig.emitConnectionStatus(ConnectionStatusReport{
			Status: StatusDisconnected,
			Reason: ReasonUserRequested,
		})

	case evtConnectRequest:
		m.sig.emitConnectionStatus(ConnectionStatusReport{
			Status:  StatusConnected,
			Reason:  ReasonBusy,
			Message: "already connected",
		})

	default:
		// discard
	}
}

// startDial begins async resolve + connect. On completion it posts
// evtConnectReport back into the event loop. The only machine field it
// writes is pendingConn, just before posting a successful report.
func (m *machine) startDial(host, service string) {
	ctx, cancel := context.WithCancel(context.Background())
	m.dialCancel = cancel

	go func() {
		addrs, err := net.DefaultResolver.LookupHost(ctx, host)
		if err != nil {
			m.postEvent(evtConnectReport{ok: false, message: err.Error()})
			return
		}
		if len(addrs) == 0 {
			m.postEvent(evtConnectReport{ok: false, message: "no hosts found"})
			return
		}

		dialer := &net.Dialer{}
		var lastErr error
		for _, addr := range addrs {
			conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(addr, service))
			if err != nil {
				lastErr = err
				continue
			}
			m.pendingConn = conn
			m.postEvent(evtConnectReport{ok: true})
			return
		}

		msg := "no hosts found"
		if lastErr != nil {
			msg = lastErr.Error()
		}
		m.postEvent(evtConnectReport{ok: false, message: msg})
	}()
}

// framingErrorMessage renders a msglayer framing error as a short
// user-facing sentence for a ConnectionStatusReport (e.g. "Oversized
// packet."), falling back to err.Error() for anything that isn't one
// of the named sentinels.
func framingErrorMessage(err error) string {
	switch {
	case errors.Is(err, msglayer.ErrOversizedPacket):
		return "Oversized packet."
	case errors.Is(err, msglayer.ErrInvalidHeader):
		return "Invalid header."
	case errors.Is(err, msglayer.ErrUndersizedPacket):
		return "Undersized packet."
	case errors.Is(err, msglayer.ErrUnalignedPayload):
		return "Unaligned payload."
	default:
		return err.Error()
	}
}

// receiveLoop repeatedly reads one segmentation frame at a time and
// posts it as evtReceivedMessage. A close initiated by the machine
// itself (net.ErrClosed) stops silently; any other read error escalates
// to evtDisconnected.
func (m *machine) receiveLoop(conn net.Conn) {
	header := make([]byte, msglayer.SegmentationHeaderLen)
	for {
		if _, err := io.ReadFull(conn, header); err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			m.postEvent(evtDisconnected{reason: err.Error(), conn: conn})
			return
		}

		hdr, err := msglayer.DecodeHeader(header)
		if err != nil {
			m.postEvent(evtDisconnected{reason: framingErrorMessage(err), conn: conn})
			return
		}

		bodyLen := int(hdr.Size) - msglayer.SegmentationHeaderLen
		body := make([]byte, bodyLen)
		if bodyLen > 0 {
			if _, err := io.ReadFull(conn, body); err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				m.postEvent(evtDisconnected{reason: err.Error(), conn: conn})
				return
			}
		}

		m.postEvent(evtReceivedMessage{data: msglayer.NewSerializedData(body)})
	}
}

// asyncWrite serializes a send and reports its outcome. A write
// failure also posts evtDisconnected so the machine transitions to
// Waiting, since the connection is now assumed dead.
func (m *machine) asyncWrite(conn net.Conn, msgID uint32, buf []byte) {
	if _, err := conn.Write(buf); err != nil {
		m.sig.emitSendReport(SendReport{
			MsgID:   msgID,
			OK:      false,
			Reason:  SendConnectionError,
			Message: err.Error(),
		})
		m.postEvent(evtDisconnected{reason: err.Error(), conn: conn})
		return
	}
	m.sig.emitSendReport(SendReport{MsgID: msgID, OK: true})
}
