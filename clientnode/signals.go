package clientnode

import (
	"sync"

	"nuke-ms/msglayer"
)

// ConnectionStatus is the high-level status carried by a
// ConnectionStatusReport.
type ConnectionStatus int

const (
	StatusConnecting ConnectionStatus = iota
	StatusConnected
	StatusDisconnected
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnecting:
		return "Connecting"
	case StatusConnected:
		return "Connected"
	case StatusDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// StatusReason further qualifies a ConnectionStatusReport.
type StatusReason int

const (
	ReasonNone StatusReason = iota
	ReasonConnectFailed
	ReasonUserRequested
	ReasonSocketClosed
	ReasonBusy
	ReasonInvalidLocation
)

func (r StatusReason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonConnectFailed:
		return "CONNECT_FAILED"
	case ReasonUserRequested:
		return "USER_REQUESTED"
	case ReasonSocketClosed:
		return "SOCKET_CLOSED"
	case ReasonBusy:
		return "BUSY"
	case ReasonInvalidLocation:
		return "INVALID_LOCATION"
	default:
		return "UNKNOWN"
	}
}

// ConnectionStatusReport is emitted on every state transition that
// affects connectivity. Every connect attempt yields exactly one
// terminal report; every connection yields at most one disconnect
// report after a successful connect.
type ConnectionStatusReport struct {
	Status  ConnectionStatus
	Reason  StatusReason
	Message string
}

// SendFailReason qualifies a failed SendReport.
type SendFailReason int

const (
	SendOK SendFailReason = iota
	SendNotConnected
	SendConnectionError
)

func (r SendFailReason) String() string {
	switch r {
	case SendOK:
		return ""
	case SendNotConnected:
		return "SERVER_NOT_CONNECTED"
	case SendConnectionError:
		return "CONNECTION_ERROR"
	default:
		return "UNKNOWN"
	}
}

// SendReport is emitted exactly once per send_user_message call.
type SendReport struct {
	MsgID   uint32
	OK      bool
	Reason  SendFailReason
	Message string
}

// ReceivedMessage is emitted once per inbound NearUserMessage.
type ReceivedMessage struct {
	Message msglayer.NearUserMessage
}

// signals holds the subscriber lists for the facade's four channels.
// Emission is synchronous and may run on the reactor goroutine;
// subscribers must be safe to call from any goroutine.
type signals struct {
	mu               sync.Mutex
	rcvMessage       []func(ReceivedMessage)
	connectionStatus []func(ConnectionStatusReport)
	sendReport       []func(SendReport)
	logLine          []func(string)
}

func newSignals() *signals { return &signals{} }

func (s *signals) subscribeRcvMessage(f func(ReceivedMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rcvMessage = append(s.rcvMessage, f)
}

func (s *signals) subscribeConnectionStatus(f func(ConnectionStatusReport)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectionStatus = append(s.connectionStatus, f)
}

func (s *signals) subscribeSendReport(f func(SendReport)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendReport = append(s.sendReport, f)
}

func (s *signals) subscribeLogLine(f func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logLine = append(s.logLine, f)
}

func (s *signals) emitRcvMessage(m ReceivedMessage) {
	s.mu.Lock()
	subs := append([]func(ReceivedMessage){}, s.rcvMessage...)
	s.mu.Unlock()
	for _, f := range subs {
		f(m)
	}
}

func (s *signals) emitConnectionStatus(r ConnectionStatusReport) {
	s.mu.Lock()
	subs := append([]func(ConnectionStatusReport){}, s.connectionStatus...)
	s.mu.Unlock()
	for _, f := range subs {
		f(r)
	}
}

func (s *signals) emitSendReport(r SendReport) {
	s.mu.Lock()
	subs := append([]func(SendReport){}, s.sendReport...)
	s.mu.Unlock()
	for _, f := range subs {
		f(r)
	}
}

func (s *signals) emitLogLine(line string) {
	s.mu.Lock()
	subs := append([]func(string){}, s.logLine...)
	s.mu.Unlock()
	for _, f := range subs {
		f(line)
	}
}
