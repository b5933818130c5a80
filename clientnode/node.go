package clientnode

import (
	"strings"
	"sync"
	"time"

	"nuke-ms/userid"
)

// workerJoinTimeout bounds how long Close waits for the event loop
// goroutine to finish tearing down before giving up on it - the
// "bounded wait then detach" shutdown pattern.
const workerJoinTimeout = 3000 * time.Millisecond

// Node is the public client facade: connect_to, send_user_message,
// disconnect, plus subscriptions for the three signals. Every public
// call is dispatched as an event into the state machine under dispatchMu
// so the machine sees a serialized event stream even when Node is
// called from multiple goroutines.
type Node struct {
	dispatchMu sync.Mutex
	m          *machine
	sig        *signals

	idMu  sync.Mutex
	nextID uint32
}

// NewNode constructs a facade in state Waiting. No I/O happens until
// ConnectTo is called.
func NewNode() *Node {
	sig := newSignals()
	return &Node{
		m:      newMachine(sig),
		sig:    sig,
		nextID: 1,
	}
}

// SubscribeReceivedMessage registers f to be called once per inbound
// user message. f may run on an arbitrary goroutine.
func (n *Node) SubscribeReceivedMessage(f func(ReceivedMessage)) {
	n.sig.subscribeRcvMessage(f)
}

// SubscribeConnectionStatus registers f to be called on every
// connectivity-affecting transition.
func (n *Node) SubscribeConnectionStatus(f func(ConnectionStatusReport)) {
	n.sig.subscribeConnectionStatus(f)
}

// SubscribeSendReport registers f to be called once per SendUserMessage
// call, reporting its outcome.
func (n *Node) SubscribeSendReport(f func(SendReport)) {
	n.sig.subscribeSendReport(f)
}

// SubscribeLogLine registers f for informational log lines the core
// would otherwise only send to the standard logger - callers that want
// to render their own log view, or suppress it, can subscribe here
// instead.
func (n *Node) SubscribeLogLine(f func(string)) {
	n.sig.subscribeLogLine(f)
}

// ConnectTo parses location as "host:service" (exactly one colon
// required) and begins an asynchronous connection attempt. An
// unparseable location fails synchronously with a terminal
// ConnectionStatusReport and never reaches the state machine.
func (n *Node) ConnectTo(location string) {
	host, service, ok := splitLocation(location)
	if !ok {
		n.sig.emitConnectionStatus(ConnectionStatusReport{
			Status:  StatusDisconnected,
			Reason:  ReasonInvalidLocation,
			Message: "Invalid remote site identifier",
		})
		return
	}

	n.dispatchMu.Lock()
	defer n.dispatchMu.Unlock()
	n.m.postEvent(evtConnectRequest{host: host, service: service})
}

// splitLocation parses "host:service", requiring exactly one colon and
// non-empty host and service parts.
func splitLocation(location string) (host, service string, ok bool) {
	idx := strings.Index(location, ":")
	if idx < 0 || idx != strings.LastIndex(location, ":") {
		return "", "", false
	}
	host, service = location[:idx], location[idx+1:]
	if host == "" || service == "" {
		return "", "", false
	}
	return host, service, true
}

// SendUserMessage queues text for sending to recipient (userid.None
// broadcasts) and returns the message id assigned to it. The outcome
// arrives asynchronously via the SendReport signal.
func (n *Node) SendUserMessage(text string, recipient userid.UniqueUserID) uint32 {
	msgID := n.allocMsgID()

	n.dispatchMu.Lock()
	defer n.dispatchMu.Unlock()
	n.m.postEvent(evtSendMessage{msgID: msgID, recipient: recipient, text: text})
	return msgID
}

func (n *Node) allocMsgID() uint32 {
	n.idMu.Lock()
	defer n.idMu.Unlock()
	id := n.nextID
	n.nextID++
	return id
}

// Disconnect requests an orderly disconnect. A no-op if not connected
// or connecting.
func (n *Node) Disconnect() {
	n.dispatchMu.Lock()
	defer n.dispatchMu.Unlock()
	n.m.postEvent(evtDisconnectRequest{})
}

// Close tears the machine down: closes the socket (canceling all
// pending operations), stops the worker, and waits up to
// workerJoinTimeout for it to finish before returning regardless.
func (n *Node) Close() {
	n.dispatchMu.Lock()
	n.m.postEvent(evtShutdown{})
	n.dispatchMu.Unlock()

	select {
	case <-n.m.done:
	case <-time.After(workerJoinTimeout):
	}
}
