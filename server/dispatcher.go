package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"

	"nuke-ms/internal/presence"
	"nuke-ms/msglayer"
	"nuke-ms/userid"
)

// DefaultPort is the fixed TCP port the dispatcher binds by default.
const DefaultPort = 34443

// DispatchServer accepts TCP connections, registers each as a
// ConnectedClient, and routes every inbound NearUserMessage to the other
// registered peers, or only to its recipient when one is set.
type DispatchServer struct {
	addr     string
	serverID string

	listener net.Listener
	quit     chan struct{}
	wg       sync.WaitGroup

	registry *registry

	// presenceReg is nil unless a Redis address was configured; every
	// use of it below is optional and best-effort.
	presenceReg *presence.Registry

	// peerIDs lists every server id participating in the federation,
	// including s.serverID itself. Only consulted as a fallback when a
	// presence lookup misses - see forwardRemote.
	peerIDs []string
}

// NewDispatchServer builds a server bound to addr, e.g. ":34443". An
// empty addr binds DefaultPort on all interfaces. serverID identifies
// this process in the optional presence registry; it is ignored unless
// EnablePresence is also called.
func NewDispatchServer(addr, serverID string) *DispatchServer {
	if addr == "" {
		addr = fmt.Sprintf(":%d", DefaultPort)
	}
	return &DispatchServer{
		addr:     addr,
		serverID: serverID,
		quit:     make(chan struct{}),
		registry: newRegistry(),
	}
}

// EnablePresence turns on the optional cross-process unicast forwarding
// path: a unicast recipient not found among locally registered peers is
// looked up in reg and, if owned by another server id, republished
// there instead of silently dropped. peerIDs lists every server id in
// the federation (including this one); it is only consulted when a
// presence lookup misses, to pick a fallback owner via rendezvous
// hashing instead of giving up.
func (s *DispatchServer) EnablePresence(reg *presence.Registry, peerIDs []string) {
	s.presenceReg = reg
	s.peerIDs = peerIDs
	go reg.Subscribe(context.Background(), s.serverID, s.deliverRemote)
}

// deliverRemote delivers a packet received over the presence Pub/Sub
// channel to every locally registered peer whose id matches its
// recipient (or all of them, for a broadcast republished by a peer
// server - though in practice only unicasts cross the wire this way).
func (s *DispatchServer) deliverRemote(packet []byte) {
	msg, err := msglayer.NearUserMessageFromSerialized(msglayer.NewSerializedData(packet[msglayer.SegmentationHeaderLen:]))
	if err != nil {
		log.Printf("[server] dropped malformed forwarded packet: %v", err)
		return
	}
	for _, peer := range s.registry.snapshot() {
		if msg.Recipient != userid.None && peer.ID != uint64(msg.Recipient) {
			continue
		}
		peer.SendPacket(packet)
	}
}

// Start binds the listener and begins accepting connections in the
// background. Non-blocking.
func (s *DispatchServer) Start() error {
	listener, err := net.Listen("tcp4", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.listener = listener
	log.Printf("[server] listening on %s", s.addr)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener, sends every connected peer a final
// "going away" system message, then shuts each peer down and waits for
// all loops to return.
func (s *DispatchServer) Stop() {
	close(s.quit)
	if s.listener != nil {
		s.listener.Close()
	}
	for _, c := range s.registry.snapshot() {
		s.sendGoingAway(c)
		c.Shutdown()
	}
	s.wg.Wait()
}

// sendGoingAway delivers an empty-bodied system NearUserMessage to c
// immediately before shutdown, purely as an observable signal that the
// server is restarting - the peer's own receive loop and state machine
// need no changes to handle it, since it is a well-formed frame
// followed by an ordinary socket close.
func (s *DispatchServer) sendGoingAway(c *ConnectedClient) {
	msg := msglayer.NewNearUserMessage(0, userid.UniqueUserID(c.ID), userid.None, "")
	seg := msglayer.NewSegmentationLayer[msglayer.NearUserMessage](msg)
	c.SendPacket(msglayer.Serialize(seg))
}

// ConnectionCount reports how many peers are currently registered.
func (s *DispatchServer) ConnectionCount() int {
	return s.registry.count()
}

func (s *DispatchServer) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				log.Printf("[server] accept error: %v", err)
				continue
			}
		}

		id := s.registry.nextConnID()
		client := NewConnectedClient(id, conn, s.fanOut, s.deregister)
		s.registry.add(client)
		log.Printf("[conn-%d] accepted from %s", id, conn.RemoteAddr())

		if s.presenceReg != nil {
			if err := s.presenceReg.Announce(s.serverID, userid.UniqueUserID(id)); err != nil {
				log.Printf("[conn-%d] presence announce failed: %v", id, err)
			}
		}
		client.Start()
	}
}

// fanOut is the received-message callback wired into every
// ConnectedClient. It inspects the layer tag; only 0x41
// (NearUserMessage) is understood. The sender field is stamped with
// sourceID regardless of what the client sent, and the message is
// routed to every other peer when recipient is userid.None, or to the
// single matching peer otherwise.
func (s *DispatchServer) fanOut(sourceID uint64, data msglayer.SerializedData) {
	b := data.Bytes()
	if len(b) == 0 {
		log.Printf("[conn-%d] dropped empty packet", sourceID)
		return
	}
	if b[0] != msglayer.NearUserMessageTag {
		log.Printf("[conn-%d] dropped packet with unknown layer tag %#x", sourceID, b[0])
		return
	}

	msg, err := msglayer.NearUserMessageFromSerialized(data)
	if err != nil {
		log.Printf("[conn-%d] dropped malformed NearUserMessage: %v", sourceID, err)
		return
	}
	msg.Sender = userid.UniqueUserID(sourceID)

	seg := msglayer.NewSegmentationLayer[msglayer.NearUserMessage](msg)
	buf := msglayer.Serialize(seg)

	delivered := false
	for _, peer := range s.registry.snapshot() {
		if peer.ID == sourceID {
			continue
		}
		if msg.Recipient != userid.None && peer.ID != uint64(msg.Recipient) {
			continue
		}
		peer.SendPacket(buf)
		delivered = true
	}

	if !delivered && msg.Recipient != userid.None && s.presenceReg != nil {
		s.forwardRemote(msg.Recipient, buf)
	}
}

// forwardRemote best-effort republishes buf to the server process the
// presence registry believes owns recipient. If no announcement exists
// yet - recipient has never connected anywhere, or its entry expired -
// and this server knows about other peers in the federation, it falls
// back to presence.PickOwner to guess a deterministic owner instead of
// giving up outright. A lookup miss with no known peers, or a publish
// error, is logged and otherwise ignored - no queueing, no
// acknowledgement, only a single best-effort republish.
func (s *DispatchServer) forwardRemote(recipient userid.UniqueUserID, buf []byte) {
	owner, ok, err := s.presenceReg.Locate(recipient)
	if err != nil {
		log.Printf("[server] presence lookup for %s failed: %v", recipient.String(), err)
		return
	}
	if !ok {
		if len(s.peerIDs) == 0 {
			return
		}
		owner = presence.PickOwner(s.peerIDs, recipient)
	}
	if owner == s.serverID {
		return
	}
	if err := s.presenceReg.Publish(owner, buf); err != nil {
		log.Printf("[server] presence publish to %s failed: %v", owner, err)
	}
}

// deregister is the disconnected callback wired into every
// ConnectedClient: it removes the peer from the registry exactly once.
func (s *DispatchServer) deregister(id uint64) {
	s.registry.remove(id)
	if s.presenceReg != nil {
		if err := s.presenceReg.Forget(userid.UniqueUserID(id)); err != nil {
			log.Printf("[conn-%d] presence forget failed: %v", id, err)
		}
	}
	log.Printf("[conn-%d] disconnected", id)
}
