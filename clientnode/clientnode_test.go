package clientnode

import (
	"net"
	"sync"
	"testing"
	"time"

	"nuke-ms/msglayer"
	"nuke-ms/userid"
)

func TestSendWhileDisconnected(t *testing.T) {
	n := NewNode()
	defer n.Close()

	reports := make(chan SendReport, 1)
	n.SubscribeSendReport(func(r SendReport) { reports <- r })

	msgID := n.SendUserMessage("hi", userid.None)

	select {
	case r := <-reports:
		if r.MsgID != msgID {
			t.Fatalf("MsgID = %d, want %d", r.MsgID, msgID)
		}
		if r.OK {
			t.Fatalf("OK = true, want false")
		}
		if r.Reason != SendNotConnected {
			t.Fatalf("Reason = %v, want SendNotConnected", r.Reason)
		}
		if r.Message != "Not Connected." {
			t.Fatalf("Message = %q, want %q", r.Message, "Not Connected.")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for SendReport")
	}
}

func TestInvalidLocationFailsSynchronously(t *testing.T) {
	n := NewNode()
	defer n.Close()

	var mu sync.Mutex
	var got *ConnectionStatusReport
	done := make(chan struct{}, 1)
	n.SubscribeConnectionStatus(func(r ConnectionStatusReport) {
		mu.Lock()
		got = &r
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
	})

	n.ConnectTo("no-colon-here")

	select {
	case <-done:
	default:
		t.Fatal("ConnectTo returned without emitting a ConnectionStatusReport")
	}

	mu.Lock()
	defer mu.Unlock()
	if got == nil {
		t.Fatal("no report received")
	}
	if got.Status != StatusDisconnected || got.Reason != ReasonInvalidLocation {
		t.Fatalf("report = %+v, want Disconnected/InvalidLocation", *got)
	}
}

// TestOversizedFrameDisconnects drives the machine straight into
// Connected over a net.Pipe, then feeds it a segmentation header
// declaring size = 0x9001 (> MaxPacketSize), which must be rejected as
// an oversized frame.
func TestOversizedFrameDisconnects(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	n := NewNode()
	defer n.Close()

	statusCh := make(chan ConnectionStatusReport, 4)
	n.SubscribeConnectionStatus(func(r ConnectionStatusReport) { statusCh <- r })

	n.m.state = StateConnected
	n.m.conn = client
	go n.m.receiveLoop(client)

	header := []byte{0x80, 0x01, 0x90, 0x00}
	writeDone := make(chan error, 1)
	go func() {
		_, err := server.Write(header)
		writeDone <- err
	}()

	if err := <-writeDone; err != nil {
		t.Fatalf("server.Write: %v", err)
	}

	select {
	case r := <-statusCh:
		if r.Status != StatusDisconnected {
			t.Fatalf("Status = %v, want Disconnected", r.Status)
		}
		if r.Reason != ReasonSocketClosed {
			t.Fatalf("Reason = %v, want ReasonSocketClosed", r.Reason)
		}
		if r.Message != "Oversized packet." {
			t.Fatalf("Message = %q, want %q", r.Message, "Oversized packet.")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ConnectionStatusReport")
	}
}

// TestSendAndReceiveOverPipe exercises the Connected send/receive path
// end to end over a net.Pipe, standing in for a real TCP peer.
func TestSendAndReceiveOverPipe(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	defer client.Close()

	n := NewNode()
	defer n.Close()

	n.m.state = StateConnected
	n.m.conn = client
	go n.m.receiveLoop(client)

	readDone := make(chan []byte, 1)
	go func() {
		header := make([]byte, msglayer.SegmentationHeaderLen)
		if _, err := server.Read(header); err != nil {
			readDone <- nil
			return
		}
		hdr, err := msglayer.DecodeHeader(header)
		if err != nil {
			readDone <- nil
			return
		}
		body := make([]byte, int(hdr.Size)-msglayer.SegmentationHeaderLen)
		if _, err := server.Read(body); err != nil {
			readDone <- nil
			return
		}
		readDone <- body
	}()

	sendReports := make(chan SendReport, 1)
	n.SubscribeSendReport(func(r SendReport) { sendReports <- r })
	n.SendUserMessage("hi", userid.None)

	select {
	case body := <-readDone:
		if body == nil {
			t.Fatal("server failed to read frame")
		}
		msg, err := msglayer.NearUserMessageFromSerialized(msglayer.NewSerializedData(body))
		if err != nil {
			t.Fatalf("NearUserMessageFromSerialized: %v", err)
		}
		if msg.Text.Text != "hi" {
			t.Fatalf("Text = %q, want %q", msg.Text.Text, "hi")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for server read")
	}

	select {
	case r := <-sendReports:
		if !r.OK {
			t.Fatalf("SendReport.OK = false, want true (reason %v, %q)", r.Reason, r.Message)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for SendReport")
	}
}
