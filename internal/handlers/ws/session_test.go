package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/mohidul32/Chat-Application/internal/models"
)

func decodeMessages(t *testing.T, frames [][]byte) []MessagePayload {
	t.Helper()
	out := make([]MessagePayload, 0, len(frames))
	for _, raw := range frames {
		var frame MessageFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			t.Fatalf("decode broadcast frame: %v", err)
		}
		if frame.Type != FrameMessage {
			t.Fatalf("frame type = %q, want %q", frame.Type, FrameMessage)
		}
		out = append(out, frame.Message)
	}
	return out
}

func TestSessionBroadcastsInSubmissionOrder(t *testing.T) {
	registry := NewRegistry()
	store := &fakeAppender{}
	manager := NewSessionManager(registry, store, true)
	defer manager.Close()

	connA, connB := &fakeConn{}, &fakeConn{}
	sender := newClient(1, "alice", connA)
	registry.Register("room-1", sender)
	registry.Register("room-1", newClient(2, "bob", connB))

	session := manager.Get("room-1")
	for i := 0; i < 5; i++ {
		req := NewSendRequest(1, sender.ID, models.TextMessage, fmt.Sprintf("msg-%d", i))
		session.Submit(req)
		result := <-req.Result
		if result.Err != nil {
			t.Fatalf("send %d: %v", i, result.Err)
		}
	}

	got := decodeMessages(t, connA.received())
	peer := decodeMessages(t, connB.received())
	if len(got) != 5 || len(peer) != 5 {
		t.Fatalf("deliveries = %d/%d, want 5/5", len(got), len(peer))
	}
	for i := 0; i < 5; i++ {
		want := fmt.Sprintf("msg-%d", i)
		if got[i].Content != want || peer[i].Content != want {
			t.Errorf("position %d: got %q and %q, want %q", i, got[i].Content, peer[i].Content, want)
		}
		if got[i].ID != peer[i].ID {
			t.Errorf("position %d: subscribers saw different message IDs", i)
		}
	}
}

func TestSessionPersistFailureReachesSenderOnly(t *testing.T) {
	registry := NewRegistry()
	store := &fakeAppender{}
	manager := NewSessionManager(registry, store, true)
	defer manager.Close()

	conn := &fakeConn{}
	sender := newClient(1, "alice", conn)
	registry.Register("room-1", sender)

	storeErr := errors.New("store unavailable")
	store.setErr(storeErr)

	session := manager.Get("room-1")
	req := NewSendRequest(1, sender.ID, models.TextMessage, "doomed")
	session.Submit(req)
	result := <-req.Result
	if !errors.Is(result.Err, storeErr) {
		t.Fatalf("result error = %v, want store error", result.Err)
	}
	if got := conn.received(); len(got) != 0 {
		t.Errorf("broadcast after failed persist: %d frames, want 0", len(got))
	}

	// The session keeps serving the room once the store recovers.
	store.setErr(nil)
	req = NewSendRequest(1, sender.ID, models.TextMessage, "recovered")
	session.Submit(req)
	result = <-req.Result
	if result.Err != nil {
		t.Fatalf("send after recovery: %v", result.Err)
	}
	if got := decodeMessages(t, conn.received()); len(got) != 1 || got[0].Content != "recovered" {
		t.Errorf("after recovery got %v, want one recovered frame", got)
	}
}

func TestSessionEchoPolicyOff(t *testing.T) {
	registry := NewRegistry()
	manager := NewSessionManager(registry, &fakeAppender{}, false)
	defer manager.Close()

	senderConn, peerConn := &fakeConn{}, &fakeConn{}
	sender := newClient(1, "alice", senderConn)
	registry.Register("room-1", sender)
	registry.Register("room-1", newClient(2, "bob", peerConn))

	req := NewSendRequest(1, sender.ID, models.TextMessage, "quiet")
	manager.Get("room-1").Submit(req)
	if result := <-req.Result; result.Err != nil {
		t.Fatalf("send: %v", result.Err)
	}

	if got := senderConn.received(); len(got) != 0 {
		t.Errorf("sender echoed %d frames with echo off, want 0", len(got))
	}
	if got := peerConn.received(); len(got) != 1 {
		t.Errorf("peer received %d frames, want 1", len(got))
	}
}

func TestSessionCompletesAfterSenderDisconnect(t *testing.T) {
	registry := NewRegistry()
	store := &fakeAppender{}
	manager := NewSessionManager(registry, store, true)
	defer manager.Close()

	peerConn := &fakeConn{}
	sender := newClient(1, "alice", &fakeConn{})
	registry.Register("room-1", sender)
	registry.Register("room-1", newClient(2, "bob", peerConn))

	// The sender drops before its request is processed.
	registry.Unregister("room-1", sender.ID)

	req := NewSendRequest(1, sender.ID, models.TextMessage, "parting words")
	manager.Get("room-1").Submit(req)
	result := <-req.Result
	if result.Err != nil {
		t.Fatalf("send after disconnect: %v", result.Err)
	}
	if store.appended() != 1 {
		t.Errorf("appended = %d, want 1", store.appended())
	}
	if got := decodeMessages(t, peerConn.received()); len(got) != 1 || got[0].Content != "parting words" {
		t.Errorf("peer got %v, want the parting message", got)
	}
}

func TestSubmitAfterShutdownReportsError(t *testing.T) {
	manager := NewSessionManager(NewRegistry(), &fakeAppender{}, true)
	session := manager.Get("room-1")
	manager.Close()

	req := NewSendRequest(1, "conn-1", models.TextMessage, "late")
	session.Submit(req)
	res := <-req.Result
	if !errors.Is(res.Err, errSessionClosed) {
		t.Fatalf("result error = %v, want session-closed", res.Err)
	}
}

func TestSessionManagerReusesSessions(t *testing.T) {
	manager := NewSessionManager(NewRegistry(), &fakeAppender{}, true)
	defer manager.Close()

	if manager.Get("room-1") != manager.Get("room-1") {
		t.Error("same room returned distinct sessions")
	}
	if manager.Get("room-1") == manager.Get("room-2") {
		t.Error("distinct rooms share a session")
	}
}
