package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mohidul32/Chat-Application/internal/models"
	"github.com/mohidul32/Chat-Application/internal/service"
)

// fakeConn records every payload written to it and can be flipped to
// fail writes, standing in for a dropped socket.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("write on closed connection")
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	c.frames = append(c.frames, copied)
	return nil
}

func (c *fakeConn) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.frames))
	copy(out, c.frames)
	return out
}

func newClient(userID uint, username string, conn Conn) *ClientConnection {
	return NewClientConnection(uuid.NewString(), userID, username, conn)
}

// fakeAppender persists nothing; it fabricates a message row per call,
// or fails when an error is armed.
type fakeAppender struct {
	mu  sync.Mutex
	err error
	n   int
}

func (a *fakeAppender) Append(roomID string, senderID uint, kind models.MessageKind, content string, attachment *service.AttachmentInput, replyTo *string) (*models.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	a.n++
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	return &models.Message{
		ID:        id.String(),
		RoomID:    roomID,
		SenderID:  senderID,
		Kind:      kind,
		Content:   content,
		Sender:    models.User{Username: "user"},
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (a *fakeAppender) setErr(err error) {
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
}

func (a *fakeAppender) appended() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.n
}
