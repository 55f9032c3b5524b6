package ws

import (
	"errors"
	"log"
	"sync"

	"github.com/mohidul32/Chat-Application/internal/models"
	"github.com/mohidul32/Chat-Application/internal/service"
)

var errSessionClosed = errors.New("room session is closed")

// Appender is the slice of the message store a session needs.
// *service.MessageService satisfies it.
type Appender interface {
	Append(roomID string, senderID uint, kind models.MessageKind, content string, attachment *service.AttachmentInput, replyTo *string) (*models.Message, error)
}

// SendRequest is one validated send handed to a room session. Result is
// buffered so the session can reply even after the originating
// connection is gone.
type SendRequest struct {
	SenderID     uint
	SenderConnID string
	Kind         models.MessageKind
	Content      string
	Attachment   *service.AttachmentInput
	ReplyTo      *string
	Result       chan SendResult
}

type SendResult struct {
	Message *models.Message
	Err     error
}

func NewSendRequest(senderID uint, senderConnID string, kind models.MessageKind, content string) *SendRequest {
	return &SendRequest{
		SenderID:     senderID,
		SenderConnID: senderConnID,
		Kind:         kind,
		Content:      content,
		Result:       make(chan SendResult, 1),
	}
}

// Session is the per-room serialization point. One goroutine drains the
// inbox, so at most one persist+broadcast sequence runs per room and
// messages gain a total order by arrival.
type Session struct {
	roomID     string
	inbox      chan *SendRequest
	registry   *Registry
	store      Appender
	echoSender bool

	mu     sync.Mutex
	closed bool
}

func newSession(roomID string, registry *Registry, store Appender, echoSender bool) *Session {
	s := &Session{
		roomID:     roomID,
		inbox:      make(chan *SendRequest, 64),
		registry:   registry,
		store:      store,
		echoSender: echoSender,
	}
	go s.run()
	return s
}

// Submit hands a send to the session. Once accepted it will complete
// even if the caller's connection closes; the session only ever talks
// back through the buffered Result channel. After shutdown the request
// is answered with an error instead of being enqueued.
func (s *Session) Submit(req *SendRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		req.Result <- SendResult{Err: errSessionClosed}
		return
	}
	s.inbox <- req
}

// close is idempotent. Submit holds the same lock, so the inbox is
// never closed mid-send.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.inbox)
}

func (s *Session) run() {
	for req := range s.inbox {
		s.process(req)
	}
}

func (s *Session) process(req *SendRequest) {
	message, err := s.store.Append(s.roomID, req.SenderID, req.Kind, req.Content, req.Attachment, req.ReplyTo)
	if err != nil {
		// Persistence failure goes to the sender only; nothing is
		// broadcast and the session keeps serving the room.
		req.Result <- SendResult{Err: err}
		return
	}

	payload, err := EncodeMessage(message)
	if err != nil {
		log.Printf("room %s: encode broadcast for message %s: %v", s.roomID, message.ID, err)
		req.Result <- SendResult{Err: err}
		return
	}

	if s.echoSender {
		s.registry.Broadcast(s.roomID, payload)
	} else {
		s.registry.BroadcastExcept(s.roomID, payload, req.SenderConnID)
	}
	req.Result <- SendResult{Message: message}
}

// SessionManager owns the per-room sessions, starting each lazily on
// first use.
type SessionManager struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	registry   *Registry
	store      Appender
	echoSender bool
}

// NewSessionManager creates a manager. echoSender controls whether a
// sender's own connection receives its broadcast copy; the default
// policy is to echo through the same broadcast path.
func NewSessionManager(registry *Registry, store Appender, echoSender bool) *SessionManager {
	return &SessionManager{
		sessions:   make(map[string]*Session),
		registry:   registry,
		store:      store,
		echoSender: echoSender,
	}
}

func (m *SessionManager) Get(roomID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[roomID]; ok {
		return s
	}
	s := newSession(roomID, m.registry, m.store, m.echoSender)
	m.sessions[roomID] = s
	return s
}

// Close stops all session goroutines. Pending requests already in an
// inbox are still processed before the loop exits.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for roomID, s := range m.sessions {
		s.close()
		delete(m.sessions, roomID)
	}
}
