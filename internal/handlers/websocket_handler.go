package handlers

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/mohidul32/Chat-Application/internal/cache"
	"github.com/mohidul32/Chat-Application/internal/handlers/ws"
	"github.com/mohidul32/Chat-Application/internal/models"
	"github.com/mohidul32/Chat-Application/internal/service"
	"github.com/mohidul32/Chat-Application/internal/validation"
)

// WebSocketHandler is the per-connection gateway: it authorizes the
// connection against the room directory, registers it for fanout, and
// forwards validated sends to the owning room session.
type WebSocketHandler struct {
	roomService  *service.RoomService
	userService  *service.UserService
	registry     *ws.Registry
	sessions     *ws.SessionManager
	messageCache *cache.MessageCache
	presence     *cache.PresenceCache
}

func NewWebSocketHandler(
	roomService *service.RoomService,
	userService *service.UserService,
	messageService *service.MessageService,
	messageCache *cache.MessageCache,
	presence *cache.PresenceCache,
	echoSender bool,
) *WebSocketHandler {
	registry := ws.NewRegistry()
	return &WebSocketHandler{
		roomService:  roomService,
		userService:  userService,
		registry:     registry,
		sessions:     ws.NewSessionManager(registry, messageService, echoSender),
		messageCache: messageCache,
		presence:     presence,
	}
}

// Sessions exposes the session manager so REST sends funnel through the
// same per-room serialization point.
func (h *WebSocketHandler) Sessions() *ws.SessionManager {
	return h.sessions
}

func (h *WebSocketHandler) Registry() *ws.Registry {
	return h.registry
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	// No identity means the connection is refused before anything is
	// allocated.
	userID, ok := c.Locals("userID").(uint)
	if !ok || userID == 0 {
		_ = c.Close()
		return
	}
	username, _ := c.Locals("username").(string)
	fullName, _ := c.Locals("fullName").(string)

	roomID := c.Params("room_id")
	if _, err := h.roomService.GetRoom(roomID); err != nil {
		log.Printf("ws connect refused for user %d: room %q: %v", userID, roomID, err)
		_ = c.Close()
		return
	}

	isMember, err := h.roomService.IsMember(roomID, userID)
	if err != nil || !isMember {
		log.Printf("ws connect refused for user %d: not a member of room %s", userID, roomID)
		_ = c.Close()
		return
	}

	if err := h.userService.EnsureUser(userID, username, fullName); err != nil {
		log.Printf("ensure user %d: %v", userID, err)
	}

	client := ws.NewClientConnection(uuid.NewString(), userID, username, c)
	h.registry.Register(roomID, client)

	go func() {
		if err := h.presence.SetUserOnline(userID); err != nil {
			log.Printf("presence online for user %d: %v", userID, err)
		}
		if err := h.userService.SetUserOnline(userID); err != nil {
			log.Printf("set user %d online: %v", userID, err)
		}
	}()

	// Teardown must run exactly once across the disconnect and error
	// paths.
	var once sync.Once
	teardown := func() {
		once.Do(func() {
			h.registry.Unregister(roomID, client.ID)
			go func() {
				if err := h.presence.SetUserOffline(userID); err != nil {
					log.Printf("presence offline for user %d: %v", userID, err)
				}
				if err := h.userService.SetUserOffline(userID); err != nil {
					log.Printf("set user %d offline: %v", userID, err)
				}
			}()
			log.Printf("conn %s (user %d) left room %s", client.ID, userID, roomID)
		})
	}
	defer teardown()

	if payload, err := ws.EncodeAck(fmt.Sprintf("%s connected to chat room!", username)); err == nil {
		if err := client.Write(payload); err != nil {
			return
		}
	}

	session := h.sessions.Get(roomID)

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			break
		}

		frame, err := ws.DecodeInbound(data)
		if err != nil {
			// Malformed frames are dropped; the connection stays open.
			log.Printf("conn %s: malformed frame: %v", client.ID, err)
			continue
		}

		switch frame.Type {
		case ws.FrameSend:
			content := validation.TrimAndLimit(frame.Content, validation.MaxMessageLength())
			req := ws.NewSendRequest(userID, client.ID, models.TextMessage, content)
			session.Submit(req)
			res := <-req.Result
			if res.Err != nil {
				h.reportSendError(client, res.Err)
				continue
			}
			_ = h.messageCache.InvalidateRoom(roomID)
		case ws.FramePing:
			if payload, err := ws.EncodePong(); err == nil {
				_ = client.Write(payload)
			}
		default:
			// Unknown frame kinds are ignored without closing.
		}
	}
}

// reportSendError surfaces a failed send to the originating connection
// only; nothing was broadcast.
func (h *WebSocketHandler) reportSendError(client *ws.ClientConnection, err error) {
	code := "send_failed"
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		code = "empty_message"
	case errors.Is(err, service.ErrInvalidReference):
		code = "invalid_reference"
	}
	log.Printf("conn %s: send failed: %v", client.ID, err)
	if payload, encErr := ws.EncodeError(code, err.Error()); encErr == nil {
		_ = client.Write(payload)
	}
}
