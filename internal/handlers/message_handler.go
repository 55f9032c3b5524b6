package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mohidul32/Chat-Application/internal/cache"
	"github.com/mohidul32/Chat-Application/internal/httpx"
	"github.com/mohidul32/Chat-Application/internal/handlers/ws"
	"github.com/mohidul32/Chat-Application/internal/models"
	"github.com/mohidul32/Chat-Application/internal/service"
	"github.com/mohidul32/Chat-Application/internal/storage"
	"github.com/mohidul32/Chat-Application/internal/validation"
)

type MessageHandler struct {
	messageService *service.MessageService
	roomService    *service.RoomService
	sessions       *ws.SessionManager
	messageCache   *cache.MessageCache
	blobs          *storage.BlobStore
}

func NewMessageHandler(messageService *service.MessageService, roomService *service.RoomService, sessions *ws.SessionManager, messageCache *cache.MessageCache, blobs *storage.BlobStore) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		roomService:    roomService,
		sessions:       sessions,
		messageCache:   messageCache,
		blobs:          blobs,
	}
}

// GetRoomMessages pages the room's log backwards by arrival time; each
// page reads oldest-first.
func (h *MessageHandler) GetRoomMessages(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	roomID := c.Params("id")
	isMember, err := h.roomService.IsMember(roomID, userID)
	if err != nil {
		return httpx.Internal(c, "membership_check_failed")
	}
	if !isMember {
		return httpx.Forbidden(c, "not_member", "No membership in this room")
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	var before *time.Time
	if beforeStr := c.Query("before"); beforeStr != "" {
		t, err := time.Parse(time.RFC3339Nano, beforeStr)
		if err != nil {
			return httpx.BadRequest(c, "invalid_cursor", "Invalid before cursor")
		}
		before = &t
	}
	beforeID := c.Query("before_id")

	var messages []models.Message
	if before == nil {
		// Only the first page is cached.
		if cached, ok := h.messageCache.GetRecent(roomID); ok {
			messages = cached
			if len(messages) > limit {
				messages = messages[len(messages)-limit:]
			}
		} else {
			messages, err = h.messageService.ListRecent(roomID, nil, "", limit)
			if err != nil {
				return httpx.Internal(c, "fetch_messages_failed")
			}
			if len(messages) > 0 {
				_ = h.messageCache.SetRecent(roomID, messages)
			}
		}
	} else {
		messages, err = h.messageService.ListRecent(roomID, before, beforeID, limit)
		if err != nil {
			return httpx.Internal(c, "fetch_messages_failed")
		}
	}

	responses := make([]interface{}, len(messages))
	for i, msg := range messages {
		responses[i] = msg.ToResponse()
	}

	result := fiber.Map{"messages": responses, "count": len(messages)}
	if len(messages) > 0 {
		// Pages read oldest-first, so the first element is the cursor
		// for the next (older) page.
		result["next_before"] = messages[0].CreatedAt.Format(time.RFC3339Nano)
		result["next_before_id"] = messages[0].ID
	}
	return c.JSON(result)
}

type sendMessageInput struct {
	Content    string                   `json:"content"`
	Kind       models.MessageKind       `json:"kind"`
	Attachment *service.AttachmentInput `json:"attachment"`
	ReplyTo    *string                  `json:"reply_to"`
}

// SendRoomMessage appends through the room session, so REST sends share
// the websocket path's per-room ordering.
func (h *MessageHandler) SendRoomMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	roomID := c.Params("id")
	isMember, err := h.roomService.IsMember(roomID, userID)
	if err != nil {
		return httpx.Internal(c, "membership_check_failed")
	}
	if !isMember {
		return httpx.Forbidden(c, "not_member", "No membership in this room")
	}

	var input sendMessageInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if input.Kind == models.SystemMessage {
		return httpx.BadRequest(c, "invalid_kind", "Cannot send system messages")
	}

	req := ws.NewSendRequest(userID, "", input.Kind, validation.TrimAndLimit(input.Content, validation.MaxMessageLength()))
	req.Attachment = input.Attachment
	req.ReplyTo = input.ReplyTo
	h.sessions.Get(roomID).Submit(req)
	res := <-req.Result
	if res.Err != nil {
		switch {
		case errors.Is(res.Err, service.ErrEmptyMessage):
			return httpx.BadRequest(c, "empty_message", "Message has no content and no attachment")
		case errors.Is(res.Err, service.ErrInvalidReference):
			return httpx.BadRequest(c, "invalid_reference", "Reply must reference a message in this room")
		default:
			return httpx.Internal(c, "send_message_failed")
		}
	}

	_ = h.messageCache.InvalidateRoom(roomID)
	return c.Status(fiber.StatusCreated).JSON(res.Message.ToResponse())
}

type markReadInput struct {
	UpTo *time.Time `json:"up_to"`
}

// MarkRoomRead advances the caller's read watermark; it never moves
// backwards.
func (h *MessageHandler) MarkRoomRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	roomID := c.Params("id")
	var input markReadInput
	if err := c.BodyParser(&input); err != nil && len(c.Body()) > 0 {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	upTo := time.Now().UTC()
	if input.UpTo != nil {
		upTo = *input.UpTo
	}

	if err := h.messageService.MarkRead(roomID, userID, upTo); err != nil {
		if errors.Is(err, service.ErrNotMember) {
			return httpx.Forbidden(c, "not_member", "No membership in this room")
		}
		return httpx.Internal(c, "mark_read_failed")
	}

	_ = h.messageCache.InvalidateUnread(roomID, userID)
	return c.JSON(fiber.Map{"read": true})
}

func (h *MessageHandler) GetUnreadCount(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	roomID := c.Params("id")
	if count, ok := h.messageCache.GetUnreadCount(roomID, userID); ok {
		return c.JSON(fiber.Map{"unread": count})
	}

	count, err := h.messageService.UnreadCount(roomID, userID)
	if err != nil {
		if errors.Is(err, service.ErrNotMember) {
			return httpx.Forbidden(c, "not_member", "No membership in this room")
		}
		return httpx.Internal(c, "unread_count_failed")
	}
	_ = h.messageCache.SetUnreadCount(roomID, userID, count)
	return c.JSON(fiber.Map{"unread": count})
}

// DeleteMessage tombstones a message; id, sender and timestamps are
// preserved.
func (h *MessageHandler) DeleteMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	messageID := c.Params("id")
	message, err := h.messageService.GetMessage(messageID)
	if err != nil {
		return httpx.NotFound(c, "message_not_found", "Message not found")
	}

	if err := h.messageService.SoftDelete(messageID, userID); err != nil {
		switch {
		case errors.Is(err, service.ErrMessageNotFound):
			return httpx.NotFound(c, "message_not_found", "Message not found")
		case errors.Is(err, service.ErrNotAuthorized):
			return httpx.Forbidden(c, "not_authorized", "Only the sender or a room admin may delete")
		default:
			return httpx.Internal(c, "delete_message_failed")
		}
	}

	// Tombstoning cleared the attachment fields; release the blob too.
	if message.HasAttachment() && h.blobs != nil {
		go func(key string) {
			if err := h.blobs.DeleteObject(context.Background(), key); err != nil {
				log.Printf("delete attachment %s: %v", key, err)
			}
		}(message.FileKey)
	}

	_ = h.messageCache.InvalidateRoom(message.RoomID)
	return c.JSON(fiber.Map{"deleted": true})
}

type editMessageInput struct {
	Content string `json:"content"`
}

func (h *MessageHandler) EditMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input editMessageInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	messageID := c.Params("id")
	message, err := h.messageService.EditMessage(messageID, userID, validation.TrimAndLimit(input.Content, validation.MaxMessageLength()))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMessageNotFound):
			return httpx.NotFound(c, "message_not_found", "Message not found")
		case errors.Is(err, service.ErrNotAuthorized):
			return httpx.Forbidden(c, "not_authorized", "Only the sender may edit")
		case errors.Is(err, service.ErrEmptyMessage):
			return httpx.BadRequest(c, "empty_message", "Content is required")
		case errors.Is(err, service.ErrInvalidOperation):
			return httpx.BadRequest(c, "message_deleted", "Cannot edit a deleted message")
		default:
			return httpx.Internal(c, "edit_message_failed")
		}
	}

	_ = h.messageCache.InvalidateRoom(message.RoomID)
	return c.JSON(message.ToResponse())
}

type reactionInput struct {
	Kind string `json:"kind"`
}

func (h *MessageHandler) ToggleReaction(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input reactionInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if !validation.ValidReaction(input.Kind) {
		return httpx.BadRequest(c, "invalid_reaction", "Unsupported reaction kind")
	}

	added, err := h.messageService.ToggleReaction(c.Params("id"), userID, input.Kind)
	if err != nil {
		if errors.Is(err, service.ErrMessageNotFound) {
			return httpx.NotFound(c, "message_not_found", "Message not found")
		}
		return httpx.Internal(c, "toggle_reaction_failed")
	}

	return c.JSON(fiber.Map{"added": added})
}
