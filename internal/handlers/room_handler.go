package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mohidul32/Chat-Application/internal/cache"
	"github.com/mohidul32/Chat-Application/internal/handlers/ws"
	"github.com/mohidul32/Chat-Application/internal/httpx"
	"github.com/mohidul32/Chat-Application/internal/service"
	"github.com/mohidul32/Chat-Application/internal/validation"
)

type RoomHandler struct {
	roomService    *service.RoomService
	messageService *service.MessageService
	messageCache   *cache.MessageCache
	presence       *cache.PresenceCache
	registry       *ws.Registry
}

func NewRoomHandler(roomService *service.RoomService, messageService *service.MessageService, messageCache *cache.MessageCache, presence *cache.PresenceCache, registry *ws.Registry) *RoomHandler {
	return &RoomHandler{
		roomService:    roomService,
		messageService: messageService,
		messageCache:   messageCache,
		presence:       presence,
		registry:       registry,
	}
}

// StartPrivateChat returns the private room with the peer, creating it
// on first contact. Calling it again returns the same room.
func (h *RoomHandler) StartPrivateChat(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	peerID, err := strconv.ParseUint(c.Params("peer_id"), 10, 32)
	if err != nil || peerID == 0 {
		return httpx.BadRequest(c, "invalid_peer", "Invalid peer id")
	}
	if uint(peerID) == userID {
		return httpx.BadRequest(c, "invalid_peer", "Cannot start a chat with yourself")
	}

	room, err := h.roomService.GetOrCreatePrivateRoom(userID, uint(peerID))
	if err != nil {
		if errors.Is(err, service.ErrInvalidOperation) {
			return httpx.BadRequest(c, "invalid_peer", "Cannot start a chat with yourself")
		}
		return httpx.Internal(c, "start_private_chat_failed")
	}

	return c.JSON(room.ToResponse())
}

type createGroupInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MemberIDs   []uint `json:"member_ids"`
}

func (h *RoomHandler) CreateGroup(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input createGroupInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	input.Name = strings.TrimSpace(input.Name)
	if !validation.ValidateRoomName(input.Name) {
		return httpx.BadRequest(c, "invalid_name", "Group name is required")
	}

	room, err := h.roomService.CreateGroupRoom(userID, input.Name, strings.TrimSpace(input.Description), input.MemberIDs)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOperation) {
			return httpx.BadRequest(c, "too_many_members", "Member list exceeds room capacity")
		}
		return httpx.Internal(c, "create_group_failed")
	}

	return c.Status(fiber.StatusCreated).JSON(room.ToResponse())
}

func (h *RoomHandler) LeaveRoom(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	roomID := c.Params("id")
	if err := h.roomService.LeaveRoom(roomID, userID); err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			return httpx.NotFound(c, "room_not_found", "Room not found")
		case errors.Is(err, service.ErrInvalidOperation):
			return httpx.BadRequest(c, "invalid_operation", "Cannot leave a private room")
		case errors.Is(err, service.ErrNotMember):
			return httpx.Forbidden(c, "not_member", "No membership in this room")
		default:
			return httpx.Internal(c, "leave_room_failed")
		}
	}

	return c.JSON(fiber.Map{"left": true})
}

// GetMyRooms lists the caller's rooms, most recently active first, with
// unread counts.
func (h *RoomHandler) GetMyRooms(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	memberships, err := h.roomService.ListRoomsForUser(userID)
	if err != nil {
		return httpx.Internal(c, "list_rooms_failed")
	}

	rooms := make([]interface{}, 0, len(memberships))
	for _, m := range memberships {
		resp := m.Room.ToResponse()
		if count, ok := h.messageCache.GetUnreadCount(m.RoomID, userID); ok {
			resp.UnreadCount = count
		} else if count, err := h.messageService.UnreadCount(m.RoomID, userID); err == nil {
			resp.UnreadCount = count
			_ = h.messageCache.SetUnreadCount(m.RoomID, userID, count)
		}
		rooms = append(rooms, resp)
	}

	return c.JSON(fiber.Map{"rooms": rooms, "count": len(rooms)})
}

func (h *RoomHandler) GetMembers(c *fiber.Ctx) error {
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

	members, err := h.roomService.GetMembers(roomID)
	if err != nil {
		return httpx.Internal(c, "list_members_failed")
	}

	responses := make([]interface{}, len(members))
	for i, m := range members {
		resp := m.ToResponse()
		// Live presence, when available, beats the persisted flag.
		if h.presence.IsOnline(m.UserID) {
			resp.User.IsOnline = true
		}
		responses[i] = resp
	}
	return c.JSON(fiber.Map{
		"members":   responses,
		"count":     len(members),
		"connected": h.registry.Count(roomID),
	})
}
