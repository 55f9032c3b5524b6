package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/mohidul32/Chat-Application/internal/models"
)

func seedUsers(s *memStore, usernames ...string) {
	for i, name := range usernames {
		s.addUser(&models.User{ID: uint(i + 1), Username: name})
	}
}

func TestGetOrCreatePrivateRoomIdempotent(t *testing.T) {
	s, rooms, _ := newTestServices()
	seedUsers(s, "alice", "bob")

	first, err := rooms.GetOrCreatePrivateRoom(1, 2)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := rooms.GetOrCreatePrivateRoom(1, 2)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same room, got %s and %s", first.ID, second.ID)
	}

	// Argument order must not matter.
	swapped, err := rooms.GetOrCreatePrivateRoom(2, 1)
	if err != nil {
		t.Fatalf("swapped create: %v", err)
	}
	if swapped.ID != first.ID {
		t.Errorf("expected same room regardless of order, got %s", swapped.ID)
	}

	if len(s.rooms) != 1 {
		t.Errorf("room count grew to %d", len(s.rooms))
	}
}

func TestGetOrCreatePrivateRoomSelf(t *testing.T) {
	s, rooms, _ := newTestServices()
	seedUsers(s, "alice")

	if _, err := rooms.GetOrCreatePrivateRoom(1, 1); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("expected ErrInvalidOperation, got %v", err)
	}
}

func TestPrivateRoomMemberships(t *testing.T) {
	s, rooms, _ := newTestServices()
	seedUsers(s, "alice", "bob")

	room, err := rooms.GetOrCreatePrivateRoom(1, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	members, err := rooms.GetMembers(room.ID)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 memberships, got %d", len(members))
	}

	roles := map[uint]models.MemberRole{}
	for _, m := range members {
		roles[m.UserID] = m.Role
	}
	if roles[1] != models.RoleAdmin {
		t.Errorf("initiator role = %s, want admin", roles[1])
	}
	if roles[2] != models.RoleMember {
		t.Errorf("peer role = %s, want member", roles[2])
	}
}

func TestCreateGroupRoomDedupesMembers(t *testing.T) {
	s, rooms, _ := newTestServices()
	seedUsers(s, "alice", "bob", "carol")

	// Duplicates and the creator herself must not produce extra rows.
	room, err := rooms.CreateGroupRoom(1, "book club", "weekly reads", []uint{2, 2, 3, 1})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	members, err := rooms.GetMembers(room.ID)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("expected 3 memberships, got %d", len(members))
	}
	for _, m := range members {
		want := models.RoleMember
		if m.UserID == 1 {
			want = models.RoleAdmin
		}
		if m.Role != want {
			t.Errorf("user %d role = %s, want %s", m.UserID, m.Role, want)
		}
	}
}

func TestCreateGroupRoomAnnouncement(t *testing.T) {
	s, rooms, _ := newTestServices()
	seedUsers(s, "alice", "bob")

	room, err := rooms.CreateGroupRoom(1, "book club", "", []uint{2})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	var found bool
	for _, msg := range s.messages {
		if msg.RoomID == room.ID && msg.Kind == models.SystemMessage {
			found = true
			if !strings.Contains(msg.Content, "alice") || !strings.Contains(msg.Content, "book club") {
				t.Errorf("announcement content = %q", msg.Content)
			}
		}
	}
	if !found {
		t.Error("expected a system announcement message")
	}
}

func TestLeavePrivateRoomFails(t *testing.T) {
	s, rooms, _ := newTestServices()
	seedUsers(s, "alice", "bob")

	room, err := rooms.GetOrCreatePrivateRoom(1, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := rooms.LeaveRoom(room.ID, 1); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}

	// Membership must stay active.
	isMember, err := rooms.IsMember(room.ID, 1)
	if err != nil || !isMember {
		t.Errorf("membership should remain active after failed leave")
	}
}

func TestLeaveRoomNotMember(t *testing.T) {
	s, rooms, _ := newTestServices()
	seedUsers(s, "alice", "bob", "mallory")

	room, err := rooms.CreateGroupRoom(1, "book club", "", []uint{2})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	if err := rooms.LeaveRoom(room.ID, 3); !errors.Is(err, ErrNotMember) {
		t.Errorf("expected ErrNotMember, got %v", err)
	}
}

func TestLeaveRoomUnknownRoom(t *testing.T) {
	s, rooms, _ := newTestServices()
	seedUsers(s, "alice")

	if err := rooms.LeaveRoom("no-such-room", 1); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestLeaveGroupRoom(t *testing.T) {
	s, rooms, _ := newTestServices()
	seedUsers(s, "alice", "bob")

	room, err := rooms.CreateGroupRoom(1, "book club", "", []uint{2})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	if err := rooms.LeaveRoom(room.ID, 2); err != nil {
		t.Fatalf("leave: %v", err)
	}

	isMember, err := rooms.IsMember(room.ID, 2)
	if err != nil {
		t.Fatalf("is member: %v", err)
	}
	if isMember {
		t.Error("membership should be inactive after leaving")
	}

	// Leaving again reports NotMember.
	if err := rooms.LeaveRoom(room.ID, 2); !errors.Is(err, ErrNotMember) {
		t.Errorf("expected ErrNotMember on second leave, got %v", err)
	}

	var departures int
	for _, msg := range s.messages {
		if msg.RoomID == room.ID && msg.Kind == models.SystemMessage && strings.Contains(msg.Content, "left") {
			departures++
		}
	}
	if departures != 1 {
		t.Errorf("expected 1 departure announcement, got %d", departures)
	}
}

func TestListRoomsForUserOrdersByActivity(t *testing.T) {
	s, rooms, messages := newTestServices()
	seedUsers(s, "alice", "bob", "carol")

	first, err := rooms.CreateGroupRoom(1, "first", "", []uint{2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := rooms.CreateGroupRoom(1, "second", "", []uint{3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Activity in the first room makes it the most recent.
	if _, err := messages.Append(first.ID, 2, models.TextMessage, "bump", nil, nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	listed, err := rooms.ListRoomsForUser(1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(listed))
	}
	if listed[0].RoomID != first.ID || listed[1].RoomID != second.ID {
		t.Errorf("rooms not ordered by last activity: %s, %s", listed[0].RoomID, listed[1].RoomID)
	}
}
