package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mohidul32/Chat-Application/internal/models"
	"github.com/mohidul32/Chat-Application/internal/repository"
	"gorm.io/gorm"
)

// RoomService is the room directory: the source of truth for rooms and
// memberships, and the only component that creates or removes them.
type RoomService struct {
	roomRepo       repository.RoomRepositoryInterface
	membershipRepo repository.MembershipRepositoryInterface
	userRepo       repository.UserRepositoryInterface
}

func NewRoomService(
	roomRepo repository.RoomRepositoryInterface,
	membershipRepo repository.MembershipRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
) *RoomService {
	return &RoomService{
		roomRepo:       roomRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
	}
}

// PrivatePairKey is the canonical key for the private room between two
// users, independent of argument order.
func PrivatePairKey(userA, userB uint) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("p:%d:%d", userA, userB)
}

// GetOrCreatePrivateRoom returns the private room between the two users,
// creating it atomically (room plus both memberships) when none exists.
// The pair-key unique index makes the create race-free: a concurrent
// creator loses the insert and we re-read the winner's room.
func (s *RoomService) GetOrCreatePrivateRoom(userA, userB uint) (*models.Room, error) {
	if userA == userB {
		return nil, ErrInvalidOperation
	}

	pairKey := PrivatePairKey(userA, userB)
	if room, err := s.roomRepo.FindPrivateByPairKey(pairKey); err == nil {
		return room, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	room := &models.Room{
		ID:             uuid.NewString(),
		Kind:           models.PrivateRoom,
		CreatorID:      userA,
		IsActive:       true,
		MaxMembers:     2,
		PairKey:        &pairKey,
		LastActivityAt: now,
	}
	memberships := []models.Membership{
		{UserID: userA, Role: models.RoleAdmin, IsActive: true, LastReadAt: now},
		{UserID: userB, Role: models.RoleMember, IsActive: true, LastReadAt: now},
	}

	if err := s.roomRepo.CreateRoom(room, memberships, nil); err != nil {
		// Lost the race: the other creator's room is the canonical one.
		if existing, ferr := s.roomRepo.FindPrivateByPairKey(pairKey); ferr == nil {
			return existing, nil
		}
		return nil, err
	}
	return s.roomRepo.FindByID(room.ID)
}

// CreateGroupRoom creates the group, its creator-admin membership and a
// deduplicated member list, and announces the creation with a system
// message, all atomically.
func (s *RoomService) CreateGroupRoom(creatorID uint, name, description string, memberIDs []uint) (*models.Room, error) {
	creator, err := s.userRepo.FindByID(creatorID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	room := &models.Room{
		ID:             uuid.NewString(),
		Kind:           models.GroupRoom,
		Name:           name,
		Description:    description,
		CreatorID:      creatorID,
		IsActive:       true,
		MaxMembers:     100,
		LastActivityAt: now,
	}

	memberships := []models.Membership{
		{UserID: creatorID, Role: models.RoleAdmin, IsActive: true, LastReadAt: now},
	}
	seen := map[uint]bool{creatorID: true}
	for _, id := range memberIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		memberships = append(memberships, models.Membership{
			UserID: id, Role: models.RoleMember, IsActive: true, LastReadAt: now,
		})
	}
	if len(memberships) > room.MaxMembers {
		return nil, ErrInvalidOperation
	}

	announcement, err := newSystemMessage(creatorID, fmt.Sprintf("%s created the group '%s'", creator.Username, name), now)
	if err != nil {
		return nil, err
	}

	if err := s.roomRepo.CreateRoom(room, memberships, announcement); err != nil {
		return nil, err
	}
	return s.roomRepo.FindByID(room.ID)
}

// IsMember reports whether the user holds an active membership. Used by
// the gateway as the authorization check.
func (s *RoomService) IsMember(roomID string, userID uint) (bool, error) {
	return s.membershipRepo.IsActiveMember(roomID, userID)
}

// LeaveRoom deactivates the membership and announces the departure.
// Private rooms keep their two memberships for life.
func (s *RoomService) LeaveRoom(roomID string, userID uint) error {
	room, err := s.roomRepo.FindByID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomNotFound
		}
		return err
	}
	if room.Kind == models.PrivateRoom {
		return ErrInvalidOperation
	}

	membership, err := s.membershipRepo.Get(roomID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotMember
		}
		return err
	}
	if !membership.IsActive {
		return ErrNotMember
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return err
	}
	departure, err := newSystemMessage(userID, fmt.Sprintf("%s left the group", user.Username), time.Now().UTC())
	if err != nil {
		return err
	}
	departure.RoomID = roomID

	if err := s.membershipRepo.Deactivate(roomID, userID, departure); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotMember
		}
		return err
	}
	// The departure announcement counts as room activity.
	return s.roomRepo.TouchActivity(roomID, departure.CreatedAt)
}

func (s *RoomService) GetRoom(roomID string) (*models.Room, error) {
	room, err := s.roomRepo.FindByID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

func (s *RoomService) GetMembers(roomID string) ([]models.Membership, error) {
	return s.membershipRepo.ListActiveByRoom(roomID)
}

// ListRoomsForUser returns the rooms the user belongs to, most recently
// active first.
func (s *RoomService) ListRoomsForUser(userID uint) ([]models.Membership, error) {
	memberships, err := s.membershipRepo.ListActiveByUser(userID)
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(memberships); i++ {
		for j := i + 1; j < len(memberships); j++ {
			if memberships[j].Room.LastActivityAt.After(memberships[i].Room.LastActivityAt) {
				memberships[i], memberships[j] = memberships[j], memberships[i]
			}
		}
	}
	return memberships, nil
}

// newSystemMessage builds an announcement row. RoomID is filled by the
// caller or the room-create transaction.
func newSystemMessage(senderID uint, content string, at time.Time) (*models.Message, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	return &models.Message{
		ID:        id.String(),
		SenderID:  senderID,
		Kind:      models.SystemMessage,
		Content:   content,
		CreatedAt: at,
	}, nil
}
