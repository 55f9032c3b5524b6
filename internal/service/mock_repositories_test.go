package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mohidul32/Chat-Application/internal/models"
	"gorm.io/gorm"
)

// memStore is the shared in-memory backing for the mock repositories,
// so room, membership and message mocks observe each other's writes the
// way the real repositories share one database.
type memStore struct {
	rooms       map[string]*models.Room
	memberships map[string]*models.Membership
	messages    map[string]*models.Message
	reactions   map[string]*models.Reaction
	users       map[uint]*models.User

	failWrites bool // simulates the store rejecting writes
	failReads  bool // simulates message lookups failing after a write landed
}

func newMemStore() *memStore {
	return &memStore{
		rooms:       make(map[string]*models.Room),
		memberships: make(map[string]*models.Membership),
		messages:    make(map[string]*models.Message),
		reactions:   make(map[string]*models.Reaction),
		users:       make(map[uint]*models.User),
	}
}

func (s *memStore) addUser(u *models.User) {
	s.users[u.ID] = u
}

func membershipKey(roomID string, userID uint) string {
	return fmt.Sprintf("%s|%d", roomID, userID)
}

func reactionKey(messageID string, userID uint, kind string) string {
	return fmt.Sprintf("%s|%d|%s", messageID, userID, kind)
}

var errStoreDown = errors.New("store unavailable")

// --- RoomRepositoryInterface ---

type mockRoomRepo struct{ s *memStore }

func (r *mockRoomRepo) FindByID(id string) (*models.Room, error) {
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *room
	return &copied, nil
}

func (r *mockRoomRepo) FindPrivateByPairKey(pairKey string) (*models.Room, error) {
	for _, room := range r.s.rooms {
		if room.Kind == models.PrivateRoom && room.PairKey != nil && *room.PairKey == pairKey {
			copied := *room
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockRoomRepo) CreateRoom(room *models.Room, memberships []models.Membership, announcement *models.Message) error {
	if r.s.failWrites {
		return errStoreDown
	}
	if room.PairKey != nil {
		if _, err := r.FindPrivateByPairKey(*room.PairKey); err == nil {
			return errors.New("duplicate pair key")
		}
	}
	copied := *room
	r.s.rooms[room.ID] = &copied
	for i := range memberships {
		m := memberships[i]
		m.RoomID = room.ID
		r.s.memberships[membershipKey(room.ID, m.UserID)] = &m
	}
	if announcement != nil {
		msg := *announcement
		msg.RoomID = room.ID
		r.s.messages[msg.ID] = &msg
	}
	return nil
}

func (r *mockRoomRepo) TouchActivity(roomID string, at time.Time) error {
	if room, ok := r.s.rooms[roomID]; ok {
		room.LastActivityAt = at
	}
	return nil
}

// --- MembershipRepositoryInterface ---

type mockMembershipRepo struct{ s *memStore }

func (r *mockMembershipRepo) Get(roomID string, userID uint) (*models.Membership, error) {
	m, ok := r.s.memberships[membershipKey(roomID, userID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *m
	if u, ok := r.s.users[userID]; ok {
		copied.User = *u
	}
	return &copied, nil
}

func (r *mockMembershipRepo) IsActiveMember(roomID string, userID uint) (bool, error) {
	m, ok := r.s.memberships[membershipKey(roomID, userID)]
	return ok && m.IsActive, nil
}

func (r *mockMembershipRepo) ListActiveByRoom(roomID string) ([]models.Membership, error) {
	var out []models.Membership
	for _, m := range r.s.memberships {
		if m.RoomID == roomID && m.IsActive {
			copied := *m
			if u, ok := r.s.users[m.UserID]; ok {
				copied.User = *u
			}
			out = append(out, copied)
		}
	}
	return out, nil
}

func (r *mockMembershipRepo) ListActiveByUser(userID uint) ([]models.Membership, error) {
	var out []models.Membership
	for _, m := range r.s.memberships {
		if m.UserID == userID && m.IsActive {
			copied := *m
			if room, ok := r.s.rooms[m.RoomID]; ok {
				copied.Room = *room
			}
			out = append(out, copied)
		}
	}
	return out, nil
}

func (r *mockMembershipRepo) Deactivate(roomID string, userID uint, departure *models.Message) error {
	if r.s.failWrites {
		return errStoreDown
	}
	m, ok := r.s.memberships[membershipKey(roomID, userID)]
	if !ok || !m.IsActive {
		return gorm.ErrRecordNotFound
	}
	m.IsActive = false
	if departure != nil {
		msg := *departure
		r.s.messages[msg.ID] = &msg
	}
	return nil
}

func (r *mockMembershipRepo) MarkReadMonotonic(roomID string, userID uint, upTo time.Time) error {
	m, ok := r.s.memberships[membershipKey(roomID, userID)]
	if !ok || !m.IsActive {
		return gorm.ErrRecordNotFound
	}
	if upTo.After(m.LastReadAt) {
		m.LastReadAt = upTo
	}
	return nil
}

// --- MessageRepositoryInterface ---

type mockMessageRepo struct{ s *memStore }

func (r *mockMessageRepo) Create(message *models.Message) error {
	if r.s.failWrites {
		return errStoreDown
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	copied := *message
	r.s.messages[message.ID] = &copied
	if room, ok := r.s.rooms[message.RoomID]; ok {
		room.LastActivityAt = message.CreatedAt
	}
	return nil
}

func (r *mockMessageRepo) FindByID(id string) (*models.Message, error) {
	if r.s.failReads {
		return nil, errStoreDown
	}
	m, ok := r.s.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *m
	if u, ok := r.s.users[m.SenderID]; ok {
		copied.Sender = *u
	}
	return &copied, nil
}

func (r *mockMessageRepo) ListRecent(roomID string, before *time.Time, beforeID string, limit int) ([]models.Message, error) {
	var all []models.Message
	for _, m := range r.s.messages {
		if m.RoomID != roomID {
			continue
		}
		if before != nil {
			older := m.CreatedAt.Before(*before) ||
				(beforeID != "" && m.CreatedAt.Equal(*before) && m.ID < beforeID)
			if !older {
				continue
			}
		}
		copied := *m
		if u, ok := r.s.users[m.SenderID]; ok {
			copied.Sender = *u
		}
		all = append(all, copied)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (r *mockMessageRepo) SoftDelete(id string, tombstone string) error {
	m, ok := r.s.messages[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.IsDeleted = true
	m.Content = tombstone
	m.FileName = ""
	m.FileKey = ""
	m.FileSize = 0
	return nil
}

func (r *mockMessageRepo) Edit(id string, content string, at time.Time) error {
	m, ok := r.s.messages[id]
	if !ok || m.IsDeleted {
		return gorm.ErrRecordNotFound
	}
	m.Content = content
	edited := at
	m.EditedAt = &edited
	return nil
}

func (r *mockMessageRepo) CountInRoom(roomID string) (int64, error) {
	var count int64
	for _, m := range r.s.messages {
		if m.RoomID == roomID {
			count++
		}
	}
	return count, nil
}

func (r *mockMessageRepo) CountUnread(roomID string, userID uint, after time.Time) (int64, error) {
	var count int64
	for _, m := range r.s.messages {
		if m.RoomID == roomID && m.CreatedAt.After(after) && m.SenderID != userID {
			count++
		}
	}
	return count, nil
}

// --- ReactionRepositoryInterface ---

type mockReactionRepo struct{ s *memStore }

func (r *mockReactionRepo) Find(messageID string, userID uint, kind string) (*models.Reaction, error) {
	reaction, ok := r.s.reactions[reactionKey(messageID, userID, kind)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *reaction
	return &copied, nil
}

func (r *mockReactionRepo) Create(reaction *models.Reaction) error {
	key := reactionKey(reaction.MessageID, reaction.UserID, reaction.Kind)
	if _, ok := r.s.reactions[key]; ok {
		return errors.New("duplicate reaction")
	}
	copied := *reaction
	r.s.reactions[key] = &copied
	return nil
}

func (r *mockReactionRepo) Delete(messageID string, userID uint, kind string) error {
	delete(r.s.reactions, reactionKey(messageID, userID, kind))
	return nil
}

func (r *mockReactionRepo) ListByMessage(messageID string) ([]models.Reaction, error) {
	var out []models.Reaction
	for _, reaction := range r.s.reactions {
		if reaction.MessageID == messageID {
			out = append(out, *reaction)
		}
	}
	return out, nil
}

// --- UserRepositoryInterface ---

type mockUserRepo struct{ s *memStore }

func (r *mockUserRepo) FindByID(id uint) (*models.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *mockUserRepo) Upsert(user *models.User) error {
	copied := *user
	r.s.users[user.ID] = &copied
	return nil
}

func (r *mockUserRepo) UpdateOnlineStatus(userID uint, isOnline bool) error {
	if u, ok := r.s.users[userID]; ok {
		u.IsOnline = isOnline
	}
	return nil
}

// newTestServices wires the services onto one shared store.
func newTestServices() (*memStore, *RoomService, *MessageService) {
	s := newMemStore()
	roomService := NewRoomService(&mockRoomRepo{s}, &mockMembershipRepo{s}, &mockUserRepo{s})
	messageService := NewMessageService(&mockMessageRepo{s}, &mockMembershipRepo{s}, &mockReactionRepo{s})
	return s, roomService, messageService
}
