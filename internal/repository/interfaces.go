package repository

import (
	"time"

	"github.com/mohidul32/Chat-Application/internal/models"
)

// RoomRepositoryInterface defines the contract for room storage. The
// multi-row creation methods are transactional: either the room and all
// its memberships (and announcement) land, or nothing does.
type RoomRepositoryInterface interface {
	FindByID(id string) (*models.Room, error)
	FindPrivateByPairKey(pairKey string) (*models.Room, error)
	CreateRoom(room *models.Room, memberships []models.Membership, announcement *models.Message) error
	TouchActivity(roomID string, at time.Time) error
}

// MembershipRepositoryInterface defines the contract for membership and
// read-watermark storage.
type MembershipRepositoryInterface interface {
	Get(roomID string, userID uint) (*models.Membership, error)
	IsActiveMember(roomID string, userID uint) (bool, error)
	ListActiveByRoom(roomID string) ([]models.Membership, error)
	ListActiveByUser(userID uint) ([]models.Membership, error)
	// Deactivate flips the membership inactive and, when departure is
	// non-nil, appends the system message in the same transaction.
	Deactivate(roomID string, userID uint, departure *models.Message) error
	// MarkReadMonotonic advances last_read_at to max(current, upTo).
	MarkReadMonotonic(roomID string, userID uint, upTo time.Time) error
}

// MessageRepositoryInterface defines the contract for the per-room
// append-only message log.
type MessageRepositoryInterface interface {
	// Create appends the message and bumps the room's last-activity
	// timestamp in one transaction.
	Create(message *models.Message) error
	FindByID(id string) (*models.Message, error)
	// ListRecent returns the newest window before the cursor, reordered
	// oldest-first. The cursor is the (created_at, id) pair of the oldest
	// message already seen, so rows sharing a timestamp never straddle a
	// page boundary. Soft-deleted rows are included; their content has
	// already been replaced by the tombstone text.
	ListRecent(roomID string, before *time.Time, beforeID string, limit int) ([]models.Message, error)
	SoftDelete(id string, tombstone string) error
	Edit(id string, content string, at time.Time) error
	CountInRoom(roomID string) (int64, error)
	// CountUnread counts messages that arrived after the watermark,
	// excluding the member's own.
	CountUnread(roomID string, userID uint, after time.Time) (int64, error)
}

// ReactionRepositoryInterface defines the contract for message reactions.
type ReactionRepositoryInterface interface {
	Find(messageID string, userID uint, kind string) (*models.Reaction, error)
	Create(reaction *models.Reaction) error
	Delete(messageID string, userID uint, kind string) error
	ListByMessage(messageID string) ([]models.Reaction, error)
}

// UserRepositoryInterface defines the contract for identity rows.
type UserRepositoryInterface interface {
	FindByID(id uint) (*models.User, error)
	Upsert(user *models.User) error
	UpdateOnlineStatus(userID uint, isOnline bool) error
}
