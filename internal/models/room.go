package models

import (
	"time"
)

type RoomKind string

const (
	PrivateRoom RoomKind = "private"
	GroupRoom   RoomKind = "group"
)

type MemberRole string

const (
	RoleAdmin     MemberRole = "admin"
	RoleModerator MemberRole = "moderator"
	RoleMember    MemberRole = "member"
)

// Room is a channel grouping a set of members sharing one message
// stream. A private room has exactly two memberships for its lifetime;
// a group room has 1..MaxMembers.
type Room struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Kind        RoomKind `gorm:"type:varchar(10);not null;default:'private';index" json:"kind"`
	Name        string   `gorm:"size:255" json:"name"`
	Description string   `gorm:"size:1000" json:"description"`
	CreatorID   uint     `gorm:"not null" json:"creator_id"`
	IsActive    bool     `gorm:"default:true" json:"is_active"`
	MaxMembers  int      `gorm:"default:100" json:"max_members"`

	// PairKey is set only for private rooms: "p:<lowID>:<highID>". The
	// unique index makes get-or-create race-free.
	PairKey *string `gorm:"uniqueIndex" json:"-"`

	LastActivityAt time.Time `gorm:"index" json:"last_activity_at"`

	Creator User         `gorm:"foreignKey:CreatorID" json:"creator"`
	Members []Membership `gorm:"foreignKey:RoomID" json:"members,omitempty"`
}

// Membership is a user's association with a room. Exactly one row can
// exist per (room, user); departures flip IsActive rather than deleting.
type Membership struct {
	RoomID   string    `gorm:"type:varchar(36);primaryKey" json:"room_id"`
	UserID   uint      `gorm:"primaryKey" json:"user_id"`
	Role     MemberRole `gorm:"type:varchar(10);not null;default:'member'" json:"role"`
	IsActive bool      `gorm:"default:true;index" json:"is_active"`
	IsMuted  bool      `gorm:"default:false" json:"is_muted"`

	// LastReadAt is the read watermark: monotonically non-decreasing,
	// advanced only through the message store's MarkRead.
	LastReadAt time.Time `gorm:"not null" json:"last_read_at"`
	JoinedAt   time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User User `gorm:"foreignKey:UserID" json:"user"`
	Room Room `gorm:"foreignKey:RoomID" json:"-"`
}

type RoomResponse struct {
	ID             string       `json:"id"`
	Kind           RoomKind     `json:"kind"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	CreatorID      uint         `json:"creator_id"`
	IsActive       bool         `json:"is_active"`
	MaxMembers     int          `json:"max_members"`
	LastActivityAt time.Time    `json:"last_activity_at"`
	CreatedAt      time.Time    `json:"created_at"`
	UnreadCount    int          `json:"unread_count,omitempty"`
	Members        []MembershipResponse `json:"members,omitempty"`
}

type MembershipResponse struct {
	RoomID     string       `json:"room_id"`
	UserID     uint         `json:"user_id"`
	Role       MemberRole   `json:"role"`
	IsMuted    bool         `json:"is_muted"`
	LastReadAt time.Time    `json:"last_read_at"`
	JoinedAt   time.Time    `json:"joined_at"`
	User       UserResponse `json:"user"`
}

func (r *Room) ToResponse() RoomResponse {
	resp := RoomResponse{
		ID:             r.ID,
		Kind:           r.Kind,
		Name:           r.Name,
		Description:    r.Description,
		CreatorID:      r.CreatorID,
		IsActive:       r.IsActive,
		MaxMembers:     r.MaxMembers,
		LastActivityAt: r.LastActivityAt,
		CreatedAt:      r.CreatedAt,
	}
	for _, m := range r.Members {
		resp.Members = append(resp.Members, m.ToResponse())
	}
	return resp
}

func (m *Membership) ToResponse() MembershipResponse {
	return MembershipResponse{
		RoomID:     m.RoomID,
		UserID:     m.UserID,
		Role:       m.Role,
		IsMuted:    m.IsMuted,
		LastReadAt: m.LastReadAt,
		JoinedAt:   m.JoinedAt,
		User:       m.User.ToResponse(),
	}
}
