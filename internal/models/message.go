package models

import (
	"time"
)

type MessageKind string

const (
	TextMessage   MessageKind = "text"
	ImageMessage  MessageKind = "image"
	FileMessage   MessageKind = "file"
	SystemMessage MessageKind = "system"
)

// DeletedMessageText replaces the content of soft-deleted messages.
const DeletedMessageText = "This message was deleted"

// Message is one entry in a room's append-only log. IDs are UUIDv7, so
// lexical order matches arrival order within a room.
type Message struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_room_arrival,priority:2" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	RoomID   string `gorm:"type:varchar(36);not null;index:idx_room_arrival,priority:1" json:"room_id"`
	SenderID uint   `gorm:"not null;index" json:"sender_id"`
	Sender   User   `gorm:"foreignKey:SenderID" json:"sender"`

	Kind    MessageKind `gorm:"type:varchar(10);not null;default:'text'" json:"kind"`
	Content string      `gorm:"type:text" json:"content"`

	// Attachment handle: an opaque reference into the external blob
	// store. The core never touches the bytes behind FileKey.
	FileName string `gorm:"size:255" json:"file_name,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
	FileKey  string `gorm:"size:512" json:"file_key,omitempty"`

	EditedAt  *time.Time `json:"edited_at,omitempty"`
	IsDeleted bool       `gorm:"default:false" json:"is_deleted"`

	// ReplyToID must reference a message in the same room.
	ReplyToID *string `gorm:"type:varchar(36);index" json:"reply_to_id,omitempty"`

	Reactions []Reaction `gorm:"foreignKey:MessageID" json:"reactions,omitempty"`
}

func (m *Message) IsEdited() bool {
	return m.EditedAt != nil
}

func (m *Message) HasAttachment() bool {
	return m.FileKey != ""
}

// Reaction is unique per (message, user, kind) triple.
type Reaction struct {
	MessageID string    `gorm:"type:varchar(36);primaryKey" json:"message_id"`
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	Kind      string    `gorm:"type:varchar(10);primaryKey" json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageResponse struct {
	ID        string       `json:"id"`
	RoomID    string       `json:"room_id"`
	SenderID  uint         `json:"sender_id"`
	Sender    UserResponse `json:"sender"`
	Kind      MessageKind  `json:"kind"`
	Content   string       `json:"content"`
	FileName  string       `json:"file_name,omitempty"`
	FileSize  int64        `json:"file_size,omitempty"`
	FileKey   string       `json:"file_key,omitempty"`
	EditedAt  *time.Time   `json:"edited_at,omitempty"`
	IsDeleted bool         `json:"is_deleted"`
	ReplyToID *string      `json:"reply_to_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	Reactions []Reaction   `json:"reactions,omitempty"`
}

func (m *Message) ToResponse() MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		RoomID:    m.RoomID,
		SenderID:  m.SenderID,
		Sender:    m.Sender.ToResponse(),
		Kind:      m.Kind,
		Content:   m.Content,
		FileName:  m.FileName,
		FileSize:  m.FileSize,
		FileKey:   m.FileKey,
		EditedAt:  m.EditedAt,
		IsDeleted: m.IsDeleted,
		ReplyToID: m.ReplyToID,
		CreatedAt: m.CreatedAt,
		Reactions: m.Reactions,
	}
}
