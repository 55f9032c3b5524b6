package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mohidul32/Chat-Application/internal/models"
	"github.com/mohidul32/Chat-Application/internal/repository"
	"gorm.io/gorm"
)

// MessageService is the message store: the append-only per-room log,
// soft deletion, edits, reactions and read watermarks.
type MessageService struct {
	messageRepo    repository.MessageRepositoryInterface
	membershipRepo repository.MembershipRepositoryInterface
	reactionRepo   repository.ReactionRepositoryInterface
}

func NewMessageService(
	messageRepo repository.MessageRepositoryInterface,
	membershipRepo repository.MembershipRepositoryInterface,
	reactionRepo repository.ReactionRepositoryInterface,
) *MessageService {
	return &MessageService{
		messageRepo:    messageRepo,
		membershipRepo: membershipRepo,
		reactionRepo:   reactionRepo,
	}
}

// AttachmentInput is the opaque handle a client obtained from the blob
// store. The message store records it without touching the bytes.
type AttachmentInput struct {
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	FileKey  string `json:"file_key"`
}

// Append validates and persists one message at the tail of the room's
// log. The message ID is a UUIDv7, so IDs sort by arrival.
func (s *MessageService) Append(roomID string, senderID uint, kind models.MessageKind, content string, attachment *AttachmentInput, replyTo *string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && attachment == nil {
		return nil, ErrEmptyMessage
	}

	if replyTo != nil && *replyTo != "" {
		ref, err := s.messageRepo.FindByID(*replyTo)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidReference
			}
			return nil, fmt.Errorf("resolve reply reference: %w", err)
		}
		if ref.RoomID != roomID {
			return nil, ErrInvalidReference
		}
	} else {
		replyTo = nil
	}

	if kind == "" {
		kind = models.TextMessage
		if attachment != nil {
			kind = models.FileMessage
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	message := &models.Message{
		ID:        id.String(),
		RoomID:    roomID,
		SenderID:  senderID,
		Kind:      kind,
		Content:   content,
		ReplyToID: replyTo,
		CreatedAt: time.Now().UTC(),
	}
	if attachment != nil {
		message.FileName = attachment.FileName
		message.FileSize = attachment.FileSize
		message.FileKey = attachment.FileKey
	}

	if err := s.messageRepo.Create(message); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	// The row is durable at this point; a failing enriching re-read must
	// not turn the send into an error. Fall back to the in-memory row
	// and fill the sender from the membership.
	stored, err := s.messageRepo.FindByID(message.ID)
	if err != nil {
		if membership, merr := s.membershipRepo.Get(roomID, senderID); merr == nil {
			message.Sender = membership.User
		}
		return message, nil
	}
	return stored, nil
}

// ListRecent returns a window of the room's log, oldest-first, paged
// backwards by the (arrival time, id) cursor of the oldest message
// already seen. Tombstoned entries stay in the window.
func (s *MessageService) ListRecent(roomID string, before *time.Time, beforeID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	return s.messageRepo.ListRecent(roomID, before, beforeID, limit)
}

// SoftDelete tombstones a message. Only the sender, or a room admin or
// moderator, may delete it; identity and timestamps survive.
func (s *MessageService) SoftDelete(messageID string, actorID uint) error {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return err
	}

	if message.SenderID != actorID {
		membership, err := s.membershipRepo.Get(message.RoomID, actorID)
		if err != nil || !membership.IsActive ||
			(membership.Role != models.RoleAdmin && membership.Role != models.RoleModerator) {
			return ErrNotAuthorized
		}
	}

	return s.messageRepo.SoftDelete(messageID, models.DeletedMessageText)
}

// EditMessage replaces the content and stamps the edit marker. Only the
// sender may edit, and tombstoned messages stay tombstoned.
func (s *MessageService) EditMessage(messageID string, actorID uint, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	if message.SenderID != actorID {
		return nil, ErrNotAuthorized
	}
	if message.IsDeleted {
		return nil, ErrInvalidOperation
	}

	if err := s.messageRepo.Edit(messageID, content, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.messageRepo.FindByID(messageID)
}

// MarkRead advances the member's watermark to max(current, upTo).
func (s *MessageService) MarkRead(roomID string, userID uint, upTo time.Time) error {
	err := s.membershipRepo.MarkReadMonotonic(roomID, userID, upTo)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotMember
	}
	return err
}

// UnreadCount counts messages newer than the member's watermark, not
// counting the member's own.
func (s *MessageService) UnreadCount(roomID string, userID uint) (int, error) {
	membership, err := s.membershipRepo.Get(roomID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotMember
		}
		return 0, err
	}
	if !membership.IsActive {
		return 0, ErrNotMember
	}

	count, err := s.messageRepo.CountUnread(roomID, userID, membership.LastReadAt)
	return int(count), err
}

// ToggleReaction adds the (message, user, kind) reaction, or removes it
// when it already exists. Returns whether the reaction is now present.
func (s *MessageService) ToggleReaction(messageID string, userID uint, kind string) (bool, error) {
	if _, err := s.messageRepo.FindByID(messageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrMessageNotFound
		}
		return false, err
	}

	if _, err := s.reactionRepo.Find(messageID, userID, kind); err == nil {
		return false, s.reactionRepo.Delete(messageID, userID, kind)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	return true, s.reactionRepo.Create(&models.Reaction{
		MessageID: messageID,
		UserID:    userID,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	})
}

func (s *MessageService) GetMessage(messageID string) (*models.Message, error) {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return message, nil
}
