package repository

import (
	"time"

	"github.com/mohidul32/Chat-Application/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create appends the message and bumps the room's last-activity
// timestamp in one transaction, so other components never observe one
// without the other.
func (r *MessageRepository) Create(message *models.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Room{}).Where("id = ?", message.RoomID).
			Update("last_activity_at", message.CreatedAt).Error
	})
}

func (r *MessageRepository) FindByID(id string) (*models.Message, error) {
	var message models.Message
	err := r.db.Preload("Sender").Preload("Reactions").
		First(&message, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) ListRecent(roomID string, before *time.Time, beforeID string, limit int) ([]models.Message, error) {
	q := r.db.Preload("Sender").Preload("Reactions").
		Where("room_id = ?", roomID)
	if before != nil {
		if beforeID != "" {
			q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", *before, *before, beforeID)
		} else {
			q = q.Where("created_at < ?", *before)
		}
	}

	var messages []models.Message
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Reverse so the returned window reads oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// SoftDelete keeps the row (id, sender, timestamps) but replaces its
// content with the tombstone text.
func (r *MessageRepository) SoftDelete(id string, tombstone string) error {
	res := r.db.Model(&models.Message{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"content":    tombstone,
			"file_name":  "",
			"file_key":   "",
			"file_size":  0,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *MessageRepository) Edit(id string, content string, at time.Time) error {
	res := r.db.Model(&models.Message{}).Where("id = ? AND is_deleted = false", id).
		Updates(map[string]interface{}{
			"content":   content,
			"edited_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *MessageRepository) CountInRoom(roomID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Message{}).Where("room_id = ?", roomID).Count(&count).Error
	return count, err
}

func (r *MessageRepository) CountUnread(roomID string, userID uint, after time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Message{}).
		Where("room_id = ? AND created_at > ? AND sender_id <> ?", roomID, after, userID).
		Count(&count).Error
	return count, err
}
