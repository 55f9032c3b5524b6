package repository

import (
	"time"

	"github.com/mohidul32/Chat-Application/internal/models"
	"gorm.io/gorm"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Get(roomID string, userID uint) (*models.Membership, error) {
	var membership models.Membership
	err := r.db.Where("room_id = ? AND user_id = ?", roomID, userID).
		Preload("User").
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *MembershipRepository) IsActiveMember(roomID string, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Membership{}).
		Where("room_id = ? AND user_id = ? AND is_active = true", roomID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *MembershipRepository) ListActiveByRoom(roomID string) ([]models.Membership, error) {
	var memberships []models.Membership
	err := r.db.Where("room_id = ? AND is_active = true", roomID).
		Preload("User").
		Order("joined_at ASC").
		Find(&memberships).Error
	return memberships, err
}

func (r *MembershipRepository) ListActiveByUser(userID uint) ([]models.Membership, error) {
	var memberships []models.Membership
	err := r.db.Where("user_id = ? AND is_active = true", userID).
		Preload("Room").
		Preload("Room.Creator").
		Find(&memberships).Error
	return memberships, err
}

func (r *MembershipRepository) Deactivate(roomID string, userID uint, departure *models.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Membership{}).
			Where("room_id = ? AND user_id = ? AND is_active = true", roomID, userID).
			Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if departure != nil {
			if err := tx.Create(departure).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// MarkReadMonotonic never moves the watermark backwards, even when
// callers race with stale timestamps.
func (r *MembershipRepository) MarkReadMonotonic(roomID string, userID uint, upTo time.Time) error {
	res := r.db.Exec(`
		UPDATE memberships
		SET last_read_at = GREATEST(last_read_at, ?)
		WHERE room_id = ? AND user_id = ? AND is_active = true
	`, upTo, roomID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
