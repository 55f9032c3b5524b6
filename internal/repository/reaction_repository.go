package repository

import (
	"github.com/mohidul32/Chat-Application/internal/models"
	"gorm.io/gorm"
)

type ReactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) *ReactionRepository {
	return &ReactionRepository{db: db}
}

func (r *ReactionRepository) Find(messageID string, userID uint, kind string) (*models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.Where("message_id = ? AND user_id = ? AND kind = ?", messageID, userID, kind).
		First(&reaction).Error
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

func (r *ReactionRepository) Create(reaction *models.Reaction) error {
	return r.db.Create(reaction).Error
}

func (r *ReactionRepository) Delete(messageID string, userID uint, kind string) error {
	return r.db.Where("message_id = ? AND user_id = ? AND kind = ?", messageID, userID, kind).
		Delete(&models.Reaction{}).Error
}

func (r *ReactionRepository) ListByMessage(messageID string) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := r.db.Where("message_id = ?", messageID).Find(&reactions).Error
	return reactions, err
}
