package repository

import (
	"time"

	"github.com/mohidul32/Chat-Application/internal/models"
	"gorm.io/gorm"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) FindByID(id string) (*models.Room, error) {
	var room models.Room
	if err := r.db.Preload("Creator").First(&room, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) FindPrivateByPairKey(pairKey string) (*models.Room, error) {
	var room models.Room
	err := r.db.Where("kind = ? AND pair_key = ?", models.PrivateRoom, pairKey).
		Preload("Creator").
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// CreateRoom persists the room, its initial memberships and an optional
// announcement message atomically.
func (r *RoomRepository) CreateRoom(room *models.Room, memberships []models.Membership, announcement *models.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		for i := range memberships {
			memberships[i].RoomID = room.ID
			if err := tx.Create(&memberships[i]).Error; err != nil {
				return err
			}
		}
		if announcement != nil {
			announcement.RoomID = room.ID
			if err := tx.Create(announcement).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *RoomRepository) TouchActivity(roomID string, at time.Time) error {
	return r.db.Model(&models.Room{}).Where("id = ?", roomID).
		Update("last_activity_at", at).Error
}
