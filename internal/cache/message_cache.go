package cache

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mohidul32/Chat-Application/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	RecentWindowTTL = 5 * time.Minute
	UnreadCountTTL  = time.Minute
)

// MessageCache caches the first (most recent) page of each room's log
// and per-member unread counts. All methods tolerate a nil receiver so
// the server can run without Redis.
type MessageCache struct {
	redis *RedisCache
}

func NewMessageCache(redis *RedisCache) *MessageCache {
	return &MessageCache{redis: redis}
}

func recentKey(roomID string) string {
	return "room:" + roomID + ":recent"
}

func unreadKey(roomID string, userID uint) string {
	return fmt.Sprintf("unread:%s:%d", roomID, userID)
}

func (mc *MessageCache) GetRecent(roomID string) ([]models.Message, bool) {
	if mc == nil || mc.redis == nil {
		return nil, false
	}
	data, err := mc.redis.Get(recentKey(roomID))
	if err != nil || data == nil {
		return nil, false
	}
	var messages []models.Message
	if err := msgpack.Unmarshal(data, &messages); err != nil {
		return nil, false
	}
	return messages, true
}

func (mc *MessageCache) SetRecent(roomID string, messages []models.Message) error {
	if mc == nil || mc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(messages)
	if err != nil {
		return err
	}
	return mc.redis.Set(recentKey(roomID), data, RecentWindowTTL)
}

// InvalidateRoom drops the cached window after any append, edit or
// delete in the room.
func (mc *MessageCache) InvalidateRoom(roomID string) error {
	if mc == nil || mc.redis == nil {
		return nil
	}
	return mc.redis.Delete(recentKey(roomID))
}

func (mc *MessageCache) GetUnreadCount(roomID string, userID uint) (int, bool) {
	if mc == nil || mc.redis == nil {
		return 0, false
	}
	data, err := mc.redis.Get(unreadKey(roomID, userID))
	if err != nil || data == nil {
		return 0, false
	}
	count, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, false
	}
	return count, true
}

func (mc *MessageCache) SetUnreadCount(roomID string, userID uint, count int) error {
	if mc == nil || mc.redis == nil {
		return nil
	}
	return mc.redis.Set(unreadKey(roomID, userID), []byte(strconv.Itoa(count)), UnreadCountTTL)
}

func (mc *MessageCache) InvalidateUnread(roomID string, userID uint) error {
	if mc == nil || mc.redis == nil {
		return nil
	}
	return mc.redis.Delete(unreadKey(roomID, userID))
}
