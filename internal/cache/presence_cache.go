package cache

const onlineSetKey = "presence:online"

// PresenceCache tracks which users currently hold at least one open
// connection. Nil-safe like MessageCache.
type PresenceCache struct {
	redis *RedisCache
}

func NewPresenceCache(redis *RedisCache) *PresenceCache {
	return &PresenceCache{redis: redis}
}

func (pc *PresenceCache) SetUserOnline(userID uint) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	return pc.redis.SetAdd(onlineSetKey, userID)
}

func (pc *PresenceCache) SetUserOffline(userID uint) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	return pc.redis.SetRemove(onlineSetKey, userID)
}

func (pc *PresenceCache) IsOnline(userID uint) bool {
	if pc == nil || pc.redis == nil {
		return false
	}
	return pc.redis.SetIsMember(onlineSetKey, userID)
}
