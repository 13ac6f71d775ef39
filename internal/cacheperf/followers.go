package cacheperf

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/d60-Lab/warbler/internal/model"
)

// FollowerSnapshot contains the minimal user info follower pages render.
type FollowerSnapshot struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	ImageURL string `json:"image_url"`
	Bio      string `json:"bio"`
}

// FollowerService compares caching strategies for follower list reads.
// It exists for the cachebench harness, not for request serving.
type FollowerService struct {
	db      *gorm.DB
	cache   *redis.Client
	ttl     time.Duration
	dbDelay time.Duration

	pageQueries  atomic.Int64
	indexLoads   atomic.Int64
	userBulkLoad atomic.Int64
}

// NewFollowerService builds the harness service on the provided DB and
// redis client. dbDelay simulates extra round-trip cost to the primary
// store.
func NewFollowerService(db *gorm.DB, cache *redis.Client, ttl, dbDelay time.Duration) *FollowerService {
	return &FollowerService{db: db, cache: cache, ttl: ttl, dbDelay: dbDelay}
}

// FetchFollowersNoCache pages straight from the follows table.
func (s *FollowerService) FetchFollowersNoCache(ctx context.Context, userID uint, page, size int) ([]FollowerSnapshot, error) {
	return s.queryFollowers(ctx, userID, page, size)
}

// FetchFollowersNaiveCache caches each rendered page as one JSON blob.
// Overlapping pages and overlapping audiences each get their own copy.
func (s *FollowerService) FetchFollowersNaiveCache(ctx context.Context, userID uint, page, size int) ([]FollowerSnapshot, error) {
	key := fmt.Sprintf("followers:%d:%d:%d", userID, page, size)
	if data, err := s.cache.Get(ctx, key).Bytes(); err == nil {
		var out []FollowerSnapshot
		if uErr := json.Unmarshal(data, &out); uErr == nil {
			return out, nil
		}
	}

	rows, err := s.queryFollowers(ctx, userID, page, size)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(rows); err == nil {
		_ = s.cache.Set(ctx, key, payload, s.ttl).Err()
	}
	return rows, nil
}

// FetchFollowersOptimized keeps one id list per user plus one snapshot
// per user, so overlapping follower sets share storage.
func (s *FollowerService) FetchFollowersOptimized(ctx context.Context, userID uint, page, size int) ([]FollowerSnapshot, error) {
	key := fmt.Sprintf("followers:index:%d", userID)

	start := (page - 1) * size
	end := start + size - 1

	exists, _ := s.cache.Exists(ctx, key).Result()
	var ids []uint

	if exists > 0 {
		raw, _ := s.cache.LRange(ctx, key, int64(start), int64(end)).Result()
		ids = parseIDs(raw)
	}

	if len(ids) == 0 {
		allIDs, err := s.loadFollowerIDsAndCache(ctx, userID)
		if err != nil {
			return nil, err
		}

		if start >= len(allIDs) {
			return []FollowerSnapshot{}, nil
		}
		endIdx := start + size
		if endIdx > len(allIDs) {
			endIdx = len(allIDs)
		}
		ids = allIDs[start:endIdx]
	}

	return s.loadUsers(ctx, ids)
}

func (s *FollowerService) loadFollowerIDsAndCache(ctx context.Context, userID uint) ([]uint, error) {
	time.Sleep(s.dbDelay)
	s.indexLoads.Add(1)

	var ids []uint
	if err := s.db.WithContext(ctx).
		Table("follows").
		Select("user_following_id").
		Where("user_being_followed_id = ?", userID).
		Order("created_at DESC").
		Scan(&ids).Error; err != nil {
		return nil, err
	}

	key := fmt.Sprintf("followers:index:%d", userID)
	if len(ids) > 0 {
		pipe := s.cache.Pipeline()
		pipe.Del(ctx, key)
		pipe.RPush(ctx, key, idValues(ids)...)
		pipe.Expire(ctx, key, s.ttl)
		_, _ = pipe.Exec(ctx)
	}

	return ids, nil
}

func (s *FollowerService) queryFollowers(ctx context.Context, userID uint, page, size int) ([]FollowerSnapshot, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	time.Sleep(s.dbDelay)
	s.pageQueries.Add(1)

	var rows []FollowerSnapshot
	err := s.db.WithContext(ctx).
		Table("follows").
		Select("users.id", "users.username", "users.image_url", "users.bio").
		Joins("JOIN users ON follows.user_following_id = users.id").
		Where("follows.user_being_followed_id = ?", userID).
		Order("follows.created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *FollowerService) loadUsers(ctx context.Context, ids []uint) ([]FollowerSnapshot, error) {
	if len(ids) == 0 {
		return []FollowerSnapshot{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf("user:%d", id)
	}

	cached := make(map[uint]FollowerSnapshot, len(ids))
	if vals, err := s.cache.MGet(ctx, keys...).Result(); err == nil {
		for i, v := range vals {
			if v == nil {
				continue
			}
			if str, ok := v.(string); ok {
				var snap FollowerSnapshot
				if uErr := json.Unmarshal([]byte(str), &snap); uErr == nil {
					cached[ids[i]] = snap
				}
			}
		}
	}

	missing := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := cached[id]; !ok {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		s.userBulkLoad.Add(1)
		time.Sleep(s.dbDelay)

		var users []model.User
		if err := s.db.WithContext(ctx).Where("id IN ?", missing).Find(&users).Error; err != nil {
			return nil, err
		}
		for _, u := range users {
			snap := FollowerSnapshot{
				ID:       u.ID,
				Username: u.Username,
				ImageURL: u.ImageURL,
				Bio:      u.Bio,
			}
			cached[u.ID] = snap
			if payload, err := json.Marshal(snap); err == nil {
				_ = s.cache.Set(ctx, fmt.Sprintf("user:%d", u.ID), payload, s.ttl).Err()
			}
		}
	}

	result := make([]FollowerSnapshot, 0, len(ids))
	for _, id := range ids {
		if snap, ok := cached[id]; ok {
			result = append(result, snap)
		}
	}
	return result, nil
}

// ResetCounters clears recorded db call counters.
func (s *FollowerService) ResetCounters() {
	s.pageQueries.Store(0)
	s.indexLoads.Store(0)
	s.userBulkLoad.Store(0)
}

// Counters reports how many underlying DB loads were executed.
func (s *FollowerService) Counters() FollowerDBCounters {
	return FollowerDBCounters{
		PageQueries:  s.pageQueries.Load(),
		IndexLoads:   s.indexLoads.Load(),
		UserBulkLoad: s.userBulkLoad.Load(),
	}
}

// FollowerDBCounters summarises DB hits during a run.
type FollowerDBCounters struct {
	PageQueries  int64
	IndexLoads   int64
	UserBulkLoad int64
}

func idValues(ids []uint) []interface{} {
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatUint(uint64(id), 10)
	}
	return out
}

func parseIDs(raw []string) []uint {
	out := make([]uint, 0, len(raw))
	for _, s := range raw {
		if v, err := strconv.ParseUint(s, 10, 64); err == nil {
			out = append(out, uint(v))
		}
	}
	return out
}
