/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-09 21:25:41
 * @FilePath: \inventory-app\backend\internal\infra\token\refresh_store.go
 * @LastEditTime: 2025-10-22 11:40:15
 */
package token

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRefreshPrefix = "auth:refresh"

var errTokenIDRequired = errors.New("token id required")

// RedisRefreshTokenStore 将刷新令牌指纹保存在 Redis 中，多实例共享。
//
// 键布局：
//   - <prefix>:<userID>:<jti>  单个刷新令牌，TTL 与令牌过期时间一致
//   - <prefix>:<userID>        该用户全部 jti 的集合，用于整体吊销
type RedisRefreshTokenStore struct {
	client *redis.Client
	prefix string
}

// NewRedisRefreshTokenStore 构造 Redis 刷新令牌存储。
func NewRedisRefreshTokenStore(client *redis.Client, prefix string) *RedisRefreshTokenStore {
	if prefix == "" {
		prefix = defaultRefreshPrefix
	}
	return &RedisRefreshTokenStore{client: client, prefix: prefix}
}

func (s *RedisRefreshTokenStore) tokenKey(userID uint, tokenID string) string {
	return fmt.Sprintf("%s:%d:%s", s.prefix, userID, tokenID)
}

func (s *RedisRefreshTokenStore) indexKey(userID uint) string {
	return fmt.Sprintf("%s:%d", s.prefix, userID)
}

// Save 写入刷新令牌并登记到用户索引。
func (s *RedisRefreshTokenStore) Save(ctx context.Context, userID uint, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return errTokenIDRequired
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.tokenKey(userID, tokenID), expiresAt.Unix(), ttl)
	pipe.SAdd(ctx, s.indexKey(userID), tokenID)
	pipe.Expire(ctx, s.indexKey(userID), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Delete 移除单个刷新令牌。
func (s *RedisRefreshTokenStore) Delete(ctx context.Context, userID uint, tokenID string) error {
	if tokenID == "" {
		return nil
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.tokenKey(userID, tokenID))
	pipe.SRem(ctx, s.indexKey(userID), tokenID)
	_, err := pipe.Exec(ctx)
	return err
}

// Exists 判断刷新令牌是否仍然有效。
func (s *RedisRefreshTokenStore) Exists(ctx context.Context, userID uint, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	n, err := s.client.Exists(ctx, s.tokenKey(userID, tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RevokeAll 吊销用户名下全部刷新令牌，删除账号或改密码时调用。
func (s *RedisRefreshTokenStore) RevokeAll(ctx context.Context, userID uint) error {
	ids, err := s.client.SMembers(ctx, s.indexKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.tokenKey(userID, id))
	}
	keys = append(keys, s.indexKey(userID))
	return s.client.Del(ctx, keys...).Err()
}

// MemoryRefreshTokenStore 是无 Redis 时的进程内实现，重启后全部失效。
type MemoryRefreshTokenStore struct {
	mu     sync.Mutex
	tokens map[uint]map[string]time.Time
	now    func() time.Time
}

// NewMemoryRefreshTokenStore 创建进程内刷新令牌存储。
func NewMemoryRefreshTokenStore() *MemoryRefreshTokenStore {
	return &MemoryRefreshTokenStore{tokens: make(map[uint]map[string]time.Time), now: time.Now}
}

// Save 记录刷新令牌。
func (s *MemoryRefreshTokenStore) Save(_ context.Context, userID uint, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return errTokenIDRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.tokens[userID]
	if !ok {
		bucket = make(map[string]time.Time)
		s.tokens[userID] = bucket
	}
	bucket[tokenID] = expiresAt
	return nil
}

// Delete 移除刷新令牌。
func (s *MemoryRefreshTokenStore) Delete(_ context.Context, userID uint, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(userID, tokenID)
	return nil
}

// Exists 检查令牌是否存在且未过期，过期条目顺带清理。
func (s *MemoryRefreshTokenStore) Exists(_ context.Context, userID uint, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.tokens[userID][tokenID]
	if !ok {
		return false, nil
	}
	if s.now().After(expiresAt) {
		s.removeLocked(userID, tokenID)
		return false, nil
	}
	return true, nil
}

// RevokeAll 清空用户名下全部刷新令牌。
func (s *MemoryRefreshTokenStore) RevokeAll(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, userID)
	return nil
}

func (s *MemoryRefreshTokenStore) removeLocked(userID uint, tokenID string) {
	bucket, ok := s.tokens[userID]
	if !ok {
		return
	}
	delete(bucket, tokenID)
	if len(bucket) == 0 {
		delete(s.tokens, userID)
	}
}
