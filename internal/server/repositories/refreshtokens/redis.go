package refreshtokens

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/dmitrijs2005/tipsync/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tipsync:refresh:"

// RedisRepository keeps each token in a hash whose TTL matches the token
// validity, so expired tokens disappear without a sweeper.
type RedisRepository struct {
	rdb redis.Cmdable
	now func() time.Time
}

func NewRedisRepository(rdb redis.Cmdable) *RedisRepository {
	return &RedisRepository{rdb: rdb, now: time.Now}
}

func redisKey(token string) string { return redisKeyPrefix + token }

func (r *RedisRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	now := r.now()
	key := redisKey(token)

	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key,
			"uid", userID,
			"exp", now.Add(validity).UnixMilli(),
			"created", now.UnixMilli(),
		)
		p.PExpire(ctx, key, validity)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	vals, err := r.rdb.HGetAll(ctx, redisKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if len(vals) == 0 {
		return nil, common.ErrorNotFound
	}

	exp, err := strconv.ParseInt(vals["exp"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis error: bad exp: %w", err)
	}
	created, _ := strconv.ParseInt(vals["created"], 10, 64)

	return &models.RefreshToken{
		UserID:    vals["uid"],
		Token:     token,
		Expires:   time.UnixMilli(exp).UTC(),
		CreatedAt: time.UnixMilli(created).UTC(),
	}, nil
}

func (r *RedisRepository) Delete(ctx context.Context, token string) error {
	if err := r.rdb.Del(ctx, redisKey(token)).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}
