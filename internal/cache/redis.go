package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"

	"movie-rec-go/internal/model"
	"movie-rec-go/pkg/log"
)

const redisKeyPrefix = "movie-rec:similar:"

// Redis 把结果以 JSON 存入 Redis，过期由 Redis 的 TTL 负责，多个实例可共享。
// Redis 不可用时按未命中处理，不影响请求。
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis 使用已有的 Redis 客户端创建缓存。
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func redisKey(key Key) string {
	return redisKeyPrefix + key.String()
}

func (r *Redis) Get(ctx context.Context, key Key) (*model.SimilarMoviesResponse, bool) {
	data, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warnw("[ResultCache] 读取 Redis 缓存失败", "key", key.String(), "error", err)
		}
		return nil, false
	}
	var resp model.SimilarMoviesResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		log.Warnw("[ResultCache] 缓存内容无法解析", "key", key.String(), "error", err)
		return nil, false
	}
	return &resp, true
}

func (r *Redis) Put(ctx context.Context, key Key, resp *model.SimilarMoviesResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Warnw("[ResultCache] 序列化结果失败", "key", key.String(), "error", err)
		return
	}
	if err := r.client.Set(ctx, redisKey(key), data, r.ttl).Err(); err != nil {
		log.Warnw("[ResultCache] 写入 Redis 缓存失败", "key", key.String(), "error", err)
	}
}
