// Package cache 缓存 getSimilarMovies 的完整返回结果，按 (标识符, 数量) 索引。
package cache

import (
	"context"
	"strconv"

	"movie-rec-go/internal/model"
)

// Key 是缓存键。
type Key struct {
	Identifier string
	Limit      int
}

// String 返回 "identifier:limit" 形式的键。
func (k Key) String() string {
	return k.Identifier + ":" + strconv.Itoa(k.Limit)
}

// Cache 定义结果缓存。实现必须可并发使用，Get 不得阻塞在计算上。
// 过期条目视为未命中。
type Cache interface {
	Get(ctx context.Context, key Key) (*model.SimilarMoviesResponse, bool)
	Put(ctx context.Context, key Key, resp *model.SimilarMoviesResponse)
}

// Noop 不缓存任何内容。
type Noop struct{}

func (Noop) Get(context.Context, Key) (*model.SimilarMoviesResponse, bool) { return nil, false }
func (Noop) Put(context.Context, Key, *model.SimilarMoviesResponse)        {}

// clone 深拷贝返回结果，避免调用方修改缓存中的数据。
func clone(resp *model.SimilarMoviesResponse) *model.SimilarMoviesResponse {
	if resp == nil {
		return nil
	}
	c := *resp
	if resp.SimilarMovies != nil {
		c.SimilarMovies = make([]model.Recommendation, len(resp.SimilarMovies))
		copy(c.SimilarMovies, resp.SimilarMovies)
	}
	return &c
}
