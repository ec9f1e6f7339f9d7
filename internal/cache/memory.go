package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"movie-rec-go/internal/model"
)

// Memory 是进程内的有界缓存，每个条目带 TTL。容量满时由 ristretto 按访问频率淘汰。
type Memory struct {
	store *ristretto.Cache[string, *model.SimilarMoviesResponse]
	ttl   time.Duration
}

// NewMemory 创建进程内缓存。maxEntries 为最大条目数，ttl <= 0 表示不过期。
func NewMemory(ttl time.Duration, maxEntries int64) (*Memory, error) {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	store, err := ristretto.NewCache(&ristretto.Config[string, *model.SimilarMoviesResponse]{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("创建内存缓存失败: %w", err)
	}
	return &Memory{store: store, ttl: ttl}, nil
}

func (m *Memory) Get(_ context.Context, key Key) (*model.SimilarMoviesResponse, bool) {
	resp, ok := m.store.Get(key.String())
	if !ok {
		return nil, false
	}
	return clone(resp), true
}

// Put 写入缓存并等待写缓冲刷新，之后的 Get 可以立即看到该条目。
func (m *Memory) Put(_ context.Context, key Key, resp *model.SimilarMoviesResponse) {
	m.store.SetWithTTL(key.String(), clone(resp), 1, m.ttl)
	m.store.Wait()
}

// Close 释放 ristretto 的后台 goroutine。
func (m *Memory) Close() {
	m.store.Close()
}
