package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-rec-go/internal/model"
)

func sampleResponse() *model.SimilarMoviesResponse {
	return &model.SimilarMoviesResponse{
		Success:    true,
		MovieID:    "Avatar",
		MovieTitle: "Avatar",
		SimilarMovies: []model.Recommendation{
			{Title: "Avatar 2", SimilarityScore: 1.3, Rank: 1},
			{Title: "Notebook", SimilarityScore: 0, Rank: 2},
		},
		TotalFound:  2,
		ModelStatus: model.StatusReady,
		SnapshotID:  "snap-1",
		CorpusSize:  3,
	}
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "Avatar:10", Key{Identifier: "Avatar", Limit: 10}.String())
	assert.Equal(t, "19995:5", Key{Identifier: "19995", Limit: 5}.String())
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	c.Put(context.Background(), Key{"Avatar", 10}, sampleResponse())
	_, ok := c.Get(context.Background(), Key{"Avatar", 10})
	assert.False(t, ok)
}

func TestMemory_RoundTrip(t *testing.T) {
	m, err := NewMemory(time.Minute, 100)
	require.NoError(t, err)
	defer m.Close()

	ctx := context.Background()
	key := Key{Identifier: "Avatar", Limit: 2}
	_, ok := m.Get(ctx, key)
	assert.False(t, ok)

	m.Put(ctx, key, sampleResponse())
	got, ok := m.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, sampleResponse(), got)

	// 不同的 limit 是不同的键
	_, ok = m.Get(ctx, Key{Identifier: "Avatar", Limit: 3})
	assert.False(t, ok)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m, err := NewMemory(time.Minute, 100)
	require.NoError(t, err)
	defer m.Close()

	ctx := context.Background()
	key := Key{Identifier: "Avatar", Limit: 2}
	resp := sampleResponse()
	m.Put(ctx, key, resp)
	resp.SimilarMovies[0].Title = "mutated"

	got, ok := m.Get(ctx, key)
	require.True(t, ok)
	got.SimilarMovies[1].Title = "mutated again"

	again, ok := m.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, sampleResponse(), again)
}

func TestMemory_Expires(t *testing.T) {
	m, err := NewMemory(50*time.Millisecond, 100)
	require.NoError(t, err)
	defer m.Close()

	ctx := context.Background()
	key := Key{Identifier: "Avatar", Limit: 2}
	m.Put(ctx, key, sampleResponse())

	assert.Eventually(t, func() bool {
		_, ok := m.Get(ctx, key)
		return !ok
	}, 3*time.Second, 20*time.Millisecond)
}

func TestRedis_KeyPrefix(t *testing.T) {
	assert.Equal(t, "movie-rec:similar:Avatar:10", redisKey(Key{Identifier: "Avatar", Limit: 10}))
}

func TestRedis_UnavailableIsMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewRedis(client, time.Minute)
	ctx := context.Background()
	c.Put(ctx, Key{"Avatar", 10}, sampleResponse())
	got, ok := c.Get(ctx, Key{"Avatar", 10})
	assert.False(t, ok)
	assert.Nil(t, got)
}
