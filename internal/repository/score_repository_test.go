package repository

import (
	"context"
	"path/filepath"
	"testing"

	"ctchen222/Connect-Four/internal/db"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// exerciseScoreRepository runs the behaviour every backend must share against repo.
func exerciseScoreRepository(t *testing.T, repo ScoreRepository) {
	ctx := context.Background()

	t.Run("unknown name scores zero", func(t *testing.T) {
		score, err := repo.GetScore(ctx, "nobody")
		require.NoError(t, err)
		assert.Zero(t, score)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, repo.SetScore(ctx, "alice", 3))
		score, err := repo.GetScore(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 3, score)
	})

	t.Run("set overwrites", func(t *testing.T) {
		require.NoError(t, repo.SetScore(ctx, "alice", 4))
		score, err := repo.GetScore(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 4, score)
	})

	t.Run("list orders by score then name", func(t *testing.T) {
		require.NoError(t, repo.SetScore(ctx, "carol", 1))
		require.NoError(t, repo.SetScore(ctx, "bob", 1))

		scores, err := repo.ListScores(ctx)
		require.NoError(t, err)
		assert.Equal(t, []Score{
			{Name: "alice", Score: 4},
			{Name: "bob", Score: 1},
			{Name: "carol", Score: 1},
		}, scores)
	})
}

func TestMemoryScoreRepository(t *testing.T) {
	exerciseScoreRepository(t, NewMemoryScoreRepository())
}

func TestMemoryScoreRepositoryEmptyList(t *testing.T) {
	scores, err := NewMemoryScoreRepository().ListScores(context.Background())
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestSQLiteScoreRepository(t *testing.T) {
	ctx := context.Background()
	pool, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "scores.db"))
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	exerciseScoreRepository(t, NewSQLiteScoreRepository(pool))
}

func TestRedisScoreRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client, err := db.NewRedisClient(ctx, opts.Addr)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	exerciseScoreRepository(t, NewRedisScoreRepository(client))
}
