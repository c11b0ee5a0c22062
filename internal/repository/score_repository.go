package repository

//go:generate mockgen -source=score_repository.go -destination=mocks/mock_score_repository.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("repository.score")

// Score is the persisted score of one player name.
type Score struct {
	Name  string `json:"name" db:"name"`
	Score int    `json:"score" db:"score"`
}

// ScoreRepository defines the interface for score persistence keyed by player name.
type ScoreRepository interface {
	// GetScore returns the stored score, or 0 for an unknown name.
	GetScore(ctx context.Context, name string) (int, error)
	SetScore(ctx context.Context, name string, score int) error
	// ListScores returns every score, highest first, ties ordered by name.
	ListScores(ctx context.Context) ([]Score, error)
}

const scoresKey = "scores"

type redisScoreRepository struct {
	rdb *redis.Client
}

// NewRedisScoreRepository creates a ScoreRepository backed by a Redis sorted set.
func NewRedisScoreRepository(rdb *redis.Client) ScoreRepository {
	return &redisScoreRepository{
		rdb: rdb,
	}
}

func (r *redisScoreRepository) GetScore(ctx context.Context, name string) (int, error) {
	ctx, span := tracer.Start(ctx, "ScoreRepository.GetScore", trace.WithAttributes(
		attribute.String("player.name", name),
	))
	defer span.End()

	score, err := r.rdb.ZScore(ctx, scoresKey, name).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read score")
		return 0, fmt.Errorf("get score for %q: %w", name, err)
	}
	return int(score), nil
}

func (r *redisScoreRepository) SetScore(ctx context.Context, name string, score int) error {
	ctx, span := tracer.Start(ctx, "ScoreRepository.SetScore", trace.WithAttributes(
		attribute.String("player.name", name),
		attribute.Int("player.score", score),
	))
	defer span.End()

	if err := r.rdb.ZAdd(ctx, scoresKey, &redis.Z{Score: float64(score), Member: name}).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to write score")
		return fmt.Errorf("set score for %q: %w", name, err)
	}
	return nil
}

func (r *redisScoreRepository) ListScores(ctx context.Context) ([]Score, error) {
	ctx, span := tracer.Start(ctx, "ScoreRepository.ListScores")
	defer span.End()

	// ZREVRANGE orders equal scores by member descending, so ties are re-sorted by name.
	entries, err := r.rdb.ZRevRangeWithScores(ctx, scoresKey, 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list scores")
		return nil, fmt.Errorf("list scores: %w", err)
	}

	scores := make([]Score, 0, len(entries))
	for _, z := range entries {
		name, ok := z.Member.(string)
		if !ok {
			continue
		}
		scores = append(scores, Score{Name: name, Score: int(z.Score)})
	}
	sortScores(scores)
	return scores, nil
}
