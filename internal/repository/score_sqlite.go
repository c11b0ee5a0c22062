package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type sqliteScoreRepository struct {
	db *sqlx.DB
}

// NewSQLiteScoreRepository creates a ScoreRepository on a database prepared by db.OpenSQLite.
func NewSQLiteScoreRepository(db *sqlx.DB) ScoreRepository {
	return &sqliteScoreRepository{
		db: db,
	}
}

func (r *sqliteScoreRepository) GetScore(ctx context.Context, name string) (int, error) {
	ctx, span := tracer.Start(ctx, "ScoreRepository.GetScore", trace.WithAttributes(
		attribute.String("player.name", name),
	))
	defer span.End()

	var score int
	err := r.db.GetContext(ctx, &score, `SELECT score FROM scores WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read score")
		return 0, fmt.Errorf("get score for %q: %w", name, err)
	}
	return score, nil
}

func (r *sqliteScoreRepository) SetScore(ctx context.Context, name string, score int) error {
	ctx, span := tracer.Start(ctx, "ScoreRepository.SetScore", trace.WithAttributes(
		attribute.String("player.name", name),
		attribute.Int("player.score", score),
	))
	defer span.End()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scores (name, score) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET score = excluded.score`, name, score)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to write score")
		return fmt.Errorf("set score for %q: %w", name, err)
	}
	return nil
}

func (r *sqliteScoreRepository) ListScores(ctx context.Context) ([]Score, error) {
	ctx, span := tracer.Start(ctx, "ScoreRepository.ListScores")
	defer span.End()

	scores := []Score{}
	if err := r.db.SelectContext(ctx, &scores, `SELECT name, score FROM scores ORDER BY score DESC, name ASC`); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list scores")
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return scores, nil
}
