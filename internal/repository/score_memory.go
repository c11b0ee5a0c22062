package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

type memoryScoreRepository struct {
	mu     sync.RWMutex
	scores map[string]int
}

// NewMemoryScoreRepository creates a process local ScoreRepository. Scores are lost on restart.
func NewMemoryScoreRepository() ScoreRepository {
	return &memoryScoreRepository{
		scores: make(map[string]int),
	}
}

func (r *memoryScoreRepository) GetScore(_ context.Context, name string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scores[name], nil
}

func (r *memoryScoreRepository) SetScore(_ context.Context, name string, score int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores[name] = score
	return nil
}

func (r *memoryScoreRepository) ListScores(_ context.Context) ([]Score, error) {
	r.mu.RLock()
	scores := make([]Score, 0, len(r.scores))
	for name, score := range r.scores {
		scores = append(scores, Score{Name: name, Score: score})
	}
	r.mu.RUnlock()

	sortScores(scores)
	return scores, nil
}

func sortScores(scores []Score) {
	slices.SortFunc(scores, func(a, b Score) int {
		if n := cmp.Compare(b.Score, a.Score); n != 0 {
			return n
		}
		return cmp.Compare(a.Name, b.Name)
	})
}
