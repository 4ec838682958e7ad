// Package embedding provides text embeddings for historical event
// similarity search.
package embedding

import (
	"context"
	"math"
)

// Engine generates text embeddings.
type Engine interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
}

// CosineSimilarity returns the cosine similarity of two vectors, 0 when the
// lengths differ or either vector is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Match pairs an indexed text with its similarity to a query.
type Match struct {
	Index      int     `json:"index"`
	Similarity float64 `json:"similarity"`
}

// RankBySimilarity embeds the query and candidates and returns candidate
// indices ordered by descending similarity. Used to surface historical
// events resembling a new report.
func RankBySimilarity(ctx context.Context, engine Engine, query string, candidates []string) ([]Match, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	queryVec, err := engine.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	candVecs, err := engine.EmbedBatch(ctx, candidates)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(candVecs))
	for i, vec := range candVecs {
		matches = append(matches, Match{
			Index:      i,
			Similarity: CosineSimilarity(queryVec, vec),
		})
	}
	sortMatches(matches)
	return matches, nil
}

func sortMatches(matches []Match) {
	// Insertion sort: candidate sets are small.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Similarity > matches[j-1].Similarity; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
}
