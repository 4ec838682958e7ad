package embedding

import (
	"context"
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{"Identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1.0},
		{"Orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 0.0},
		{"Opposite", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1.0},
		{"Length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0.0},
		{"Zero vector", []float32{0, 0, 0}, []float32{1, 0, 0}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

// stubEngine returns canned vectors keyed by text.
type stubEngine struct {
	vectors map[string][]float32
}

func (s *stubEngine) Embed(_ context.Context, text string) ([]float32, error) {
	return s.vectors[text], nil
}

func (s *stubEngine) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = s.vectors[text]
	}
	return out, nil
}

func (s *stubEngine) Name() string { return "stub" }

func TestRankBySimilarity(t *testing.T) {
	engine := &stubEngine{vectors: map[string][]float32{
		"earthquake": {1, 0},
		"tremor":     {0.9, 0.1},
		"strike":     {0, 1},
		"flood":      {0.5, 0.5},
	}}

	matches, err := RankBySimilarity(context.Background(), engine, "earthquake",
		[]string{"strike", "tremor", "flood"})
	if err != nil {
		t.Fatalf("RankBySimilarity failed: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	if matches[0].Index != 1 {
		t.Errorf("expected tremor ranked first, got index %d", matches[0].Index)
	}
	if matches[2].Index != 0 {
		t.Errorf("expected strike ranked last, got index %d", matches[2].Index)
	}
}

func TestRankBySimilarity_Empty(t *testing.T) {
	matches, err := RankBySimilarity(context.Background(), &stubEngine{}, "q", nil)
	if err != nil {
		t.Fatalf("RankBySimilarity failed: %v", err)
	}
	if matches != nil {
		t.Errorf("expected nil for no candidates, got %v", matches)
	}
}
