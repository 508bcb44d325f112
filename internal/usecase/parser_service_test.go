package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/healthyfy/backend/internal/infrastructure/cache"
	"github.com/healthyfy/backend/internal/infrastructure/catalog"
)

// fakeEmbedder assigns each known text a fixed vector, so similarity results
// are fully deterministic in tests.
type fakeEmbedder struct {
	vectors   map[string][]float32
	dim       int
	failEmbed bool
	failBatch bool
}

func newFakeEmbedder(names []string) *fakeEmbedder {
	dim := len(names)
	vectors := make(map[string][]float32, dim)
	for i, name := range names {
		v := make([]float32, dim)
		v[i] = 1
		vectors[strings.ToLower(name)] = v
	}
	return &fakeEmbedder{vectors: vectors, dim: dim}
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.failEmbed {
		return nil, errors.New("embedder down")
	}
	lower := strings.ToLower(text)
	// Return the vector of the first known term appearing in the text, so a
	// query like "I ate some rice" lands on the Rice vector.
	for name, v := range f.vectors {
		if strings.Contains(lower, name) {
			return v, nil
		}
	}
	// Unknown text: uniform vector, equally similar to everything.
	v := make([]float32, f.dim)
	for i := range v {
		v[i] = 1
	}
	return v, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.failBatch {
		return nil, errors.New("embedder down")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func newKeywordParser(t *testing.T) *FoodParserService {
	t.Helper()
	return NewFoodParserService(context.Background(), catalog.Load(""), nil, nil, FoodParserConfig{})
}

func TestNewFoodParserService(t *testing.T) {
	cat := catalog.Load("")

	t.Run("nil embedder selects keyword mode", func(t *testing.T) {
		svc := NewFoodParserService(context.Background(), cat, nil, nil, FoodParserConfig{})
		if svc.Mode() != ModeKeyword {
			t.Errorf("Mode() = %v, want %v", svc.Mode(), ModeKeyword)
		}
	})

	t.Run("failed index build selects keyword mode", func(t *testing.T) {
		embedder := newFakeEmbedder(cat.Names())
		embedder.failBatch = true
		svc := NewFoodParserService(context.Background(), cat, embedder, nil, FoodParserConfig{})
		if svc.Mode() != ModeKeyword {
			t.Errorf("Mode() = %v, want %v", svc.Mode(), ModeKeyword)
		}
	})

	t.Run("working embedder selects embedding mode", func(t *testing.T) {
		svc := NewFoodParserService(context.Background(), cat, newFakeEmbedder(cat.Names()), nil, FoodParserConfig{})
		if svc.Mode() != ModeEmbedding {
			t.Errorf("Mode() = %v, want %v", svc.Mode(), ModeEmbedding)
		}
		if len(svc.index) != cat.Len() {
			t.Errorf("index length = %d, want %d", len(svc.index), cat.Len())
		}
	})
}

func TestParse_KeywordMode(t *testing.T) {
	svc := newKeywordParser(t)
	ctx := context.Background()
	items := svc.catalog.Items()

	t.Run("every catalog name matches itself", func(t *testing.T) {
		for _, item := range items {
			result := svc.Parse(ctx, item.Name)
			if result.Food.ID != item.ID {
				t.Errorf("Parse(%q) matched %q, want %q", item.Name, result.Food.Name, item.Name)
			}
			if result.QuantityGuess != item.DefaultQuantityGrams {
				t.Errorf("Parse(%q) quantity = %v, want default %v",
					item.Name, result.QuantityGuess, item.DefaultQuantityGrams)
			}
		}
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		for _, text := range []string{"RICE", "rice", "RiCe"} {
			result := svc.Parse(ctx, text)
			if result.Food.Name != "Rice" {
				t.Errorf("Parse(%q) = %q, want Rice", text, result.Food.Name)
			}
		}
	})

	t.Run("name inside a sentence matches", func(t *testing.T) {
		result := svc.Parse(ctx, "I had some salmon for dinner")
		if result.Food.Name != "Salmon" {
			t.Errorf("Parse() = %q, want Salmon", result.Food.Name)
		}
	})

	t.Run("empty input falls back to first catalog entry", func(t *testing.T) {
		result := svc.Parse(ctx, "")
		if result.Food.ID != items[0].ID {
			t.Errorf("Parse(\"\") = %q, want first entry %q", result.Food.Name, items[0].Name)
		}
		if result.QuantityGuess != items[0].DefaultQuantityGrams {
			t.Errorf("Parse(\"\") quantity = %v, want %v",
				result.QuantityGuess, items[0].DefaultQuantityGrams)
		}
	})

	t.Run("unmatched text falls back to first catalog entry", func(t *testing.T) {
		result := svc.Parse(ctx, "zzz nothing edible zzz")
		if result.Food.ID != items[0].ID {
			t.Errorf("Parse() = %q, want first entry %q", result.Food.Name, items[0].Name)
		}
	})

	t.Run("keyword mode ignores textual quantities", func(t *testing.T) {
		result := svc.Parse(ctx, "300g of rice")
		if result.Food.Name != "Rice" {
			t.Fatalf("Parse() = %q, want Rice", result.Food.Name)
		}
		if result.QuantityGuess != result.Food.DefaultQuantityGrams {
			t.Errorf("quantity = %v, want default %v",
				result.QuantityGuess, result.Food.DefaultQuantityGrams)
		}
	})
}

func TestParse_EmbeddingMode(t *testing.T) {
	cat := catalog.Load("")
	ctx := context.Background()

	t.Run("matches by similarity", func(t *testing.T) {
		svc := NewFoodParserService(ctx, cat, newFakeEmbedder(cat.Names()), nil, FoodParserConfig{})
		result := svc.Parse(ctx, "a bowl of rice for lunch")
		if result.Food.Name != "Rice" {
			t.Errorf("Parse() = %q, want Rice", result.Food.Name)
		}
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		svc := NewFoodParserService(ctx, cat, newFakeEmbedder(cat.Names()), nil, FoodParserConfig{})
		first := svc.Parse(ctx, "grilled chicken breast")
		for i := 0; i < 5; i++ {
			again := svc.Parse(ctx, "grilled chicken breast")
			if again.Food.ID != first.Food.ID {
				t.Fatalf("call %d matched %q, first call matched %q", i, again.Food.Name, first.Food.Name)
			}
		}
	})

	t.Run("similarity ties break to first catalog entry", func(t *testing.T) {
		// The uniform query vector is equally similar to every catalog
		// vector, so the arg-max scan must keep index 0.
		svc := NewFoodParserService(ctx, cat, newFakeEmbedder(cat.Names()), nil, FoodParserConfig{})
		result := svc.Parse(ctx, "zzz unknown zzz")
		if result.Food.ID != cat.Items()[0].ID {
			t.Errorf("Parse() = %q, want first entry %q", result.Food.Name, cat.Items()[0].Name)
		}
	})

	t.Run("quantity extracted from text", func(t *testing.T) {
		svc := NewFoodParserService(ctx, cat, newFakeEmbedder(cat.Names()), nil, FoodParserConfig{})
		result := svc.Parse(ctx, "250g of rice")
		if result.QuantityGuess != 250 {
			t.Errorf("quantity = %v, want 250", result.QuantityGuess)
		}
	})

	t.Run("quantity defaults to matched entry default", func(t *testing.T) {
		svc := NewFoodParserService(ctx, cat, newFakeEmbedder(cat.Names()), nil, FoodParserConfig{})
		result := svc.Parse(ctx, "some rice")
		if result.QuantityGuess != result.Food.DefaultQuantityGrams {
			t.Errorf("quantity = %v, want default %v",
				result.QuantityGuess, result.Food.DefaultQuantityGrams)
		}
	})

	t.Run("query embedding failure degrades to keyword scan", func(t *testing.T) {
		embedder := newFakeEmbedder(cat.Names())
		svc := NewFoodParserService(ctx, cat, embedder, nil, FoodParserConfig{})
		embedder.failEmbed = true

		result := svc.Parse(ctx, "I had a banana")
		if result.Food.Name != "Banana" {
			t.Errorf("Parse() = %q, want Banana via keyword fallback", result.Food.Name)
		}
	})
}

func TestParse_Caching(t *testing.T) {
	cat := catalog.Load("")
	ctx := context.Background()

	memCache := cache.NewMemoryCache()
	embedder := newFakeEmbedder(cat.Names())
	svc := NewFoodParserService(ctx, cat, embedder, memCache, FoodParserConfig{CacheTTL: time.Minute})

	first := svc.Parse(ctx, "I ate 200g of rice")
	if first.Food.Name != "Rice" || first.QuantityGuess != 200 {
		t.Fatalf("first Parse() = %+v, want Rice/200", first)
	}

	// Kill the embedder: a cached result must come back identical without
	// touching it again.
	embedder.failEmbed = true
	second := svc.Parse(ctx, "I ate 200g of rice")
	if second.Food.ID != first.Food.ID || second.QuantityGuess != first.QuantityGuess {
		t.Errorf("cached Parse() = %+v, want %+v", second, first)
	}
}

func TestParse_DegradedResultNotCached(t *testing.T) {
	cat := catalog.Load("")
	ctx := context.Background()

	embedder := newFakeEmbedder(cat.Names())
	// "dosa" contains no catalog name, so the keyword scan falls back to
	// the first catalog entry; the embedder maps it to Rice.
	embedder.vectors["dosa"] = embedder.vectors["rice"]
	svc := NewFoodParserService(ctx, cat, embedder, cache.NewMemoryCache(), FoodParserConfig{CacheTTL: time.Minute})

	embedder.failEmbed = true
	degraded := svc.Parse(ctx, "dosa")
	if degraded.Food.Name != "Apple" {
		t.Fatalf("degraded Parse() = %q, want the keyword fallback Apple", degraded.Food.Name)
	}

	// Once the embedder recovers, the same utterance must be re-embedded,
	// not served from a keyword-derived cache entry.
	embedder.failEmbed = false
	recovered := svc.Parse(ctx, "dosa")
	if recovered.Food.Name != "Rice" {
		t.Errorf("recovered Parse() = %q, want Rice", recovered.Food.Name)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical vectors", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite vectors", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero vector scores zero", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if diff := got - tt.expected; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("cosineSimilarity(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestNormalizeUtterance(t *testing.T) {
	got := normalizeUtterance("  I ate, 300g of RICE!  ")
	want := "i ate 300g of rice"
	if got != want {
		t.Errorf("normalizeUtterance() = %q, want %q", got, want)
	}
}
