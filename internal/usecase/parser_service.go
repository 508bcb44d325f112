package usecase

import (
	"context"
	"log"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/healthyfy/backend/internal/domain"
	"github.com/healthyfy/backend/internal/infrastructure/catalog"
)

// Package-level compiled regex patterns for performance
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
)

// MatchMode identifies which matching strategy the parser was built with.
// The strategy is selected once at construction: either the embedding index
// built successfully or the service runs keyword-only for its lifetime.
type MatchMode string

const (
	// ModeEmbedding matches utterances by cosine similarity over the
	// precomputed catalog embedding index.
	ModeEmbedding MatchMode = "embedding"

	// ModeKeyword matches by case-insensitive substring scan in catalog
	// order. Used when no embedder is available.
	ModeKeyword MatchMode = "keyword"
)

// FoodParserConfig holds configuration for the food parser service
type FoodParserConfig struct {
	CacheTTL           time.Duration
	EnableDebugLogging bool
}

// FoodParserService turns free-text food utterances into catalog matches
// with a quantity estimate. Parse never fails: degraded conditions fall
// back to keyword matching, and keyword matching falls back to the first
// catalog entry.
type FoodParserService struct {
	catalog  *catalog.Catalog
	embedder domain.Embedder
	index    [][]float32
	cache    domain.CacheRepository
	cacheTTL time.Duration
	mode     MatchMode
	debug    bool
}

// NewFoodParserService builds the parser and its embedding index. A nil
// embedder, or an embedder that fails to index the catalog, selects keyword
// mode; that is a degraded-mode signal, not an error.
func NewFoodParserService(
	ctx context.Context,
	cat *catalog.Catalog,
	embedder domain.Embedder,
	cache domain.CacheRepository,
	config FoodParserConfig,
) *FoodParserService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 1 * time.Hour
	}

	s := &FoodParserService{
		catalog:  cat,
		embedder: embedder,
		cache:    cache,
		cacheTTL: cacheTTL,
		mode:     ModeKeyword,
		debug:    config.EnableDebugLogging,
	}

	if embedder == nil {
		log.Printf("[PARSE] no embedder configured, running in keyword mode")
		return s
	}

	index, err := embedder.EmbedBatch(ctx, cat.Names())
	if err != nil {
		log.Printf("[PARSE] failed to build embedding index, falling back to keyword mode: %v", err)
		return s
	}

	s.index = index
	s.mode = ModeEmbedding
	log.Printf("[PARSE] embedding index built: %d vectors, dim %d", len(index), vectorDim(index))
	return s
}

// Mode reports the matching strategy selected at construction.
func (s *FoodParserService) Mode() MatchMode {
	return s.mode
}

// Parse matches text to the best catalog entry with a quantity guess in
// grams. It always returns a result.
func (s *FoodParserService) Parse(ctx context.Context, text string) *domain.MatchResult {
	cacheKey := "parse:" + string(s.mode) + ":" + normalizeUtterance(text)

	if cached := s.getFromCache(ctx, cacheKey); cached != nil {
		if s.debug {
			log.Printf("[PARSE] cache hit for %q", text)
		}
		return cached
	}

	var result *domain.MatchResult
	degraded := false
	if s.mode == ModeEmbedding {
		result, degraded = s.similarityMatch(ctx, text)
	} else {
		result = s.keywordMatch(text)
	}

	// A degraded result is keyword-derived under the embedding cache key;
	// caching it would keep serving it after the embedder recovers.
	if s.cache != nil && !degraded {
		if err := s.cache.Set(ctx, cacheKey, result, s.cacheTTL); err != nil && s.debug {
			log.Printf("[PARSE] cache set failed: %v", err)
		}
	}

	return result
}

// similarityMatch embeds the utterance and picks the catalog entry with the
// highest cosine similarity. Ties break to the first entry in catalog order.
// If the embedder fails mid-flight, the call degrades to a keyword scan and
// reports that through the second result.
func (s *FoodParserService) similarityMatch(ctx context.Context, text string) (*domain.MatchResult, bool) {
	query, err := s.embedder.Embed(ctx, text)
	if err != nil {
		log.Printf("[PARSE] query embedding failed, using keyword scan: %v", err)
		return s.keywordMatch(text), true
	}

	items := s.catalog.Items()
	bestIdx := 0
	bestScore := cosineSimilarity(s.index[0], query)
	for i := 1; i < len(s.index); i++ {
		score := cosineSimilarity(s.index[i], query)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	matched := items[bestIdx]
	if s.debug {
		log.Printf("[PARSE] %q -> %q (similarity %.3f)", text, matched.Name, bestScore)
	}

	return &domain.MatchResult{
		Food:          matched,
		QuantityGuess: extractQuantity(text, matched.DefaultQuantityGrams),
	}, false
}

// keywordMatch returns the first catalog entry whose name appears in the
// text, case-insensitive. With no hit it returns the first catalog entry;
// the parser never reports "nothing matched".
func (s *FoodParserService) keywordMatch(text string) *domain.MatchResult {
	lower := strings.ToLower(text)
	for _, item := range s.catalog.Items() {
		if strings.Contains(lower, strings.ToLower(item.Name)) {
			if s.debug {
				log.Printf("[PARSE] keyword hit %q in %q", item.Name, text)
			}
			return &domain.MatchResult{
				Food:          item,
				QuantityGuess: item.DefaultQuantityGrams,
			}
		}
	}

	fallback := s.catalog.Items()[0]
	return &domain.MatchResult{
		Food:          fallback,
		QuantityGuess: fallback.DefaultQuantityGrams,
	}
}

// getFromCache retrieves a parse result from cache, rehydrating from the
// map shape the cache stores.
func (s *FoodParserService) getFromCache(ctx context.Context, key string) *domain.MatchResult {
	if s.cache == nil {
		return nil
	}

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil
	}

	if result, ok := value.(*domain.MatchResult); ok {
		return result
	}
	if dataMap, ok := value.(map[string]interface{}); ok {
		return mapToMatchResult(dataMap)
	}
	return nil
}

// mapToMatchResult converts a map (from JSON cache) to a MatchResult
func mapToMatchResult(data map[string]interface{}) *domain.MatchResult {
	result := &domain.MatchResult{}

	if food, ok := data["food"].(map[string]interface{}); ok {
		if v, ok := food["id"].(float64); ok {
			result.Food.ID = int(v)
		}
		if v, ok := food["name"].(string); ok {
			result.Food.Name = v
		}
		if v, ok := food["default_quantity_grams"].(float64); ok {
			result.Food.DefaultQuantityGrams = v
		}
		if v, ok := food["calories_per_100g"].(float64); ok {
			result.Food.CaloriesPer100g = v
		}
	}
	if v, ok := data["quantity_guess"].(float64); ok {
		result.QuantityGuess = v
	}

	if result.Food.Name == "" {
		return nil
	}
	return result
}

// normalizeUtterance normalizes text for use as a cache key component.
func normalizeUtterance(s string) string {
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// cosineSimilarity computes dot(a,b) / (||a|| * ||b||). Zero-magnitude
// vectors score 0 rather than dividing by zero.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func vectorDim(index [][]float32) int {
	if len(index) == 0 {
		return 0
	}
	return len(index[0])
}
