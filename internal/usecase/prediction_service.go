package usecase

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/healthyfy/backend/internal/domain"
	"github.com/healthyfy/backend/internal/infrastructure/catalog"
)

// noPredictionName is returned when no meaningful prediction can be made.
const noPredictionName = "No prediction available"

// PredictionServiceConfig holds configuration for the prediction service
type PredictionServiceConfig struct {
	HistoryWindow      time.Duration
	EnableDebugLogging bool
}

// PredictionService predicts a user's next meal from time-of-day eating
// patterns in their recent log history.
type PredictionService struct {
	logs          domain.FoodLogRepository
	catalog       *catalog.Catalog
	historyWindow time.Duration
	debug         bool
}

// NewPredictionService creates a prediction service with dependencies.
func NewPredictionService(
	logs domain.FoodLogRepository,
	cat *catalog.Catalog,
	config PredictionServiceConfig,
) *PredictionService {
	window := config.HistoryWindow
	if window == 0 {
		window = 7 * 24 * time.Hour
	}

	return &PredictionService{
		logs:          logs,
		catalog:       cat,
		historyWindow: window,
		debug:         config.EnableDebugLogging,
	}
}

// PredictNextMeal loads the user's recent history and runs the frequency
// analysis against the current time.
func (s *PredictionService) PredictNextMeal(ctx context.Context, userID int64) (*domain.Prediction, error) {
	now := time.Now().UTC()
	history, err := s.logs.LogsSince(ctx, userID, now.Add(-s.historyWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to load log history: %w", err)
	}

	return s.Predict(history, now), nil
}

// Predict buckets the history by time-of-day and returns the most frequent
// food in the bucket matching now, falling back to the full history when
// the bucket is empty. Hours are compared in UTC on both sides, matching
// the storage timezone, so a zoned now cannot shift the bucket. It relies
// on the caller (the repository query) to bound history to the analysis
// window.
func (s *PredictionService) Predict(history []domain.FoodLog, now time.Time) *domain.Prediction {
	if len(history) == 0 {
		return &domain.Prediction{
			FoodName:   noPredictionName,
			Confidence: 0.0,
			Reason:     "No eating history",
		}
	}

	bucket := timeBucket(now.UTC().Hour())

	var bucketed []domain.FoodLog
	for _, entry := range history {
		if timeBucket(entry.Timestamp.UTC().Hour()) == bucket {
			bucketed = append(bucketed, entry)
		}
	}

	analyzed := bucketed
	if len(analyzed) == 0 {
		analyzed = history
	}

	// Frequency count with first-insertion-wins ordering, so ties break to
	// the food first encountered in iteration order.
	counts := make(map[string]int)
	var order []string
	for _, entry := range analyzed {
		food, ok := s.catalog.ByID(entry.FoodID)
		if !ok {
			// Dangling food_id: skip rather than fail the prediction.
			continue
		}
		if _, seen := counts[food.Name]; !seen {
			order = append(order, food.Name)
		}
		counts[food.Name]++
	}

	if len(counts) == 0 {
		return &domain.Prediction{
			FoodName:   noPredictionName,
			Confidence: 0.0,
			Reason:     "No matching time pattern",
		}
	}

	topName := order[0]
	for _, name := range order[1:] {
		if counts[name] > counts[topName] {
			topName = name
		}
	}

	confidence := math.Min(float64(counts[topName])/float64(len(analyzed)), 1.0)
	confidence = math.Round(confidence*100) / 100

	if s.debug {
		log.Printf("[PREDICT] bucket=%s analyzed=%d top=%q confidence=%.2f",
			bucket, len(analyzed), topName, confidence)
	}

	return &domain.Prediction{
		FoodName:   topName,
		Confidence: confidence,
		Reason:     fmt.Sprintf("Most frequent in %s meals (last 7 days)", bucket),
	}
}

// timeBucket classifies an hour of day into one of four meal buckets:
// morning [6,12), lunch [12,16), evening [16,21), night otherwise.
func timeBucket(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 16:
		return "lunch"
	case hour >= 16 && hour < 21:
		return "evening"
	default:
		return "night"
	}
}
