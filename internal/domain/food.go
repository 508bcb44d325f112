package domain

import "time"

// FoodItem is a single entry in the food catalog. The catalog is loaded once
// at startup and treated as read-only reference data for the process lifetime.
type FoodItem struct {
	ID                   int     `json:"id"`
	Name                 string  `json:"name"`
	DefaultQuantityGrams float64 `json:"default_quantity_grams"`
	CaloriesPer100g      float64 `json:"calories_per_100g"`
}

// MatchResult is the outcome of parsing a free-text utterance against the
// catalog: the best-matching item plus a quantity estimate in grams.
type MatchResult struct {
	Food          FoodItem `json:"food"`
	QuantityGuess float64  `json:"quantity_guess"`
}

// FoodLog is a persisted record of one logged meal.
type FoodLog struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	FoodID        int       `json:"food_id"`
	QuantityGrams float64   `json:"quantity_grams"`
	Calories      float64   `json:"calories"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"` // "speech", "text" or "manual"
}

// Prediction is a next-meal guess derived from a user's recent history.
// Confidence is in [0,1], rounded to 2 decimal places.
type Prediction struct {
	FoodName   string  `json:"food_name"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// User is an account in the tracker. Phone number is the natural key.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Pincode   string    `json:"pincode"`
	DietType  string    `json:"diet_type"`
	CreatedAt time.Time `json:"created_at"`
}

// ParseRequest is a food-parsing request from the HTTP layer.
type ParseRequest struct {
	Text string `json:"text" binding:"required"`
}

// LogRequest is a food-log creation request.
type LogRequest struct {
	UserID        int64   `json:"user_id" binding:"required"`
	FoodID        int     `json:"food_id" binding:"required"`
	QuantityGrams float64 `json:"quantity_grams" binding:"required"`
	Calories      float64 `json:"calories"`
	Source        string  `json:"source"`
}

// DailySummary is the response for the today's-intake endpoint.
type DailySummary struct {
	DailyCalories float64    `json:"daily_calories"`
	Logs          []LogEntry `json:"logs"`
}

// LogEntry is a FoodLog joined with its resolved food name for responses.
type LogEntry struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	FoodID        int       `json:"food_id"`
	FoodName      string    `json:"food_name"`
	QuantityGrams float64   `json:"quantity_grams"`
	Calories      float64   `json:"calories"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"`
}
