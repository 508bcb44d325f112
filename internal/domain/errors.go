package domain

import "errors"

var (
	// ErrFoodNotFound is returned when a food_id does not exist in the catalog
	ErrFoodNotFound = errors.New("food item not found in catalog")

	// ErrUserNotFound is returned when a user id does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrEmbeddingUnavailable is returned when the embedding backend cannot be reached
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

	// ErrTranscriberUnavailable is returned when no transcription backend is configured
	ErrTranscriberUnavailable = errors.New("transcription backend unavailable")

	// ErrTranscriptionFailed is returned when the transcription request fails
	ErrTranscriptionFailed = errors.New("transcription request failed")
)
