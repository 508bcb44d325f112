package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Embedder produces fixed-length vectors from text. Implementations must be
// deterministic for the same input and model version.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Transcriber converts audio bytes into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

// UserRepository defines persistence for user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	GetUserByPhone(ctx context.Context, phone string) (*User, error)
}

// FoodLogRepository defines persistence for meal logs.
type FoodLogRepository interface {
	SaveLog(ctx context.Context, log *FoodLog) (*FoodLog, error)
	LogsSince(ctx context.Context, userID int64, since time.Time) ([]FoodLog, error)
	LogsBetween(ctx context.Context, userID int64, start, end time.Time) ([]FoodLog, error)
}
