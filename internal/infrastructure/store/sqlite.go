package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/healthyfy/backend/internal/domain"
)

// SQLiteStore persists users and food logs. The pure-Go sqlite driver keeps
// the binary free of cgo.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite allows a single writer; one pooled connection avoids
	// SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        phone TEXT NOT NULL UNIQUE,
        pincode TEXT NOT NULL,
        diet_type TEXT NOT NULL,
        created_at TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS food_logs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        food_id INTEGER NOT NULL,
        quantity_grams REAL NOT NULL,
        calories REAL NOT NULL,
        timestamp TEXT NOT NULL,
        source TEXT NOT NULL,
        FOREIGN KEY (user_id) REFERENCES users(id)
    );

    CREATE INDEX IF NOT EXISTS idx_food_logs_user_time ON food_logs(user_id, timestamp);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// CreateUser inserts a new user, or returns the existing one when the phone
// number is already registered. Registration is idempotent on phone.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	existing, err := s.GetUserByPhone(ctx, user.Phone)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	createdAt := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, phone, pincode, diet_type, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		user.Name, user.Phone, user.Pincode, user.DietType,
		createdAt.Format(time.RFC3339))
	if err != nil {
		// A concurrent registration can win the race between the lookup
		// above and this insert; the unique phone index then rejects ours.
		if existing, lookupErr := s.GetUserByPhone(ctx, user.Phone); lookupErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}

	created := *user
	created.ID = id
	created.CreatedAt = createdAt
	return &created, nil
}

// GetUserByPhone looks up a user by phone number.
func (s *SQLiteStore) GetUserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, phone, pincode, diet_type, created_at
         FROM users WHERE phone = ?`, phone)

	var user domain.User
	var createdAtStr string
	err := row.Scan(&user.ID, &user.Name, &user.Phone, &user.Pincode,
		&user.DietType, &createdAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	user.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return &user, nil
}

// SaveLog persists one food log entry. A zero Timestamp is filled with the
// current time.
func (s *SQLiteStore) SaveLog(ctx context.Context, log *domain.FoodLog) (*domain.FoodLog, error) {
	ts := log.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO food_logs (user_id, food_id, quantity_grams, calories, timestamp, source)
         VALUES (?, ?, ?, ?, ?, ?)`,
		log.UserID, log.FoodID, log.QuantityGrams, log.Calories,
		ts.Format(time.RFC3339), log.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to insert food log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read log id: %w", err)
	}

	saved := *log
	saved.ID = id
	saved.Timestamp = ts
	return &saved, nil
}

// LogsSince returns a user's logs with timestamp >= since, oldest first.
func (s *SQLiteStore) LogsSince(ctx context.Context, userID int64, since time.Time) ([]domain.FoodLog, error) {
	return s.queryLogs(ctx,
		`SELECT id, user_id, food_id, quantity_grams, calories, timestamp, source
         FROM food_logs WHERE user_id = ? AND timestamp >= ?
         ORDER BY timestamp ASC`,
		userID, since.UTC().Format(time.RFC3339))
}

// LogsBetween returns a user's logs with start <= timestamp <= end, oldest first.
func (s *SQLiteStore) LogsBetween(ctx context.Context, userID int64, start, end time.Time) ([]domain.FoodLog, error) {
	return s.queryLogs(ctx,
		`SELECT id, user_id, food_id, quantity_grams, calories, timestamp, source
         FROM food_logs WHERE user_id = ? AND timestamp >= ? AND timestamp <= ?
         ORDER BY timestamp ASC`,
		userID, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
}

func (s *SQLiteStore) queryLogs(ctx context.Context, query string, args ...interface{}) ([]domain.FoodLog, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query food logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.FoodLog
	for rows.Next() {
		var entry domain.FoodLog
		var timestampStr string

		err := rows.Scan(&entry.ID, &entry.UserID, &entry.FoodID,
			&entry.QuantityGrams, &entry.Calories, &timestampStr, &entry.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food log: %w", err)
		}

		entry.Timestamp, err = time.Parse(time.RFC3339, timestampStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}

		logs = append(logs, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate food logs: %w", err)
	}

	return logs, nil
}
