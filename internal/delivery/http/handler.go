package http

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/healthyfy/backend/internal/domain"
	"github.com/healthyfy/backend/internal/infrastructure/catalog"
	"github.com/healthyfy/backend/internal/usecase"
)

// maxAudioBytes caps speech uploads at 25 MB, matching the usual Whisper
// server limit.
const maxAudioBytes = 25 << 20

// Handler holds dependencies for HTTP handlers
type Handler struct {
	parser      *usecase.FoodParserService
	predictor   *usecase.PredictionService
	users       domain.UserRepository
	logs        domain.FoodLogRepository
	catalog     *catalog.Catalog
	transcriber domain.Transcriber
}

// NewHandler creates a new HTTP handler. transcriber may be nil when no
// Whisper backend is configured; the speech endpoint then answers 503.
func NewHandler(
	parser *usecase.FoodParserService,
	predictor *usecase.PredictionService,
	users domain.UserRepository,
	logs domain.FoodLogRepository,
	cat *catalog.Catalog,
	transcriber domain.Transcriber,
) *Handler {
	return &Handler{
		parser:      parser,
		predictor:   predictor,
		users:       users,
		logs:        logs,
		catalog:     cat,
		transcriber: transcriber,
	}
}

// Root returns basic service information
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "HealthyFy Me API",
		"version": "1.0.0",
		"status":  "running",
	})
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"service":    "healthyfy-backend",
		"match_mode": string(h.parser.Mode()),
	})
}

// CreateUser registers a user, or returns the existing account for an
// already-registered phone number.
func (h *Handler) CreateUser(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Phone    string `json:"phone" binding:"required"`
		Pincode  string `json:"pincode"`
		DietType string `json:"diet_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), &domain.User{
		Name:     req.Name,
		Phone:    req.Phone,
		Pincode:  req.Pincode,
		DietType: req.DietType,
	})
	if err != nil {
		log.Printf("[HTTP] create user failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UploadSpeech transcribes an uploaded audio file to text.
func (h *Handler) UploadSpeech(c *gin.Context) {
	if h.transcriber == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": domain.ErrTranscriberUnavailable.Error(),
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}
	if fileHeader.Size > maxAudioBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "audio file too large"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read audio file"})
		return
	}
	defer f.Close()

	audio, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read audio file"})
		return
	}

	text, err := h.transcriber.Transcribe(c.Request.Context(), fileHeader.Filename, audio)
	if err != nil {
		log.Printf("[HTTP] transcription failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "transcription failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"text":   text,
		"status": "success",
	})
}

// ParseFood matches free text to a catalog entry with a quantity guess.
func (h *Handler) ParseFood(c *gin.Context) {
	var req domain.ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.parser.Parse(c.Request.Context(), req.Text))
}

// LogFood persists one meal log entry.
func (h *Handler) LogFood(c *gin.Context) {
	var req domain.LogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	food, ok := h.catalog.ByID(req.FoodID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrFoodNotFound.Error()})
		return
	}

	calories := req.Calories
	if calories == 0 {
		calories = req.QuantityGrams * food.CaloriesPer100g / 100
	}
	source := req.Source
	if source == "" {
		source = "speech"
	}

	saved, err := h.logs.SaveLog(c.Request.Context(), &domain.FoodLog{
		UserID:        req.UserID,
		FoodID:        req.FoodID,
		QuantityGrams: req.QuantityGrams,
		Calories:      calories,
		Source:        source,
	})
	if err != nil {
		log.Printf("[HTTP] save log failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save log"})
		return
	}

	c.JSON(http.StatusOK, domain.LogEntry{
		ID:            saved.ID,
		UserID:        saved.UserID,
		FoodID:        saved.FoodID,
		FoodName:      food.Name,
		QuantityGrams: saved.QuantityGrams,
		Calories:      saved.Calories,
		Timestamp:     saved.Timestamp,
		Source:        saved.Source,
	})
}

// TodayFood returns today's logs and the calorie total for a user.
func (h *Handler) TodayFood(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "valid user_id is required"})
		return
	}

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.Add(24*time.Hour - time.Nanosecond)

	logs, err := h.logs.LogsBetween(c.Request.Context(), userID, start, end)
	if err != nil {
		log.Printf("[HTTP] today query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load logs"})
		return
	}

	summary := domain.DailySummary{Logs: make([]domain.LogEntry, 0, len(logs))}
	for _, entry := range logs {
		name := "Unknown"
		if food, ok := h.catalog.ByID(entry.FoodID); ok {
			name = food.Name
		}
		summary.DailyCalories += entry.Calories
		summary.Logs = append(summary.Logs, domain.LogEntry{
			ID:            entry.ID,
			UserID:        entry.UserID,
			FoodID:        entry.FoodID,
			FoodName:      name,
			QuantityGrams: entry.QuantityGrams,
			Calories:      entry.Calories,
			Timestamp:     entry.Timestamp,
			Source:        entry.Source,
		})
	}

	c.JSON(http.StatusOK, summary)
}

// PredictNext returns a next-meal prediction for a user.
func (h *Handler) PredictNext(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "valid user_id is required"})
		return
	}

	prediction, err := h.predictor.PredictNextMeal(c.Request.Context(), userID)
	if err != nil {
		log.Printf("[HTTP] prediction failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute prediction"})
		return
	}

	c.JSON(http.StatusOK, prediction)
}

func parseUserID(c *gin.Context) (int64, error) {
	raw := c.Query("user_id")
	if raw == "" {
		return 0, errors.New("missing user_id")
	}
	return strconv.ParseInt(raw, 10, 64)
}
