package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/healthyfy/backend/internal/domain"
	"golang.org/x/time/rate"
)

// Client sends audio to an OpenAI-compatible Whisper server
// (POST {base}/v1/audio/transcriptions) and returns the transcribed text.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	model       string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a transcription client. requestsPerMinute bounds how
// fast audio uploads are forwarded to the Whisper server; transcription is
// CPU-heavy on the server side so the limiter protects it from bursts.
func NewClient(baseURL, model string, timeout time.Duration, requestsPerMinute int) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}

	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 5)

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		model:       model,
		rateLimiter: limiter,
	}
}

// SetDebug enables verbose request logging.
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// transcriptionResponse is the Whisper server's JSON response body.
type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the audio bytes and returns the transcribed text,
// trimmed of surrounding whitespace. Transient failures are retried up to
// 3 times with exponential backoff.
func (c *Client) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", domain.ErrInvalidRequest
	}

	endpoint := fmt.Sprintf("%s/v1/audio/transcriptions", c.baseURL)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter error: %w", err)
		}

		text, retryable, err := c.doTranscribe(ctx, endpoint, filename, audio)
		if err == nil {
			return text, nil
		}

		if c.debug {
			log.Printf("[WHISPER] attempt %d failed: %v", attempt, err)
		}
		lastErr = err
		if !retryable {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(exponentialBackoff(attempt)):
		}
	}

	return "", lastErr
}

// doTranscribe performs one upload. The bool result reports whether the
// failure is worth retrying.
func (c *Client) doTranscribe(ctx context.Context, endpoint, filename string, audio []byte) (string, bool, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", false, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", false, fmt.Errorf("failed to write audio payload: %w", err)
	}
	if c.model != "" {
		if err := writer.WriteField("model", c.model); err != nil {
			return "", false, fmt.Errorf("failed to write model field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", false, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, &body)
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("User-Agent", "HealthyFy/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("%w: %v", domain.ErrTranscriptionFailed, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		// Client errors (bad audio) won't get better on retry.
		retryable := resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("%w: status %d, body: %s",
			domain.ErrTranscriptionFailed, resp.StatusCode, string(respBody))
	}

	var parsed transcriptionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", false, fmt.Errorf("failed to decode response: %w", err)
	}

	return strings.TrimSpace(parsed.Text), false, nil
}

// exponentialBackoff returns the wait time before the given retry attempt.
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(250*(1<<attempt)) * time.Millisecond
}
