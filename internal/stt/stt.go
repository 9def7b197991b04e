// Package stt transcribes recorded clips through a Whisper-compatible HTTP API.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/audio"
)

// Transcription failures. Callers classify them with errors.Is.
var (
	ErrTimeout            = errors.New("transcription timed out")
	ErrUnintelligible     = errors.New("speech not understood")
	ErrServiceUnavailable = errors.New("transcription service unavailable")
)

// Transcriber turns a clip into text.
type Transcriber interface {
	Transcribe(ctx context.Context, clip *audio.Clip) (string, error)
}

// Config configures a WhisperClient.
type Config struct {
	Endpoint string
	APIKey   string
	Model    string
	Language string
	Timeout  time.Duration
}

// WhisperClient posts WAV clips as multipart forms to a transcription endpoint.
type WhisperClient struct {
	config Config
	client *http.Client
	logger zerolog.Logger
}

// NewWhisperClient creates a client. An empty APIKey falls back to OPENAI_API_KEY.
func NewWhisperClient(config Config, logger zerolog.Logger) *WhisperClient {
	if config.APIKey == "" {
		config.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if config.Model == "" {
		config.Model = "whisper-1"
	}
	return &WhisperClient{
		config: config,
		client: &http.Client{},
		logger: logger.With().Str("component", "stt").Logger(),
	}
}

type transcriptionResponse struct {
	Text  string `json:"text"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Transcribe uploads clip and returns the recognized text. The request is
// bounded by the configured timeout in addition to ctx.
func (c *WhisperClient) Transcribe(ctx context.Context, clip *audio.Clip) (string, error) {
	if clip == nil || len(clip.Samples) == 0 {
		return "", ErrUnintelligible
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	wavData, err := clip.WAV()
	if err != nil {
		return "", err
	}

	body, contentType, err := c.form(wavData)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, body)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("%w: read response: %v", ErrServiceUnavailable, err)
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Dur("audio", clip.Duration()).
		Msg("transcription response")

	if err := classifyStatus(resp.StatusCode, respBody); err != nil {
		return "", err
	}

	var parsed transcriptionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrServiceUnavailable, err)
	}

	text := strings.TrimSpace(parsed.Text)
	if text == "" {
		return "", ErrUnintelligible
	}
	return text, nil
}

func (c *WhisperClient) form(wavData []byte) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "speech.wav")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}

	fields := map[string]string{
		"model":           c.config.Model,
		"language":        c.config.Language,
		"response_format": "json",
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// classifyStatus maps non-2xx responses onto the transcription errors.
func classifyStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrTimeout
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: status %d", ErrServiceUnavailable, status)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrUnintelligible, errorMessage(body))
	default:
		return fmt.Errorf("%w: status %d: %s", ErrServiceUnavailable, status, errorMessage(body))
	}
}

func errorMessage(body []byte) string {
	var parsed transcriptionResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		return parsed.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
