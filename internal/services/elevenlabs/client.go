// Package elevenlabs re-synthesizes an audio artifact in a target voice via
// the ElevenLabs speech-to-speech API.
package elevenlabs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"doppel/internal/services"
)

// Client provides access to the ElevenLabs speech-to-speech API.
type Client struct {
	apiKey     string
	baseURL    string
	modelID    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates an ElevenLabs client.
func New(apiKey, baseURL, modelID string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("elevenlabs api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("elevenlabs base url required")
	}
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		modelID = "eleven_multilingual_v2"
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		modelID:    modelID,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Convert re-synthesizes the audio at audioPath in the voice identified by
// voiceID, writing the returned audio payload to outputPath.
func (c *Client) Convert(ctx context.Context, audioPath, voiceID, outputPath string) error {
	voiceID = strings.TrimSpace(voiceID)
	if voiceID == "" {
		return services.Wrap(services.ErrExternalTool, "voice", "elevenlabs", "voice id required", nil)
	}

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "voice", "elevenlabs", fmt.Sprintf("read %s", audioPath), err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio", "input.wav")
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "voice", "elevenlabs", "build form", err)
	}
	if _, err := part.Write(audio); err != nil {
		return services.Wrap(services.ErrExternalTool, "voice", "elevenlabs", "write form audio", err)
	}
	if err := writer.WriteField("model_id", c.modelID); err != nil {
		return services.Wrap(services.ErrExternalTool, "voice", "elevenlabs", "write form field", err)
	}
	if err := writer.Close(); err != nil {
		return services.Wrap(services.ErrExternalTool, "voice", "elevenlabs", "close form", err)
	}

	endpoint := fmt.Sprintf("%s/v1/speech-to-speech/%s", c.baseURL, url.PathEscape(voiceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "voice", "elevenlabs", "build request", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "voice", "elevenlabs", "speech-to-speech request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail := readErrorBody(resp.Body)
		return services.Wrap(services.ErrExternalTool, "voice", "elevenlabs",
			fmt.Sprintf("speech-to-speech status %d: %s", resp.StatusCode, detail), nil)
	}

	converted, err := io.ReadAll(resp.Body)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "voice", "elevenlabs", "read response audio", err)
	}
	if err := os.WriteFile(outputPath, converted, 0o644); err != nil {
		return services.Wrap(services.ErrExternalTool, "voice", "elevenlabs", fmt.Sprintf("write %s", outputPath), err)
	}
	return nil
}

func readErrorBody(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 512))
	if err != nil {
		return "unreadable error body"
	}
	detail := strings.TrimSpace(string(data))
	if detail == "" {
		return "empty error body"
	}
	return detail
}
