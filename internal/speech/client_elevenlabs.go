package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

const elevenLabsURL = "https://api.elevenlabs.io/v1/text-to-speech/"

type ElevenLabsClient struct {
	apiKey  string
	voiceID string
	url     string
	client  *http.Client
}

func NewElevenLabsClient(key, voiceID string) *ElevenLabsClient {
	return &ElevenLabsClient{
		apiKey:  key,
		voiceID: voiceID,
		url:     elevenLabsURL,
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

// Synthesize: язык модель определяет сама, скорость ElevenLabs не поддерживает
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text, _ string, _ float64) (Audio, error) {
	payload, err := json.Marshal(map[string]string{
		"text":     text,
		"model_id": "eleven_multilingual_v2",
	})
	if err != nil {
		return Audio{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+c.voiceID, bytes.NewReader(payload))
	if err != nil {
		return Audio{}, err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.client.Do(req)
	if err != nil {
		return Audio{}, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return Audio{}, fmt.Errorf("elevenlabs error %d: %s", resp.StatusCode, b)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Audio{}, fmt.Errorf("read elevenlabs audio: %w", err)
	}
	return Audio{Data: data, Format: "mp3"}, nil
}
