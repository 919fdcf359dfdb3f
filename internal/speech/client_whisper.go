package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type audioAPI interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
	CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// OpenAIClient: Whisper и tts-1; ключ на каждый запрос случайный, как у чата
type OpenAIClient struct {
	apis []audioAPI
}

func NewOpenAIClient(keys []string, baseURL string) *OpenAIClient {
	c := &OpenAIClient{}
	for _, key := range keys {
		cfg := openai.DefaultConfig(key)
		if baseURL != "" {
			cfg.BaseURL = baseURL
		}
		c.apis = append(c.apis, openai.NewClientWithConfig(cfg))
	}
	return c
}

func (c *OpenAIClient) pick() (audioAPI, error) {
	if len(c.apis) == 0 {
		return nil, errors.New("openai audio: no api keys")
	}
	return c.apis[rand.IntN(len(c.apis))], nil
}

func (c *OpenAIClient) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if filename == "" {
		filename = "voice.ogg"
	}
	api, err := c.pick()
	if err != nil {
		return "", err
	}
	resp, err := api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(audio),
		FilePath: filename,
	})
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// голоса OpenAI многоязычные, но звучат по-разному
var openAIVoices = map[string]openai.SpeechVoice{
	"ru": openai.VoiceOnyx,
	"uk": openai.VoiceOnyx,
	"en": openai.VoiceAlloy,
	"de": openai.VoiceEcho,
	"fr": openai.VoiceShimmer,
	"es": openai.VoiceNova,
	"it": openai.VoiceNova,
	"ja": openai.VoiceShimmer,
	"zh": openai.VoiceShimmer,
}

func voiceFor(lang string) openai.SpeechVoice {
	if v, ok := openAIVoices[lang]; ok {
		return v
	}
	return openai.VoiceAlloy
}

func (c *OpenAIClient) Synthesize(ctx context.Context, text, lang string, speed float64) (Audio, error) {
	api, err := c.pick()
	if err != nil {
		return Audio{}, err
	}
	resp, err := api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          voiceFor(lang),
		ResponseFormat: openai.SpeechResponseFormatOpus,
		Speed:          speed,
	})
	if err != nil {
		return Audio{}, fmt.Errorf("openai tts: %w", err)
	}
	defer resp.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp); err != nil {
		return Audio{}, fmt.Errorf("read tts: %w", err)
	}
	return Audio{Data: buf.Bytes(), Format: "ogg"}, nil
}
