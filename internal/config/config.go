// Package config reads the bot settings from the environment (and .env).
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	TelegramToken string
	DatabaseURL   string
	AdminChatIDs  []int64
	AdminPassword string
	AuthSecret    string

	OpenAIKeys     []string
	OpenAIBaseURL  string
	OpenAIModel    string
	VisionModel    string
	GPTCountTokens bool
	OpenAIRPS      float64

	BingURL      string
	BingImageURL string
	BardURL      string
	BardKeys     []string
	ClaudeURL    string
	ClaudeKeys   []string
	WrapperRPS   float64

	DeepgramKey   string
	ElevenLabsKey string
	ElevenVoiceID string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string

	SessionIdle time.Duration
}

var ErrNoToken = errors.New("TELEGRAM_TOKEN is not set")

// Load подтягивает .env (если есть) и собирает конфиг
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getenv("PORT", "8080"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AdminChatIDs:  parseIDs(os.Getenv("ADMIN_CHAT_IDS")),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AuthSecret:    getenv("AUTH_SECRET", "tg_relay"),

		OpenAIKeys:     splitList(os.Getenv("OPENAI_API_KEYS")),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:    getenv("OPENAI_MODEL", "gpt-3.5-turbo"),
		VisionModel:    getenv("OPENAI_VISION_MODEL", "gpt-4o-mini"),
		GPTCountTokens: getbool("GPT_COUNT_TOKENS"),
		OpenAIRPS:      getfloat("OPENAI_RPS", 3),

		BingURL:      os.Getenv("BING_URL"),
		BingImageURL: os.Getenv("BING_IMAGE_URL"),
		BardURL:      os.Getenv("BARD_URL"),
		BardKeys:     splitList(os.Getenv("BARD_KEYS")),
		ClaudeURL:    os.Getenv("CLAUDE_URL"),
		ClaudeKeys:   splitList(os.Getenv("CLAUDE_KEYS")),
		WrapperRPS:   getfloat("WRAPPER_RPS", 1),

		DeepgramKey:   os.Getenv("DEEPGRAM_API_KEY"),
		ElevenLabsKey: os.Getenv("ELEVENLABS_API_KEY"),
		ElevenVoiceID: getenv("ELEVENLABS_VOICE_ID", "EXAVITQu4vr4xnSDxMaL"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Region:    os.Getenv("S3_REGION"),

		SessionIdle: getduration("SESSION_IDLE", 6*time.Hour),
	}

	// один ключ тоже поддерживаем, как раньше
	if len(cfg.OpenAIKeys) == 0 {
		cfg.OpenAIKeys = splitList(os.Getenv("OPENAI_API_KEY"))
	}

	if cfg.TelegramToken == "" {
		return nil, ErrNoToken
	}
	return cfg, nil
}

func (c *Config) S3Enabled() bool {
	return c.S3Endpoint != "" && c.S3Bucket != ""
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getbool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

func getfloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func getduration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIDs(s string) []int64 {
	var out []int64
	for _, p := range splitList(s) {
		id, err := strconv.ParseInt(p, 10, 64)
		if err == nil {
			out = append(out, id)
		}
	}
	return out
}
