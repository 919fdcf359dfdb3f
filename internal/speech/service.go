package speech

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNoSTT    = errors.New("speech: recognition is not configured")
	ErrNoTTS    = errors.New("speech: synthesis is not configured")
	ErrBadRate  = errors.New("speech: rate must look like +50% or -20%")
	ErrNoSpeech = errors.New("speech: nothing to say")
)

const (
	minSpeed = 0.25
	maxSpeed = 4.0

	// больше tts-1 не берёт
	maxTTSInput = 4096
)

// Service: единый сервис и для стт, и для ттс
type Service struct {
	stt STTClient
	tts TTSClient
	log *zap.Logger
}

func NewService(stt STTClient, tts TTSClient, log *zap.Logger) *Service {
	return &Service{
		stt: stt,
		tts: tts,
		log: log.Named("speech"),
	}
}

func (s *Service) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if s.stt == nil {
		return "", ErrNoSTT
	}
	start := time.Now()
	text, err := s.stt.Transcribe(ctx, audio, filename)
	s.log.Info("transcribe",
		zap.String("file", filename),
		zap.Int("bytes", len(audio)),
		zap.Duration("took", time.Since(start)),
		zap.Error(err),
	)
	return text, err
}

// Synthesize озвучивает text; rate в виде "+50%" / "-20%", пусто: обычная скорость
func (s *Service) Synthesize(ctx context.Context, text, lang, rate string) (Audio, error) {
	if s.tts == nil {
		return Audio{}, ErrNoTTS
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Audio{}, ErrNoSpeech
	}
	speed, err := ParseRate(rate)
	if err != nil {
		return Audio{}, err
	}

	if r := []rune(text); len(r) > maxTTSInput {
		text = string(r[:maxTTSInput])
	}

	a, err := s.tts.Synthesize(ctx, text, lang, speed)
	if err != nil {
		return Audio{}, err
	}
	s.log.Info("synthesize", zap.String("lang", lang), zap.Float64("speed", speed), zap.Int("bytes", len(a.Data)))
	return a, nil
}

// ParseRate: "+50%" → 1.5, "-20%" → 0.8
func ParseRate(rate string) (float64, error) {
	rate = strings.TrimSpace(rate)
	if rate == "" {
		return 1, nil
	}
	if len(rate) < 3 || (rate[0] != '+' && rate[0] != '-') || !strings.HasSuffix(rate, "%") {
		return 0, fmt.Errorf("%w: %q", ErrBadRate, rate)
	}

	pct, err := strconv.Atoi(rate[1 : len(rate)-1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadRate, rate)
	}
	if rate[0] == '-' {
		pct = -pct
	}

	speed := 1 + float64(pct)/100
	return min(max(speed, minSpeed), maxSpeed), nil
}
