package speech

import "context"

// Audio: синтезированная речь
type Audio struct {
	Data   []byte
	Format string // "ogg" (opus, можно слать голосовым) или "mp3"
}

// голос → текст
type STTClient interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// текст → голос
type TTSClient interface {
	Synthesize(ctx context.Context, text, lang string, speed float64) (Audio, error)
}
