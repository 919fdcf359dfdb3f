package domain

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Vovarama1992/tg_relay/internal/ports"
)

type s3Service struct {
	client ports.S3Client
	now    func() time.Time
}

func NewS3Service(client ports.S3Client) ports.S3Service {
	return &s3Service{client: client, now: time.Now}
}

// ObjectKey: путь в бакете: чат/дата/uuid-имя
func (s *s3Service) ObjectKey(chatID int64, filename string) string {
	date := s.now().Format("2006-01-02")
	clean := filepath.Base(filename)
	return fmt.Sprintf("%d/%s/%s-%s", chatID, date, uuid.NewString()[:8], clean)
}

func (s *s3Service) SaveFile(
	ctx context.Context,
	chatID int64,
	file io.Reader,
	filename,
	contentType string,
) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename required")
	}

	key := s.ObjectKey(chatID, filename)

	// size = -1 → S3 клиент сам определит
	return s.client.PutObject(ctx, key, file, -1, contentType)
}
