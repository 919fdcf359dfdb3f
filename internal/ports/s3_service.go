package ports

import (
	"context"
	"io"
)

type S3Service interface {
	ObjectKey(chatID int64, filename string) string
	SaveFile(ctx context.Context, chatID int64, file io.Reader, filename, contentType string) (string, error)
}
