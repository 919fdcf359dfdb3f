package pdf

import (
	"bytes"
	"context"
	"errors"
	"strings"
)

var ErrNotPDF = errors.New("pdf: not a pdf document")

type Service struct {
	conv TextExtractor
}

func NewService(c TextExtractor) *Service {
	return &Service{conv: c}
}

// IsPDF смотрит на сигнатуру файла
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, "\r\n\t "), []byte("%PDF-"))
}

func (s *Service) Text(ctx context.Context, data []byte) (string, error) {
	if !IsPDF(data) {
		return "", ErrNotPDF
	}
	text, err := s.conv.ExtractText(ctx, data)
	if err != nil {
		return "", err
	}
	// страницы pdftotext разделяет \f
	return strings.TrimSpace(strings.ReplaceAll(text, "\f", "\n")), nil
}
