// Package imagegen asks every configured image provider at once and merges the results.
package imagegen

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Vovarama1992/tg_relay/internal/ports"
)

// больше в одну медиагруппу Telegram не влезает
const maxImages = 10

type Service struct {
	providers []Provider
	s3        ports.S3Service
	http      *http.Client
	log       *zap.Logger
}

// NewService: s3 может быть nil, тогда картинки не архивируются
func NewService(s3 ports.S3Service, log *zap.Logger, providers ...Provider) *Service {
	return &Service{
		providers: providers,
		s3:        s3,
		http:      &http.Client{Timeout: 30 * time.Second},
		log:       log.Named("imagegen"),
	}
}

func (s *Service) Enabled() bool {
	return len(s.providers) > 0
}

// Generate опрашивает всех провайдеров параллельно; упавший провайдер просто
// ничего не добавляет. Ссылки идут в порядке провайдеров, не больше maxImages.
func (s *Service) Generate(ctx context.Context, chatID int64, prompt string) []string {
	results := make([][]string, len(s.providers))

	var g errgroup.Group
	for i, p := range s.providers {
		g.Go(func() error {
			start := time.Now()
			urls, err := p.Generate(ctx, prompt)
			if err != nil {
				s.log.Warn("provider failed", zap.String("provider", p.Name()), zap.Error(err))
				return nil
			}
			s.log.Info("provider done",
				zap.String("provider", p.Name()),
				zap.Int("images", len(urls)),
				zap.Duration("took", time.Since(start)),
			)
			results[i] = urls
			return nil
		})
	}
	_ = g.Wait()

	var out []string
	for _, urls := range results {
		out = append(out, urls...)
	}
	if len(out) > maxImages {
		out = out[:maxImages]
	}

	if s.s3 != nil && len(out) > 0 {
		s.archive(ctx, chatID, out)
	}
	return out
}

// archive складывает картинки в S3; ошибки только логируем
func (s *Service) archive(ctx context.Context, chatID int64, urls []string) {
	var g errgroup.Group
	g.SetLimit(4)
	for i, u := range urls {
		g.Go(func() error {
			if err := s.save(ctx, chatID, i, u); err != nil {
				s.log.Warn("archive image", zap.Int64("chat_id", chatID), zap.String("url", u), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) save(ctx context.Context, chatID int64, n int, u string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download status %d", resp.StatusCode)
	}

	ext := path.Ext(req.URL.Path)
	if ext == "" {
		ext = ".png"
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "image/png"
	}

	_, err = s.s3.SaveFile(ctx, chatID, io.LimitReader(resp.Body, 20<<20), fmt.Sprintf("image-%d%s", n+1, ext), ct)
	return err
}
