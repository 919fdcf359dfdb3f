package summary

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const (
	fetchTimeout = 10 * time.Second
	maxPageSize  = 1 << 20
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// page: скачанная страница, не больше maxPageSize
type page struct {
	body        []byte
	contentType string
}

// ValidURL: есть схема http(s) и хост
func ValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func isYouTube(raw string) bool {
	return strings.Contains(raw, "/youtu.be/") || strings.Contains(raw, "youtube.com/")
}

func (s *Service) fetch(ctx context.Context, raw string) (page, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return page{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.http.Do(req)
	if err != nil {
		return page{}, fmt.Errorf("fetch %s: %w", raw, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return page{}, fmt.Errorf("fetch %s: status %d", raw, resp.StatusCode)
	}

	// лишнее просто отрезаем
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return page{}, fmt.Errorf("read %s: %w", raw, err)
	}

	s.log.Info("fetched",
		zap.String("url", raw),
		zap.String("size", humanize.Bytes(uint64(len(body)))),
		zap.String("content_type", resp.Header.Get("Content-Type")),
	)
	return page{body: body, contentType: resp.Header.Get("Content-Type")}, nil
}

// ExtractText вытаскивает читаемый текст из html
func ExtractText(body []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", fmt.Errorf("detect charset: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, nav, footer, header, aside, form").Remove()

	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("main").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	// отдельные абзацы: отдельные строки
	root.Find("p, li, h1, h2, h3, h4, h5, h6, br, div, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var lines []string
	for _, l := range strings.Split(root.Text(), "\n") {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n"), nil
}
