package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// WrapperError: обёртка ответила не 2xx
type WrapperError struct {
	Status int
	Body   string
}

func (e *WrapperError) Error() string {
	return fmt.Sprintf("wrapper status %d: %s", e.Status, e.Body)
}

// Attachment: файл, приложенный к вопросу
type Attachment struct {
	Name string `json:"name"`
	Data []byte `json:"data"` // base64 в JSON
}

type askRequest struct {
	ConversationID string         `json:"conversation_id"`
	Key            string         `json:"key,omitempty"`
	Query          string         `json:"query"`
	Options        map[string]any `json:"options,omitempty"`
	Attachment     *Attachment    `json:"attachment,omitempty"`
}

type askResponse struct {
	Text       string `json:"text"`
	References string `json:"references"`
}

// WrapperClient говорит с внешним сервисом-обёрткой чата по JSON/HTTP
type WrapperClient struct {
	base    string
	http    *http.Client
	limiter *rate.Limiter
}

func NewWrapperClient(base string, timeout time.Duration, limiter *rate.Limiter) *WrapperClient {
	return &WrapperClient{
		base:    strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

// NewConversation открывает беседу и возвращает её id
func (c *WrapperClient) NewConversation(ctx context.Context, key string, options map[string]any) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	body := map[string]any{"key": key, "options": options}
	if err := c.post(ctx, "/conversation", body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("wrapper: empty conversation id")
	}
	return out.ID, nil
}

func (c *WrapperClient) Ask(ctx context.Context, req askRequest) (askResponse, error) {
	var out askResponse
	err := c.post(ctx, "/ask", req, &out)
	return out, err
}

// GenerateImages: обёртка генерации картинок: POST {"prompt"} → {"urls"}
func (c *WrapperClient) GenerateImages(ctx context.Context, prompt string) ([]string, error) {
	var out struct {
		URLs []string `json:"urls"`
	}
	if err := c.post(ctx, "", map[string]string{"prompt": prompt}, &out); err != nil {
		return nil, err
	}
	return out.URLs, nil
}

func (c *WrapperClient) post(ctx context.Context, path string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("wrapper request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read wrapper response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &WrapperError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode wrapper response: %w", err)
	}
	return nil
}
