package imagegen

import (
	"context"
	"fmt"
	"math/rand/v2"

	openai "github.com/sashabaranov/go-openai"
)

type imageAPI interface {
	CreateImage(ctx context.Context, req openai.ImageRequest) (openai.ImageResponse, error)
}

// DallE: OpenAI DALL·E 3, одна картинка за запрос; ключ на каждый запрос случайный
type DallE struct {
	apis []imageAPI
}

func NewDallE(keys []string, baseURL string) *DallE {
	d := &DallE{}
	for _, key := range keys {
		cfg := openai.DefaultConfig(key)
		if baseURL != "" {
			cfg.BaseURL = baseURL
		}
		d.apis = append(d.apis, openai.NewClientWithConfig(cfg))
	}
	return d
}

func (d *DallE) Name() string { return "dalle" }

func (d *DallE) Generate(ctx context.Context, prompt string) ([]string, error) {
	if len(d.apis) == 0 {
		return nil, fmt.Errorf("dalle: no api keys")
	}
	api := d.apis[rand.IntN(len(d.apis))]
	resp, err := api.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          openai.CreateImageModelDallE3,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, fmt.Errorf("dalle: %w", err)
	}

	var urls []string
	for _, d := range resp.Data {
		if d.URL != "" {
			urls = append(urls, d.URL)
		}
	}
	return urls, nil
}

type imageWrapper interface {
	GenerateImages(ctx context.Context, prompt string) ([]string, error)
}

// Bing: обёртка Bing Image Creator
type Bing struct {
	client imageWrapper
}

func NewBing(client imageWrapper) *Bing {
	return &Bing{client: client}
}

func (b *Bing) Name() string { return "bing" }

func (b *Bing) Generate(ctx context.Context, prompt string) ([]string, error) {
	return b.client.GenerateImages(ctx, prompt)
}
