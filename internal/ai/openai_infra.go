package ai

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

var ErrNoKeys = errors.New("openai: no api keys configured")

// Completion: ответ модели
type Completion struct {
	Text     string
	Filtered bool // модель отказалась отвечать
}

type OpenAIClient struct {
	api     chatCompleter
	model   string
	limiter *rate.Limiter
}

// NewOpenAIClient поддерживает любой OpenAI-совместимый сервер через baseURL
func NewOpenAIClient(key, baseURL, model string, limiter *rate.Limiter) *OpenAIClient {
	cfg := openai.DefaultConfig(key)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		api:     openai.NewClientWithConfig(cfg),
		model:   model,
		limiter: limiter,
	}
}

func (c *OpenAIClient) GetCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (Completion, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Completion{}, err
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.5,
	})
	if err != nil {
		return Completion{}, err
	}
	if len(resp.Choices) == 0 {
		return Completion{}, nil
	}

	ch := resp.Choices[0]
	return Completion{
		Text:     strings.TrimSpace(ch.Message.Content),
		Filtered: ch.FinishReason == openai.FinishReasonContentFilter,
	}, nil
}

// OpenAIPool держит по клиенту на каждый ключ
type OpenAIPool struct {
	clients []*OpenAIClient
}

func NewOpenAIPool(keys []string, baseURL, model string, limiter *rate.Limiter) *OpenAIPool {
	p := &OpenAIPool{}
	for _, k := range keys {
		p.clients = append(p.clients, NewOpenAIClient(k, baseURL, model, limiter))
	}
	return p
}

func newPoolOf(clients ...*OpenAIClient) *OpenAIPool {
	return &OpenAIPool{clients: clients}
}

func (p *OpenAIPool) Enabled() bool {
	return len(p.clients) > 0
}

// Pick возвращает клиента со случайным ключом
func (p *OpenAIPool) Pick() (*OpenAIClient, error) {
	if len(p.clients) == 0 {
		return nil, ErrNoKeys
	}
	return p.clients[rand.IntN(len(p.clients))], nil
}

// Complete: разовый запрос без истории
func (p *OpenAIPool) Complete(ctx context.Context, prompt string) (string, error) {
	c, err := p.Pick()
	if err != nil {
		return "", err
	}
	comp, err := c.GetCompletion(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: gptSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
	if err != nil {
		return "", err
	}
	return comp.Text, nil
}

// CompleteMessages: разовый запрос с готовым набором сообщений (картинки и т.п.)
func (p *OpenAIPool) CompleteMessages(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	c, err := p.Pick()
	if err != nil {
		return "", err
	}
	comp, err := c.GetCompletion(ctx, messages)
	if err != nil {
		return "", err
	}
	return comp.Text, nil
}
