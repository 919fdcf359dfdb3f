package domain

import (
	"fmt"
	"sync"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// TokenCounter меряет размер текста для бюджета истории
type TokenCounter interface {
	Count(text string) int
}

// RuneCounter считает символы
type RuneCounter struct{}

func (RuneCounter) Count(text string) int {
	return utf8.RuneCountInString(text)
}

// TiktokenCounter считает BPE-токены модели. Словарь грузится при первом вызове.
type TiktokenCounter struct {
	model string

	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

func NewTiktokenCounter(model string) *TiktokenCounter {
	return &TiktokenCounter{model: model}
}

// Init загружает словарь заранее, чтобы ошибка всплыла на старте
func (c *TiktokenCounter) Init() error {
	c.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(c.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
		}
		if err != nil {
			c.err = fmt.Errorf("tokenizer init: %w", err)
			return
		}
		c.enc = enc
	})
	return c.err
}

// Count falls back to runes when the tokenizer is unavailable.
func (c *TiktokenCounter) Count(text string) int {
	if err := c.Init(); err != nil {
		return utf8.RuneCountInString(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}
