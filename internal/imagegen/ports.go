package imagegen

import "context"

// Provider рисует картинки по описанию и возвращает ссылки на них
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) ([]string, error)
}
