package ai

import (
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// диагностика ошибок GPT
func analyzeOpenAIError(err error) string {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return "Неизвестная ошибка OpenAI: " + err.Error()
	}

	switch apiErr.HTTPStatusCode {
	case 401:
		return "Неверный API-ключ OpenAI."
	case 404:
		return "Модель не найдена."
	case 429:
		return "Превышен лимит OpenAI."
	case 400:
		if isContextLengthError(err) {
			return "Слишком длинная история диалога."
		}
		return "Некорректный запрос к OpenAI."
	case 500, 502, 503:
		return "Внутренняя ошибка OpenAI."
	}
	return fmt.Sprintf("Ошибка OpenAI (%d): %s", apiErr.HTTPStatusCode, apiErr.Message)
}

func isContextLengthError(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if code, ok := apiErr.Code.(string); ok && code == "context_length_exceeded" {
		return true
	}
	return strings.Contains(apiErr.Message, "maximum context length")
}
