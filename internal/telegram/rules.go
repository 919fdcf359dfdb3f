package telegram

import "strings"

type action int

const (
	actTranslate action = iota
	actBlock
	actUnblock
	actForget
	actBing
	actBard
	actClaude
	actGPT
)

// backend, в который уходит запрос
var actionBackends = map[action]string{
	actBing:   "bing",
	actBard:   "bard",
	actClaude: "claude",
	actGPT:    "gpt",
}

// route разбирает текст сообщения; правила проверяются по порядку
func route(text, name string, private, replyToBot bool) action {
	msg := strings.ToLower(strings.TrimSpace(text))
	direct := private || replyToBot

	addressed := func(words ...string) bool {
		for _, w := range words {
			if direct && strings.HasPrefix(msg, w) {
				return true
			}
			if strings.HasPrefix(msg, name+" "+w) || strings.HasPrefix(msg, name+", "+w) {
				return true
			}
		}
		return false
	}
	called := func(word string) bool {
		return strings.HasPrefix(msg, word+" ") || strings.HasPrefix(msg, word+",")
	}

	switch {
	case addressed("замолчи", "заткнись"):
		return actBlock
	case addressed("вернись"):
		return actUnblock
	case addressed("забудь"):
		return actForget
	case called("бинг"):
		return actBing
	case called("бард"):
		return actBard
	case called("клод"):
		return actClaude
	case called(name) || direct:
		return actGPT
	}
	return actTranslate
}
