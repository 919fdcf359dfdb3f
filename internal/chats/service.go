// Package chats keeps per-chat bot settings: the name the bot answers to and
// whether auto-translation is switched off.
package chats

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Vovarama1992/tg_relay/internal/store"
)

const (
	DefaultName = "бот"
	maxNameLen  = 10
)

var ErrBadName = errors.New("chats: name must be russian or english letters and digits after them, 10 at most")

// буквы, потом цифры и буквы, цифрой начинаться нельзя
var nameRe = regexp.MustCompile(`^[a-zA-Zа-яА-ЯёЁ][a-zA-Zа-яА-ЯёЁ0-9]*$`)

type Settings struct {
	ChatID  int64  `json:"chat_id"`
	Name    string `json:"name"`
	Blocked bool   `json:"auto_translate_blocked"`
}

type Service struct {
	names  *store.Dict[string]
	blocks *store.Dict[bool]
}

func NewService(names *store.Dict[string], blocks *store.Dict[bool]) *Service {
	return &Service{names: names, blocks: blocks}
}

// ValidName проверяет имя для /name
func ValidName(name string) bool {
	return nameRe.MatchString(name) && utf8.RuneCountInString(name) <= maxNameLen
}

// Name возвращает имя бота в чате; в новом чате запоминает имя по умолчанию
func (s *Service) Name(ctx context.Context, chatID int64) (string, error) {
	return s.names.SetDefault(ctx, store.ChatKey(chatID), DefaultName)
}

func (s *Service) SetName(ctx context.Context, chatID int64, name string) error {
	if !ValidName(name) {
		return ErrBadName
	}
	return s.names.Set(ctx, store.ChatKey(chatID), strings.ToLower(name))
}

// Blocked: автоперевод в чате выключен
func (s *Service) Blocked(chatID int64) bool {
	b, _ := s.blocks.Get(store.ChatKey(chatID))
	return b
}

func (s *Service) SetBlocked(ctx context.Context, chatID int64, blocked bool) error {
	if !blocked {
		_, _, err := s.blocks.Pop(ctx, store.ChatKey(chatID))
		return err
	}
	return s.blocks.Set(ctx, store.ChatKey(chatID), true)
}

func (s *Service) Settings(ctx context.Context, chatID int64) (Settings, error) {
	name, err := s.Name(ctx, chatID)
	if err != nil {
		return Settings{}, err
	}
	return Settings{ChatID: chatID, Name: name, Blocked: s.Blocked(chatID)}, nil
}
