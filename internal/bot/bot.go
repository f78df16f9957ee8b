package bot

import (
	"context"
	"errors"
	"log"
	"strings"
	"unicode"

	"tg-bunker-bot/internal/game"
	"tg-bunker-bot/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot связывает Telegram API с игровым сервисом и диалогами
type Bot struct {
	api       *tgbotapi.BotAPI
	service   *game.Service
	dialogs   *storage.DialogStore
	sheetsURL string
	adminID   int64
}

// New создает обработчик бота
func New(api *tgbotapi.BotAPI, service *game.Service, dialogs *storage.DialogStore, sheetsURL string, adminID int64) *Bot {
	return &Bot{
		api:       api,
		service:   service,
		dialogs:   dialogs,
		sheetsURL: sheetsURL,
		adminID:   adminID,
	}
}

// HandleUpdate обрабатывает одно обновление Telegram. Обновления
// обрабатываются последовательно, поэтому игровые мутации не
// конкурируют между собой.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	if update.Message.IsCommand() {
		b.handleCommand(ctx, update.Message)
		return
	}
	b.handleDialogMessage(ctx, update.Message)
}

func (b *Bot) isAdmin(userID int64) bool {
	return userID == b.adminID
}

// reply отправляет ответ в чат; сбой доставки только логируется
func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Ошибка отправки сообщения в чат %d: %v", chatID, err)
	}
}

// notify отправляет одностороннее уведомление игроку. Сбой доставки
// (например, заблокированный бот) логируется и не откатывает уже
// применённую мутацию.
func (b *Bot) notify(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Не удалось отправить уведомление пользователю %d: %v", userID, err)
	}
}

// errorText переводит игровую ошибку в сообщение пользователю
func errorText(err error) string {
	if errors.Is(err, game.ErrPoolExhausted) {
		return "❌ " + upperFirst(err.Error())
	}
	for _, known := range []error{game.ErrPermissionDenied, game.ErrNotFound, game.ErrConflict, game.ErrInvalidInput} {
		if errors.Is(err, known) {
			text := strings.ReplaceAll(err.Error(), known.Error()+": ", "")
			return "❌ " + upperFirst(text)
		}
	}
	log.Printf("Неожиданная ошибка: %v", err)
	return "❌ Внутренняя ошибка, попробуйте позже."
}

func upperFirst(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// parseAdminCategory разбирает категорию для админских диалогов;
// особое условие через диалоги не изменяется и не раскрывается
func parseAdminCategory(text string) (game.Category, error) {
	cat, err := game.ParseCategory(text)
	if err != nil {
		return "", err
	}
	if cat == game.CategorySpecial {
		return "", game.ErrInvalidInput
	}
	return cat, nil
}
