package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"tg-bunker-bot/internal/game"
	"tg-bunker-bot/internal/storage"
	"tg-bunker-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ensureNoDialog проверяет, что у пользователя нет незавершённого
// диалога. Новая команда при висящем диалоге отклоняется: сначала
// /cancel.
func (b *Bot) ensureNoDialog(ctx context.Context, chatID, userID int64) bool {
	dialog, err := b.dialogs.Get(ctx, userID)
	if err != nil {
		log.Printf("Ошибка чтения диалога пользователя %d: %v", userID, err)
		b.reply(chatID, "❌ Внутренняя ошибка, попробуйте позже.")
		return false
	}
	if dialog != nil {
		b.reply(chatID, "❌ У вас уже есть незавершённый диалог. Завершите его или отмените через /cancel.")
		return false
	}
	return true
}

func (b *Bot) saveDialog(ctx context.Context, chatID, userID int64, dialog *storage.Dialog) bool {
	if err := b.dialogs.Set(ctx, userID, dialog); err != nil {
		log.Printf("Ошибка сохранения диалога пользователя %d: %v", userID, err)
		b.reply(chatID, "❌ Внутренняя ошибка, попробуйте позже.")
		return false
	}
	return true
}

func (b *Bot) clearDialog(ctx context.Context, userID int64) {
	if err := b.dialogs.Clear(ctx, userID); err != nil {
		log.Printf("Ошибка удаления диалога пользователя %d: %v", userID, err)
	}
}

// startDialog начинает админский многошаговый диалог
func (b *Bot) startDialog(ctx context.Context, chatID, userID int64, kind storage.DialogKind) {
	if !b.isAdmin(userID) {
		return
	}
	if !b.ensureNoDialog(ctx, chatID, userID) {
		return
	}
	room, err := b.service.ActiveRoom(ctx)
	if err != nil {
		b.reply(chatID, errorText(err))
		return
	}

	dialog := &storage.Dialog{Kind: kind, RoomCode: room.Code}
	var prompt string
	switch kind {
	case storage.DialogRandom, storage.DialogChange:
		dialog.Step = storage.StepPlayer
		prompt = "Введите имя игрока:"
	case storage.DialogSwap:
		dialog.Step = storage.StepPlayer
		prompt = "Введите имя первого игрока:"
	case storage.DialogShuffle:
		dialog.Step = storage.StepCategory
		prompt = "Какую категорию перемешать?\n" + categoriesHint
	case storage.DialogAddInfo:
		dialog.Step = storage.StepPlayer
		prompt = "Введите имя игрока, которому хотите раскрыть информацию:"
	default:
		return
	}
	if !b.saveDialog(ctx, chatID, userID, dialog) {
		return
	}
	b.reply(chatID, prompt)
}

// handleDialogMessage ведет пользователя по шагам текущего диалога.
// Некорректный ввод не продвигает состояние: бот переспрашивает тот же
// шаг.
func (b *Bot) handleDialogMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	dialog, err := b.dialogs.Get(ctx, userID)
	if err != nil {
		log.Printf("Ошибка чтения диалога пользователя %d: %v", userID, err)
		return
	}
	if dialog == nil {
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		b.reply(chatID, "❌ Значение не может быть пустым. Введите снова:")
		return
	}

	switch dialog.Kind {
	case storage.DialogJoin:
		b.stepJoin(ctx, chatID, userID, dialog, text, msg.From.UserName)
	case storage.DialogAddInfo:
		b.stepAddInfo(ctx, chatID, userID, dialog, text)
	case storage.DialogRandom:
		b.stepRandom(ctx, chatID, userID, dialog, text)
	case storage.DialogSwap:
		b.stepSwap(ctx, chatID, userID, dialog, text)
	case storage.DialogShuffle:
		b.stepShuffle(ctx, chatID, userID, dialog, text)
	case storage.DialogChange:
		b.stepChange(ctx, chatID, userID, dialog, text)
	}
}

// stepJoin принимает игровое имя и создает персонажа
func (b *Bot) stepJoin(ctx context.Context, chatID, userID int64, dialog *storage.Dialog, text, username string) {
	player, err := b.service.JoinRoom(ctx, userID, username, dialog.RoomCode, text)
	switch {
	case errors.Is(err, game.ErrConflict):
		b.reply(chatID, "❌ Это имя уже занято. Попробуйте другое:")
		return
	case errors.Is(err, game.ErrInvalidInput):
		b.reply(chatID, "❌ Значение не может быть пустым. Введите снова:")
		return
	case err != nil:
		b.reply(chatID, errorText(err))
		b.clearDialog(ctx, userID)
		return
	}
	b.clearDialog(ctx, userID)
	b.reply(chatID, fmt.Sprintf("✅ Вы вошли в комнату %s под именем %s.\nВаша карточка: /me", player.RoomCode, player.Name))
}

// checkDialogPlayer проверяет введённое имя игрока; при неудаче
// переспрашивает и возвращает false
func (b *Bot) checkDialogPlayer(ctx context.Context, chatID int64, roomCode, name string) bool {
	if _, err := b.service.FindPlayer(ctx, roomCode, name); err != nil {
		b.reply(chatID, "❌ Игрок с таким именем не найден. Попробуйте ещё раз или /cancel.")
		return false
	}
	return true
}

func (b *Bot) stepAddInfo(ctx context.Context, chatID, userID int64, dialog *storage.Dialog, text string) {
	switch dialog.Step {
	case storage.StepPlayer:
		if !b.checkDialogPlayer(ctx, chatID, dialog.RoomCode, text) {
			return
		}
		dialog.PlayerName = text
		dialog.Step = storage.StepCategory
		if b.saveDialog(ctx, chatID, userID, dialog) {
			b.reply(chatID, "Какую категорию раскрыть?\n"+categoriesHint)
		}
	case storage.StepCategory:
		cat, err := parseAdminCategory(text)
		if err != nil {
			b.reply(chatID, "❌ Некорректная категория. Выберите из списка.")
			return
		}
		if err := b.service.Reveal(ctx, dialog.PlayerName, cat); err != nil {
			b.reply(chatID, errorText(err))
			b.clearDialog(ctx, userID)
			return
		}
		b.clearDialog(ctx, userID)
		b.reply(chatID, fmt.Sprintf("Категория %s раскрыта для игрока %s.", cat.Title(), dialog.PlayerName))
	}
}

func (b *Bot) stepRandom(ctx context.Context, chatID, userID int64, dialog *storage.Dialog, text string) {
	switch dialog.Step {
	case storage.StepPlayer:
		if !b.checkDialogPlayer(ctx, chatID, dialog.RoomCode, text) {
			return
		}
		dialog.PlayerName = text
		dialog.Step = storage.StepCategory
		if b.saveDialog(ctx, chatID, userID, dialog) {
			b.reply(chatID, "Какую категорию изменить?\n"+categoriesHint)
		}
	case storage.StepCategory:
		cat, err := parseAdminCategory(text)
		if err != nil {
			b.reply(chatID, "❌ Некорректная категория. Выберите из списка.")
			return
		}
		result, err := b.service.RandomReassign(ctx, dialog.PlayerName, cat)
		if err != nil {
			b.reply(chatID, errorText(err))
			b.clearDialog(ctx, userID)
			return
		}
		b.clearDialog(ctx, userID)
		b.notifyChange(result, false)
		if cat == game.CategoryLuggage {
			b.reply(chatID, fmt.Sprintf("✅ Багаж игрока %s случайно изменён:\nНовые значения: %s",
				result.Player.Name, utils.FormatValues(result.New)))
		} else {
			b.reply(chatID, fmt.Sprintf("✅ %s игрока %s изменена на «%s».",
				cat.Title(), result.Player.Name, utils.FormatValues(result.New)))
		}
	}
}

func (b *Bot) stepSwap(ctx context.Context, chatID, userID int64, dialog *storage.Dialog, text string) {
	switch dialog.Step {
	case storage.StepPlayer:
		if !b.checkDialogPlayer(ctx, chatID, dialog.RoomCode, text) {
			return
		}
		dialog.PlayerName = text
		dialog.Step = storage.StepPlayer2
		if b.saveDialog(ctx, chatID, userID, dialog) {
			b.reply(chatID, "Введите имя второго игрока:")
		}
	case storage.StepPlayer2:
		if text == dialog.PlayerName {
			b.reply(chatID, "❌ Игроки должны быть разными. Введите другое имя:")
			return
		}
		if !b.checkDialogPlayer(ctx, chatID, dialog.RoomCode, text) {
			return
		}
		dialog.Player2Name = text
		dialog.Step = storage.StepCategory
		if b.saveDialog(ctx, chatID, userID, dialog) {
			b.reply(chatID, "Какую категорию обменять?\n"+categoriesHint)
		}
	case storage.StepCategory:
		cat, err := parseAdminCategory(text)
		if err != nil {
			b.reply(chatID, "❌ Некорректная категория. Выберите из списка.")
			return
		}
		result, err := b.service.Swap(ctx, dialog.PlayerName, dialog.Player2Name, cat)
		if err != nil {
			b.reply(chatID, errorText(err))
			b.clearDialog(ctx, userID)
			return
		}
		b.clearDialog(ctx, userID)
		b.notifySwap(result)
		if cat == game.CategoryLuggage {
			b.reply(chatID, fmt.Sprintf("✅ Багаж игроков %s и %s обменян.",
				result.Player1.Name, result.Player2.Name))
		} else {
			b.reply(chatID, fmt.Sprintf("✅ %s игроков %s и %s обменяна.",
				cat.Title(), result.Player1.Name, result.Player2.Name))
		}
	}
}

func (b *Bot) stepShuffle(ctx context.Context, chatID, userID int64, dialog *storage.Dialog, text string) {
	if dialog.Step != storage.StepCategory {
		return
	}
	cat, err := parseAdminCategory(text)
	if err != nil {
		b.reply(chatID, "❌ Некорректная категория. Выберите из списка.")
		return
	}
	results, err := b.service.Shuffle(ctx, cat)
	if err != nil {
		b.reply(chatID, errorText(err))
		b.clearDialog(ctx, userID)
		return
	}
	b.clearDialog(ctx, userID)
	for _, res := range results {
		if cat == game.CategoryLuggage {
			b.notify(res.Player.UserID, fmt.Sprintf("🔄 Багаж перемешан администратором! Ваш новый багаж:\n%s",
				utils.FormatValues(res.New)))
		} else {
			b.notify(res.Player.UserID, fmt.Sprintf("🔄 Категория «%s» перемешана администратором! Новое значение:\n%s",
				strings.ToLower(cat.Title()), utils.FormatValues(res.New)))
		}
	}
	if cat == game.CategoryLuggage {
		b.reply(chatID, "✅ Багаж всех игроков перемешан.")
	} else {
		b.reply(chatID, fmt.Sprintf("✅ %s всех игроков перемешана.", cat.Title()))
	}
}

func (b *Bot) stepChange(ctx context.Context, chatID, userID int64, dialog *storage.Dialog, text string) {
	switch dialog.Step {
	case storage.StepPlayer:
		if !b.checkDialogPlayer(ctx, chatID, dialog.RoomCode, text) {
			return
		}
		dialog.PlayerName = text
		dialog.Step = storage.StepCategory
		if b.saveDialog(ctx, chatID, userID, dialog) {
			b.reply(chatID, "Какую категорию изменить?\n"+categoriesHint)
		}
	case storage.StepCategory:
		cat, err := parseAdminCategory(text)
		if err != nil {
			b.reply(chatID, "❌ Некорректная категория. Выберите из списка.")
			return
		}
		dialog.Category = cat.Key()
		dialog.Step = storage.StepValue1
		if !b.saveDialog(ctx, chatID, userID, dialog) {
			return
		}
		if cat == game.CategoryLuggage {
			b.reply(chatID, "Введите новое значение для первого предмета багажа:")
		} else {
			b.reply(chatID, fmt.Sprintf("Введите новое значение для категории «%s»:", strings.ToLower(cat.Title())))
		}
	case storage.StepValue1:
		if game.Category(dialog.Category) == game.CategoryLuggage {
			dialog.Value1 = text
			dialog.Step = storage.StepValue2
			if b.saveDialog(ctx, chatID, userID, dialog) {
				b.reply(chatID, "Введите новое значение для второго предмета багажа:")
			}
			return
		}
		b.applyChange(ctx, chatID, userID, dialog, []string{text})
	case storage.StepValue2:
		b.applyChange(ctx, chatID, userID, dialog, []string{dialog.Value1, text})
	}
}

func (b *Bot) applyChange(ctx context.Context, chatID, userID int64, dialog *storage.Dialog, values []string) {
	cat := game.Category(dialog.Category)
	result, err := b.service.ManualChange(ctx, dialog.PlayerName, cat, values)
	switch {
	case errors.Is(err, game.ErrInvalidInput):
		b.reply(chatID, "❌ Значение не может быть пустым. Введите снова:")
		return
	case err != nil:
		b.reply(chatID, errorText(err))
		b.clearDialog(ctx, userID)
		return
	}
	b.clearDialog(ctx, userID)
	b.notifyChange(result, true)
	if cat == game.CategoryLuggage {
		b.reply(chatID, fmt.Sprintf("✅ Багаж игрока %s изменён на:\n%s",
			result.Player.Name, utils.FormatValues(result.New)))
	} else {
		b.reply(chatID, fmt.Sprintf("✅ %s игрока %s изменена на «%s».",
			cat.Title(), result.Player.Name, utils.FormatValues(result.New)))
	}
}

// notifyChange уведомляет игрока об изменении его категории
func (b *Bot) notifyChange(res *game.ChangeResult, manual bool) {
	mode := "(случайно)"
	if manual {
		mode = "вручную"
	}
	var text string
	if res.Category == game.CategoryLuggage {
		text = fmt.Sprintf("🔄 Ваш багаж изменён администратором %s:\nБыло: %s\nСтало: %s",
			mode, utils.FormatValues(res.Old), utils.FormatValues(res.New))
	} else {
		text = fmt.Sprintf("🔄 Ваша категория «%s» изменена администратором %s:\nБыло: %s\nСтало: %s",
			strings.ToLower(res.Category.Title()), mode, utils.FormatValues(res.Old), utils.FormatValues(res.New))
	}
	b.notify(res.Player.UserID, text)
}

// notifySwap уведомляет обоих игроков об обмене
func (b *Bot) notifySwap(res *game.SwapResult) {
	if res.Category == game.CategoryLuggage {
		b.notify(res.Player1.UserID, fmt.Sprintf("🔄 Ваш багаж обменян администратором с игроком %s:\nТеперь у вас: %s",
			res.Player2.Name, utils.FormatValues(res.New1)))
		b.notify(res.Player2.UserID, fmt.Sprintf("🔄 Ваш багаж обменян администратором с игроком %s:\nТеперь у вас: %s",
			res.Player1.Name, utils.FormatValues(res.New2)))
		return
	}
	title := strings.ToLower(res.Category.Title())
	b.notify(res.Player1.UserID, fmt.Sprintf("🔄 Ваша категория «%s» обменяна администратором с игроком %s:\nТеперь у вас: %s",
		title, res.Player2.Name, utils.FormatValues(res.New1)))
	b.notify(res.Player2.UserID, fmt.Sprintf("🔄 Ваша категория «%s» обменяна администратором с игроком %s:\nТеперь у вас: %s",
		title, res.Player1.Name, utils.FormatValues(res.New2)))
}
