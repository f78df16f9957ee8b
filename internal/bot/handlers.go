package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"tg-bunker-bot/internal/game"
	"tg-bunker-bot/internal/sheets"
	"tg-bunker-bot/internal/storage"
	"tg-bunker-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const categoriesHint = "(Биология, Профессия, Здоровье, Хобби, Багаж, Факт)"

// handleCommand обрабатывает команду от пользователя
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	userName := msg.From.UserName
	if userName == "" {
		userName = msg.From.FirstName
	}
	log.Printf("Команда от пользователя %s: %s", userName, msg.Text)

	switch msg.Command() {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "admin":
		b.handleAdmin(chatID, userID)
	case "createroom":
		b.handleCreateRoom(ctx, chatID, userID)
	case "closeroom":
		b.handleCloseRoom(ctx, chatID, userID)
	case "players":
		b.handlePlayers(ctx, chatID, userID)
	case "reload":
		b.handleReload(ctx, chatID, userID)
	case "room":
		b.handleRoom(ctx, chatID, userID, args)
	case "info":
		b.handleInfo(ctx, chatID, userID)
	case "me":
		b.handleMe(ctx, chatID, userID)
	case "card1":
		b.handleCard(ctx, chatID, userID, 1)
	case "card2":
		b.handleCard(ctx, chatID, userID, 2)
	case "random":
		b.startDialog(ctx, chatID, userID, storage.DialogRandom)
	case "change":
		b.startDialog(ctx, chatID, userID, storage.DialogChange)
	case "swap":
		b.startDialog(ctx, chatID, userID, storage.DialogSwap)
	case "shuffle":
		b.startDialog(ctx, chatID, userID, storage.DialogShuffle)
	case "addinfo":
		b.startDialog(ctx, chatID, userID, storage.DialogAddInfo)
	case "cancel":
		b.handleCancel(ctx, chatID, userID)
	default:
		b.reply(chatID, "Неизвестная команда. Список команд: /help")
	}
}

// handleStart обрабатывает команду /start
func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID,
		"👋 Добро пожаловать в бота для игры «Бункер»!\n"+
			"Команды для игроков:\n"+
			"/room [код] - войти в комнату\n"+
			"/me - моя карточка\n"+
			"/info - раскрытая информация\n"+
			"/card1 - использовать особое условие 1\n"+
			"/card2 - использовать особое условие 2\n"+
			"/help - список команд")
}

// handleHelp обрабатывает команду /help
func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID,
		"/room [код] - войти в комнату\n"+
			"/me - моя карточка\n"+
			"/info - раскрытая информация\n"+
			"/card1, /card2 - использовать особые условия")
}

// handleAdmin показывает админ-панель; для остальных команда молчит
func (b *Bot) handleAdmin(chatID, userID int64) {
	if !b.isAdmin(userID) {
		return
	}
	b.reply(chatID,
		"🔧 Админ-панель:\n"+
			"/createroom - создать комнату\n"+
			"/closeroom - закрыть комнату\n"+
			"/players - список игроков\n"+
			"/reload - обновить данные из таблицы\n"+
			"/addinfo - добавить информацию в /info\n"+
			"/random - случайно изменить карту\n"+
			"/swap - обменять карты между игроками\n"+
			"/shuffle - перемешать карты категории\n"+
			"/change - изменить карту вручную\n"+
			"/cancel - отменить текущий диалог")
}

func (b *Bot) handleCreateRoom(ctx context.Context, chatID, userID int64) {
	if !b.isAdmin(userID) {
		return
	}
	room, err := b.service.CreateRoom(ctx)
	if err != nil {
		b.reply(chatID, errorText(err))
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Комната создана! Код: %s", room.Code))
}

func (b *Bot) handleCloseRoom(ctx context.Context, chatID, userID int64) {
	if !b.isAdmin(userID) {
		return
	}
	code, err := b.service.CloseRoom(ctx)
	if err != nil {
		b.reply(chatID, errorText(err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Комната %s закрыта, все игроки удалены.", code))
}

func (b *Bot) handlePlayers(ctx context.Context, chatID, userID int64) {
	if !b.isAdmin(userID) {
		return
	}
	players, err := b.service.Roster(ctx)
	if err != nil {
		b.reply(chatID, errorText(err))
		return
	}
	if len(players) == 0 {
		b.reply(chatID, "В комнате пока нет игроков.")
		return
	}
	lines := make([]string, 0, len(players))
	for i := range players {
		lines = append(lines, utils.FormatPlayerLine(&players[i]))
	}
	b.reply(chatID, "Игроки в комнате:\n"+strings.Join(lines, "\n"))
}

// handleReload перезагружает пулы из Google Sheets. При ошибке прежний
// пул остается нетронутым.
func (b *Bot) handleReload(ctx context.Context, chatID, userID int64) {
	if !b.isAdmin(userID) {
		return
	}
	if b.sheetsURL == "" {
		b.reply(chatID, "❌ Ссылка на таблицу не задана (SHEETS_URL).")
		return
	}
	b.reply(chatID, "🔄 Загрузка данных из Google Sheets...")
	values, err := sheets.Load(ctx, b.sheetsURL)
	if err != nil {
		log.Printf("Ошибка при загрузке Google Sheets: %v", err)
		b.reply(chatID, fmt.Sprintf("❌ Ошибка: %v", err))
		return
	}
	if err := b.service.ReplacePool(ctx, values); err != nil {
		log.Printf("Ошибка при сохранении пула: %v", err)
		b.reply(chatID, fmt.Sprintf("❌ Ошибка: %v", err))
		return
	}
	b.reply(chatID, "✅ Данные успешно обновлены.")
}

// handleRoom начинает вход игрока в комнату: после проверки кода бот
// спрашивает игровое имя
func (b *Bot) handleRoom(ctx context.Context, chatID, userID int64, args string) {
	if args == "" {
		b.reply(chatID, "Укажите код комнаты: /room XYZW")
		return
	}
	if !b.ensureNoDialog(ctx, chatID, userID) {
		return
	}
	code, err := b.service.CheckJoin(ctx, userID, args)
	if err != nil {
		b.reply(chatID, errorText(err))
		return
	}
	dialog := &storage.Dialog{Kind: storage.DialogJoin, Step: storage.StepName, RoomCode: code}
	if !b.saveDialog(ctx, chatID, userID, dialog) {
		return
	}
	b.reply(chatID, "Введите ваше имя (как вас называть в игре):")
}

func (b *Bot) handleInfo(ctx context.Context, chatID, userID int64) {
	players, err := b.service.RevealedPlayers(ctx, userID, b.isAdmin(userID))
	if err != nil {
		b.reply(chatID, errorText(err))
		return
	}

	var sb strings.Builder
	sb.WriteString("📢 Раскрытая информация:\n")
	revealed := false
	for i := range players {
		p := &players[i]
		if len(p.Revealed) == 0 {
			continue
		}
		revealed = true
		sb.WriteString("\n" + p.Name + "\n")
		for _, cat := range game.AdminCategories {
			if !p.IsRevealed(cat.Key()) {
				continue
			}
			values := utils.FormatValues(p.CategoryValues(cat.Key()))
			sb.WriteString(fmt.Sprintf("%s %s: %s\n", cat.Emoji(), cat.Title(), values))
		}
	}
	if !revealed {
		b.reply(chatID, "Пока ничего не раскрыто.")
		return
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) handleMe(ctx context.Context, chatID, userID int64) {
	player, err := b.service.PlayerCard(ctx, userID)
	if err != nil {
		b.reply(chatID, "Вы не находитесь в комнате. Войдите через /room")
		return
	}
	b.reply(chatID, utils.FormatCard(player))
}

// handleCard играет карту особого условия и сообщает администратору
func (b *Bot) handleCard(ctx context.Context, chatID, userID int64, slot int) {
	use, err := b.service.UseSpecial(ctx, userID, slot)
	if err != nil {
		b.reply(chatID, errorText(err))
		return
	}
	switch {
	case use.Empty:
		b.reply(chatID, "У вас нет особого условия для этой карты.")
		b.notify(b.adminID, fmt.Sprintf("⚠️ Игрок %s попытался использовать пустую карту %d.", use.Player.Name, slot))
	case use.AlreadyUsed:
		b.reply(chatID, "Вы уже использовали эту карту.")
	default:
		b.reply(chatID, fmt.Sprintf("Вы использовали особое условие: %s", use.Value))
		b.notify(b.adminID, fmt.Sprintf("🎴 Игрок %s использовал особое условие %d:\n%s", use.Player.Name, slot, use.Value))
	}
}

// handleCancel отменяет незавершённый диалог
func (b *Bot) handleCancel(ctx context.Context, chatID, userID int64) {
	dialog, err := b.dialogs.Get(ctx, userID)
	if err != nil {
		log.Printf("Ошибка чтения диалога пользователя %d: %v", userID, err)
		b.reply(chatID, "❌ Внутренняя ошибка, попробуйте позже.")
		return
	}
	if dialog == nil {
		b.reply(chatID, "❌ Нет активного диалога.")
		return
	}
	if err := b.dialogs.Clear(ctx, userID); err != nil {
		log.Printf("Ошибка удаления диалога пользователя %d: %v", userID, err)
		b.reply(chatID, "❌ Внутренняя ошибка, попробуйте позже.")
		return
	}
	b.reply(chatID, "✅ Диалог отменён.")
}
