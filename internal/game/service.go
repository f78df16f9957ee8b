package game

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"tg-bunker-bot/internal/models"
	"tg-bunker-bot/internal/utils"
)

// Store — операции игрового состояния поверх реляционной БД.
// Методы поиска возвращают (nil, nil), если записи нет; AddPlayer,
// SavePlayers, CloseRoom и ReplacePool выполняются в одной транзакции.
type Store interface {
	ActiveRoom(ctx context.Context) (*models.Room, error)
	RoomByCode(ctx context.Context, code string) (*models.Room, error)
	CreateRoom(ctx context.Context, room *models.Room) error
	CloseRoom(ctx context.Context, code string) error
	Players(ctx context.Context, roomCode string) ([]models.Player, error)
	PlayerByName(ctx context.Context, roomCode, name string) (*models.Player, error)
	PlayerByUser(ctx context.Context, userID int64) (*models.Player, error)
	AddPlayer(ctx context.Context, player *models.Player) error
	SavePlayers(ctx context.Context, players ...*models.Player) error
	ReplacePool(ctx context.Context, entries []models.PoolEntry) error
}

// Service реализует игровые операции «Бункера»: жизненный цикл комнаты,
// раздачу карточек и админские изменения. Все мутации либо применяются
// целиком, либо не применяются вовсе.
type Service struct {
	store Store
	pool  *Pool
	rng   *rand.Rand
}

// NewService создает игровой сервис
func NewService(store Store, pool *Pool, rng *rand.Rand) *Service {
	return &Service{store: store, pool: pool, rng: rng}
}

// ChangeResult описывает изменение одной категории одного игрока
type ChangeResult struct {
	Player   models.Player
	Category Category
	Old      []string
	New      []string
}

// SwapResult описывает обмен категории между двумя игроками
type SwapResult struct {
	Player1  models.Player
	Player2  models.Player
	Category Category
	New1     []string
	New2     []string
}

// ShuffleResult описывает новые значения игрока после перемешивания
type ShuffleResult struct {
	Player models.Player
	New    []string
}

// SpecialUse описывает попытку сыграть карту особого условия
type SpecialUse struct {
	Player      models.Player
	Slot        int
	Value       string
	Empty       bool
	AlreadyUsed bool
}

// ActiveRoom возвращает активную комнату или ErrNotFound
func (s *Service) ActiveRoom(ctx context.Context) (*models.Room, error) {
	room, err := s.store.ActiveRoom(ctx)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("%w: нет активной комнаты", ErrNotFound)
	}
	return room, nil
}

// CreateRoom создает комнату со свежим кодом. Пока открыта другая
// комната, создание невозможно.
func (s *Service) CreateRoom(ctx context.Context) (*models.Room, error) {
	existing, err := s.store.ActiveRoom(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: уже есть активная комната %s", ErrConflict, existing.Code)
	}

	for attempt := 0; attempt < 10; attempt++ {
		code := utils.RoomCode(s.rng)
		taken, err := s.store.RoomByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if taken != nil {
			continue
		}
		room := &models.Room{Code: code, IsActive: true}
		if err := s.store.CreateRoom(ctx, room); err != nil {
			return nil, err
		}
		return room, nil
	}
	return nil, fmt.Errorf("%w: не удалось подобрать свободный код комнаты", ErrConflict)
}

// CloseRoom закрывает активную комнату и удаляет всех её игроков.
// Операция необратима.
func (s *Service) CloseRoom(ctx context.Context) (string, error) {
	room, err := s.ActiveRoom(ctx)
	if err != nil {
		return "", err
	}
	if err := s.store.CloseRoom(ctx, room.Code); err != nil {
		return "", err
	}
	return room.Code, nil
}

// CheckJoin проверяет, что в комнату с данным кодом можно войти.
// Возвращает нормализованный код комнаты.
func (s *Service) CheckJoin(ctx context.Context, userID int64, code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	room, err := s.store.RoomByCode(ctx, code)
	if err != nil {
		return "", err
	}
	if room == nil || !room.IsActive {
		return "", fmt.Errorf("%w: комната не найдена или уже закрыта", ErrNotFound)
	}
	existing, err := s.store.PlayerByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if existing != nil && existing.RoomCode == code {
		return "", fmt.Errorf("%w: вы уже в этой комнате", ErrConflict)
	}
	return code, nil
}

// JoinRoom добавляет игрока в комнату и раздает ему карточку.
// Исключаются значения, уже занятые другими игроками комнаты; при
// нехватке пула игрок не создается. Прежнее членство игрока в другой
// комнате удаляется.
func (s *Service) JoinRoom(ctx context.Context, userID int64, username, code, name string) (*models.Player, error) {
	code, err := s.CheckJoin(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: имя не может быть пустым", ErrInvalidInput)
	}
	taken, err := s.store.PlayerByName(ctx, code, name)
	if err != nil {
		return nil, err
	}
	if taken != nil {
		return nil, fmt.Errorf("%w: имя %s уже занято", ErrConflict, name)
	}

	players, err := s.store.Players(ctx, code)
	if err != nil {
		return nil, err
	}

	player := &models.Player{UserID: userID, RoomCode: code, Username: username, Name: name}
	for _, cat := range AllCategories {
		excluded := usedValues(players, cat, 0)
		values, err := UniqueValues(s.rng, s.pool.Values(cat), excluded, cat.Slots())
		if err != nil {
			return nil, fmt.Errorf("категория «%s»: %w", cat.Title(), err)
		}
		player.SetCategoryValues(cat.Key(), values)
	}

	if err := s.store.AddPlayer(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// Roster возвращает игроков активной комнаты
func (s *Service) Roster(ctx context.Context) ([]models.Player, error) {
	room, err := s.ActiveRoom(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.Players(ctx, room.Code)
}

// FindPlayer ищет игрока комнаты по игровому имени
func (s *Service) FindPlayer(ctx context.Context, roomCode, name string) (*models.Player, error) {
	player, err := s.store.PlayerByName(ctx, roomCode, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, fmt.Errorf("%w: игрок с таким именем не найден", ErrNotFound)
	}
	return player, nil
}

// PlayerCard возвращает карточку игрока по его Telegram ID
func (s *Service) PlayerCard(ctx context.Context, userID int64) (*models.Player, error) {
	player, err := s.store.PlayerByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, fmt.Errorf("%w: вы не находитесь в комнате", ErrNotFound)
	}
	return player, nil
}

// RevealedPlayers возвращает игроков комнаты вызывающего для показа
// раскрытой информации. Админ вне комнаты видит активную комнату.
func (s *Service) RevealedPlayers(ctx context.Context, userID int64, isAdmin bool) ([]models.Player, error) {
	var roomCode string
	player, err := s.store.PlayerByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch {
	case player != nil:
		roomCode = player.RoomCode
	case isAdmin:
		room, err := s.ActiveRoom(ctx)
		if err != nil {
			return nil, err
		}
		roomCode = room.Code
	default:
		return nil, fmt.Errorf("%w: вы не в комнате", ErrNotFound)
	}
	return s.store.Players(ctx, roomCode)
}

// UseSpecial играет карту особого условия. Флаг использования
// переходит только из false в true; повторная попытка и пустой слот
// отражаются в результате, но ничего не меняют.
func (s *Service) UseSpecial(ctx context.Context, userID int64, slot int) (*SpecialUse, error) {
	if slot != 1 && slot != 2 {
		return nil, fmt.Errorf("%w: нет такой карты", ErrInvalidInput)
	}
	player, err := s.PlayerCard(ctx, userID)
	if err != nil {
		return nil, err
	}

	use := &SpecialUse{Player: *player, Slot: slot}
	if slot == 1 {
		use.Value, use.AlreadyUsed = player.Special1, player.UsedSpecial1
	} else {
		use.Value, use.AlreadyUsed = player.Special2, player.UsedSpecial2
	}
	if use.Value == "" {
		use.Empty = true
		return use, nil
	}
	if use.AlreadyUsed {
		return use, nil
	}

	if slot == 1 {
		player.UsedSpecial1 = true
	} else {
		player.UsedSpecial2 = true
	}
	if err := s.store.SavePlayers(ctx, player); err != nil {
		return nil, err
	}
	use.Player = *player
	return use, nil
}

// RandomReassign случайно заменяет категорию игрока, исключая значения,
// занятые остальными игроками комнаты. Старое значение самого игрока не
// исключается, поэтому при пуле из одного значения оно может выпасть
// повторно.
func (s *Service) RandomReassign(ctx context.Context, name string, cat Category) (*ChangeResult, error) {
	room, err := s.ActiveRoom(ctx)
	if err != nil {
		return nil, err
	}
	player, err := s.FindPlayer(ctx, room.Code, name)
	if err != nil {
		return nil, err
	}
	players, err := s.store.Players(ctx, room.Code)
	if err != nil {
		return nil, err
	}

	excluded := usedValues(players, cat, player.UserID)
	values, err := UniqueValues(s.rng, s.pool.Values(cat), excluded, cat.Slots())
	if err != nil {
		return nil, err
	}

	result := &ChangeResult{Category: cat, Old: player.CategoryValues(cat.Key()), New: values}
	player.SetCategoryValues(cat.Key(), values)
	if err := s.store.SavePlayers(ctx, player); err != nil {
		return nil, err
	}
	result.Player = *player
	return result, nil
}

// Swap обменивает значения категории между двумя игроками как есть.
// Перестановка не создает дублей, поэтому аллокатор не нужен.
func (s *Service) Swap(ctx context.Context, name1, name2 string, cat Category) (*SwapResult, error) {
	if strings.TrimSpace(name1) == strings.TrimSpace(name2) {
		return nil, fmt.Errorf("%w: игроки должны быть разными", ErrConflict)
	}
	room, err := s.ActiveRoom(ctx)
	if err != nil {
		return nil, err
	}
	p1, err := s.FindPlayer(ctx, room.Code, name1)
	if err != nil {
		return nil, err
	}
	p2, err := s.FindPlayer(ctx, room.Code, name2)
	if err != nil {
		return nil, err
	}

	v1 := p1.CategoryValues(cat.Key())
	v2 := p2.CategoryValues(cat.Key())
	p1.SetCategoryValues(cat.Key(), v2)
	p2.SetCategoryValues(cat.Key(), v1)
	if err := s.store.SavePlayers(ctx, p1, p2); err != nil {
		return nil, err
	}
	return &SwapResult{Player1: *p1, Player2: *p2, Category: cat, New1: v2, New2: v1}, nil
}

// Shuffle собирает значения категории со всех игроков комнаты,
// перемешивает и раздает обратно слот в слот в исходном порядке
// обхода. Мультимножество значений в комнате сохраняется.
func (s *Service) Shuffle(ctx context.Context, cat Category) ([]ShuffleResult, error) {
	room, err := s.ActiveRoom(ctx)
	if err != nil {
		return nil, err
	}
	players, err := s.store.Players(ctx, room.Code)
	if err != nil {
		return nil, err
	}

	holders := make([]*models.Player, 0, len(players))
	for i := range players {
		if players[i].HasCategory(cat.Key()) {
			holders = append(holders, &players[i])
		}
	}
	if len(holders) < 2 {
		return nil, fmt.Errorf("%w: недостаточно игроков для перемешивания", ErrConflict)
	}

	var all []string
	counts := make([]int, len(holders))
	for i, p := range holders {
		for _, v := range p.CategoryValues(cat.Key()) {
			if v != "" {
				all = append(all, v)
				counts[i]++
			}
		}
	}

	s.rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	parts := redistribute(all, counts)

	results := make([]ShuffleResult, 0, len(holders))
	for i, p := range holders {
		p.SetCategoryValues(cat.Key(), parts[i])
		results = append(results, ShuffleResult{Player: *p, New: parts[i]})
	}
	if err := s.store.SavePlayers(ctx, holders...); err != nil {
		return nil, err
	}
	return results, nil
}

// ManualChange записывает значения категории вручную, минуя аллокатор
// и проверку уникальности: это админский override, дубли допустимы.
func (s *Service) ManualChange(ctx context.Context, name string, cat Category, values []string) (*ChangeResult, error) {
	if len(values) != cat.Slots() {
		return nil, fmt.Errorf("%w: для категории «%s» нужно %d значений", ErrInvalidInput, cat.Title(), cat.Slots())
	}
	trimmed := make([]string, len(values))
	for i, v := range values {
		trimmed[i] = strings.TrimSpace(v)
		if trimmed[i] == "" {
			return nil, fmt.Errorf("%w: значение не может быть пустым", ErrInvalidInput)
		}
	}

	room, err := s.ActiveRoom(ctx)
	if err != nil {
		return nil, err
	}
	player, err := s.FindPlayer(ctx, room.Code, name)
	if err != nil {
		return nil, err
	}

	result := &ChangeResult{Category: cat, Old: player.CategoryValues(cat.Key()), New: trimmed}
	player.SetCategoryValues(cat.Key(), trimmed)
	if err := s.store.SavePlayers(ctx, player); err != nil {
		return nil, err
	}
	result.Player = *player
	return result, nil
}

// Reveal раскрывает категорию игрока для /info. Повторное раскрытие и
// особые условия — no-op.
func (s *Service) Reveal(ctx context.Context, name string, cat Category) error {
	if cat == CategorySpecial {
		return nil
	}
	room, err := s.ActiveRoom(ctx)
	if err != nil {
		return err
	}
	player, err := s.FindPlayer(ctx, room.Code, name)
	if err != nil {
		return err
	}
	if !player.HasCategory(cat.Key()) || player.IsRevealed(cat.Key()) {
		return nil
	}
	player.AddRevealed(cat.Key())
	return s.store.SavePlayers(ctx, player)
}

// ReplacePool перезаписывает пул целиком: сначала таблицу, затем
// снимок в памяти. При ошибке записи прежний снимок остается.
func (s *Service) ReplacePool(ctx context.Context, values map[Category][]string) error {
	var entries []models.PoolEntry
	for _, cat := range AllCategories {
		for _, v := range values[cat] {
			entries = append(entries, models.PoolEntry{Category: cat.Key(), Value: v})
		}
	}
	if err := s.store.ReplacePool(ctx, entries); err != nil {
		return err
	}
	s.pool.Replace(values)
	return nil
}

// usedValues собирает занятые значения категории у игроков комнаты,
// пропуская игрока с exceptID и пустые слоты
func usedValues(players []models.Player, cat Category, exceptID int64) []string {
	var used []string
	for i := range players {
		if players[i].UserID == exceptID {
			continue
		}
		for _, v := range players[i].CategoryValues(cat.Key()) {
			if v != "" {
				used = append(used, v)
			}
		}
	}
	return used
}
