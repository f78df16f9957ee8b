package game

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"tg-bunker-bot/internal/models"
)

// memStore — хранилище в памяти для тестов сервиса. Игроки хранятся
// в порядке входа, порядок возврата детерминирован.
type memStore struct {
	rooms   map[string]*models.Room
	players []*models.Player
	pool    []models.PoolEntry
}

func newMemStore() *memStore {
	return &memStore{rooms: make(map[string]*models.Room)}
}

func (s *memStore) ActiveRoom(ctx context.Context) (*models.Room, error) {
	for _, room := range s.rooms {
		if room.IsActive {
			cp := *room
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) RoomByCode(ctx context.Context, code string) (*models.Room, error) {
	room, ok := s.rooms[code]
	if !ok {
		return nil, nil
	}
	cp := *room
	return &cp, nil
}

func (s *memStore) CreateRoom(ctx context.Context, room *models.Room) error {
	cp := *room
	s.rooms[room.Code] = &cp
	return nil
}

func (s *memStore) CloseRoom(ctx context.Context, code string) error {
	if room, ok := s.rooms[code]; ok {
		room.IsActive = false
	}
	kept := s.players[:0]
	for _, p := range s.players {
		if p.RoomCode != code {
			kept = append(kept, p)
		}
	}
	s.players = kept
	return nil
}

func (s *memStore) Players(ctx context.Context, roomCode string) ([]models.Player, error) {
	var result []models.Player
	for _, p := range s.players {
		if p.RoomCode == roomCode {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (s *memStore) PlayerByName(ctx context.Context, roomCode, name string) (*models.Player, error) {
	for _, p := range s.players {
		if p.RoomCode == roomCode && p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) PlayerByUser(ctx context.Context, userID int64) (*models.Player, error) {
	for _, p := range s.players {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) AddPlayer(ctx context.Context, player *models.Player) error {
	kept := s.players[:0]
	for _, p := range s.players {
		if p.UserID != player.UserID {
			kept = append(kept, p)
		}
	}
	s.players = kept
	cp := *player
	s.players = append(s.players, &cp)
	return nil
}

func (s *memStore) SavePlayers(ctx context.Context, players ...*models.Player) error {
	for _, updated := range players {
		for i, p := range s.players {
			if p.UserID == updated.UserID && p.RoomCode == updated.RoomCode {
				cp := *updated
				s.players[i] = &cp
				break
			}
		}
	}
	return nil
}

func (s *memStore) ReplacePool(ctx context.Context, entries []models.PoolEntry) error {
	s.pool = entries
	return nil
}

func testPools() map[Category][]string {
	return map[Category][]string{
		CategoryBio:     {"Мужчина", "Женщина", "Небинарный", "Андроид", "Киборг", "Клон"},
		CategoryProf:    {"Врач", "Инженер", "Повар", "Учитель", "Военный", "Фермер"},
		CategoryHealth:  {"Здоров", "Астма", "Аллергия", "Близорукость", "Диабет", "Бессонница"},
		CategoryHobby:   {"Шахматы", "Рыбалка", "Вязание", "Бег", "Покер", "Садоводство"},
		CategoryLuggage: {"Аптечка", "Топор", "Радио", "Консервы", "Фонарь", "Верёвка", "Палатка", "Нож"},
		CategoryFact:    {"Боится темноты", "Знает морзянку", "Был в тюрьме", "Не умеет плавать", "Лунатик", "Веган"},
		CategorySpecial: {"Обмен профессии", "Лишний голос", "Иммунитет", "Саботаж", "Разведка", "Шантаж", "Союзник", "Вето"},
	}
}

func newTestService(seed int64) (*Service, *memStore) {
	store := newMemStore()
	pool := NewPool()
	pool.Replace(testPools())
	return NewService(store, pool, rand.New(rand.NewSource(seed))), store
}

func mustCreateRoom(t *testing.T, s *Service) *models.Room {
	t.Helper()
	room, err := s.CreateRoom(context.Background())
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	return room
}

func mustJoin(t *testing.T, s *Service, userID int64, code, name string) *models.Player {
	t.Helper()
	player, err := s.JoinRoom(context.Background(), userID, "", code, name)
	if err != nil {
		t.Fatalf("JoinRoom(%s) error = %v", name, err)
	}
	return player
}

func TestCreateRoomSingleActive(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(1)

	room := mustCreateRoom(t, s)
	if len(room.Code) != 4 {
		t.Errorf("код комнаты %q, ожидались 4 буквы", room.Code)
	}

	if _, err := s.CreateRoom(ctx); !errors.Is(err, ErrConflict) {
		t.Fatalf("вторая комната: error = %v, want ErrConflict", err)
	}

	code, err := s.CloseRoom(ctx)
	if err != nil {
		t.Fatalf("CloseRoom() error = %v", err)
	}
	if code != room.Code {
		t.Errorf("закрыта комната %s, ожидалась %s", code, room.Code)
	}

	if _, err := s.CloseRoom(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("повторное закрытие: error = %v, want ErrNotFound", err)
	}

	if _, err := s.CreateRoom(ctx); err != nil {
		t.Fatalf("комната после закрытия: error = %v", err)
	}
}

func TestJoinRoomAssignsCharacter(t *testing.T) {
	s, _ := newTestService(2)
	room := mustCreateRoom(t, s)

	alice := mustJoin(t, s, 1, room.Code, "Алиса")
	for _, cat := range AllCategories {
		values := alice.CategoryValues(cat.Key())
		if len(values) != cat.Slots() {
			t.Fatalf("категория %s: %d значений, ожидалось %d", cat, len(values), cat.Slots())
		}
		for _, v := range values {
			if v == "" {
				t.Errorf("категория %s: пустой слот", cat)
			}
		}
	}
	if alice.Luggage1 == alice.Luggage2 {
		t.Errorf("слоты багажа совпадают: %s", alice.Luggage1)
	}
	if alice.Special1 == alice.Special2 {
		t.Errorf("слоты особых условий совпадают: %s", alice.Special1)
	}

	bob := mustJoin(t, s, 2, room.Code, "Боб")
	for _, cat := range []Category{CategoryBio, CategoryProf, CategoryHealth, CategoryHobby, CategoryFact} {
		if alice.CategoryValues(cat.Key())[0] == bob.CategoryValues(cat.Key())[0] {
			t.Errorf("категория %s: значение %q выдано обоим игрокам", cat, bob.CategoryValues(cat.Key())[0])
		}
	}

	luggage := map[string]bool{alice.Luggage1: true, alice.Luggage2: true}
	if luggage[bob.Luggage1] || luggage[bob.Luggage2] {
		t.Errorf("багаж Боба пересекается с багажом Алисы")
	}
}

func TestJoinRoomNameConflict(t *testing.T) {
	s, store := newTestService(3)
	room := mustCreateRoom(t, s)
	mustJoin(t, s, 1, room.Code, "Алиса")

	_, err := s.JoinRoom(context.Background(), 2, "", room.Code, "Алиса")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("JoinRoom() error = %v, want ErrConflict", err)
	}
	players, _ := store.Players(context.Background(), room.Code)
	if len(players) != 1 {
		t.Errorf("создан лишний игрок: %d", len(players))
	}
}

func TestJoinRoomAfterClose(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(4)
	room := mustCreateRoom(t, s)
	if _, err := s.CloseRoom(ctx); err != nil {
		t.Fatalf("CloseRoom() error = %v", err)
	}
	if _, err := s.JoinRoom(ctx, 1, "", room.Code, "Алиса"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("JoinRoom() error = %v, want ErrNotFound", err)
	}
}

func TestJoinRoomAlreadyInRoom(t *testing.T) {
	s, _ := newTestService(5)
	room := mustCreateRoom(t, s)
	mustJoin(t, s, 1, room.Code, "Алиса")

	if _, err := s.CheckJoin(context.Background(), 1, room.Code); !errors.Is(err, ErrConflict) {
		t.Fatalf("CheckJoin() error = %v, want ErrConflict", err)
	}
}

func TestJoinRoomRemovesOldMembership(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(6)

	// Игрок остался в записи закрывшейся вручную комнаты
	store.rooms["OLDR"] = &models.Room{Code: "OLDR", IsActive: false}
	store.players = append(store.players, &models.Player{UserID: 1, RoomCode: "OLDR", Name: "Алиса"})

	room := mustCreateRoom(t, s)
	mustJoin(t, s, 1, room.Code, "Алиса")

	var memberships int
	for _, p := range store.players {
		if p.UserID == 1 {
			memberships++
		}
	}
	if memberships != 1 {
		t.Errorf("у игрока %d членств, ожидалось 1", memberships)
	}
	player, _ := store.PlayerByUser(ctx, 1)
	if player.RoomCode != room.Code {
		t.Errorf("игрок в комнате %s, ожидалась %s", player.RoomCode, room.Code)
	}
}

func TestJoinRoomPoolExhausted(t *testing.T) {
	s, store := newTestService(7)
	pools := testPools()
	pools[CategoryProf] = []string{"Врач"}
	s.pool.Replace(pools)

	room := mustCreateRoom(t, s)
	mustJoin(t, s, 1, room.Code, "Алиса")

	_, err := s.JoinRoom(context.Background(), 2, "", room.Code, "Боб")
	if !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("JoinRoom() error = %v, want ErrPoolExhausted", err)
	}
	players, _ := store.Players(context.Background(), room.Code)
	if len(players) != 1 {
		t.Errorf("частичная запись: %d игроков", len(players))
	}
}

func TestRandomReassignAvoidsOtherPlayers(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(8)
	room := mustCreateRoom(t, s)
	mustJoin(t, s, 1, room.Code, "Алиса")
	bob := mustJoin(t, s, 2, room.Code, "Боб")

	for i := 0; i < 20; i++ {
		result, err := s.RandomReassign(ctx, "Алиса", CategoryProf)
		if err != nil {
			t.Fatalf("RandomReassign() error = %v", err)
		}
		if result.New[0] == bob.Prof {
			t.Fatalf("профессия Алисы совпала с профессией Боба: %s", result.New[0])
		}
	}
}

func TestRandomReassignPoolExhausted(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(9)
	room := mustCreateRoom(t, s)
	mustJoin(t, s, 1, room.Code, "Алиса")
	bob := mustJoin(t, s, 2, room.Code, "Боб")

	// В пуле остаётся багаж Боба и одно свободное значение: для двух
	// слотов Алисы этого мало
	pools := testPools()
	pools[CategoryLuggage] = []string{bob.Luggage1, bob.Luggage2, "Гитара"}
	s.pool.Replace(pools)

	before, _ := store.PlayerByName(ctx, room.Code, "Алиса")
	_, err := s.RandomReassign(ctx, "Алиса", CategoryLuggage)
	if !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("RandomReassign() error = %v, want ErrPoolExhausted", err)
	}
	after, _ := store.PlayerByName(ctx, room.Code, "Алиса")
	if !reflect.DeepEqual(before, after) {
		t.Error("игрок изменён несмотря на ошибку аллокатора")
	}
}

func TestSwapIsItsOwnInverse(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(10)
	room := mustCreateRoom(t, s)
	alice := mustJoin(t, s, 1, room.Code, "Алиса")
	bob := mustJoin(t, s, 2, room.Code, "Боб")

	for _, cat := range []Category{CategoryProf, CategoryLuggage} {
		if _, err := s.Swap(ctx, "Алиса", "Боб", cat); err != nil {
			t.Fatalf("Swap(%s) error = %v", cat, err)
		}
		if _, err := s.Swap(ctx, "Алиса", "Боб", cat); err != nil {
			t.Fatalf("Swap(%s) error = %v", cat, err)
		}
	}

	gotAlice, _ := store.PlayerByName(ctx, room.Code, "Алиса")
	gotBob, _ := store.PlayerByName(ctx, room.Code, "Боб")
	if gotAlice.Prof != alice.Prof || gotAlice.Luggage1 != alice.Luggage1 || gotAlice.Luggage2 != alice.Luggage2 {
		t.Error("двойной обмен не вернул Алису к исходным значениям")
	}
	if gotBob.Prof != bob.Prof || gotBob.Luggage1 != bob.Luggage1 || gotBob.Luggage2 != bob.Luggage2 {
		t.Error("двойной обмен не вернул Боба к исходным значениям")
	}
}

func TestSwapExchangesValues(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(11)
	room := mustCreateRoom(t, s)
	alice := mustJoin(t, s, 1, room.Code, "Алиса")
	bob := mustJoin(t, s, 2, room.Code, "Боб")

	result, err := s.Swap(ctx, "Алиса", "Боб", CategoryHobby)
	if err != nil {
		t.Fatalf("Swap() error = %v", err)
	}
	if result.Player1.Hobby != bob.Hobby || result.Player2.Hobby != alice.Hobby {
		t.Errorf("обмен не состоялся: %s / %s", result.Player1.Hobby, result.Player2.Hobby)
	}
}

func TestSwapSamePlayer(t *testing.T) {
	s, _ := newTestService(12)
	room := mustCreateRoom(t, s)
	mustJoin(t, s, 1, room.Code, "Алиса")

	if _, err := s.Swap(context.Background(), "Алиса", "Алиса", CategoryProf); !errors.Is(err, ErrConflict) {
		t.Fatalf("Swap() error = %v, want ErrConflict", err)
	}
}

func TestSwapUnknownPlayer(t *testing.T) {
	s, _ := newTestService(13)
	room := mustCreateRoom(t, s)
	mustJoin(t, s, 1, room.Code, "Алиса")

	if _, err := s.Swap(context.Background(), "Алиса", "Боб", CategoryProf); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Swap() error = %v, want ErrNotFound", err)
	}
}

func roomValues(t *testing.T, store *memStore, roomCode string, cat Category) []string {
	t.Helper()
	players, _ := store.Players(context.Background(), roomCode)
	var values []string
	for i := range players {
		for _, v := range players[i].CategoryValues(cat.Key()) {
			if v != "" {
				values = append(values, v)
			}
		}
	}
	sort.Strings(values)
	return values
}

func TestShufflePreservesMultiset(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(14)
	room := mustCreateRoom(t, s)
	mustJoin(t, s, 1, room.Code, "Алиса")
	mustJoin(t, s, 2, room.Code, "Боб")
	mustJoin(t, s, 3, room.Code, "Вера")

	for _, cat := range []Category{CategoryLuggage, CategoryProf} {
		before := roomValues(t, store, room.Code, cat)
		results, err := s.Shuffle(ctx, cat)
		if err != nil {
			t.Fatalf("Shuffle(%s) error = %v", cat, err)
		}
		if len(results) != 3 {
			t.Fatalf("Shuffle(%s): %d результатов, ожидалось 3", cat, len(results))
		}
		for _, res := range results {
			if len(res.New) != cat.Slots() {
				t.Errorf("Shuffle(%s): игрок %s получил %d значений", cat, res.Player.Name, len(res.New))
			}
		}
		after := roomValues(t, store, room.Code, cat)
		if !reflect.DeepEqual(before, after) {
			t.Errorf("Shuffle(%s): мультимножество изменилось\nбыло:  %v\nстало: %v", cat, before, after)
		}
	}
}

func TestShuffleNeedsTwoPlayers(t *testing.T) {
	s, _ := newTestService(15)
	room := mustCreateRoom(t, s)
	mustJoin(t, s, 1, room.Code, "Алиса")

	if _, err := s.Shuffle(context.Background(), CategoryLuggage); !errors.Is(err, ErrConflict) {
		t.Fatalf("Shuffle() error = %v, want ErrConflict", err)
	}
}

func TestManualChangeAllowsDuplicates(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(16)
	room := mustCreateRoom(t, s)
	mustJoin(t, s, 1, room.Code, "Алиса")
	bob := mustJoin(t, s, 2, room.Code, "Боб")

	result, err := s.ManualChange(ctx, "Алиса", CategoryProf, []string{bob.Prof})
	if err != nil {
		t.Fatalf("ManualChange() error = %v", err)
	}
	if result.New[0] != bob.Prof {
		t.Errorf("профессия = %q, ожидалась %q", result.New[0], bob.Prof)
	}
	alice, _ := store.PlayerByName(ctx, room.Code, "Алиса")
	if alice.Prof != bob.Prof {
		t.Error("ручное изменение должно допускать дубли")
	}
}

func TestManualChangeValidation(t *testing.T) {
	s, _ := newTestService(17)
	room := mustCreateRoom(t, s)
	mustJoin(t, s, 1, room.Code, "Алиса")
	ctx := context.Background()

	if _, err := s.ManualChange(ctx, "Алиса", CategoryProf, []string{"  "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("пустое значение: error = %v, want ErrInvalidInput", err)
	}
	if _, err := s.ManualChange(ctx, "Алиса", CategoryLuggage, []string{"Топор"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("один слот багажа: error = %v, want ErrInvalidInput", err)
	}
}

func TestRevealIdempotent(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(18)
	room := mustCreateRoom(t, s)
	mustJoin(t, s, 1, room.Code, "Алиса")

	if err := s.Reveal(ctx, "Алиса", CategoryProf); err != nil {
		t.Fatalf("Reveal() error = %v", err)
	}
	if err := s.Reveal(ctx, "Алиса", CategoryProf); err != nil {
		t.Fatalf("повторный Reveal() error = %v", err)
	}

	alice, _ := store.PlayerByName(ctx, room.Code, "Алиса")
	if len(alice.Revealed) != 1 || alice.Revealed[0] != "prof" {
		t.Errorf("revealed = %v, ожидался один prof", alice.Revealed)
	}
}

func TestRevealSpecialIsNoop(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(19)
	room := mustCreateRoom(t, s)
	mustJoin(t, s, 1, room.Code, "Алиса")

	if err := s.Reveal(ctx, "Алиса", CategorySpecial); err != nil {
		t.Fatalf("Reveal() error = %v", err)
	}
	alice, _ := store.PlayerByName(ctx, room.Code, "Алиса")
	if len(alice.Revealed) != 0 {
		t.Errorf("особое условие раскрыто: %v", alice.Revealed)
	}
}

func TestUseSpecialOnce(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(20)
	room := mustCreateRoom(t, s)
	alice := mustJoin(t, s, 1, room.Code, "Алиса")

	use, err := s.UseSpecial(ctx, 1, 1)
	if err != nil {
		t.Fatalf("UseSpecial() error = %v", err)
	}
	if use.Empty || use.AlreadyUsed {
		t.Fatalf("неожиданный результат: %+v", use)
	}
	if use.Value != alice.Special1 {
		t.Errorf("сыграна карта %q, ожидалась %q", use.Value, alice.Special1)
	}

	again, err := s.UseSpecial(ctx, 1, 1)
	if err != nil {
		t.Fatalf("повторный UseSpecial() error = %v", err)
	}
	if !again.AlreadyUsed {
		t.Error("повторное использование карты должно быть отклонено")
	}

	second, err := s.UseSpecial(ctx, 1, 2)
	if err != nil {
		t.Fatalf("UseSpecial(2) error = %v", err)
	}
	if second.AlreadyUsed || second.Empty {
		t.Errorf("вторая карта должна быть доступна: %+v", second)
	}

	if _, err := s.UseSpecial(ctx, 1, 3); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("UseSpecial(3) error = %v, want ErrInvalidInput", err)
	}
}

func TestUseSpecialNotInRoom(t *testing.T) {
	s, _ := newTestService(21)
	if _, err := s.UseSpecial(context.Background(), 99, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UseSpecial() error = %v, want ErrNotFound", err)
	}
}

func TestReplacePoolWritesStoreFirst(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(22)

	values := map[Category][]string{
		CategoryBio:  {"Мужчина"},
		CategoryProf: {"Врач", "Повар"},
	}
	if err := s.ReplacePool(ctx, values); err != nil {
		t.Fatalf("ReplacePool() error = %v", err)
	}
	if len(store.pool) != 3 {
		t.Errorf("в таблице %d записей, ожидалось 3", len(store.pool))
	}
	if got := s.pool.Values(CategoryProf); len(got) != 2 {
		t.Errorf("снимок пула не обновился: %v", got)
	}
}
