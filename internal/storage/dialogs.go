package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// DialogKind различает многошаговые диалоги
type DialogKind string

const (
	DialogJoin    DialogKind = "join"
	DialogAddInfo DialogKind = "addinfo"
	DialogRandom  DialogKind = "random"
	DialogSwap    DialogKind = "swap"
	DialogShuffle DialogKind = "shuffle"
	DialogChange  DialogKind = "change"
)

// Шаги диалогов. Каждый диалог проходит свою подпоследовательность.
const (
	StepName     = "name"
	StepPlayer   = "player"
	StepPlayer2  = "player2"
	StepCategory = "category"
	StepValue1   = "value1"
	StepValue2   = "value2"
)

// Dialog — состояние незавершённого диалога одного пользователя.
// Хранится в Redis и переживает перезапуск процесса: пауза между
// шагами может длиться сколь угодно долго.
type Dialog struct {
	Kind        DialogKind `json:"kind"`
	Step        string     `json:"step"`
	RoomCode    string     `json:"room_code"`
	PlayerName  string     `json:"player_name,omitempty"`
	Player2Name string     `json:"player2_name,omitempty"`
	Category    string     `json:"category,omitempty"`
	Value1      string     `json:"value1,omitempty"`
}

// DialogStore хранит состояния диалогов в Redis по одному на пользователя
type DialogStore struct {
	client *redis.Client
}

// NewDialogStore создает хранилище диалогов
func NewDialogStore(client *redis.Client) *DialogStore {
	return &DialogStore{client: client}
}

// InitRedis подключается к Redis и проверяет соединение
func InitRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Println("Redis connected successfully")
	return client, nil
}

func dialogKey(userID int64) string {
	return fmt.Sprintf("dialog:%d", userID)
}

// Get возвращает незавершённый диалог пользователя, nil если его нет
func (s *DialogStore) Get(ctx context.Context, userID int64) (*Dialog, error) {
	data, err := s.client.Get(ctx, dialogKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var d Dialog
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Set сохраняет состояние диалога
func (s *DialogStore) Set(ctx context.Context, userID int64, d *Dialog) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, dialogKey(userID), data, 0).Err()
}

// Clear удаляет диалог пользователя
func (s *DialogStore) Clear(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, dialogKey(userID)).Err()
}
