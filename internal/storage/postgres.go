package storage

import (
	"context"
	"errors"
	"log"

	"tg-bunker-bot/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect открывает подключение к Postgres и накатывает схему
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&models.Room{}, &models.Player{}, &models.PoolEntry{}); err != nil {
		return nil, err
	}
	log.Println("database connected")
	return db, nil
}

// Store реализует game.Store поверх GORM
type Store struct {
	db *gorm.DB
}

// NewStore создает хранилище игрового состояния
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ActiveRoom возвращает активную комнату, nil если её нет
func (s *Store) ActiveRoom(ctx context.Context) (*models.Room, error) {
	var room models.Room
	err := s.db.WithContext(ctx).Where("is_active = ?", true).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// RoomByCode возвращает комнату по коду, nil если её нет
func (s *Store) RoomByCode(ctx context.Context, code string) (*models.Room, error) {
	var room models.Room
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// CreateRoom сохраняет новую комнату
func (s *Store) CreateRoom(ctx context.Context, room *models.Room) error {
	return s.db.WithContext(ctx).Create(room).Error
}

// CloseRoom деактивирует комнату и каскадно удаляет её игроков
func (s *Store) CloseRoom(ctx context.Context, code string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Room{}).Where("code = ?", code).Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Where("room_code = ?", code).Delete(&models.Player{}).Error
	})
}

// Players возвращает игроков комнаты, упорядоченных по имени
func (s *Store) Players(ctx context.Context, roomCode string) ([]models.Player, error) {
	var players []models.Player
	err := s.db.WithContext(ctx).Where("room_code = ?", roomCode).Order("name").Find(&players).Error
	return players, err
}

// PlayerByName ищет игрока комнаты по игровому имени, nil если нет
func (s *Store) PlayerByName(ctx context.Context, roomCode, name string) (*models.Player, error) {
	var player models.Player
	err := s.db.WithContext(ctx).Where("room_code = ? AND name = ?", roomCode, name).First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// PlayerByUser ищет игрока по Telegram ID, nil если нет
func (s *Store) PlayerByUser(ctx context.Context, userID int64) (*models.Player, error) {
	var player models.Player
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// AddPlayer вставляет игрока, предварительно удалив его прежнее
// членство в других комнатах. Обе операции — одна транзакция.
func (s *Store) AddPlayer(ctx context.Context, player *models.Player) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", player.UserID).Delete(&models.Player{}).Error; err != nil {
			return err
		}
		return tx.Create(player).Error
	})
}

// SavePlayers сохраняет изменённых игроков в одной транзакции
func (s *Store) SavePlayers(ctx context.Context, players ...*models.Player) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range players {
			if err := tx.Save(p).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplacePool перезаписывает таблицу пула целиком
func (s *Store) ReplacePool(ctx context.Context, entries []models.PoolEntry) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.PoolEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
}
