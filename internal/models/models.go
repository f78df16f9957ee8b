package models

import (
	"time"

	"github.com/lib/pq"
)

// Room представляет игровую комнату. Активной может быть только одна.
type Room struct {
	Code      string `gorm:"primaryKey"`
	IsActive  bool   `gorm:"default:true"`
	CreatedAt time.Time
}

func (Room) TableName() string { return "rooms" }

// Player представляет игрока в комнате вместе с его карточкой.
// Игрок состоит не более чем в одной комнате: вход в новую комнату
// удаляет прежнее членство.
type Player struct {
	UserID       int64  `gorm:"primaryKey;autoIncrement:false"`
	RoomCode     string `gorm:"primaryKey"`
	Username     string
	Name         string
	Bio          string
	Prof         string
	Health       string
	Hobby        string
	Luggage1     string
	Luggage2     string
	Fact         string
	Special1     string
	Special2     string
	UsedSpecial1 bool           `gorm:"default:false"`
	UsedSpecial2 bool           `gorm:"default:false"`
	Revealed     pq.StringArray `gorm:"type:text[]"`
}

func (Player) TableName() string { return "players" }

// PoolEntry — строка пула значений, загруженного из таблицы
type PoolEntry struct {
	ID       uint   `gorm:"primaryKey"`
	Category string `gorm:"uniqueIndex:idx_pool_category_value"`
	Value    string `gorm:"uniqueIndex:idx_pool_category_value"`
}

func (PoolEntry) TableName() string { return "pool" }

// CategoryValues возвращает значения игрока по ключу категории.
// Для многослотовых категорий порядок слотов фиксирован.
func (p *Player) CategoryValues(cat string) []string {
	switch cat {
	case "bio":
		return []string{p.Bio}
	case "prof":
		return []string{p.Prof}
	case "health":
		return []string{p.Health}
	case "hobby":
		return []string{p.Hobby}
	case "luggage":
		return []string{p.Luggage1, p.Luggage2}
	case "fact":
		return []string{p.Fact}
	case "special":
		return []string{p.Special1, p.Special2}
	}
	return nil
}

// SetCategoryValues записывает значения категории в слоты игрока
func (p *Player) SetCategoryValues(cat string, values []string) {
	get := func(i int) string {
		if i < len(values) {
			return values[i]
		}
		return ""
	}
	switch cat {
	case "bio":
		p.Bio = get(0)
	case "prof":
		p.Prof = get(0)
	case "health":
		p.Health = get(0)
	case "hobby":
		p.Hobby = get(0)
	case "luggage":
		p.Luggage1, p.Luggage2 = get(0), get(1)
	case "fact":
		p.Fact = get(0)
	case "special":
		p.Special1, p.Special2 = get(0), get(1)
	}
}

// HasCategory сообщает, заполнен ли у игрока хотя бы один слот категории
func (p *Player) HasCategory(cat string) bool {
	for _, v := range p.CategoryValues(cat) {
		if v != "" {
			return true
		}
	}
	return false
}

// IsRevealed проверяет, раскрыта ли категория
func (p *Player) IsRevealed(cat string) bool {
	for _, c := range p.Revealed {
		if c == cat {
			return true
		}
	}
	return false
}

// AddRevealed добавляет категорию в раскрытые; повторное добавление
// ничего не меняет
func (p *Player) AddRevealed(cat string) {
	if p.IsRevealed(cat) {
		return
	}
	p.Revealed = append(p.Revealed, cat)
}
