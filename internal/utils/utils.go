package utils

import (
	"fmt"
	"math/rand"
	"strings"

	"tg-bunker-bot/internal/models"
)

const (
	roomCodeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	roomCodeLength  = 4
)

// RoomCode генерирует код комнаты из четырёх заглавных латинских букв
func RoomCode(rng *rand.Rand) string {
	var b strings.Builder
	for i := 0; i < roomCodeLength; i++ {
		b.WriteByte(roomCodeLetters[rng.Intn(len(roomCodeLetters))])
	}
	return b.String()
}

// FormatValues соединяет значения слотов категории через запятую
func FormatValues(values []string) string {
	nonEmpty := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			nonEmpty = append(nonEmpty, v)
		}
	}
	return strings.Join(nonEmpty, ", ")
}

// FormatCard формирует полную карточку игрока для /me
func FormatCard(p *models.Player) string {
	return fmt.Sprintf(
		"🧑 %s\n"+
			"🧬 Биология: %s\n"+
			"💼 Профессия: %s\n"+
			"❤️ Здоровье: %s\n"+
			"🎨 Хобби: %s\n"+
			"🎒 Багаж: %s, %s\n"+
			"📜 Факт: %s\n"+
			"🔮 Особое условие: %s, %s",
		p.Name, p.Bio, p.Prof, p.Health, p.Hobby,
		p.Luggage1, p.Luggage2, p.Fact, p.Special1, p.Special2,
	)
}

// FormatPlayerLine форматирует строку списка игроков с @username
func FormatPlayerLine(p *models.Player) string {
	if p.Username == "" {
		return fmt.Sprintf("• %s", p.Name)
	}
	return fmt.Sprintf("• %s (@%s)", p.Name, p.Username)
}
