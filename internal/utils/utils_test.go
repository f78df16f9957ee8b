package utils

import (
	"math/rand"
	"strings"
	"testing"

	"tg-bunker-bot/internal/models"
)

func TestRoomCode(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		code := RoomCode(rng)
		if len(code) != 4 {
			t.Fatalf("len(%q) = %d, want 4", code, len(code))
		}
		for _, r := range code {
			if r < 'A' || r > 'Z' {
				t.Fatalf("код %q содержит символ вне A-Z", code)
			}
		}
	}
}

func TestRoomCodeDeterministic(t *testing.T) {
	first := RoomCode(rand.New(rand.NewSource(7)))
	second := RoomCode(rand.New(rand.NewSource(7)))
	if first != second {
		t.Errorf("при одинаковом seed коды различаются: %s и %s", first, second)
	}
}

func TestFormatValues(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"одно значение", []string{"Врач"}, "Врач"},
		{"два значения", []string{"Топор", "Аптечка"}, "Топор, Аптечка"},
		{"пустой слот", []string{"Топор", ""}, "Топор"},
		{"все пустые", []string{"", ""}, ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValues(tt.values); got != tt.want {
				t.Errorf("FormatValues(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}

func TestFormatCard(t *testing.T) {
	p := &models.Player{
		Name:     "Алиса",
		Bio:      "Женщина",
		Prof:     "Врач",
		Health:   "Астма",
		Hobby:    "Шахматы",
		Luggage1: "Аптечка",
		Luggage2: "Топор",
		Fact:     "Боится темноты",
		Special1: "Иммунитет",
		Special2: "Вето",
	}

	card := FormatCard(p)
	lines := strings.Split(card, "\n")
	if len(lines) != 8 {
		t.Fatalf("в карточке %d строк, ожидалось 8:\n%s", len(lines), card)
	}
	for _, want := range []string{
		"🧑 Алиса",
		"💼 Профессия: Врач",
		"🎒 Багаж: Аптечка, Топор",
		"🔮 Особое условие: Иммунитет, Вето",
	} {
		if !strings.Contains(card, want) {
			t.Errorf("в карточке нет строки %q:\n%s", want, card)
		}
	}
}

func TestFormatPlayerLine(t *testing.T) {
	tests := []struct {
		name   string
		player models.Player
		want   string
	}{
		{"с username", models.Player{Name: "Алиса", Username: "alice"}, "• Алиса (@alice)"},
		{"без username", models.Player{Name: "Боб"}, "• Боб"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatPlayerLine(&tt.player); got != tt.want {
				t.Errorf("FormatPlayerLine() = %q, want %q", got, tt.want)
			}
		})
	}
}
