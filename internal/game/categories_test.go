package game

import (
	"errors"
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input   string
		want    Category
		wantErr bool
	}{
		{"Биология", CategoryBio, false},
		{"биология", CategoryBio, false},
		{"ПРОФЕССИЯ", CategoryProf, false},
		{"  здоровье  ", CategoryHealth, false},
		{"Хобби", CategoryHobby, false},
		{"багаж", CategoryLuggage, false},
		{"Факт", CategoryFact, false},
		{"Особое условие", CategorySpecial, false},
		{"чепуха", "", true},
		{"", "", true},
		{"биолог", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("ParseCategory(%q) error = %v, want ErrInvalidInput", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCategory(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseCategory(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCategorySlots(t *testing.T) {
	for _, cat := range AllCategories {
		want := 1
		if cat == CategoryLuggage || cat == CategorySpecial {
			want = 2
		}
		if got := cat.Slots(); got != want {
			t.Errorf("%s.Slots() = %d, want %d", cat, got, want)
		}
	}
}

func TestAdminCategoriesExcludeSpecial(t *testing.T) {
	for _, cat := range AdminCategories {
		if cat == CategorySpecial {
			t.Fatal("особое условие не должно быть доступно в админских диалогах")
		}
	}
	if len(AdminCategories) != len(AllCategories)-1 {
		t.Errorf("len(AdminCategories) = %d, want %d", len(AdminCategories), len(AllCategories)-1)
	}
}
