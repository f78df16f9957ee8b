package sheets

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"tg-bunker-bot/internal/game"
)

// Load скачивает CSV-выгрузку Google Sheets и разбирает её в пулы
// категорий. Любая ошибка оставляет прежний пул нетронутым — вызов
// просто возвращает её наверх.
func Load(ctx context.Context, url string) (map[game.Category][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("загрузка таблицы: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("загрузка таблицы: статус %s", resp.Status)
	}
	return Parse(resp.Body)
}

// Parse разбирает CSV: первая строка — названия категорий, остальные —
// значения пулов. Пустые ячейки пропускаются, значения внутри категории
// дедуплицируются, неизвестные колонки игнорируются. Пустая категория —
// предупреждение в лог, не ошибка.
func Parse(r io.Reader) (map[game.Category][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("чтение заголовка таблицы: %w", err)
	}

	columns := make(map[int]game.Category)
	for i, title := range header {
		cat, err := game.ParseCategory(title)
		if err != nil {
			log.Printf("Неизвестная колонка таблицы: %q", title)
			continue
		}
		columns[i] = cat
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("в таблице нет ни одной известной категории")
	}

	pools := make(map[game.Category][]string)
	seen := make(map[game.Category]map[string]struct{})
	for _, cat := range game.AllCategories {
		pools[cat] = nil
		seen[cat] = make(map[string]struct{})
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("чтение строки таблицы: %w", err)
		}
		for i, cat := range columns {
			if i >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[i])
			if value == "" {
				continue
			}
			if _, ok := seen[cat][value]; ok {
				continue
			}
			seen[cat][value] = struct{}{}
			pools[cat] = append(pools[cat], value)
		}
	}

	for _, cat := range game.AllCategories {
		if len(pools[cat]) == 0 {
			log.Printf("Категория «%s» пуста!", cat.Title())
		}
	}
	return pools, nil
}
