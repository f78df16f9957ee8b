package game

import (
	"fmt"
	"math/rand"
)

// UniqueValues выбирает count случайных значений из пула без повторов,
// исключая уже занятые в комнате. Возвращает ErrPoolExhausted, если
// доступных значений меньше, чем требуется. Источник случайности
// передаётся явно, чтобы результат был воспроизводим при фиксированном
// seed.
func UniqueValues(rng *rand.Rand, pool []string, exclude []string, count int) ([]string, error) {
	used := make(map[string]struct{}, len(exclude))
	for _, v := range exclude {
		used[v] = struct{}{}
	}

	available := make([]string, 0, len(pool))
	for _, v := range pool {
		if _, ok := used[v]; !ok {
			available = append(available, v)
		}
	}

	if len(available) < count {
		return nil, fmt.Errorf("%w: требуется %d, доступно %d", ErrPoolExhausted, count, len(available))
	}

	rng.Shuffle(len(available), func(i, j int) {
		available[i], available[j] = available[j], available[i]
	})
	return available[:count:count], nil
}

// redistribute раздаёт перемешанные значения обратно игрокам: i-й игрок
// получает counts[i] значений в исходном порядке обхода. Остаток, если
// общее число не делится ровно, достаётся первому игроку.
func redistribute(values []string, counts []int) [][]string {
	result := make([][]string, len(counts))
	idx := 0
	for i, n := range counts {
		if idx+n > len(values) {
			n = len(values) - idx
		}
		result[i] = values[idx : idx+n : idx+n]
		idx += n
	}
	if idx < len(values) && len(result) > 0 {
		result[0] = append(result[0], values[idx:]...)
	}
	return result
}
