package game

import "errors"

// Классификация ошибок игровых операций. Хендлеры переводят их
// в человекочитаемые сообщения и никогда не роняют процесс.
var (
	ErrPermissionDenied = errors.New("доступ запрещён")
	ErrNotFound         = errors.New("не найдено")
	ErrConflict         = errors.New("конфликт")
	ErrPoolExhausted    = errors.New("недостаточно уникальных значений в пуле")
	ErrInvalidInput     = errors.New("некорректный ввод")
)
