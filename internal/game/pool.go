package game

import "sync"

// Pool хранит текущий снимок пулов значений по категориям.
// Снимок заменяется целиком при /reload; частичных обновлений нет,
// поэтому неудачная загрузка не трогает прежние данные.
type Pool struct {
	mu     sync.RWMutex
	values map[Category][]string
}

// NewPool создает пустой пул
func NewPool() *Pool {
	return &Pool{values: make(map[Category][]string)}
}

// Replace атомарно заменяет все пулы новым снимком
func (p *Pool) Replace(values map[Category][]string) {
	copied := make(map[Category][]string, len(values))
	for cat, vals := range values {
		copied[cat] = append([]string(nil), vals...)
	}
	p.mu.Lock()
	p.values = copied
	p.mu.Unlock()
}

// Values возвращает копию пула категории
func (p *Pool) Values(cat Category) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.values[cat]...)
}

// Empty сообщает, загружен ли хоть один пул
func (p *Pool) Empty() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, vals := range p.values {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}
