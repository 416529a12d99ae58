// Package syncx — примитивы сериализации per-key. Мутации счета и заказа
// должны проходить через эксклюзивную секцию своего ключа (accountId,
// orderId), не блокируя несвязанные ключи.
package syncx

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyedMutex выдает мьютекс на строковый ключ. Записи создаются лениво
// и убираются, когда последний владелец отпускает ключ, поэтому карта
// не растет с числом когда-либо виденных ключей.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*entry)}
}

// Lock захватывает эксклюзивную секцию ключа.
func (k *KeyedMutex) Lock(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock освобождает секцию. Unlock без парного Lock — ошибка программы.
func (k *KeyedMutex) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		k.mu.Unlock()
		panic("syncx: unlock of unlocked key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
