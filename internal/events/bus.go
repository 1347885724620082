package events

import "sync"

// Handler — функция-подписчик.
// Payload зависит от типа события (см. публичный API пакета taskrouter).
type Handler func(payload any)

// subscription — одна подписка на тип события.
type subscription struct {
	id      int
	handler Handler
}

// Bus — шина событий одной сущности (Worker, Task или Reservation).
//
// Каждая сущность владеет собственной шиной: подписка на "canceled"
// у одного Task не видит события другого Task.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[Type][]subscription
}

// NewBus создаёт пустую шину.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[Type][]subscription),
	}
}

// Subscribe регистрирует обработчик для типа события.
// Возвращает идентификатор подписки для Unsubscribe.
func (b *Bus) Subscribe(t Type, h Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs[t] = append(b.subs[t], subscription{id: b.nextID, handler: h})
	return b.nextID
}

// Unsubscribe удаляет подписку по идентификатору.
// Неизвестный идентификатор игнорируется.
func (b *Bus) Unsubscribe(t Type, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[t]
	for i, s := range subs {
		if s.id == id {
			b.subs[t] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// UnsubscribeAll удаляет все подписки всех типов.
func (b *Bus) UnsubscribeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs = make(map[Type][]subscription)
}

// Emit синхронно вызывает подписчиков типа t в порядке подписки.
//
// Список обработчиков снимается под мьютексом, вызовы идут без него:
// обработчик может подписываться/отписываться, не взяв deadlock.
// Подписки, добавленные во время Emit, текущую эмиссию не видят.
func (b *Bus) Emit(t Type, payload any) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subs[t]))
	copy(subs, b.subs[t])
	b.mu.Unlock()

	for _, s := range subs {
		s.handler(payload)
	}
}

// SubscriberCount возвращает число подписчиков типа t.
func (b *Bus) SubscriberCount(t Type) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subs[t])
}
