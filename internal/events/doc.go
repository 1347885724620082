// Package events реализует внутрипроцессный publish/subscribe.
//
// Структура:
//   - types.go — закрытое множество типов событий
//   - bus.go   — шина с подпиской по типу события
//
// Шина синхронная: Emit вызывает подписчиков конкретного типа
// в порядке подписки, ровно один раз каждого. Подписчики других
// типов не затрагиваются.
package events
