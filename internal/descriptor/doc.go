// Package descriptor преобразует сырые payload'ы сервера в типизированные
// снимки состояния сущностей.
//
// Дескриптор — чистая трансформация без поведения: push-события
// signaling-канала и ответы REST имеют одинаковую проводную форму
// (snake_case, attributes как JSON-строка, даты в unix-секундах),
// поэтому оба пути проходят через один и тот же парсер.
//
// Структура:
//   - payload.go     — общие помощники (unix-даты, JSON-атрибуты)
//   - task.go        — TaskDescriptor
//   - reservation.go — ReservationDescriptor
//   - worker.go      — WorkerDescriptor
//   - transfer.go    — TransferDescriptor
package descriptor
