// Package rest выполняет исходящие запросы к TaskRouter API.
//
// Структура:
//   - routes.go — построение целей запросов (workspace/worker/task scoped)
//   - client.go — HTTP-клиент: form-encoded POST, bearer token, decode
//   - errors.go — типизированные ошибки удалённой стороны
//
// Каждая операция адресуется версионированным маршрутом (v1 или v2)
// и отправляет плоское form-encoded тело. Запрос выполняется ровно
// один раз: retry — забота вызывающего.
package rest
