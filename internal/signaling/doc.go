// Package signaling владеет жизненным циклом постоянного соединения
// с маршрутизирующим backend'ом.
//
// Структура:
//   - channel.go   — state machine канала (connect, reconnect, token, close)
//   - transport.go — websocket-транспорт (интерфейс + gorilla-реализация)
//   - frame.go     — конверт входящего push-события
//
// Состояния канала:
//
//	Connecting → Connected → Reconnecting → Connected
//	                       ↘ Closed (terminal)
//
// При неожиданном разрыве канал переподключается с экспоненциальной
// задержкой (1s → 30s, ограниченное число попыток). Push-события,
// пропущенные за время разрыва, не реплеятся — после каждого
// переподключения вызывается OnReconnect, и владелец канала
// запрашивает свежий снимок состояния по REST.
//
// Disconnect(reason) терминален: дальнейших переподключений нет,
// подписчики получают ровно одно уведомление disconnected с причиной.
package signaling
