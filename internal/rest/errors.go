package rest

import "fmt"

// TaskRouterError — стабильное имя ошибки маршрутизирующего backend'а.
const TaskRouterError = "TASKROUTER_ERROR"

// APIError — отклонённый backend'ом REST-вызов.
//
// Name стабильно ("TASKROUTER_ERROR"), Message — человекочитаемый
// текст из тела ответа. Сущность, от имени которой шёл запрос,
// при такой ошибке не меняется.
type APIError struct {
	// Name — стабильное имя вида ошибки.
	Name string

	// Message — текст из ответа сервера.
	Message string

	// Status — HTTP-статус ответа.
	Status int
}

// Error реализует error.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}
