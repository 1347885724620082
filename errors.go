package taskrouter

import (
	"errors"
	"fmt"

	"github.com/creedasaurus/taskrouter/internal/rest"
)

// Ошибки использования. Возвращаются синхронно, до сетевого вызова.
var (
	// ErrMissingParameter — отсутствует обязательный параметр.
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrTypeMismatch — параметр не проходит проверку типа.
	ErrTypeMismatch = errors.New("parameter type mismatch")
)

// APIError — отклонённый backend'ом REST-вызов (см. internal/rest).
type APIError = rest.APIError

// TaskRouterError — стабильное имя ошибки маршрутизирующего backend'а.
const TaskRouterError = rest.TaskRouterError

// requiredParam — ошибка отсутствующего обязательного параметра.
func requiredParam(name string) error {
	return fmt.Errorf("%w: %s is a required parameter", ErrMissingParameter, name)
}

// typeMismatch — ошибка неверно типизированного параметра.
func typeMismatch(name string) error {
	return fmt.Errorf("%w: %s does not meet the required type", ErrTypeMismatch, name)
}
