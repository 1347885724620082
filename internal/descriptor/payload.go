package descriptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Ошибки парсинга.
var (
	// ErrMissingSid — в payload отсутствует обязательный sid.
	ErrMissingSid = errors.New("payload is missing sid")

	// ErrMalformedPayload — payload не является корректным JSON.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrMalformedAttributes — attributes не являются корректным JSON-объектом.
	ErrMalformedAttributes = errors.New("malformed attributes")
)

// unixTime — дата в проводном формате (unix-секунды).
type unixTime int64

// Time конвертирует в time.Time. Нулевое значение — нулевое время.
func (u unixTime) Time() time.Time {
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(int64(u), 0).UTC()
}

// parseAttributes разбирает attributes из проводного формата.
//
// Сервер присылает attributes как JSON-строку ("{\"languages\":[\"en\"]}"),
// пустая строка эквивалентна пустому объекту. Некоторые пути (push-события
// транспортов нового формата) присылают уже объект — принимаем оба.
func parseAttributes(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	// Вариант 1: JSON-строка, внутри которой объект.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return map[string]any{}, nil
		}
		var attrs map[string]any
		if err := json.Unmarshal([]byte(s), &attrs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedAttributes, err)
		}
		return attrs, nil
	}

	// Вариант 2: объект напрямую.
	var attrs map[string]any
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAttributes, err)
	}
	return attrs, nil
}
