// Package taskrouter — клиентский SDK для участия worker-процесса
// в серверной системе маршрутизации задач.
//
// SDK держит постоянное signaling-соединение с backend'ом, принимает
// push-события о жизненном цикле Task и Reservation и выполняет
// мутирующие запросы (accept, complete, transfer, hold), результаты
// которых согласуются с локально закэшированным состоянием.
//
// # Использование
//
//	worker, err := taskrouter.NewWorker(token, taskrouter.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	worker.On(taskrouter.EventReservationCreated, func(payload any) {
//	    reservation := payload.(*taskrouter.Reservation)
//	    reservation.Accept(ctx)
//	})
//
//	if err := worker.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Модель согласованности
//
// Push-события применяются в порядке получения из канала. Ответ REST
// применяется целиком и только при успехе: отклонённый запрос не меняет
// ни одного наблюдаемого поля сущности. Порядок применения REST-ответа
// относительно одновременно пришедшего push-события не фиксирован —
// действует last-applied-wins (backend сериализует мутации per-entity).
//
// # Ошибки
//
// Ошибки использования (отсутствующий или неверно типизированный
// параметр) возвращаются синхронно, без сетевого вызова; проверяются
// через errors.Is(err, ErrMissingParameter) и errors.Is(err, ErrTypeMismatch).
// Отклонения backend'а приходят как *APIError со стабильным именем
// TASKROUTER_ERROR и текстом из ответа сервера.
package taskrouter
