package rest

import "fmt"

// Version — версия API, которой адресуется операция.
type Version string

// Версии API. Обновление статуса task и transfers идут через v1,
// участник звонка (hold/unhold) — через v2.
const (
	V1 Version = "v1"
	V2 Version = "v2"
)

// Routes строит цели запросов из идентичности текущей сессии.
//
// Все цели начинаются с "Workspaces/{workspaceSid}"; сущности ниже
// адресуются своими sid.
type Routes struct {
	workspaceSid string
	workerSid    string
}

// NewRoutes создаёт Routes для пары workspace/worker.
func NewRoutes(workspaceSid, workerSid string) *Routes {
	return &Routes{
		workspaceSid: workspaceSid,
		workerSid:    workerSid,
	}
}

// Worker — цель операций над самим worker (атрибуты, activity).
func (r *Routes) Worker() string {
	return fmt.Sprintf("Workspaces/%s/Workers/%s", r.workspaceSid, r.workerSid)
}

// Task — цель операций над task (complete, wrapUp, setAttributes).
func (r *Routes) Task(taskSid string) string {
	return fmt.Sprintf("Workspaces/%s/Tasks/%s", r.workspaceSid, taskSid)
}

// Transfers — цель создания transfer для task.
func (r *Routes) Transfers(taskSid string) string {
	return fmt.Sprintf("Workspaces/%s/Tasks/%s/Transfers", r.workspaceSid, taskSid)
}

// CustomerParticipant — цель hold/unhold участника-клиента.
func (r *Routes) CustomerParticipant() string {
	return fmt.Sprintf("Workspaces/%s/Workers/%s/CustomerParticipant", r.workspaceSid, r.workerSid)
}

// Reservation — цель операций над reservation (accept, reject).
func (r *Routes) Reservation(reservationSid string) string {
	return fmt.Sprintf("Workspaces/%s/Workers/%s/Reservations/%s", r.workspaceSid, r.workerSid, reservationSid)
}

// Reservations — цель списка активных reservations (resync).
func (r *Routes) Reservations() string {
	return fmt.Sprintf("Workspaces/%s/Workers/%s/Reservations", r.workspaceSid, r.workerSid)
}
