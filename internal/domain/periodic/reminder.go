package periodic

import "time"

// ReminderStatus son los flags que consume la capa de notificaciones.
// Este módulo no decide canal ni momento de entrega.
type ReminderStatus struct {
	IsUpcoming bool // hoy >= vencimiento - días de anticipación
	IsOverdue  bool // hoy > vencimiento
}

// EvaluateReminder deriva los flags desde la fecha de vencimiento y la
// anticipación configurada. Solo fechas, sin hora.
func EvaluateReminder(due time.Time, leadDays int, today time.Time) ReminderStatus {
	due = atMidnight(due)
	today = atMidnight(today)

	if leadDays < 0 {
		leadDays = 0
	}
	reminderFrom := due.AddDate(0, 0, -leadDays)

	return ReminderStatus{
		IsUpcoming: !today.Before(reminderFrom),
		IsOverdue:  today.After(due),
	}
}
