package periodic

import "time"

// PeriodicService es un servicio recurrente configurado por el usuario para
// una mascota (vacunación anual, control, desparasitación...).
//
// Invariante: mientras Active sea true, NextServiceDate está seteada y nunca
// quedó antes de "hoy" al momento de calcularla. Se desactiva (soft), nunca
// se borra desde este módulo.
type PeriodicService struct {
	ID          string
	PetID       string
	OwnerUserID string

	// Etiqueta libre del tipo de servicio: "vaccination", "checkup"...
	ServiceType string

	CycleType CycleType
	CycleDays int // solo para CycleCustom

	LastServiceDate *time.Time
	NextServiceDate time.Time

	ReminderDaysBefore int
	ReminderEnabled    bool

	Active bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
