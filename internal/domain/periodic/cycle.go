package periodic

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrCycleGuard es defensivo: la corrección acotada de NextOccurrence no
	// logró una fecha >= hoy. Con ciclos de largo positivo es inalcanzable;
	// si aparece es un bug de lógica, no una condición recuperable.
	ErrCycleGuard = errors.New("cycle guard: corrected date still in the past")
)

// NextOccurrence calcula la próxima fecha de un servicio cíclico.
//
// Aritmética solo de fechas: base y hoy se normalizan a medianoche. El
// candidato ingenuo es base + un ciclo; si quedó antes de hoy (base vieja,
// p.ej. el usuario registró el servicio tarde) se recalcula UNA vez desde
// hoy. Con ciclo positivo esa pasada alcanza siempre; el loop está acotado
// y una segunda falla devuelve ErrCycleGuard en vez de reintentar.
//
// base nil o cero significa "desde hoy". Función pura: hoy viene por parámetro.
func NextOccurrence(base *time.Time, cycle CycleType, cycleDays int, today time.Time) (time.Time, error) {
	if !cycle.Valid() {
		return time.Time{}, fmt.Errorf("%w: unknown cycle_type %q", ErrInvalidInput, cycle)
	}
	if cycle == CycleCustom && cycleDays <= 0 {
		return time.Time{}, fmt.Errorf("%w: custom cycle requires cycle_days > 0", ErrInvalidInput)
	}

	today = atMidnight(today)

	from := today
	if base != nil && !base.IsZero() {
		from = atMidnight(*base)
	}

	next := addCycle(from, cycle, cycleDays)
	for pass := 0; next.Before(today); pass++ {
		if pass >= 1 {
			return time.Time{}, ErrCycleGuard
		}
		// Autocorrección: una sola pasada desde hoy, no se apila desde la
		// base vieja.
		next = addCycle(today, cycle, cycleDays)
	}

	return next, nil
}

func addCycle(from time.Time, cycle CycleType, cycleDays int) time.Time {
	switch cycle {
	case CycleDaily:
		return from.AddDate(0, 0, 1)
	case CycleWeekly:
		return from.AddDate(0, 0, 7)
	case CycleMonthly:
		return from.AddDate(0, 1, 0)
	case CycleQuarterly:
		return from.AddDate(0, 3, 0)
	case CycleYearly:
		return from.AddDate(1, 0, 0)
	case CycleCustom:
		return from.AddDate(0, 0, cycleDays)
	default:
		// Valid() ya filtró; nunca debería llegar acá.
		return from
	}
}

func atMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween cuenta días calendario entre dos medianoches.
// El redondeo absorbe saltos de DST (días de 23/25 horas).
func daysBetween(from, to time.Time) int {
	h := atMidnight(to).Sub(atMidnight(from)).Hours()
	if h >= 0 {
		return int(h/24 + 0.5)
	}
	return -int(-h/24 + 0.5)
}
