package periodic

import "time"

// DefaultHorizonDays es el horizonte de proyección si el caller no pide otro.
const DefaultHorizonDays = 365

// ProjectedVisit es una ocurrencia futura del calendario proyectado.
type ProjectedVisit struct {
	Date      time.Time
	DaysUntil int // 0 = hoy
}

// Project genera el calendario hacia adelante de un servicio: arranca en
// NextServiceDate y aplica el ciclo sobre la última fecha proyectada hasta
// pasar hoy + horizonte. Como cada fecha proyectada es >= hoy, la
// autocorrección de NextOccurrence no interviene y la secuencia es
// estrictamente creciente.
func Project(svc PeriodicService, today time.Time, horizonDays int) ([]ProjectedVisit, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	today = atMidnight(today)
	limit := today.AddDate(0, 0, horizonDays)

	out := make([]ProjectedVisit, 0)

	cur := atMidnight(svc.NextServiceDate)
	for !cur.After(limit) {
		out = append(out, ProjectedVisit{
			Date:      cur,
			DaysUntil: daysBetween(today, cur),
		})

		next, err := NextOccurrence(&cur, svc.CycleType, svc.CycleDays, today)
		if err != nil {
			return nil, err
		}
		cur = next
	}

	return out, nil
}
