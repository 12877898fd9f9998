package lifecycle

import (
	"sort"
	"time"

	"pet-health-scheduler/internal/domain/pets"
)

// El motor de calendario es puro: funciones sin I/O sobre datos que entrega
// el caller. El Service las orquesta (cargar → calcular → upsert).

type doseRef struct {
	ruleKey string
	dose    int
}

// CompletionIndex indexa el historial por (rule_key, dose_number) para lookup
// O(1) desde el matcher y el sequencer. Solo entran dosis con fecha aplicada.
//
// Si hay registros duplicados para la misma dosis gana el de CompletedDate
// más reciente; empates se resuelven por RecordedAt y luego por ID para que
// corridas repetidas produzcan exactamente el mismo resultado.
type CompletionIndex struct {
	byDose map[doseRef]Completion
}

func BuildCompletionIndex(records []Completion) CompletionIndex {
	idx := CompletionIndex{byDose: make(map[doseRef]Completion, len(records))}

	for _, c := range records {
		if c.CompletedDate == nil {
			continue
		}
		ref := doseRef{ruleKey: c.RuleKey, dose: c.DoseNumber}

		cur, ok := idx.byDose[ref]
		if !ok || completionWins(c, cur) {
			idx.byDose[ref] = c
		}
	}
	return idx
}

func completionWins(a, b Completion) bool {
	if !a.CompletedDate.Equal(*b.CompletedDate) {
		return a.CompletedDate.After(*b.CompletedDate)
	}
	if !a.RecordedAt.Equal(b.RecordedAt) {
		return a.RecordedAt.After(b.RecordedAt)
	}
	return a.ID > b.ID
}

// Done indica si la dosis ya fue aplicada.
func (i CompletionIndex) Done(ruleKey string, dose int) bool {
	_, ok := i.byDose[doseRef{ruleKey: ruleKey, dose: dose}]
	return ok
}

// Latest devuelve el registro ganador para (ruleKey, dose).
func (i CompletionIndex) Latest(ruleKey string, dose int) (Completion, bool) {
	c, ok := i.byDose[doseRef{ruleKey: ruleKey, dose: dose}]
	return c, ok
}

// ageInMonths calcula la edad en meses completos (floor) a la fecha dada.
func ageInMonths(birth, today time.Time) int {
	birth = atMidnight(birth)
	today = atMidnight(today)

	months := (today.Year()-birth.Year())*12 + int(today.Month()) - int(birth.Month())
	if today.Day() < birth.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// Match filtra las reglas aplicables a una mascota hoy. Quedan fuera:
// reglas inactivas, sexo que no corresponde, edad fuera de la ventana
// (intervalo cerrado en ambos extremos) y dosis ya aplicadas.
// El resultado no tiene orden definido; ordena el merge.
func Match(pet pets.Pet, today time.Time, rules []MasterRule, idx CompletionIndex) []MasterRule {
	age := ageInMonths(pet.BirthDate, today)

	out := make([]MasterRule, 0, len(rules))
	for _, r := range rules {
		if !r.Active {
			continue
		}
		if r.Sex != SexAll && string(r.Sex) != string(pet.Sex) {
			continue
		}
		if age < r.MinAgeMonths || age > r.MaxAgeMonths {
			continue
		}
		if idx.Done(r.Key(), r.DoseNumber) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// sequence calcula la fecha recomendada para una regla ya matcheada.
//
//   - Dosis 1: nacimiento + MinAgeMonths meses.
//   - Dosis > 1: fecha de la dosis anterior + IntervalDays; si falta el
//     registro anterior o la regla no trae intervalo, cae al offset por edad.
//
// Candidatos con fecha recomendada <= hoy se descartan por completo, no se
// marcan como vencidos. Mostrar dosis atrasadas es una decisión de producto
// pendiente (ver DESIGN.md).
func sequence(rule MasterRule, pet pets.Pet, idx CompletionIndex, today time.Time) (Schedule, bool) {
	today = atMidnight(today)

	recommended := atMidnight(pet.BirthDate).AddDate(0, rule.MinAgeMonths, 0)

	if rule.DoseNumber > 1 && rule.IntervalDays != nil {
		if prev, ok := idx.Latest(rule.Key(), rule.DoseNumber-1); ok {
			recommended = atMidnight(*prev.CompletedDate).AddDate(0, 0, *rule.IntervalDays)
		}
	}

	if !recommended.After(today) {
		return Schedule{}, false
	}

	return Schedule{
		PetID:           pet.ID,
		RuleKey:         rule.Key(),
		DoseNumber:      rule.DoseNumber,
		TotalDoses:      rule.TotalDoses,
		RecommendedDate: recommended,
		Priority:        rule.Priority,
		IntervalDays:    rule.IntervalDays,
		Source:          rule.Source,
	}, true
}

// sortSchedules ordena por prioridad descendente y, a igual prioridad, por
// fecha recomendada ascendente. Orden estable para pares iguales.
func sortSchedules(items []Schedule) {
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := items[i].Priority.rank(), items[j].Priority.rank()
		if ri != rj {
			return ri > rj
		}
		return items[i].RecommendedDate.Before(items[j].RecommendedDate)
	})
}

func atMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
