package lifecycle

// Priority clasifica una regla del plan de salud y determina el orden
// del calendario resultante.
type Priority string

const (
	PriorityRequired    Priority = "required"
	PriorityRecommended Priority = "recommended"
	PriorityOptional    Priority = "optional"
)

// rank devuelve el peso para ordenar: required > recommended > optional.
// Una prioridad desconocida pesa 0 y queda al final.
func (p Priority) rank() int {
	switch p {
	case PriorityRequired:
		return 3
	case PriorityRecommended:
		return 2
	case PriorityOptional:
		return 1
	default:
		return 0
	}
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityRequired, PriorityRecommended, PriorityOptional:
		return true
	}
	return false
}

// SexRequirement restringe una regla por sexo del sujeto.
type SexRequirement string

const (
	SexAll        SexRequirement = "all"
	SexMaleOnly   SexRequirement = "male"
	SexFemaleOnly SexRequirement = "female"
)

func (s SexRequirement) Valid() bool {
	switch s {
	case SexAll, SexMaleOnly, SexFemaleOnly:
		return true
	}
	return false
}
