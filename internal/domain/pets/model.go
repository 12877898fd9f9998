package pets

import "time"

// Species define las especies soportadas.
// @Enum dog, cat
type Species string

const (
	SpeciesDog Species = "dog"
	SpeciesCat Species = "cat"
)

// Sex define el sexo de la mascota.
// Las reglas de calendario pueden filtrar por sexo; "unknown" solo
// matchea reglas sin requisito de sexo.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// Pet representa el perfil de una mascota registrada en el sistema.
// BirthDate es obligatoria: todo el cálculo de calendarios (edad en meses,
// offset de primera dosis) depende de ella.
type Pet struct {
	ID          string
	OwnerUserID string

	Name    string
	Species Species
	Breed   string
	Sex     Sex

	BirthDate time.Time // solo fecha; se normaliza a medianoche
	Microchip string

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}
