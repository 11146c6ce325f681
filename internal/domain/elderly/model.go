package elderly

import "time"

// Patient es la persona mayor a cargo de un cuidador.
type Patient struct {
	ID          string
	CaregiverID string

	FirstName string
	LastName  string

	DateOfBirth *time.Time

	Phone            string
	EmergencyContact string
	Notes            string

	IsActive bool

	// Última toma registrada de cualquier medicación.
	LastMedicationTaken *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Patient) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
