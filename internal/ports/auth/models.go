package auth

// Claims identifica al cuidador autenticado.
// CaregiverID es el dueño de los pacientes y medicaciones.
type Claims struct {
	CaregiverID string
	Email       string
	Role        string
}
