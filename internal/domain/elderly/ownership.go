package elderly

import "context"

// CaregiverOf expone el cuidador de un paciente.
// Lo usan medications y reports para no importar el Service completo.
func (s *Service) CaregiverOf(ctx context.Context, elderlyID string) (string, error) {
	p, err := s.GetByID(ctx, elderlyID)
	if err != nil {
		return "", err
	}
	return p.CaregiverID, nil
}

// Authorize devuelve el paciente si pertenece al cuidador.
func (s *Service) Authorize(ctx context.Context, elderlyID, caregiverID string) (Patient, error) {
	p, err := s.GetByID(ctx, elderlyID)
	if err != nil {
		return Patient{}, err
	}
	if p.CaregiverID != caregiverID {
		return Patient{}, ErrForbidden
	}
	return p, nil
}
