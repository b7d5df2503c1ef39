package services

import (
	"context"
	"errors"

	"github.com/siserv-tech/driverbot-backend/internal/models"
	"github.com/siserv-tech/driverbot-backend/internal/tenantdb"
)

// RegistrationRepository persists pre-registrations in the tenant database
type RegistrationRepository interface {
	SubmitPerson(ctx context.Context, t *models.Tenant, rec models.RegistrationRecord, link string) error
	SubmitVehicle(ctx context.Context, t *models.Tenant, rec models.RegistrationRecord, link string) error
}

// RegistrationService validates and submits driver and vehicle
// pre-registrations, turning storage failures into SubmissionError
type RegistrationService struct {
	repo RegistrationRepository
}

func NewRegistrationService(repo RegistrationRepository) *RegistrationService {
	return &RegistrationService{repo: repo}
}

// SubmitPerson saves a driver pre-registration
func (s *RegistrationService) SubmitPerson(ctx context.Context, t *models.Tenant, rec models.RegistrationRecord, link string) error {
	if len(rec) == 0 {
		return &SubmissionError{Detail: "Nenhum dado válido para inserir."}
	}
	return submissionError(s.repo.SubmitPerson(ctx, t, rec, link), "Erro ao salvar cadastro.")
}

// SubmitVehicle saves a vehicle pre-registration
func (s *RegistrationService) SubmitVehicle(ctx context.Context, t *models.Tenant, rec models.RegistrationRecord, link string) error {
	if len(rec) == 0 {
		return &SubmissionError{Detail: "Nenhum dado válido para inserir."}
	}
	return submissionError(s.repo.SubmitVehicle(ctx, t, rec, link), "Erro ao salvar cadastro de veículo.")
}

func submissionError(err error, generic string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tenantdb.ErrNoData):
		return &SubmissionError{Detail: "Nenhum dado válido para inserir.", Err: err}
	}
	return &SubmissionError{Detail: generic, Err: err}
}
