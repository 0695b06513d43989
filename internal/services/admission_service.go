package services

import (
	"errors"

	"gorm.io/gorm"

	"jobbridge_backend/internal/repositories"
	"jobbridge_backend/internal/services/dto"
	"jobbridge_backend/pkg/apperrors"
)

// AdmissionService decides whether a student may create a new
// application. CanApply is the advisory read; the binding re-check runs
// inside the application-creation transaction (see ApplyWithQuota).
type AdmissionService interface {
	CanApply(studentID string) (*dto.AdmissionDecision, error)
}

type admissionService struct {
	studentRepo     repositories.StudentRepository
	applicationRepo repositories.ApplicationRepository
	entitlements    EntitlementService
}

func NewAdmissionService(
	studentRepo repositories.StudentRepository,
	applicationRepo repositories.ApplicationRepository,
	entitlements EntitlementService,
) AdmissionService {
	return &admissionService{
		studentRepo:     studentRepo,
		applicationRepo: applicationRepo,
		entitlements:    entitlements,
	}
}

func (s *admissionService) CanApply(studentID string) (*dto.AdmissionDecision, error) {
	student, err := s.studentRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.AdmissionDecision{
				Allowed: false,
				Reason:  dto.AdmissionReasonNotFound,
			}, nil
		}
		return nil, apperrors.ErrDatabase(err, "admission")
	}

	// A hired student is blocked from future admissions. Existing
	// applications are left alone; hiring does not cascade.
	if student.IsHired {
		return &dto.AdmissionDecision{
			Allowed: false,
			Reason:  dto.AdmissionReasonHired,
		}, nil
	}

	used, err := s.applicationRepo.CountActiveByStudent(studentID)
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "admission")
	}

	entitlement, err := s.entitlements.Resolve(studentID)
	if err != nil {
		return nil, err
	}

	decision := &dto.AdmissionDecision{
		Used:  int(used),
		Limit: entitlement.Quota,
	}

	if entitlement.Quota == QuotaUnlimited {
		decision.Allowed = true
		return decision, nil
	}

	if int(used) >= entitlement.Quota {
		decision.Allowed = false
		decision.Reason = dto.AdmissionReasonLimit
		return decision, nil
	}

	decision.Allowed = true
	return decision, nil
}
