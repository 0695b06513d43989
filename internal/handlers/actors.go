package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"gorm.io/gorm"

	"jobbridge_backend/internal/middleware"
	"jobbridge_backend/internal/repositories"
	"jobbridge_backend/pkg/apperrors"
)

// ActorResolver maps the authenticated user onto its student or
// company record.
type ActorResolver struct {
	studentRepo repositories.StudentRepository
	companyRepo repositories.CompanyRepository
}

func NewActorResolver(studentRepo repositories.StudentRepository, companyRepo repositories.CompanyRepository) *ActorResolver {
	return &ActorResolver{studentRepo: studentRepo, companyRepo: companyRepo}
}

func (r *ActorResolver) StudentID(c *gin.Context) (string, error) {
	student, err := r.studentRepo.FindByUserID(middleware.UserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrNotFound(err, "auth", "Student profile not found")
		}
		return "", apperrors.ErrDatabase(err, "auth")
	}
	return student.ID, nil
}

func (r *ActorResolver) CompanyID(c *gin.Context) (string, error) {
	company, err := r.companyRepo.FindByUserID(middleware.UserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrNotFound(err, "auth", "Company profile not found")
		}
		return "", apperrors.ErrDatabase(err, "auth")
	}
	return company.ID, nil
}
