package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"jobbridge_backend/internal/auth"
	"jobbridge_backend/internal/dispatch"
	"jobbridge_backend/internal/email"
	"jobbridge_backend/internal/models"
	"jobbridge_backend/internal/repositories"
	"jobbridge_backend/internal/services/dto"
	"jobbridge_backend/pkg/apperrors"
)

// AuthService registers students and companies and issues access
// tokens. A new student starts on the free tier with no subscription
// row; the entitlement engine treats the null reference as free.
type AuthService interface {
	RegisterStudent(req *dto.RegisterStudentRequest) (*dto.AuthResponse, error)
	RegisterCompany(req *dto.RegisterCompanyRequest) (*dto.AuthResponse, error)
	Login(req *dto.LoginRequest) (*dto.AuthResponse, error)
}

type authService struct {
	userRepo    repositories.UserRepository
	studentRepo repositories.StudentRepository
	companyRepo repositories.CompanyRepository
	dispatcher  *dispatch.Dispatcher
	jwtSecret   string
	tokenTTL    time.Duration
}

func NewAuthService(
	userRepo repositories.UserRepository,
	studentRepo repositories.StudentRepository,
	companyRepo repositories.CompanyRepository,
	dispatcher *dispatch.Dispatcher,
	jwtSecret string,
	tokenTTL time.Duration,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		studentRepo: studentRepo,
		companyRepo: companyRepo,
		dispatcher:  dispatcher,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
	}
}

func (s *authService) RegisterStudent(req *dto.RegisterStudentRequest) (*dto.AuthResponse, error) {
	user, err := s.createUser(req.Email, req.Password, models.UserRoleStudent)
	if err != nil {
		return nil, err
	}

	student := &models.Student{
		UserID:           user.ID,
		FullName:         req.FullName,
		SubscriptionTier: models.SubscriptionTierFree,
	}
	if err := s.studentRepo.Create(student); err != nil {
		return nil, apperrors.ErrDatabase(err, "auth")
	}

	event := dispatch.NewEvent("student.registered")
	event.WithEmail(dispatch.EmailSpec{
		To:          user.Email,
		UserID:      user.ID,
		Type:        email.TypeWelcome,
		TemplateKey: "welcome",
		Data: email.TemplateData{
			UserName: req.FullName,
			Message:  "student",
		},
	})
	s.dispatcher.Enqueue(event)

	return s.tokenResponse(user)
}

func (s *authService) RegisterCompany(req *dto.RegisterCompanyRequest) (*dto.AuthResponse, error) {
	user, err := s.createUser(req.Email, req.Password, models.UserRoleCompany)
	if err != nil {
		return nil, err
	}

	company := &models.Company{
		UserID:      user.ID,
		Name:        req.Name,
		Description: req.Description,
		Website:     req.Website,
		Status:      models.CompanyStatusPending,
	}
	if err := s.companyRepo.Create(company); err != nil {
		return nil, apperrors.ErrDatabase(err, "auth")
	}

	event := dispatch.NewEvent("company.registered")
	fanOutToAdmins(s.userRepo, event, NotifTypeNewCompanyPending,
		"New company pending approval",
		fmt.Sprintf("Company %q registered and awaits approval", req.Name),
		"/admin/companies/"+company.ID)
	event.WithEmail(dispatch.EmailSpec{
		To:          user.Email,
		UserID:      user.ID,
		Type:        email.TypeWelcome,
		TemplateKey: "welcome",
		Data: email.TemplateData{
			UserName: req.Name,
			Message:  "company",
		},
	})
	s.dispatcher.Enqueue(event)

	return s.tokenResponse(user)
}

func (s *authService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.ErrDatabase(err, "auth")
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if user.Status != models.UserStatusActive {
		return nil, apperrors.NewForbiddenError("Account is not active")
	}

	return s.tokenResponse(user)
}

func (s *authService) createUser(emailAddr, password string, role models.UserRole) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Email:        emailAddr,
		PasswordHash: hash,
		Role:         role,
		Status:       models.UserStatusActive,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrConflict("auth", "Email is already registered")
		}
		return nil, apperrors.ErrDatabase(err, "auth")
	}
	return user, nil
}

func (s *authService) tokenResponse(user *models.User) (*dto.AuthResponse, error) {
	token, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.AuthResponse{
		Token:  token,
		UserID: user.ID,
		Role:   string(user.Role),
	}, nil
}
