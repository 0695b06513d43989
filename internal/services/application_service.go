package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"jobbridge_backend/internal/dispatch"
	"jobbridge_backend/internal/email"
	"jobbridge_backend/internal/models"
	"jobbridge_backend/internal/repositories"
	"jobbridge_backend/internal/services/dto"
	"jobbridge_backend/pkg/apperrors"
)

// ApplicationService is the application state machine. Three actors
// mutate the same row through disjoint transition sets:
//
//	student:  create (pending), withdraw (pending/reviewed), re-apply (withdrawn)
//	admin:    review (pending -> reviewed), reject (pending -> rejected)
//	company:  hire / reject (reviewed only)
//
// The job-close cascade is the single exception where the job actor
// forces application transitions (see JobRepository.CloseWithCascade).
type ApplicationService interface {
	Apply(studentID string, req *dto.ApplyRequest) (*models.Application, error)
	WithdrawByStudent(studentID, applicationID string) (*models.Application, error)
	ReviewByAdmin(applicationID string) (*models.Application, error)
	RejectByAdmin(applicationID, reason string) (*models.Application, error)
	HireByCompany(companyID, applicationID string) (*models.Application, error)
	RejectByCompany(companyID, applicationID, reason string) (*models.Application, error)

	Get(applicationID string) (*models.Application, error)
	ListByStudent(studentID string) ([]models.Application, error)
	// ListForCompany returns only admin-approved rows: a company never
	// sees a pending application, and an admin rejection with a null
	// reviewed_at stays invisible.
	ListForCompany(companyID, jobID string) ([]models.Application, error)
}

type applicationService struct {
	applicationRepo repositories.ApplicationRepository
	jobRepo         repositories.JobRepository
	studentRepo     repositories.StudentRepository
	companyRepo     repositories.CompanyRepository
	userRepo        repositories.UserRepository
	admission       AdmissionService
	dispatcher      *dispatch.Dispatcher
}

func NewApplicationService(
	applicationRepo repositories.ApplicationRepository,
	jobRepo repositories.JobRepository,
	studentRepo repositories.StudentRepository,
	companyRepo repositories.CompanyRepository,
	userRepo repositories.UserRepository,
	admission AdmissionService,
	dispatcher *dispatch.Dispatcher,
) ApplicationService {
	return &applicationService{
		applicationRepo: applicationRepo,
		jobRepo:         jobRepo,
		studentRepo:     studentRepo,
		companyRepo:     companyRepo,
		userRepo:        userRepo,
		admission:       admission,
		dispatcher:      dispatcher,
	}
}

func (s *applicationService) Apply(studentID string, req *dto.ApplyRequest) (*models.Application, error) {
	decision, err := s.admission.CanApply(studentID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		switch decision.Reason {
		case dto.AdmissionReasonNotFound:
			return nil, apperrors.ErrNotFound(gorm.ErrRecordNotFound, "application", "Student not found")
		case dto.AdmissionReasonHired:
			return nil, apperrors.ErrGuardViolation("application", "Hired students cannot apply")
		default:
			return nil, apperrors.ErrLimitExceeded("application",
				"Application limit reached", decision.Used, decision.Limit)
		}
	}

	job, err := s.jobRepo.FindByID(req.JobPostingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound(err, "application", "Job posting not found")
		}
		return nil, apperrors.ErrDatabase(err, "application")
	}
	if job.Status != models.JobStatusApproved {
		return nil, apperrors.ErrGuardViolation("application",
			"Applications are only accepted for published job postings")
	}

	// The quota is re-checked inside the creation transaction so two
	// concurrent applies cannot both take the last slot. The advisory
	// decision above only shapes the error message.
	app := &models.Application{
		StudentID:    studentID,
		JobPostingID: req.JobPostingID,
	}
	limit := decision.Limit
	if limit == QuotaUnlimited {
		limit = repositories.UnlimitedQuota
	}

	if err := s.applicationRepo.ApplyWithQuota(app, limit); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateApplication):
			return nil, apperrors.ErrConflict("application",
				"You have already applied to this job posting")
		case errors.Is(err, repositories.ErrQuotaExhausted):
			return nil, apperrors.ErrLimitExceeded("application",
				"Application limit reached", decision.Used, decision.Limit)
		default:
			return nil, apperrors.ErrDatabase(err, "application")
		}
	}

	event := dispatch.NewEvent("application.created")
	fanOutToAdmins(s.userRepo, event, NotifTypeNewApplication,
		"New application",
		fmt.Sprintf("A student applied to %q", strOr(job.Title, job.ID)),
		"/admin/applications/"+app.ID)
	s.dispatcher.Enqueue(event)

	return app, nil
}

func (s *applicationService) WithdrawByStudent(studentID, applicationID string) (*models.Application, error) {
	app, err := s.Get(applicationID)
	if err != nil {
		return nil, err
	}
	if app.StudentID != studentID {
		return nil, apperrors.ErrGuardViolation("application",
			"Application belongs to another student")
	}

	affected, err := s.applicationRepo.UpdateStatusIf(applicationID,
		[]models.ApplicationStatus{models.ApplicationStatusPending, models.ApplicationStatusReviewed},
		map[string]interface{}{"status": models.ApplicationStatusWithdrawn})
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "application")
	}
	if affected == 0 {
		return nil, s.transitionError(applicationID, "withdraw")
	}

	app.Status = models.ApplicationStatusWithdrawn

	event := dispatch.NewEvent("application.withdrawn")
	fanOutToAdmins(s.userRepo, event, NotifTypeWithdrawalRequested,
		"Application withdrawn",
		fmt.Sprintf("A student withdrew application %s", applicationID),
		"/admin/applications/"+applicationID)
	s.dispatcher.Enqueue(event)

	return app, nil
}

func (s *applicationService) ReviewByAdmin(applicationID string) (*models.Application, error) {
	now := time.Now()
	affected, err := s.applicationRepo.UpdateStatusIf(applicationID,
		[]models.ApplicationStatus{models.ApplicationStatusPending},
		map[string]interface{}{
			"status":           models.ApplicationStatusReviewed,
			"reviewed_at":      now,
			"rejection_reason": nil,
		})
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "application")
	}
	if affected == 0 {
		return nil, s.transitionError(applicationID, "review")
	}

	app, err := s.Get(applicationID)
	if err != nil {
		return nil, err
	}

	s.notifyStudentStatus(app, "under review", "", "application.reviewed")
	return app, nil
}

func (s *applicationService) RejectByAdmin(applicationID, reason string) (*models.Application, error) {
	if reason == "" {
		return nil, apperrors.ValidationError(map[string]string{"reason": "is required"})
	}

	// reviewed_at stays null on an admin rejection: the row never
	// passed review, so it remains invisible to the company.
	affected, err := s.applicationRepo.UpdateStatusIf(applicationID,
		[]models.ApplicationStatus{models.ApplicationStatusPending},
		map[string]interface{}{
			"status":           models.ApplicationStatusRejected,
			"rejection_reason": reason,
		})
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "application")
	}
	if affected == 0 {
		return nil, s.transitionError(applicationID, "reject")
	}

	app, err := s.Get(applicationID)
	if err != nil {
		return nil, err
	}

	s.notifyStudentStatus(app, string(models.ApplicationStatusRejected), reason, "application.rejected")
	return app, nil
}

func (s *applicationService) HireByCompany(companyID, applicationID string) (*models.Application, error) {
	app, err := s.companyActionable(companyID, applicationID)
	if err != nil {
		return nil, err
	}

	// The hired flag flips in the same transaction as the status
	// change. Other active applications are deliberately left alone;
	// isHired only blocks future admissions.
	affected, err := s.applicationRepo.HireInReview(applicationID, app.StudentID)
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "application")
	}
	if affected == 0 {
		return nil, s.transitionError(applicationID, "hire")
	}

	app.Status = models.ApplicationStatusHired

	s.notifyStudentStatus(app, string(models.ApplicationStatusHired), "", "application.hired")
	return app, nil
}

func (s *applicationService) RejectByCompany(companyID, applicationID, reason string) (*models.Application, error) {
	if reason == "" {
		return nil, apperrors.ValidationError(map[string]string{"reason": "is required"})
	}

	app, err := s.companyActionable(companyID, applicationID)
	if err != nil {
		return nil, err
	}

	affected, err := s.applicationRepo.UpdateStatusIf(applicationID,
		[]models.ApplicationStatus{models.ApplicationStatusReviewed},
		map[string]interface{}{
			"status":           models.ApplicationStatusRejected,
			"rejection_reason": reason,
		})
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "application")
	}
	if affected == 0 {
		return nil, s.transitionError(applicationID, "reject")
	}

	app.Status = models.ApplicationStatusRejected
	app.RejectionReason = &reason

	s.notifyStudentStatus(app, string(models.ApplicationStatusRejected), reason, "application.rejected")
	return app, nil
}

func (s *applicationService) Get(applicationID string) (*models.Application, error) {
	app, err := s.applicationRepo.FindByID(applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound(err, "application", "Application not found")
		}
		return nil, apperrors.ErrDatabase(err, "application")
	}
	return app, nil
}

func (s *applicationService) ListByStudent(studentID string) ([]models.Application, error) {
	return s.applicationRepo.ListByStudent(studentID)
}

func (s *applicationService) ListForCompany(companyID, jobID string) ([]models.Application, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound(err, "application", "Job posting not found")
		}
		return nil, apperrors.ErrDatabase(err, "application")
	}
	if job.CompanyID != companyID {
		return nil, apperrors.ErrGuardViolation("application",
			"Job posting belongs to another company")
	}

	apps, err := s.applicationRepo.ListByJob(jobID)
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "application")
	}

	visible := make([]models.Application, 0, len(apps))
	for _, app := range apps {
		if app.ReviewedAt != nil {
			visible = append(visible, app)
		}
	}
	return visible, nil
}

// --- helpers ---

// companyActionable loads the application and verifies the company owns
// the job and the row has passed review. Pending rows surface as guard
// violations, not as invisible.
func (s *applicationService) companyActionable(companyID, applicationID string) (*models.Application, error) {
	app, err := s.Get(applicationID)
	if err != nil {
		return nil, err
	}

	job, err := s.jobRepo.FindByID(app.JobPostingID)
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "application")
	}
	if job.CompanyID != companyID {
		return nil, apperrors.ErrGuardViolation("application",
			"Application belongs to another company's job posting")
	}

	switch app.Status {
	case models.ApplicationStatusReviewed:
		return app, nil
	case models.ApplicationStatusHired, models.ApplicationStatusRejected:
		return nil, apperrors.ErrConflict("application", "Application has already been processed")
	default:
		return nil, apperrors.ErrGuardViolation("application",
			"Companies may only act on reviewed applications")
	}
}

// transitionError distinguishes "already done" from "not allowed" after
// a guarded update matched no rows.
func (s *applicationService) transitionError(applicationID, action string) error {
	app, err := s.applicationRepo.FindByID(applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound(err, "application", "Application not found")
		}
		return apperrors.ErrDatabase(err, "application")
	}
	switch app.Status {
	case models.ApplicationStatusHired, models.ApplicationStatusRejected, models.ApplicationStatusWithdrawn:
		return apperrors.ErrConflict("application",
			fmt.Sprintf("Application is already %s", app.Status))
	default:
		return apperrors.ErrGuardViolation("application",
			fmt.Sprintf("Cannot %s an application in status %q", action, app.Status))
	}
}

func (s *applicationService) notifyStudentStatus(app *models.Application, status, reason, kind string) {
	student, err := s.studentRepo.FindByID(app.StudentID)
	if err != nil {
		return
	}

	jobTitle := app.JobPostingID
	if job, jobErr := s.jobRepo.FindByID(app.JobPostingID); jobErr == nil {
		jobTitle = strOr(job.Title, job.ID)
	}

	message := fmt.Sprintf("Your application for %q is now %s", jobTitle, status)
	if reason != "" {
		message += ": " + reason
	}

	event := dispatch.NewEvent(kind)
	event.Notify(dispatch.NotificationSpec{
		RecipientID:   student.UserID,
		RecipientType: models.UserRoleStudent,
		Type:          NotifTypeApplicationStatus,
		Title:         "Application status updated",
		Message:       message,
		Link:          "/applications/" + app.ID,
	})

	if user, userErr := s.userRepo.FindByID(student.UserID); userErr == nil {
		event.WithEmail(dispatch.EmailSpec{
			To:          user.Email,
			UserID:      user.ID,
			Type:        email.TypeApplicationStatus,
			TemplateKey: "application_status",
			Data: email.ApplicationStatusData{
				TemplateData: email.TemplateData{UserName: student.FullName},
				JobTitle:     jobTitle,
				Status:       status,
				Reason:       reason,
			},
		})
	}

	s.dispatcher.Enqueue(event)
}
