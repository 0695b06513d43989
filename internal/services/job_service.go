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
	"jobbridge_backend/internal/validator"
	"jobbridge_backend/pkg/apperrors"
)

// closedJobRejectionReason is the cascade reason stamped on every
// pending/reviewed application when its job closes.
const closedJobRejectionReason = "Job posting has been closed"

// JobService is the job-posting state machine:
// draft -> pending -> {approved, rejected}; approved <-> unpublished;
// {approved, unpublished, pending} -> closed. Closed is terminal and a
// draft cannot close directly.
type JobService interface {
	CreateDraft(companyID string, req *dto.DraftJobRequest) (*models.JobPosting, error)
	UpdateDraft(companyID, jobID string, req *dto.DraftJobRequest) (*models.JobPosting, error)
	Submit(companyID, jobID string) (*models.JobPosting, error)
	Approve(jobID string) (*models.JobPosting, error)
	Reject(jobID, reason string) (*models.JobPosting, error)
	Unpublish(companyID, jobID string) (*models.JobPosting, error)
	Republish(companyID, jobID string) (*models.JobPosting, error)
	// Close is available to the owning company and to admins; pass an
	// empty companyID for the admin path.
	Close(companyID, jobID string) (*models.JobPosting, error)

	Get(jobID string) (*models.JobPosting, error)
	ListByCompany(companyID string) ([]models.JobPosting, error)
	ListPendingReview() ([]models.JobPosting, error)
}

type jobService struct {
	jobRepo     repositories.JobRepository
	companyRepo repositories.CompanyRepository
	studentRepo repositories.StudentRepository
	userRepo    repositories.UserRepository
	validate    *validator.Validator
	dispatcher  *dispatch.Dispatcher
}

func NewJobService(
	jobRepo repositories.JobRepository,
	companyRepo repositories.CompanyRepository,
	studentRepo repositories.StudentRepository,
	userRepo repositories.UserRepository,
	validate *validator.Validator,
	dispatcher *dispatch.Dispatcher,
) JobService {
	return &jobService{
		jobRepo:     jobRepo,
		companyRepo: companyRepo,
		studentRepo: studentRepo,
		userRepo:    userRepo,
		validate:    validate,
		dispatcher:  dispatcher,
	}
}

// submitCheck is the full field validation gating the submit
// transition. Drafts are exempt; this struct is only populated and
// checked when the company submits.
type submitCheck struct {
	Title        string    `json:"title" validate:"required,min=5"`
	Description  string    `json:"description" validate:"required,min=50"`
	Requirements string    `json:"requirements" validate:"required"`
	Location     string    `json:"location" validate:"required"`
	JobType      string    `json:"job_type" validate:"required"`
	Deadline     time.Time `json:"deadline" validate:"required,future-date"`
}

func (s *jobService) CreateDraft(companyID string, req *dto.DraftJobRequest) (*models.JobPosting, error) {
	if _, err := s.company(companyID); err != nil {
		return nil, err
	}

	job := &models.JobPosting{
		CompanyID:    companyID,
		Title:        req.Title,
		Description:  req.Description,
		Requirements: req.Requirements,
		Location:     req.Location,
		JobType:      req.JobType,
		SalaryMin:    req.SalaryMin,
		SalaryMax:    req.SalaryMax,
		Deadline:     req.Deadline,
		Status:       models.JobStatusDraft,
	}

	if err := s.jobRepo.Create(job); err != nil {
		return nil, apperrors.ErrDatabase(err, "job")
	}
	return job, nil
}

func (s *jobService) UpdateDraft(companyID, jobID string, req *dto.DraftJobRequest) (*models.JobPosting, error) {
	job, err := s.ownedJob(companyID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusDraft {
		return nil, apperrors.ErrGuardViolation("job", "Only drafts can be edited freely")
	}

	job.Title = req.Title
	job.Description = req.Description
	job.Requirements = req.Requirements
	job.Location = req.Location
	job.JobType = req.JobType
	job.SalaryMin = req.SalaryMin
	job.SalaryMax = req.SalaryMax
	job.Deadline = req.Deadline

	if err := s.jobRepo.Save(job); err != nil {
		return nil, apperrors.ErrDatabase(err, "job")
	}
	return job, nil
}

func (s *jobService) Submit(companyID, jobID string) (*models.JobPosting, error) {
	job, err := s.ownedJob(companyID, jobID)
	if err != nil {
		return nil, err
	}

	if err := s.validateForSubmit(job); err != nil {
		return nil, err
	}

	affected, err := s.jobRepo.UpdateStatusIf(jobID,
		[]models.JobStatus{models.JobStatusDraft},
		map[string]interface{}{"status": models.JobStatusPending})
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "job")
	}
	if affected == 0 {
		return nil, s.transitionError(jobID, "submit", models.JobStatusDraft)
	}

	job.Status = models.JobStatusPending

	event := dispatch.NewEvent("job.submitted")
	fanOutToAdmins(s.userRepo, event, NotifTypeNewJobPending,
		"New job posting pending review",
		fmt.Sprintf("Job posting %q is awaiting approval", strOr(job.Title, jobID)),
		"/admin/jobs/"+jobID)
	s.dispatcher.Enqueue(event)

	return job, nil
}

func (s *jobService) validateForSubmit(job *models.JobPosting) error {
	check := submitCheck{}
	if job.Title != nil {
		check.Title = *job.Title
	}
	if job.Description != nil {
		check.Description = *job.Description
	}
	if job.Requirements != nil {
		check.Requirements = *job.Requirements
	}
	if job.Location != nil {
		check.Location = *job.Location
	}
	if job.JobType != nil {
		check.JobType = *job.JobType
	}
	if job.Deadline != nil {
		check.Deadline = *job.Deadline
	}

	fieldErrors := map[string]string{}
	if err := s.validate.Validate(check); err != nil {
		var vErr *validator.ValidationError
		if !errors.As(err, &vErr) {
			return apperrors.InternalError(err)
		}
		fieldErrors = vErr.Errors
	}

	// Salary range checks sit outside the tag rules because both
	// bounds are optional in a draft but required together on submit.
	switch {
	case job.SalaryMin == nil || job.SalaryMax == nil:
		fieldErrors["salary_range"] = "both salary bounds are required"
	case *job.SalaryMax < *job.SalaryMin:
		fieldErrors["salary_range"] = "maximum salary cannot be less than minimum"
	}

	if len(fieldErrors) > 0 {
		return apperrors.ValidationError(fieldErrors)
	}
	return nil
}

func (s *jobService) Approve(jobID string) (*models.JobPosting, error) {
	now := time.Now()
	affected, err := s.jobRepo.UpdateStatusIf(jobID,
		[]models.JobStatus{models.JobStatusPending},
		map[string]interface{}{
			"status":           models.JobStatusApproved,
			"approved_at":      now,
			"rejection_reason": nil,
		})
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "job")
	}
	if affected == 0 {
		return nil, s.transitionError(jobID, "approve", models.JobStatusPending)
	}

	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "job")
	}

	s.notifyCompanyJobStatus(job, "approved", "")
	return job, nil
}

func (s *jobService) Reject(jobID, reason string) (*models.JobPosting, error) {
	if reason == "" {
		return nil, apperrors.ValidationError(map[string]string{"reason": "is required"})
	}

	affected, err := s.jobRepo.UpdateStatusIf(jobID,
		[]models.JobStatus{models.JobStatusPending},
		map[string]interface{}{
			"status":           models.JobStatusRejected,
			"rejection_reason": reason,
			"approved_at":      nil,
		})
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "job")
	}
	if affected == 0 {
		return nil, s.transitionError(jobID, "reject", models.JobStatusPending)
	}

	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "job")
	}

	s.notifyCompanyJobStatus(job, "rejected", reason)
	return job, nil
}

func (s *jobService) Unpublish(companyID, jobID string) (*models.JobPosting, error) {
	if _, err := s.ownedJob(companyID, jobID); err != nil {
		return nil, err
	}

	affected, err := s.jobRepo.UpdateStatusIf(jobID,
		[]models.JobStatus{models.JobStatusApproved},
		map[string]interface{}{"status": models.JobStatusUnpublished})
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "job")
	}
	if affected == 0 {
		return nil, s.transitionError(jobID, "unpublish", models.JobStatusApproved)
	}
	return s.jobRepo.FindByID(jobID)
}

func (s *jobService) Republish(companyID, jobID string) (*models.JobPosting, error) {
	if _, err := s.ownedJob(companyID, jobID); err != nil {
		return nil, err
	}

	// Republishing re-enters the admin queue with a clean slate.
	affected, err := s.jobRepo.UpdateStatusIf(jobID,
		[]models.JobStatus{models.JobStatusUnpublished},
		map[string]interface{}{
			"status":           models.JobStatusPending,
			"approved_at":      nil,
			"rejection_reason": nil,
		})
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "job")
	}
	if affected == 0 {
		return nil, s.transitionError(jobID, "republish", models.JobStatusUnpublished)
	}

	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "job")
	}

	event := dispatch.NewEvent("job.republished")
	fanOutToAdmins(s.userRepo, event, NotifTypeNewJobPending,
		"Job posting pending review",
		fmt.Sprintf("Job posting %q was republished and awaits approval", strOr(job.Title, jobID)),
		"/admin/jobs/"+jobID)
	s.dispatcher.Enqueue(event)

	return job, nil
}

func (s *jobService) Close(companyID, jobID string) (*models.JobPosting, error) {
	if companyID != "" {
		if _, err := s.ownedJob(companyID, jobID); err != nil {
			return nil, err
		}
	}

	result, err := s.jobRepo.CloseWithCascade(jobID, closedJobRejectionReason)
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "job")
	}
	if result == nil {
		return nil, s.closeError(jobID)
	}

	// Side effects run strictly after the cascade has committed. One
	// event per rejected application so each carries its own email.
	for _, app := range result.Rejected {
		s.notifyCascadeRejection(result.Job, app)
	}

	event := dispatch.NewEvent("job.closed")
	s.notifyCompany(event, result.Job, NotifTypeJobStatus,
		"Job posting closed",
		fmt.Sprintf("Your job posting %q is now closed; %d open application(s) were rejected",
			strOr(result.Job.Title, jobID), len(result.Rejected)))
	s.dispatcher.Enqueue(event)

	return result.Job, nil
}

func (s *jobService) Get(jobID string) (*models.JobPosting, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound(err, "job", "Job posting not found")
		}
		return nil, apperrors.ErrDatabase(err, "job")
	}
	return job, nil
}

func (s *jobService) ListByCompany(companyID string) ([]models.JobPosting, error) {
	return s.jobRepo.ListByCompany(companyID)
}

func (s *jobService) ListPendingReview() ([]models.JobPosting, error) {
	return s.jobRepo.ListByStatus(models.JobStatusPending)
}

// --- helpers ---

func (s *jobService) company(companyID string) (*models.Company, error) {
	company, err := s.companyRepo.FindByID(companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound(err, "job", "Company not found")
		}
		return nil, apperrors.ErrDatabase(err, "job")
	}
	return company, nil
}

func (s *jobService) ownedJob(companyID, jobID string) (*models.JobPosting, error) {
	job, err := s.Get(jobID)
	if err != nil {
		return nil, err
	}
	if job.CompanyID != companyID {
		return nil, apperrors.ErrGuardViolation("job", "Job posting belongs to another company")
	}
	return job, nil
}

// transitionError distinguishes "already done" from "not allowed" after
// a guarded update matched no rows.
func (s *jobService) transitionError(jobID, action string, want models.JobStatus) error {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound(err, "job", "Job posting not found")
		}
		return apperrors.ErrDatabase(err, "job")
	}
	return apperrors.ErrGuardViolation("job",
		fmt.Sprintf("Cannot %s a job posting in status %q (requires %q)", action, job.Status, want))
}

func (s *jobService) closeError(jobID string) error {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound(err, "job", "Job posting not found")
		}
		return apperrors.ErrDatabase(err, "job")
	}
	if job.Status == models.JobStatusClosed {
		return apperrors.ErrConflict("job", "Job posting is already closed")
	}
	return apperrors.ErrGuardViolation("job",
		fmt.Sprintf("Cannot close a job posting in status %q", job.Status))
}

// notifyCompany appends a notification for the posting's owning company
// and, when the owner's user record resolves, attaches the job-status
// email to the event.
func (s *jobService) notifyCompany(event *dispatch.Event, job *models.JobPosting, notifType, title, message string) {
	company, err := s.companyRepo.FindByID(job.CompanyID)
	if err != nil {
		return
	}

	event.Notify(dispatch.NotificationSpec{
		RecipientID:   company.UserID,
		RecipientType: models.UserRoleCompany,
		Type:          notifType,
		Title:         title,
		Message:       message,
		Link:          "/jobs/" + job.ID,
	})
}

func (s *jobService) notifyCompanyJobStatus(job *models.JobPosting, status, reason string) {
	company, err := s.companyRepo.FindByID(job.CompanyID)
	if err != nil {
		return
	}
	user, err := s.userRepo.FindByID(company.UserID)
	if err != nil {
		return
	}

	title := fmt.Sprintf("Job posting %s", status)
	message := fmt.Sprintf("Your job posting %q was %s", strOr(job.Title, job.ID), status)
	if reason != "" {
		message += ": " + reason
	}

	event := dispatch.NewEvent("job." + status)
	event.Notify(dispatch.NotificationSpec{
		RecipientID:   company.UserID,
		RecipientType: models.UserRoleCompany,
		Type:          NotifTypeJobStatus,
		Title:         title,
		Message:       message,
		Link:          "/jobs/" + job.ID,
	})
	event.WithEmail(dispatch.EmailSpec{
		To:          user.Email,
		UserID:      user.ID,
		Type:        email.TypeJobStatus,
		TemplateKey: "job_status",
		Data: email.JobStatusData{
			TemplateData: email.TemplateData{UserName: company.Name},
			JobTitle:     strOr(job.Title, job.ID),
			Status:       status,
			Reason:       reason,
		},
	})
	s.dispatcher.Enqueue(event)
}

func (s *jobService) notifyCascadeRejection(job *models.JobPosting, app models.Application) {
	student, err := s.studentRepo.FindByID(app.StudentID)
	if err != nil {
		return
	}

	event := dispatch.NewEvent("application.rejected_by_close")
	event.Notify(dispatch.NotificationSpec{
		RecipientID:   student.UserID,
		RecipientType: models.UserRoleStudent,
		Type:          NotifTypeApplicationStatus,
		Title:         "Application rejected",
		Message: fmt.Sprintf("Your application for %q was rejected: %s",
			strOr(job.Title, job.ID), closedJobRejectionReason),
		Link: "/applications/" + app.ID,
	})

	if user, err := s.userRepo.FindByID(student.UserID); err == nil {
		event.WithEmail(dispatch.EmailSpec{
			To:          user.Email,
			UserID:      user.ID,
			Type:        email.TypeApplicationStatus,
			TemplateKey: "application_status",
			Data: email.ApplicationStatusData{
				TemplateData: email.TemplateData{UserName: student.FullName},
				JobTitle:     strOr(job.Title, job.ID),
				Status:       string(models.ApplicationStatusRejected),
				Reason:       closedJobRejectionReason,
			},
		})
	}

	s.dispatcher.Enqueue(event)
}
