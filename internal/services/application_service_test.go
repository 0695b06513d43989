package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobbridge_backend/internal/dispatch"
	"jobbridge_backend/internal/models"
	"jobbridge_backend/internal/services/dto"
	"jobbridge_backend/pkg/apperrors"
)

type applicationFixture struct {
	students   *fakeStudentRepo
	users      *fakeUserRepo
	companies  *fakeCompanyRepo
	jobs       *fakeJobRepo
	apps       *fakeApplicationRepo
	dispatcher *dispatch.Dispatcher
	sink       *sinkRecorder
	mail       *mailRecorder
	svc        ApplicationService
}

// newApplicationFixture seeds one student, one company with an approved
// job, and an admin user.
func newApplicationFixture(t *testing.T, quota int) *applicationFixture {
	t.Helper()

	students := newFakeStudentRepo()
	users := newFakeUserRepo()
	companies := newFakeCompanyRepo()
	apps := newFakeApplicationRepo(students)
	jobs := newFakeJobRepo(apps)

	users.Create(&models.User{Email: "student@test.io", Role: models.UserRoleStudent})
	users.Create(&models.User{Email: "admin@test.io", Role: models.UserRoleAdmin})
	users.Create(&models.User{Email: "company@test.io", Role: models.UserRoleCompany})

	students.Create(&models.Student{UserID: "user-1", FullName: "Ada"})
	companies.Create(&models.Company{UserID: "user-3", Name: "Acme", Status: models.CompanyStatusApproved})
	jobs.Create(&models.JobPosting{
		CompanyID: "company-1",
		Title:     strPtr("Backend engineer"),
		Status:    models.JobStatusApproved,
	})

	dispatcher, sink, mail := newTestDispatcher()
	t.Cleanup(func() { dispatcher.Stop(time.Second) })

	admission := NewAdmissionService(students, apps, freeEntitlementStub(quota))
	svc := NewApplicationService(apps, jobs, students, companies, users, admission, dispatcher)

	return &applicationFixture{
		students: students, users: users, companies: companies,
		jobs: jobs, apps: apps,
		dispatcher: dispatcher, sink: sink, mail: mail, svc: svc,
	}
}

func TestApply_CreatesPendingApplication(t *testing.T) {
	f := newApplicationFixture(t, 2)

	app, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, app.Status)
	assert.Equal(t, "student-1", app.StudentID)

	f.dispatcher.Stop(time.Second)
	created := f.sink.all()
	require.Len(t, created, 1)
	assert.Equal(t, "user-2", created[0].RecipientID) // admin fanout
}

func TestApply_RejectsUnpublishedJob(t *testing.T) {
	f := newApplicationFixture(t, 2)
	f.jobs.Create(&models.JobPosting{
		CompanyID: "company-1",
		Title:     strPtr("Hidden"),
		Status:    models.JobStatusUnpublished,
	})

	_, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-2"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeGuardViolation, apperrors.CodeOf(err))
}

func TestApply_DuplicateIsConflict(t *testing.T) {
	f := newApplicationFixture(t, 5)

	_, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.NoError(t, err)

	_, err = f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
}

func TestApply_QuotaExhaustedIsLimitExceeded(t *testing.T) {
	f := newApplicationFixture(t, 1)
	f.jobs.Create(&models.JobPosting{
		CompanyID: "company-1",
		Title:     strPtr("Second job"),
		Status:    models.JobStatusApproved,
	})

	_, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.NoError(t, err)

	_, err = f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-2"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeLimitExceeded, apperrors.CodeOf(err))
}

func TestApply_HiredStudentIsBlocked(t *testing.T) {
	f := newApplicationFixture(t, 2)
	f.students.SetHired("student-1")

	_, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeGuardViolation, apperrors.CodeOf(err))
}

func TestWithdraw_ThenReapplyReusesRow(t *testing.T) {
	f := newApplicationFixture(t, 2)

	first, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.NoError(t, err)

	withdrawn, err := f.svc.WithdrawByStudent("student-1", first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusWithdrawn, withdrawn.Status)

	second, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.ApplicationStatusPending, second.Status)
	assert.Nil(t, second.ReviewedAt)
	assert.Nil(t, second.RejectionReason)
}

func TestWithdraw_OtherStudentsApplicationIsGuarded(t *testing.T) {
	f := newApplicationFixture(t, 2)
	f.students.Create(&models.Student{UserID: "user-9", FullName: "Eve"})

	app, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.NoError(t, err)

	_, err = f.svc.WithdrawByStudent("student-2", app.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeGuardViolation, apperrors.CodeOf(err))
}

func TestWithdraw_TerminalStatusIsConflict(t *testing.T) {
	f := newApplicationFixture(t, 2)

	app, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.NoError(t, err)

	_, err = f.svc.WithdrawByStudent("student-1", app.ID)
	require.NoError(t, err)

	// Second withdraw hits the withdrawn row.
	_, err = f.svc.WithdrawByStudent("student-1", app.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
}

func TestReviewByAdmin_SetsReviewedAt(t *testing.T) {
	f := newApplicationFixture(t, 2)

	app, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.NoError(t, err)

	reviewed, err := f.svc.ReviewByAdmin(app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusReviewed, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedAt)
}

func TestRejectByAdmin_LeavesReviewedAtNull(t *testing.T) {
	f := newApplicationFixture(t, 2)

	app, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.NoError(t, err)

	rejected, err := f.svc.RejectByAdmin(app.ID, "not a fit")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusRejected, rejected.Status)
	assert.Nil(t, rejected.ReviewedAt)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "not a fit", *rejected.RejectionReason)
}

func TestRejectByAdmin_RequiresReason(t *testing.T) {
	f := newApplicationFixture(t, 2)

	app, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.NoError(t, err)

	_, err = f.svc.RejectByAdmin(app.ID, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))
}

func TestHireByCompany_FlipsHiredFlag(t *testing.T) {
	f := newApplicationFixture(t, 2)

	app, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.NoError(t, err)
	_, err = f.svc.ReviewByAdmin(app.ID)
	require.NoError(t, err)

	hired, err := f.svc.HireByCompany("company-1", app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusHired, hired.Status)

	student, _ := f.students.FindByID("student-1")
	assert.True(t, student.IsHired)
}

func TestHireByCompany_PendingIsGuarded(t *testing.T) {
	f := newApplicationFixture(t, 2)

	app, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.NoError(t, err)

	_, err = f.svc.HireByCompany("company-1", app.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeGuardViolation, apperrors.CodeOf(err))
}

func TestHireByCompany_AlreadyProcessedIsConflict(t *testing.T) {
	f := newApplicationFixture(t, 2)

	app, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.NoError(t, err)
	_, err = f.svc.ReviewByAdmin(app.ID)
	require.NoError(t, err)
	_, err = f.svc.HireByCompany("company-1", app.ID)
	require.NoError(t, err)

	_, err = f.svc.HireByCompany("company-1", app.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
}

func TestHireByCompany_ForeignJobIsGuarded(t *testing.T) {
	f := newApplicationFixture(t, 2)
	f.companies.Create(&models.Company{UserID: "user-8", Name: "Rival"})

	app, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.NoError(t, err)
	_, err = f.svc.ReviewByAdmin(app.ID)
	require.NoError(t, err)

	_, err = f.svc.HireByCompany("company-2", app.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeGuardViolation, apperrors.CodeOf(err))
}

func TestRejectByCompany_ReviewedOnly(t *testing.T) {
	f := newApplicationFixture(t, 2)

	app, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.NoError(t, err)
	_, err = f.svc.ReviewByAdmin(app.ID)
	require.NoError(t, err)

	rejected, err := f.svc.RejectByCompany("company-1", app.ID, "position filled")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "position filled", *rejected.RejectionReason)
}

func TestListForCompany_HidesUnreviewedRows(t *testing.T) {
	f := newApplicationFixture(t, 5)
	f.students.Create(&models.Student{UserID: "user-9", FullName: "Eve"})

	first, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.NoError(t, err)
	_, err = f.svc.Apply("student-2", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.NoError(t, err)

	// Only the first application passes review; an admin rejection of
	// the second leaves reviewed_at null, keeping it invisible.
	_, err = f.svc.ReviewByAdmin(first.ID)
	require.NoError(t, err)

	visible, err := f.svc.ListForCompany("company-1", "job-1")
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, first.ID, visible[0].ID)
}

func TestHire_DoesNotTouchOtherApplications(t *testing.T) {
	f := newApplicationFixture(t, 5)
	f.jobs.Create(&models.JobPosting{
		CompanyID: "company-1",
		Title:     strPtr("Second job"),
		Status:    models.JobStatusApproved,
	})

	first, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.NoError(t, err)
	second, err := f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-2"})
	require.NoError(t, err)

	_, err = f.svc.ReviewByAdmin(first.ID)
	require.NoError(t, err)
	_, err = f.svc.HireByCompany("company-1", first.ID)
	require.NoError(t, err)

	// The sibling application stays pending; only future admissions
	// are blocked.
	other, err := f.svc.Get(second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, other.Status)

	_, err = f.svc.Apply("student-1", &dto.ApplyRequest{JobPostingID: "job-1"})
	require.Error(t, err)
}
