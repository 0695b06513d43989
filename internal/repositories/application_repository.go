package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobbridge_backend/internal/models"
)

// Sentinel errors surfaced by the atomic apply path. Services translate
// them into the caller-facing taxonomy.
var (
	// ErrDuplicateApplication: a non-withdrawn row already exists for
	// the (student, job) pair.
	ErrDuplicateApplication = errors.New("application already exists for this job")
	// ErrQuotaExhausted: the in-transaction recount found no free slot.
	ErrQuotaExhausted = errors.New("application quota exhausted")
)

// UnlimitedQuota disables the quota guard in ApplyWithQuota.
const UnlimitedQuota = -1

type ApplicationRepository interface {
	FindByID(id string) (*models.Application, error)
	FindByStudentAndJob(studentID, jobID string) (*models.Application, error)
	ListByJob(jobID string) ([]models.Application, error)
	ListByStudent(studentID string) ([]models.Application, error)
	// CountActiveByStudent counts rows whose status is not withdrawn
	// or rejected, i.e. the ones holding a quota slot.
	CountActiveByStudent(studentID string) (int64, error)
	// ApplyWithQuota creates the application, or reactivates the
	// existing withdrawn row, after re-checking the quota inside the
	// same transaction. The student row is locked so two concurrent
	// applies cannot both pass the count. limit = UnlimitedQuota skips
	// the quota check.
	ApplyWithQuota(app *models.Application, limit int) error
	// UpdateStatusIf applies patch only when the row is in one of the
	// given states. Returns rows changed; 0 means the guard failed.
	UpdateStatusIf(id string, from []models.ApplicationStatus, patch map[string]interface{}) (int64, error)
	// HireInReview transitions reviewed -> hired and flags the owning
	// student as hired in the same transaction.
	HireInReview(id, studentID string) (int64, error)
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) FindByID(id string) (*models.Application, error) {
	var app models.Application
	if err := r.db.First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) FindByStudentAndJob(studentID, jobID string) (*models.Application, error) {
	var app models.Application
	err := r.db.First(&app, "student_id = ? AND job_posting_id = ?", studentID, jobID).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) ListByJob(jobID string) ([]models.Application, error) {
	var apps []models.Application
	err := r.db.Where("job_posting_id = ?", jobID).
		Order("created_at ASC").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *applicationRepository) ListByStudent(studentID string) ([]models.Application, error) {
	var apps []models.Application
	err := r.db.Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *applicationRepository) CountActiveByStudent(studentID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Application{}).
		Where("student_id = ? AND status IN ?", studentID, models.ActiveApplicationStatuses).
		Count(&count).Error
	return count, err
}

func (r *applicationRepository) ApplyWithQuota(app *models.Application, limit int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Serialize concurrent applies per student on the student row.
		var student models.Student
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&student, "id = ?", app.StudentID).Error
		if err != nil {
			return err
		}

		if limit != UnlimitedQuota {
			var used int64
			err = tx.Model(&models.Application{}).
				Where("student_id = ? AND status IN ?", app.StudentID, models.ActiveApplicationStatuses).
				Count(&used).Error
			if err != nil {
				return err
			}
			if used >= int64(limit) {
				return ErrQuotaExhausted
			}
		}

		var existing models.Application
		err = tx.First(&existing, "student_id = ? AND job_posting_id = ?",
			app.StudentID, app.JobPostingID).Error
		switch {
		case err == nil:
			if existing.Status != models.ApplicationStatusWithdrawn {
				return ErrDuplicateApplication
			}
			// Re-application reuses the withdrawn row: a fresh
			// admission cycle on the same compound key.
			now := time.Now()
			err = tx.Model(&models.Application{}).
				Where("id = ? AND status = ?", existing.ID, models.ApplicationStatusWithdrawn).
				Updates(map[string]interface{}{
					"status":           models.ApplicationStatusPending,
					"rejection_reason": nil,
					"reviewed_at":      nil,
					"created_at":       now,
				}).Error
			if err != nil {
				return err
			}
			app.ID = existing.ID
			app.Status = models.ApplicationStatusPending
			app.CreatedAt = now
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			app.Status = models.ApplicationStatusPending
			if err := tx.Create(app).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrDuplicateApplication
				}
				return err
			}
			return nil
		default:
			return err
		}
	})
}

func (r *applicationRepository) UpdateStatusIf(id string, from []models.ApplicationStatus, patch map[string]interface{}) (int64, error) {
	result := r.db.Model(&models.Application{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(patch)
	return result.RowsAffected, result.Error
}

func (r *applicationRepository) HireInReview(id, studentID string) (int64, error) {
	var affected int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Application{}).
			Where("id = ? AND status = ?", id, models.ApplicationStatusReviewed).
			Update("status", models.ApplicationStatusHired)
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		if affected == 0 {
			return nil
		}
		return tx.Model(&models.Student{}).
			Where("id = ?", studentID).
			Update("is_hired", true).Error
	})
	return affected, err
}
