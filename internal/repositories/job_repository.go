package repositories

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobbridge_backend/internal/models"
)

// CloseResult reports a close-with-cascade outcome: the applications
// that were bulk-rejected, for post-commit side-effect dispatch.
type CloseResult struct {
	Job      *models.JobPosting
	Rejected []models.Application
}

type JobRepository interface {
	Create(job *models.JobPosting) error
	FindByID(id string) (*models.JobPosting, error)
	ListByCompany(companyID string) ([]models.JobPosting, error)
	ListByStatus(status models.JobStatus) ([]models.JobPosting, error)
	// Save persists draft content edits.
	Save(job *models.JobPosting) error
	// UpdateStatusIf applies patch only when the row is currently in
	// one of the given states. Returns the number of rows changed; 0
	// means the guard failed and nothing was written.
	UpdateStatusIf(id string, from []models.JobStatus, patch map[string]interface{}) (int64, error)
	// CloseWithCascade atomically closes the job and bulk-rejects its
	// pending/reviewed applications with the given reason. Returns nil
	// result with no error when the close guard fails.
	CloseWithCascade(id string, reason string) (*CloseResult, error)
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(job *models.JobPosting) error {
	return r.db.Create(job).Error
}

func (r *jobRepository) FindByID(id string) (*models.JobPosting, error) {
	var job models.JobPosting
	if err := r.db.First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) ListByCompany(companyID string) ([]models.JobPosting, error) {
	var jobs []models.JobPosting
	err := r.db.Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *jobRepository) ListByStatus(status models.JobStatus) ([]models.JobPosting, error) {
	var jobs []models.JobPosting
	err := r.db.Where("status = ?", status).
		Order("created_at ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *jobRepository) Save(job *models.JobPosting) error {
	return r.db.Save(job).Error
}

func (r *jobRepository) UpdateStatusIf(id string, from []models.JobStatus, patch map[string]interface{}) (int64, error) {
	result := r.db.Model(&models.JobPosting{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(patch)
	return result.RowsAffected, result.Error
}

func (r *jobRepository) CloseWithCascade(id string, reason string) (*CloseResult, error) {
	var res CloseResult

	err := r.db.Transaction(func(tx *gorm.DB) error {
		closed := tx.Model(&models.JobPosting{}).
			Where("id = ? AND status IN ?", id, models.ClosableJobStatuses).
			Update("status", models.JobStatusClosed)
		if closed.Error != nil {
			return closed.Error
		}
		if closed.RowsAffected == 0 {
			// Guard failed; the caller decides between conflict and
			// guard violation based on the current row state.
			return nil
		}

		var affected []models.Application
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("job_posting_id = ? AND status IN ?", id, models.CascadableApplicationStatuses).
			Find(&affected).Error
		if err != nil {
			return err
		}

		if len(affected) > 0 {
			err = tx.Model(&models.Application{}).
				Where("job_posting_id = ? AND status IN ?", id, models.CascadableApplicationStatuses).
				Updates(map[string]interface{}{
					"status":           models.ApplicationStatusRejected,
					"rejection_reason": reason,
				}).Error
			if err != nil {
				return err
			}
		}

		var job models.JobPosting
		if err := tx.First(&job, "id = ?", id).Error; err != nil {
			return err
		}

		res.Job = &job
		res.Rejected = affected
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Job == nil {
		return nil, nil
	}
	return &res, nil
}
