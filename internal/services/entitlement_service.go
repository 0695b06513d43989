package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"jobbridge_backend/internal/cache"
	"jobbridge_backend/internal/logger"
	"jobbridge_backend/internal/models"
	"jobbridge_backend/internal/repositories"
	"jobbridge_backend/internal/services/dto"
	"jobbridge_backend/pkg/apperrors"
)

// QuotaUnlimited marks an entitlement without an application cap.
const QuotaUnlimited = -1

// EntitlementConfig is the engine's tunable surface.
type EntitlementConfig struct {
	FreeTierMaxApplications int
	GracePeriodDays         int
}

// EntitlementService computes a student's current subscription state
// and the resulting application quota. Resolve is idempotent and safe
// to call concurrently; its only write is the lazy, monotonic flip of
// a lapsed subscription to expired.
type EntitlementService interface {
	Resolve(studentID string) (*dto.Entitlement, error)
}

type entitlementService struct {
	studentRepo      repositories.StudentRepository
	subscriptionRepo repositories.SubscriptionRepository
	planCache        *cache.TTL[string, *models.SubscriptionPlan]
	cfg              EntitlementConfig
	now              func() time.Time
}

func NewEntitlementService(
	studentRepo repositories.StudentRepository,
	subscriptionRepo repositories.SubscriptionRepository,
	planCache *cache.TTL[string, *models.SubscriptionPlan],
	cfg EntitlementConfig,
) EntitlementService {
	if cfg.FreeTierMaxApplications <= 0 {
		cfg.FreeTierMaxApplications = 2
	}
	if cfg.GracePeriodDays <= 0 {
		cfg.GracePeriodDays = 3
	}
	return &entitlementService{
		studentRepo:      studentRepo,
		subscriptionRepo: subscriptionRepo,
		planCache:        planCache,
		cfg:              cfg,
		now:              time.Now,
	}
}

func (s *entitlementService) Resolve(studentID string) (*dto.Entitlement, error) {
	student, err := s.studentRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound(err, "entitlement", "Student not found")
		}
		return nil, apperrors.ErrDatabase(err, "entitlement")
	}

	if student.CurrentSubscriptionID == nil {
		return s.freeEntitlement(), nil
	}

	sub, err := s.subscriptionRepo.FindByID(*student.CurrentSubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Dangling reference: self-heal and fall back to free.
			if healErr := s.studentRepo.ClearCurrentSubscription(student.ID); healErr != nil {
				logger.WithError(healErr).Warn("failed to clear dangling subscription reference",
					"student_id", student.ID)
			}
			return s.freeEntitlement(), nil
		}
		return nil, apperrors.ErrDatabase(err, "entitlement")
	}

	tier := student.SubscriptionTier
	if plan, planErr := s.plan(sub.PlanID); planErr == nil {
		tier = plan.Tier
	}

	// Cancellation is terminal regardless of dates.
	if sub.Status == models.SubscriptionStatusCancelled {
		return &dto.Entitlement{
			Tier:          string(tier),
			Status:        string(models.SubscriptionStatusCancelled),
			IsActive:      false,
			InGracePeriod: false,
			Quota:         s.cfg.FreeTierMaxApplications,
		}, nil
	}

	now := s.now()
	gracePeriodEnd := sub.EndDate.AddDate(0, 0, s.cfg.GracePeriodDays)
	inGracePeriod := now.After(sub.EndDate) && !now.After(gracePeriodEnd)
	isActive := sub.Status == models.SubscriptionStatusActive &&
		(!sub.EndDate.Before(now) || inGracePeriod)

	status := sub.Status
	if !isActive && sub.Status != models.SubscriptionStatusExpired && sub.EndDate.Before(now) {
		// Lazy expiry: discovered on read, never swept here. The write
		// is guarded on status=active so concurrent readers are safe
		// and expired never reverts.
		if err := s.subscriptionRepo.MarkExpired(sub.ID); err != nil {
			logger.WithError(err).Warn("lazy subscription expiry failed", "subscription_id", sub.ID)
		} else {
			status = models.SubscriptionStatusExpired
		}
	}

	quota := s.cfg.FreeTierMaxApplications
	if isActive {
		plan, planErr := s.plan(sub.PlanID)
		switch {
		case planErr != nil:
			// Plan unavailable: fall back to the free default rather
			// than failing the admission path.
			logger.WithError(planErr).Warn("plan lookup failed, using free-tier quota",
				"plan_id", sub.PlanID)
		case plan.MaxApplications == nil:
			quota = QuotaUnlimited
		default:
			quota = *plan.MaxApplications
		}
	}

	return &dto.Entitlement{
		Tier:          string(tier),
		Status:        string(status),
		IsActive:      isActive,
		InGracePeriod: inGracePeriod,
		Quota:         quota,
	}, nil
}

func (s *entitlementService) freeEntitlement() *dto.Entitlement {
	return &dto.Entitlement{
		Tier:          string(models.SubscriptionTierFree),
		Status:        "free",
		IsActive:      true,
		InGracePeriod: false,
		Quota:         s.cfg.FreeTierMaxApplications,
	}
}

// plan resolves a plan through the TTL cache.
func (s *entitlementService) plan(planID string) (*models.SubscriptionPlan, error) {
	if s.planCache != nil {
		if plan, ok := s.planCache.Get(planID); ok {
			return plan, nil
		}
	}

	plan, err := s.subscriptionRepo.FindPlanByID(planID)
	if err != nil {
		return nil, err
	}
	if s.planCache != nil {
		s.planCache.Set(planID, plan)
	}
	return plan, nil
}
