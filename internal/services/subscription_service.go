package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"jobbridge_backend/internal/cache"
	"jobbridge_backend/internal/dispatch"
	"jobbridge_backend/internal/email"
	"jobbridge_backend/internal/models"
	"jobbridge_backend/internal/repositories"
	"jobbridge_backend/internal/services/dto"
	"jobbridge_backend/pkg/apperrors"
)

// SubscriptionService manages the paid-plan lifecycle. A student's old
// subscription row is superseded (cancelled), never deleted, when a new
// plan is purchased; the free tier is represented by a null reference.
type SubscriptionService interface {
	Purchase(studentID, planID string) (*models.Subscription, error)
	Cancel(studentID string) error
	Renew(studentID string) (*models.Subscription, error)
	Current(studentID string) (*models.Subscription, error)

	ListPlans() ([]models.SubscriptionPlan, error)
	CreatePlan(req *dto.CreatePlanRequest) (*models.SubscriptionPlan, error)

	// NotifyExpiring is called by the background sweep for
	// subscriptions approaching their end date.
	NotifyExpiring(sub *models.Subscription, daysRemaining int)
}

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	studentRepo      repositories.StudentRepository
	userRepo         repositories.UserRepository
	planCache        *cache.TTL[string, *models.SubscriptionPlan]
	dispatcher       *dispatch.Dispatcher
}

func NewSubscriptionService(
	subscriptionRepo repositories.SubscriptionRepository,
	studentRepo repositories.StudentRepository,
	userRepo repositories.UserRepository,
	planCache *cache.TTL[string, *models.SubscriptionPlan],
	dispatcher *dispatch.Dispatcher,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		studentRepo:      studentRepo,
		userRepo:         userRepo,
		planCache:        planCache,
		dispatcher:       dispatcher,
	}
}

func (s *subscriptionService) Purchase(studentID, planID string) (*models.Subscription, error) {
	student, err := s.studentRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound(err, "subscription", "Student not found")
		}
		return nil, apperrors.ErrDatabase(err, "subscription")
	}

	plan, err := s.subscriptionRepo.FindPlanByID(planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound(err, "subscription", "Plan not found")
		}
		return nil, apperrors.ErrDatabase(err, "subscription")
	}
	if !plan.IsActive {
		return nil, apperrors.ErrConflict("subscription", "Plan is no longer offered")
	}

	// Supersede the current subscription, if any. Exactly one row is
	// current per student at any time.
	if student.CurrentSubscriptionID != nil {
		if err := s.subscriptionRepo.Cancel(*student.CurrentSubscriptionID, time.Now()); err != nil {
			return nil, apperrors.ErrDatabase(err, "subscription")
		}
	}

	now := time.Now()
	sub := &models.Subscription{
		StudentID: studentID,
		PlanID:    planID,
		Status:    models.SubscriptionStatusActive,
		StartDate: now,
		EndDate:   endDateFor(now, plan.BillingCycle),
		AutoRenew: true,
	}
	if err := s.subscriptionRepo.Create(sub); err != nil {
		return nil, apperrors.ErrDatabase(err, "subscription")
	}

	if err := s.studentRepo.SetCurrentSubscription(studentID, &sub.ID, plan.Tier); err != nil {
		return nil, apperrors.ErrDatabase(err, "subscription")
	}

	return sub, nil
}

func (s *subscriptionService) Cancel(studentID string) error {
	student, err := s.studentRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound(err, "subscription", "Student not found")
		}
		return apperrors.ErrDatabase(err, "subscription")
	}
	if student.CurrentSubscriptionID == nil {
		return apperrors.ErrConflict("subscription", "No active subscription to cancel")
	}

	if err := s.subscriptionRepo.Cancel(*student.CurrentSubscriptionID, time.Now()); err != nil {
		return apperrors.ErrDatabase(err, "subscription")
	}

	// The reference clears and the tier drops to free together.
	if err := s.studentRepo.ClearCurrentSubscription(studentID); err != nil {
		return apperrors.ErrDatabase(err, "subscription")
	}
	return nil
}

func (s *subscriptionService) Renew(studentID string) (*models.Subscription, error) {
	student, err := s.studentRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound(err, "subscription", "Student not found")
		}
		return nil, apperrors.ErrDatabase(err, "subscription")
	}
	if student.CurrentSubscriptionID == nil {
		return nil, apperrors.ErrConflict("subscription", "No subscription to renew")
	}

	current, err := s.subscriptionRepo.FindByID(*student.CurrentSubscriptionID)
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "subscription")
	}
	return s.Purchase(studentID, current.PlanID)
}

func (s *subscriptionService) Current(studentID string) (*models.Subscription, error) {
	student, err := s.studentRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound(err, "subscription", "Student not found")
		}
		return nil, apperrors.ErrDatabase(err, "subscription")
	}
	if student.CurrentSubscriptionID == nil {
		return nil, apperrors.ErrNotFound(gorm.ErrRecordNotFound, "subscription", "No current subscription")
	}
	return s.subscriptionRepo.FindByIDWithPlan(*student.CurrentSubscriptionID)
}

func (s *subscriptionService) ListPlans() ([]models.SubscriptionPlan, error) {
	return s.subscriptionRepo.ListActivePlans()
}

func (s *subscriptionService) CreatePlan(req *dto.CreatePlanRequest) (*models.SubscriptionPlan, error) {
	plan := &models.SubscriptionPlan{
		Name:            req.Name,
		Tier:            models.SubscriptionTier(req.Tier),
		Price:           req.Price,
		Currency:        req.Currency,
		BillingCycle:    req.BillingCycle,
		MaxApplications: req.MaxApplications,
		IsActive:        true,
	}
	if err := s.subscriptionRepo.CreatePlan(plan); err != nil {
		return nil, apperrors.ErrDatabase(err, "subscription")
	}

	// New plan data must not serve stale from the entitlement cache.
	if s.planCache != nil {
		s.planCache.Delete(plan.ID)
	}
	return plan, nil
}

func (s *subscriptionService) NotifyExpiring(sub *models.Subscription, daysRemaining int) {
	student, err := s.studentRepo.FindByID(sub.StudentID)
	if err != nil {
		return
	}
	user, err := s.userRepo.FindByID(student.UserID)
	if err != nil {
		return
	}

	planName := sub.PlanID
	if plan, planErr := s.subscriptionRepo.FindPlanByID(sub.PlanID); planErr == nil {
		planName = plan.Name
	}

	// Deterministic ID so repeated sweeps over the same window cannot
	// duplicate the reminder.
	eventID := fmt.Sprintf("subscription.expiring:%s:%d", sub.ID, daysRemaining)
	event := dispatch.NewEventWithID(eventID, "subscription.expiring")
	event.Notify(dispatch.NotificationSpec{
		RecipientID:   user.ID,
		RecipientType: models.UserRoleStudent,
		Type:          NotifTypeSubscriptionExpiry,
		Title:         "Subscription expiring soon",
		Message:       fmt.Sprintf("Your %s subscription expires in %d day(s)", planName, daysRemaining),
		Link:          "/subscription",
	})
	event.WithEmail(dispatch.EmailSpec{
		To:          user.Email,
		UserID:      user.ID,
		Type:        email.TypeSubscriptionExpiry,
		TemplateKey: "subscription_expiry",
		Data: email.SubscriptionExpiryData{
			TemplateData:  email.TemplateData{UserName: student.FullName},
			PlanName:      planName,
			DaysRemaining: daysRemaining,
		},
	})
	s.dispatcher.Enqueue(event)
}

// endDateFor derives the subscription end from the billing cycle.
func endDateFor(start time.Time, billingCycle string) time.Time {
	if billingCycle == "yearly" {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}
