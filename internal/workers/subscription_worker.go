package workers

import (
	"context"
	"time"

	"jobbridge_backend/internal/logger"
	"jobbridge_backend/internal/repositories"
	"jobbridge_backend/internal/services"
)

const expiryReminderWindow = 3 * 24 * time.Hour

// SubscriptionWorker runs the periodic subscription sweep: bulk-expire
// subscriptions past their grace window and remind students whose
// subscription is about to end. Lazy expiry on read stays the source of
// truth; the sweep only keeps rows from lingering when nobody reads
// them.
type SubscriptionWorker struct {
	subscriptionRepo    repositories.SubscriptionRepository
	subscriptionService services.SubscriptionService
	gracePeriod         time.Duration
	interval            time.Duration
	now                 func() time.Time
}

func NewSubscriptionWorker(
	subscriptionRepo repositories.SubscriptionRepository,
	subscriptionService services.SubscriptionService,
	gracePeriodDays int,
) *SubscriptionWorker {
	return &SubscriptionWorker{
		subscriptionRepo:    subscriptionRepo,
		subscriptionService: subscriptionService,
		gracePeriod:         time.Duration(gracePeriodDays) * 24 * time.Hour,
		interval:            time.Hour,
		now:                 time.Now,
	}
}

// Start launches the sweep loop. It returns immediately; the loop stops
// when ctx is cancelled.
func (w *SubscriptionWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *SubscriptionWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.WorkerLog("subscription", "stopped", nil)
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *SubscriptionWorker) sweep() {
	now := w.now()

	expired, err := w.subscriptionRepo.ExpireLapsed(now.Add(-w.gracePeriod))
	if err != nil {
		logger.WorkerLog("subscription", "expire_failed", err)
	} else if expired > 0 {
		logger.Info("Expired lapsed subscriptions", "count", expired)
	}

	ending, err := w.subscriptionRepo.ListEndingBetween(now, now.Add(expiryReminderWindow))
	if err != nil {
		logger.WorkerLog("subscription", "reminder_query_failed", err)
		return
	}
	for i := range ending {
		sub := ending[i]
		days := int(sub.EndDate.Sub(now).Hours()/24) + 1
		w.subscriptionService.NotifyExpiring(&sub, days)
	}
}
