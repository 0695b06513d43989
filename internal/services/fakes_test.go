package services

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"jobbridge_backend/internal/dispatch"
	"jobbridge_backend/internal/email"
	"jobbridge_backend/internal/models"
	"jobbridge_backend/internal/repositories"
	"jobbridge_backend/internal/services/dto"
)

// In-memory repository fakes. Guarded updates mirror the SQL semantics:
// a patch applies only when the row is in one of the expected states and
// the caller learns about a failed guard through a zero rows-affected
// count, exactly like the real gorm implementations.

type fakeStudentRepo struct {
	mu         sync.Mutex
	students   map[string]*models.Student
	clearCalls int
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{students: map[string]*models.Student{}}
}

func (r *fakeStudentRepo) Create(s *models.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = fmt.Sprintf("student-%d", len(r.students)+1)
	}
	r.students[s.ID] = s
	return nil
}

func (r *fakeStudentRepo) FindByID(id string) (*models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *s
	return &copy, nil
}

func (r *fakeStudentRepo) FindByUserID(userID string) (*models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.students {
		if s.UserID == userID {
			copy := *s
			return &copy, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeStudentRepo) SetHired(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.students[id]; ok {
		s.IsHired = true
	}
	return nil
}

func (r *fakeStudentRepo) SetCurrentSubscription(id string, subscriptionID *string, tier models.SubscriptionTier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.CurrentSubscriptionID = subscriptionID
	s.SubscriptionTier = tier
	return nil
}

func (r *fakeStudentRepo) ClearCurrentSubscription(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearCalls++
	if s, ok := r.students[id]; ok {
		s.CurrentSubscriptionID = nil
		s.SubscriptionTier = models.SubscriptionTierFree
	}
	return nil
}

type fakeSubscriptionRepo struct {
	mu    sync.Mutex
	subs  map[string]*models.Subscription
	plans map[string]*models.SubscriptionPlan
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{
		subs:  map[string]*models.Subscription{},
		plans: map[string]*models.SubscriptionPlan{},
	}
}

func (r *fakeSubscriptionRepo) Create(sub *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub.ID == "" {
		sub.ID = fmt.Sprintf("sub-%d", len(r.subs)+1)
	}
	r.subs[sub.ID] = sub
	return nil
}

func (r *fakeSubscriptionRepo) FindByID(id string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *sub
	return &copy, nil
}

func (r *fakeSubscriptionRepo) FindByIDWithPlan(id string) (*models.Subscription, error) {
	sub, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if plan, ok := r.plans[sub.PlanID]; ok {
		sub.Plan = *plan
	}
	return sub, nil
}

func (r *fakeSubscriptionRepo) ListByStudent(studentID string) ([]models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Subscription
	for _, sub := range r.subs {
		if sub.StudentID == studentID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) MarkExpired(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub, ok := r.subs[id]; ok && sub.Status == models.SubscriptionStatusActive {
		sub.Status = models.SubscriptionStatusExpired
	}
	return nil
}

func (r *fakeSubscriptionRepo) Cancel(id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if sub.Status == models.SubscriptionStatusActive || sub.Status == models.SubscriptionStatusPending {
		sub.Status = models.SubscriptionStatusCancelled
		sub.CancelledAt = &at
		sub.AutoRenew = false
	}
	return nil
}

func (r *fakeSubscriptionRepo) ExpireLapsed(before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, sub := range r.subs {
		if sub.Status == models.SubscriptionStatusActive && sub.EndDate.Before(before) {
			sub.Status = models.SubscriptionStatusExpired
			n++
		}
	}
	return n, nil
}

func (r *fakeSubscriptionRepo) ListEndingBetween(from, to time.Time) ([]models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Subscription
	for _, sub := range r.subs {
		if sub.Status == models.SubscriptionStatusActive &&
			!sub.EndDate.Before(from) && sub.EndDate.Before(to) {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) CreatePlan(plan *models.SubscriptionPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if plan.ID == "" {
		plan.ID = fmt.Sprintf("plan-%d", len(r.plans)+1)
	}
	r.plans[plan.ID] = plan
	return nil
}

func (r *fakeSubscriptionRepo) FindPlanByID(id string) (*models.SubscriptionPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.plans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *plan
	return &copy, nil
}

func (r *fakeSubscriptionRepo) ListActivePlans() ([]models.SubscriptionPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SubscriptionPlan
	for _, plan := range r.plans {
		if plan.IsActive {
			out = append(out, *plan)
		}
	}
	return out, nil
}

type fakeApplicationRepo struct {
	mu       sync.Mutex
	apps     map[string]*models.Application
	students *fakeStudentRepo
}

func newFakeApplicationRepo(students *fakeStudentRepo) *fakeApplicationRepo {
	return &fakeApplicationRepo{apps: map[string]*models.Application{}, students: students}
}

func (r *fakeApplicationRepo) FindByID(id string) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *app
	return &copy, nil
}

func (r *fakeApplicationRepo) FindByStudentAndJob(studentID, jobID string) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, app := range r.apps {
		if app.StudentID == studentID && app.JobPostingID == jobID {
			copy := *app
			return &copy, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeApplicationRepo) ListByJob(jobID string) ([]models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Application
	for _, app := range r.apps {
		if app.JobPostingID == jobID {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (r *fakeApplicationRepo) ListByStudent(studentID string) ([]models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Application
	for _, app := range r.apps {
		if app.StudentID == studentID {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (r *fakeApplicationRepo) CountActiveByStudent(studentID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countActiveLocked(studentID), nil
}

func (r *fakeApplicationRepo) countActiveLocked(studentID string) int64 {
	var n int64
	for _, app := range r.apps {
		if app.StudentID != studentID {
			continue
		}
		for _, status := range models.ActiveApplicationStatuses {
			if app.Status == status {
				n++
				break
			}
		}
	}
	return n
}

func (r *fakeApplicationRepo) ApplyWithQuota(app *models.Application, limit int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit != repositories.UnlimitedQuota && r.countActiveLocked(app.StudentID) >= int64(limit) {
		return repositories.ErrQuotaExhausted
	}

	for _, existing := range r.apps {
		if existing.StudentID == app.StudentID && existing.JobPostingID == app.JobPostingID {
			if existing.Status != models.ApplicationStatusWithdrawn {
				return repositories.ErrDuplicateApplication
			}
			existing.Status = models.ApplicationStatusPending
			existing.RejectionReason = nil
			existing.ReviewedAt = nil
			existing.CreatedAt = time.Now()
			*app = *existing
			return nil
		}
	}

	if app.ID == "" {
		app.ID = fmt.Sprintf("app-%d", len(r.apps)+1)
	}
	app.Status = models.ApplicationStatusPending
	app.CreatedAt = time.Now()
	stored := *app
	r.apps[app.ID] = &stored
	return nil
}

func (r *fakeApplicationRepo) UpdateStatusIf(id string, from []models.ApplicationStatus, patch map[string]interface{}) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return 0, nil
	}
	guarded := false
	for _, status := range from {
		if app.Status == status {
			guarded = true
			break
		}
	}
	if !guarded {
		return 0, nil
	}
	applyApplicationPatch(app, patch)
	return 1, nil
}

func (r *fakeApplicationRepo) HireInReview(id, studentID string) (int64, error) {
	r.mu.Lock()
	app, ok := r.apps[id]
	if !ok || app.Status != models.ApplicationStatusReviewed {
		r.mu.Unlock()
		return 0, nil
	}
	app.Status = models.ApplicationStatusHired
	r.mu.Unlock()
	return 1, r.students.SetHired(studentID)
}

func applyApplicationPatch(app *models.Application, patch map[string]interface{}) {
	if v, ok := patch["status"]; ok {
		app.Status = v.(models.ApplicationStatus)
	}
	if v, ok := patch["reviewed_at"]; ok {
		if v == nil {
			app.ReviewedAt = nil
		} else {
			at := v.(time.Time)
			app.ReviewedAt = &at
		}
	}
	if v, ok := patch["rejection_reason"]; ok {
		if v == nil {
			app.RejectionReason = nil
		} else {
			reason := v.(string)
			app.RejectionReason = &reason
		}
	}
}

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*models.JobPosting
	apps *fakeApplicationRepo
}

func newFakeJobRepo(apps *fakeApplicationRepo) *fakeJobRepo {
	return &fakeJobRepo{jobs: map[string]*models.JobPosting{}, apps: apps}
}

func (r *fakeJobRepo) Create(job *models.JobPosting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.ID == "" {
		job.ID = fmt.Sprintf("job-%d", len(r.jobs)+1)
	}
	stored := *job
	r.jobs[job.ID] = &stored
	return nil
}

func (r *fakeJobRepo) FindByID(id string) (*models.JobPosting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *job
	return &copy, nil
}

func (r *fakeJobRepo) ListByCompany(companyID string) ([]models.JobPosting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.JobPosting
	for _, job := range r.jobs {
		if job.CompanyID == companyID {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (r *fakeJobRepo) ListByStatus(status models.JobStatus) ([]models.JobPosting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.JobPosting
	for _, job := range r.jobs {
		if job.Status == status {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (r *fakeJobRepo) Save(job *models.JobPosting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *job
	r.jobs[job.ID] = &stored
	return nil
}

func (r *fakeJobRepo) UpdateStatusIf(id string, from []models.JobStatus, patch map[string]interface{}) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return 0, nil
	}
	guarded := false
	for _, status := range from {
		if job.Status == status {
			guarded = true
			break
		}
	}
	if !guarded {
		return 0, nil
	}
	if v, ok := patch["status"]; ok {
		job.Status = v.(models.JobStatus)
	}
	if v, ok := patch["approved_at"]; ok {
		if v == nil {
			job.ApprovedAt = nil
		} else {
			at := v.(time.Time)
			job.ApprovedAt = &at
		}
	}
	if v, ok := patch["rejection_reason"]; ok {
		if v == nil {
			job.RejectionReason = nil
		} else {
			reason := v.(string)
			job.RejectionReason = &reason
		}
	}
	return 1, nil
}

func (r *fakeJobRepo) CloseWithCascade(id string, reason string) (*repositories.CloseResult, error) {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return nil, gorm.ErrRecordNotFound
	}
	closable := false
	for _, status := range models.ClosableJobStatuses {
		if job.Status == status {
			closable = true
			break
		}
	}
	if !closable {
		r.mu.Unlock()
		return nil, nil
	}
	job.Status = models.JobStatusClosed
	closed := *job
	r.mu.Unlock()

	var rejected []models.Application
	r.apps.mu.Lock()
	for _, app := range r.apps.apps {
		if app.JobPostingID != id {
			continue
		}
		for _, status := range models.CascadableApplicationStatuses {
			if app.Status == status {
				app.Status = models.ApplicationStatusRejected
				app.RejectionReason = &reason
				rejected = append(rejected, *app)
				break
			}
		}
	}
	r.apps.mu.Unlock()

	return &repositories.CloseResult{Job: &closed, Rejected: rejected}, nil
}

type fakeCompanyRepo struct {
	mu        sync.Mutex
	companies map[string]*models.Company
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{companies: map[string]*models.Company{}}
}

func (r *fakeCompanyRepo) Create(c *models.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = fmt.Sprintf("company-%d", len(r.companies)+1)
	}
	r.companies[c.ID] = c
	return nil
}

func (r *fakeCompanyRepo) FindByID(id string) (*models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.companies[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *c
	return &copy, nil
}

func (r *fakeCompanyRepo) FindByUserID(userID string) (*models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.companies {
		if c.UserID == userID {
			copy := *c
			return &copy, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCompanyRepo) UpdateStatus(id string, status models.CompanyStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.companies[id]; ok {
		c.Status = status
	}
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}}
}

func (r *fakeUserRepo) Create(u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if u.ID == "" {
		u.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) FindByID(id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *u
	return &copy, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByRole(role models.UserRole) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateEmailPrefs(userID string, prefs []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.EmailPrefs = prefs
	}
	return nil
}

// stubEntitlements returns a fixed entitlement for every student.
type stubEntitlements struct {
	entitlement *dto.Entitlement
	err         error
}

func (s *stubEntitlements) Resolve(string) (*dto.Entitlement, error) {
	return s.entitlement, s.err
}

// sinkRecorder collects the notifications the dispatcher persists.
type sinkRecorder struct {
	mu      sync.Mutex
	created []models.Notification
	seen    map[string]bool
}

func newSinkRecorder() *sinkRecorder {
	return &sinkRecorder{seen: map[string]bool{}}
}

func (s *sinkRecorder) Create(n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.DedupeKey != nil {
		if s.seen[*n.DedupeKey] {
			return repositories.ErrDuplicateNotification
		}
		s.seen[*n.DedupeKey] = true
	}
	s.created = append(s.created, *n)
	return nil
}

func (s *sinkRecorder) all() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.created))
	copy(out, s.created)
	return out
}

type mailRecorder struct {
	mu   sync.Mutex
	sent []string // template keys
}

func (m *mailRecorder) Send(_, templateKey string, _ interface{}, _ email.Meta) email.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, templateKey)
	return email.Result{Status: email.StatusSuccess}
}

func (m *mailRecorder) all() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	copy(out, m.sent)
	return out
}

// newTestDispatcher returns a started dispatcher plus its recorders.
// Stop it to drain before asserting on the recorders.
func newTestDispatcher() (*dispatch.Dispatcher, *sinkRecorder, *mailRecorder) {
	sink := newSinkRecorder()
	mailer := &mailRecorder{}
	d := dispatch.NewDispatcher(sink, mailer, dispatch.Options{
		QueueSize:     64,
		Workers:       1,
		MaxEmailTries: 1,
		Backoff:       &dispatch.Constant{Interval: time.Millisecond},
	})
	d.Start()
	return d, sink, mailer
}

func strPtr(s string) *string        { return &s }
func floatPtr(f float64) *float64    { return &f }
func intPtr(i int) *int              { return &i }
func timePtr(t time.Time) *time.Time { return &t }
