package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"edupulse/internal/domain"
	"edupulse/internal/models"
	"edupulse/internal/repository"
)

// In-memory fakes for the store and provider interfaces. They keep the same
// semantics the gorm repositories implement: conflict-ignoring batch inserts,
// guarded retry claims, owner-scoped lookups.

type subKey struct {
	userID    uint
	eventType string
	scope     string
	scopeID   uint
}

type fakeSubs struct {
	mu   sync.Mutex
	seq  uint
	rows map[subKey]*models.Subscription
}

func newFakeSubs() *fakeSubs {
	return &fakeSubs{rows: make(map[subKey]*models.Subscription)}
}

func (f *fakeSubs) key(s *models.Subscription) subKey {
	return subKey{s.UserID, s.EventType, s.Scope, s.ScopeID}
}

func (f *fakeSubs) Create(s *models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(s)
	if _, ok := f.rows[k]; ok {
		return fmt.Errorf("duplicate key")
	}
	f.seq++
	s.ID = f.seq
	cp := *s
	f.rows[k] = &cp
	return nil
}

func (f *fakeSubs) Save(s *models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.rows[f.key(s)] = &cp
	return nil
}

func (f *fakeSubs) FindByKey(userID uint, eventType, scope string, scopeID uint) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.rows[subKey{userID, eventType, scope, scopeID}]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeSubs) ActiveUserIDs(eventType, scope string, scopeID uint) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint
	for k, s := range f.rows {
		if k.eventType == eventType && k.scope == scope && k.scopeID == scopeID && s.IsActive {
			ids = append(ids, k.userID)
		}
	}
	return ids, nil
}

func (f *fakeSubs) ActiveForUsers(userIDs []uint, eventType, scope string, scopeID uint) (map[uint]*models.Subscription, error) {
	out := make(map[uint]*models.Subscription)
	for _, id := range userIDs {
		s, _ := f.FindByKey(id, eventType, scope, scopeID)
		if s != nil && s.IsActive {
			out[id] = s
		}
	}
	return out, nil
}

func (f *fakeSubs) ListByUser(userID uint) ([]models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []models.Subscription
	for k, s := range f.rows {
		if k.userID == userID {
			list = append(list, *s)
		}
	}
	return list, nil
}

type eventUserKey struct {
	eventID string
	userID  uint
}

type fakeRecords struct {
	mu      sync.Mutex
	seq     uint
	rows    map[uint]*models.Notification
	byEvent map[eventUserKey]uint
	batches int // CreateBatch invocations, for chunking assertions
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		rows:    make(map[uint]*models.Notification),
		byEvent: make(map[eventUserKey]uint),
	}
}

func (f *fakeRecords) CreateBatch(list []*models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	for _, n := range list {
		k := eventUserKey{n.EventID, n.UserID}
		if _, dup := f.byEvent[k]; dup {
			continue // conflict ignored, matches the unique (event_id, user_id) index
		}
		f.seq++
		n.ID = f.seq
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now()
		}
		n.UpdatedAt = n.CreatedAt
		cp := *n
		f.rows[n.ID] = &cp
		f.byEvent[k] = n.ID
	}
	return nil
}

func (f *fakeRecords) ListByEventAndUsers(eventID string, userIDs []uint) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []models.Notification
	for _, userID := range userIDs {
		if id, ok := f.byEvent[eventUserKey{eventID, userID}]; ok {
			list = append(list, *f.rows[id])
		}
	}
	return list, nil
}

func (f *fakeRecords) GetForUser(id, userID uint) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.rows[id]
	if !ok || n.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (f *fakeRecords) Save(n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.UpdatedAt = time.Now()
	cp := *n
	f.rows[n.ID] = &cp
	return nil
}

func (f *fakeRecords) ListByUser(userID uint, filter repository.NotificationFilter, limit, offset int) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []models.Notification
	for _, n := range f.rows {
		if n.UserID != userID || n.Status == domain.StatusCancelled {
			continue
		}
		if filter.Status != "" && n.Status != filter.Status {
			continue
		}
		if filter.EventType != "" && n.EventType != filter.EventType {
			continue
		}
		if filter.UnreadOnly && n.ReadAt != nil {
			continue
		}
		list = append(list, *n)
	}
	return list, nil
}

func (f *fakeRecords) CountUnread(userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, n := range f.rows {
		if n.UserID == userID && n.ReadAt == nil && n.Status != domain.StatusCancelled {
			count++
		}
	}
	return count, nil
}

func (f *fakeRecords) DeleteForUser(id, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.rows[id]
	if !ok || n.UserID != userID {
		return domain.ErrNotFound
	}
	delete(f.byEvent, eventUserKey{n.EventID, n.UserID})
	delete(f.rows, id)
	return nil
}

func (f *fakeRecords) PurgeTerminal(olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var purged int64
	for id, n := range f.rows {
		terminal := n.Status == domain.StatusCancelled || n.Status == domain.StatusClicked ||
			(n.Status == domain.StatusFailed && n.RetryCount >= domain.MaxRetries)
		if terminal && n.CreatedAt.Before(olderThan) {
			delete(f.byEvent, eventUserKey{n.EventID, n.UserID})
			delete(f.rows, id)
			purged++
		}
	}
	return purged, nil
}

func (f *fakeRecords) SelectRetryable(cutoff time.Time, limit int) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []models.Notification
	for _, n := range f.rows {
		if n.Status == domain.StatusFailed && n.RetryCount < domain.MaxRetries && n.UpdatedAt.Before(cutoff) {
			list = append(list, *n)
			if len(list) == limit {
				break
			}
		}
	}
	return list, nil
}

func (f *fakeRecords) ClaimForRetry(id uint, seenRetryCount int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.rows[id]
	if !ok || n.Status != domain.StatusFailed || n.RetryCount != seenRetryCount {
		return false, nil
	}
	n.Status = domain.StatusPending
	n.RetryCount++
	n.ErrorMessage = ""
	n.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeRecords) GetRetryStats() (*repository.RetryStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &repository.RetryStats{}
	for _, n := range f.rows {
		if n.Status != domain.StatusFailed {
			continue
		}
		stats.TotalFailed++
		if n.RetryCount < domain.MaxRetries {
			stats.PendingRetry++
		} else {
			stats.Exhausted++
		}
	}
	return stats, nil
}

func (f *fakeRecords) get(id uint) *models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n, ok := f.rows[id]; ok {
		cp := *n
		return &cp
	}
	return nil
}

type prefKey struct {
	userID   uint
	category string
}

type fakePrefs struct {
	mu   sync.Mutex
	seq  uint
	rows map[prefKey]*models.Preference
}

func newFakePrefs() *fakePrefs {
	return &fakePrefs{rows: make(map[prefKey]*models.Preference)}
}

func (f *fakePrefs) set(p *models.Preference) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	p.ID = f.seq
	cp := *p
	f.rows[prefKey{p.UserID, p.Category}] = &cp
}

func (f *fakePrefs) GetOrCreate(userID uint, category string) (*models.Preference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.rows[prefKey{userID, category}]; ok {
		cp := *p
		return &cp, nil
	}
	f.seq++
	p := models.DefaultPreference(userID, category)
	p.ID = f.seq
	cp := *p
	f.rows[prefKey{userID, category}] = &cp
	return p, nil
}

func (f *fakePrefs) Save(p *models.Preference) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.rows[prefKey{p.UserID, p.Category}] = &cp
	return nil
}

func (f *fakePrefs) ListByUser(userID uint) ([]models.Preference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []models.Preference
	for k, p := range f.rows {
		if k.userID == userID {
			list = append(list, *p)
		}
	}
	return list, nil
}

type fakeTokens struct {
	mu          sync.Mutex
	active      map[uint][]string
	deactivated []string
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{active: make(map[uint][]string)}
}

func (f *fakeTokens) Register(userID uint, token, platform string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[userID] = append(f.active[userID], token)
	return nil
}

func (f *fakeTokens) ActiveTokens(userID uint) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.active[userID]...), nil
}

func (f *fakeTokens) Deactivate(userID uint, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.active[userID][:0]
	for _, t := range f.active[userID] {
		if t != token {
			kept = append(kept, t)
		}
	}
	f.active[userID] = kept
	f.deactivated = append(f.deactivated, token)
	return nil
}

type fakeUsers struct {
	emails map[uint]string
}

func newFakeUsers(emails map[uint]string) *fakeUsers {
	return &fakeUsers{emails: emails}
}

func (f *fakeUsers) Exists(id uint) (bool, error) {
	_, ok := f.emails[id]
	return ok, nil
}

func (f *fakeUsers) EmailFor(id uint) (string, error) {
	email, ok := f.emails[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return email, nil
}

type fakeEnrollments struct {
	byCourse map[uint][]uint
}

func newFakeEnrollments(byCourse map[uint][]uint) *fakeEnrollments {
	return &fakeEnrollments{byCourse: byCourse}
}

func (f *fakeEnrollments) CoursesForUser(userID uint) ([]uint, error) {
	var courses []uint
	for courseID, users := range f.byCourse {
		for _, u := range users {
			if u == userID {
				courses = append(courses, courseID)
			}
		}
	}
	return courses, nil
}

func (f *fakeEnrollments) UsersForCourse(courseID uint) ([]uint, error) {
	return append([]uint(nil), f.byCourse[courseID]...), nil
}

func (f *fakeEnrollments) IsEnrolled(userID, courseID uint) (bool, error) {
	for _, u := range f.byCourse[courseID] {
		if u == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeEmail struct {
	mu    sync.Mutex
	sent  []string // recipient addresses
	fail  bool
	errMsg string
}

func (f *fakeEmail) Send(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		if f.errMsg == "" {
			f.errMsg = "smtp unavailable"
		}
		return fmt.Errorf("%s", f.errMsg)
	}
	f.sent = append(f.sent, to)
	return nil
}

func (f *fakeEmail) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakePush struct {
	mu      sync.Mutex
	calls   int
	results map[string]PushResult // keyed by token; unknown tokens succeed
}

func (f *fakePush) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]PushResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := make([]PushResult, len(tokens))
	for i, t := range tokens {
		if r, ok := f.results[t]; ok {
			r.Token = t
			out[i] = r
		} else {
			out[i] = PushResult{Token: t, OK: true}
		}
	}
	return out, nil
}

type emittedFrame struct {
	userID   uint
	courseID uint
	payload  interface{}
}

type fakeHub struct {
	mu       sync.Mutex
	live     map[uint]int // live connections per user
	emits    []emittedFrame
	courseEmits []emittedFrame
}

func newFakeHub(live map[uint]int) *fakeHub {
	if live == nil {
		live = make(map[uint]int)
	}
	return &fakeHub{live: live}
}

func (f *fakeHub) EmitToUser(userID uint, payload interface{}) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emits = append(f.emits, emittedFrame{userID: userID, payload: payload})
	return f.live[userID]
}

func (f *fakeHub) EmitToCourse(courseID uint, payload interface{}) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.courseEmits = append(f.courseEmits, emittedFrame{courseID: courseID, payload: payload})
	return 0
}

func (f *fakeHub) userEmitCount(userID uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, e := range f.emits {
		if e.userID == userID {
			count++
		}
	}
	return count
}
