package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sistema-zara/zara-backend/models"
)

// In-memory store implementations. They mirror the Mongo repositories'
// behavior and back the service and scheduler tests.

// MemoryNotificationStore is an in-memory NotificationStore.
type MemoryNotificationStore struct {
	mu            sync.RWMutex
	notifications map[primitive.ObjectID]*models.Notification
}

func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{
		notifications: make(map[primitive.ObjectID]*models.Notification),
	}
}

func (s *MemoryNotificationStore) InsertMany(ctx context.Context, notifications []*models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range notifications {
		if n.ID.IsZero() {
			n.ID = primitive.NewObjectID()
		}
		stored := *n
		s.notifications[n.ID] = &stored
	}
	return nil
}

func (s *MemoryNotificationStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, exists := s.notifications[id]
	if !exists {
		return nil, nil
	}
	copied := *n
	return &copied, nil
}

func (s *MemoryNotificationStore) ListByUser(ctx context.Context, userID primitive.ObjectID, filter models.NotificationFilter, page models.Pagination) ([]models.Notification, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Notification
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		if filter.Type != "" && n.Type != filter.Type {
			continue
		}
		if filter.Priority != "" && n.Priority != filter.Priority {
			continue
		}
		if filter.IsRead != nil && n.IsRead != *filter.IsRead {
			continue
		}
		matched = append(matched, *n)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *MemoryNotificationStore) MarkRead(ctx context.Context, id primitive.ObjectID, readAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, exists := s.notifications[id]; exists && !n.IsRead {
		n.IsRead = true
		n.ReadAt = &readAt
	}
	return nil
}

func (s *MemoryNotificationStore) MarkAllRead(ctx context.Context, userID primitive.ObjectID, readAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &readAt
			count++
		}
	}
	return count, nil
}

func (s *MemoryNotificationStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.notifications, id)
	return nil
}

func (s *MemoryNotificationStore) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for id, n := range s.notifications {
		if n.IsRead && n.CreatedAt.Before(cutoff) {
			delete(s.notifications, id)
			count++
		}
	}
	return count, nil
}

func (s *MemoryNotificationStore) ExistsRecentForMachine(ctx context.Context, machineID primitive.ObjectID, notifType string, since time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.notifications {
		if n.MachineID != nil && *n.MachineID == machineID && n.Type == notifType && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of stored notifications.
func (s *MemoryNotificationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notifications)
}

// All returns a snapshot of every stored notification.
func (s *MemoryNotificationStore) All() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]models.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		all = append(all, *n)
	}
	return all
}

// MemoryUserStore is an in-memory UserStore.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.User
}

func NewMemoryUserStore(users ...models.User) *MemoryUserStore {
	s := &MemoryUserStore{users: make(map[primitive.ObjectID]*models.User)}
	for i := range users {
		u := users[i]
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		s.users[u.ID] = &u
	}
	return s
}

func (s *MemoryUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.users[id]
	if !exists {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (s *MemoryUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryUserStore) FindActiveByRoles(ctx context.Context, roles []string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}

	var matched []models.User
	for _, u := range s.users {
		if u.IsActive && roleSet[u.Role] {
			matched = append(matched, *u)
		}
	}
	return matched, nil
}

func (s *MemoryUserStore) FindAllActive(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.User
	for _, u := range s.users {
		if u.IsActive {
			matched = append(matched, *u)
		}
	}
	return matched, nil
}

func (s *MemoryUserStore) UpdateFCMToken(ctx context.Context, id primitive.ObjectID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, exists := s.users[id]; exists {
		u.FCMToken = token
		u.UpdatedAt = time.Now()
	}
	return nil
}

func (s *MemoryUserStore) UpdateNotificationPrefs(ctx context.Context, id primitive.ObjectID, prefs models.NotificationPrefs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, exists := s.users[id]; exists {
		u.NotificationPrefs = prefs
		u.UpdatedAt = time.Now()
	}
	return nil
}

func (s *MemoryUserStore) UpdateLastActivity(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, exists := s.users[id]; exists {
		u.LastActivityAt = time.Now()
		u.IsActive = true
	}
	return nil
}

// MemoryMachineStore is an in-memory MachineStore.
type MemoryMachineStore struct {
	mu       sync.RWMutex
	machines map[primitive.ObjectID]*models.Machine
}

func NewMemoryMachineStore(machines ...models.Machine) *MemoryMachineStore {
	s := &MemoryMachineStore{machines: make(map[primitive.ObjectID]*models.Machine)}
	for i := range machines {
		m := machines[i]
		if m.ID.IsZero() {
			m.ID = primitive.NewObjectID()
		}
		s.machines[m.ID] = &m
	}
	return s
}

func (s *MemoryMachineStore) List(ctx context.Context) ([]models.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]models.Machine, 0, len(s.machines))
	for _, m := range s.machines {
		all = append(all, *m)
	}
	return all, nil
}

func (s *MemoryMachineStore) ListActive(ctx context.Context) ([]models.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Machine
	for _, m := range s.machines {
		if m.IsActive {
			matched = append(matched, *m)
		}
	}
	return matched, nil
}

func (s *MemoryMachineStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.machines[id]
	if !exists {
		return nil, nil
	}
	copied := *m
	return &copied, nil
}

func (s *MemoryMachineStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, exists := s.machines[id]; exists {
		m.Status = status
		m.UpdatedAt = time.Now()
	}
	return nil
}

// MemoryQualityTestStore is an in-memory QualityTestStore.
type MemoryQualityTestStore struct {
	mu    sync.RWMutex
	tests []models.QualityTest
}

func NewMemoryQualityTestStore(tests ...models.QualityTest) *MemoryQualityTestStore {
	s := &MemoryQualityTestStore{}
	for i := range tests {
		t := tests[i]
		if t.ID.IsZero() {
			t.ID = primitive.NewObjectID()
		}
		s.tests = append(s.tests, t)
	}
	return s
}

func (s *MemoryQualityTestStore) Insert(ctx context.Context, test *models.QualityTest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if test.ID.IsZero() {
		test.ID = primitive.NewObjectID()
	}
	s.tests = append(s.tests, *test)
	return nil
}

func (s *MemoryQualityTestStore) SummarizeBetween(ctx context.Context, from, to time.Time) (models.QualityTestSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var summary models.QualityTestSummary
	for _, t := range s.tests {
		if t.CreatedAt.Before(from) || !t.CreatedAt.Before(to) {
			continue
		}
		s.tally(&summary, t.Result)
	}
	return summary, nil
}

func (s *MemoryQualityTestStore) SummarizeForMachineBetween(ctx context.Context, machineID primitive.ObjectID, from, to time.Time) (models.QualityTestSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var summary models.QualityTestSummary
	for _, t := range s.tests {
		if t.MachineID != machineID || t.CreatedAt.Before(from) || !t.CreatedAt.Before(to) {
			continue
		}
		s.tally(&summary, t.Result)
	}
	return summary, nil
}

func (s *MemoryQualityTestStore) tally(summary *models.QualityTestSummary, result string) {
	switch result {
	case models.TestResultApproved:
		summary.Approved++
	case models.TestResultRejected:
		summary.Rejected++
	}
	summary.Total++
}

func (s *MemoryQualityTestStore) LastTestTimes(ctx context.Context) (map[primitive.ObjectID]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	times := make(map[primitive.ObjectID]time.Time)
	for _, t := range s.tests {
		if last, ok := times[t.MachineID]; !ok || t.CreatedAt.After(last) {
			times[t.MachineID] = t.CreatedAt
		}
	}
	return times, nil
}

// MemoryTeflonStore is an in-memory TeflonStore.
type MemoryTeflonStore struct {
	mu      sync.RWMutex
	changes map[primitive.ObjectID]*models.TeflonChange
}

func NewMemoryTeflonStore(changes ...models.TeflonChange) *MemoryTeflonStore {
	s := &MemoryTeflonStore{changes: make(map[primitive.ObjectID]*models.TeflonChange)}
	for i := range changes {
		c := changes[i]
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		s.changes[c.ID] = &c
	}
	return s
}

func (s *MemoryTeflonStore) Insert(ctx context.Context, change *models.TeflonChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if change.ID.IsZero() {
		change.ID = primitive.NewObjectID()
	}
	stored := *change
	s.changes[change.ID] = &stored
	return nil
}

func (s *MemoryTeflonStore) FindExpiringUnnotified(ctx context.Context, before time.Time) ([]models.TeflonChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.TeflonChange
	for _, c := range s.changes {
		if !c.NotificationSent && !c.ExpirationDate.After(before) {
			matched = append(matched, *c)
		}
	}
	return matched, nil
}

func (s *MemoryTeflonStore) MarkNotificationSent(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, exists := s.changes[id]; exists {
		c.NotificationSent = true
	}
	return nil
}

// MemoryShiftStore is an in-memory ShiftStore.
type MemoryShiftStore struct {
	mu     sync.RWMutex
	shifts map[primitive.ObjectID]*models.Shift
}

func NewMemoryShiftStore(shifts ...models.Shift) *MemoryShiftStore {
	s := &MemoryShiftStore{shifts: make(map[primitive.ObjectID]*models.Shift)}
	for i := range shifts {
		sh := shifts[i]
		if sh.ID.IsZero() {
			sh.ID = primitive.NewObjectID()
		}
		s.shifts[sh.ID] = &sh
	}
	return s
}

func (s *MemoryShiftStore) ListInProgress(ctx context.Context) ([]models.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Shift
	for _, sh := range s.shifts {
		if sh.Status == models.ShiftStatusInProgress {
			matched = append(matched, *sh)
		}
	}
	return matched, nil
}

func (s *MemoryShiftStore) UpdateAggregates(ctx context.Context, id primitive.ObjectID, approved, rejected int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sh, exists := s.shifts[id]; exists {
		sh.TestsApproved = approved
		sh.TestsRejected = rejected
		sh.UpdatedAt = time.Now()
	}
	return nil
}

func (s *MemoryShiftStore) ArchiveCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var count int64
	for _, sh := range s.shifts {
		if sh.Status == models.ShiftStatusCompleted && sh.ShiftDate.Before(cutoff) {
			sh.Status = models.ShiftStatusArchived
			sh.ArchivedAt = &now
			sh.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

// Find returns the stored shift with the given id, for test assertions.
func (s *MemoryShiftStore) Find(id primitive.ObjectID) *models.Shift {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sh, exists := s.shifts[id]
	if !exists {
		return nil
	}
	copied := *sh
	return &copied
}

// Find returns the stored change with the given id, for test assertions.
func (s *MemoryTeflonStore) Find(id primitive.ObjectID) *models.TeflonChange {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.changes[id]
	if !exists {
		return nil
	}
	copied := *c
	return &copied
}
