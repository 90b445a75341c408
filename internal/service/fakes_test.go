package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/google/uuid"
)

type memoryUsers struct {
	mu     sync.Mutex
	users  map[string]*model.User
	pruned [][]string
	err    error
}

func newMemoryUsers(users ...*model.User) *memoryUsers {
	m := &memoryUsers{users: make(map[string]*model.User)}
	for _, u := range users {
		m.users[u.UID] = u
	}
	return m
}

func (m *memoryUsers) ListStudents(context.Context) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*model.User
	for _, u := range m.users {
		if u.Role == model.RoleStudent {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b *model.User) int {
		if a.UID < b.UID {
			return -1
		}
		if a.UID > b.UID {
			return 1
		}
		return 0
	})
	return out, nil
}

func (m *memoryUsers) GetByUID(_ context.Context, uid string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[uid], m.err
}

func (m *memoryUsers) SaveProfile(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.UID] = user
	return m.err
}

func (m *memoryUsers) AddToken(_ context.Context, uid, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := m.users[uid]
	if user != nil && !slices.Contains(user.FCMTokens, token) {
		user.FCMTokens = append(user.FCMTokens, token)
	}
	return m.err
}

func (m *memoryUsers) RemoveToken(_ context.Context, uid, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user := m.users[uid]; user != nil {
		user.FCMTokens = slices.DeleteFunc(user.FCMTokens, func(t string) bool { return t == token })
	}
	return m.err
}

func (m *memoryUsers) PruneTokens(_ context.Context, tokens []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruned = append(m.pruned, tokens)
	for _, user := range m.users {
		user.FCMTokens = slices.DeleteFunc(user.FCMTokens, func(t string) bool { return slices.Contains(tokens, t) })
	}
	return m.err
}

type sentPush struct {
	tokens []string
	msg    model.PushMessage
}

// fakeSender считает токены из invalid недействительными, из failing - временно недоступными
type fakeSender struct {
	mu      sync.Mutex
	calls   []sentPush
	invalid map[string]bool
	failing map[string]bool
	err     error
}

func (f *fakeSender) SendMulticast(_ context.Context, tokens []string, msg model.PushMessage) (model.DeliveryReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sentPush{tokens: slices.Clone(tokens), msg: msg})
	if f.err != nil {
		return model.DeliveryReport{}, f.err
	}

	var report model.DeliveryReport
	for _, token := range tokens {
		switch {
		case f.invalid[token]:
			report.FailureCount++
			report.InvalidTokens = append(report.InvalidTokens, token)
		case f.failing[token]:
			report.FailureCount++
		default:
			report.SuccessCount++
		}
	}
	return report, nil
}

type notifyCall struct {
	class model.ClassDescriptor
	msg   model.PushMessage
}

type fakeNotifier struct {
	calls []notifyCall
	err   error
}

func (f *fakeNotifier) Notify(_ context.Context, class model.ClassDescriptor, msg model.PushMessage) (NotifyResult, error) {
	f.calls = append(f.calls, notifyCall{class: class, msg: msg})
	return NotifyResult{}, f.err
}

type memorySchedules struct {
	schedules []*model.Schedule
	err       error
}

func (m *memorySchedules) ListByDay(_ context.Context, day int) ([]*model.Schedule, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*model.Schedule
	for _, s := range m.schedules {
		if s.DayOfWeek == day {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memorySchedules) Create(_ context.Context, schedule *model.Schedule) error {
	m.schedules = append(m.schedules, schedule)
	return m.err
}

func (m *memorySchedules) ListAll(context.Context) ([]*model.Schedule, error) {
	return m.schedules, m.err
}

func (m *memorySchedules) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	before := len(m.schedules)
	m.schedules = slices.DeleteFunc(m.schedules, func(s *model.Schedule) bool { return s.ID == id })
	return len(m.schedules) < before, m.err
}

type memoryGuard struct {
	keys map[string]time.Duration
	err  error
}

func (g *memoryGuard) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	if _, taken := g.keys[key]; taken {
		return false, nil
	}
	g.keys[key] = ttl
	return true, nil
}

func strPtr(s string) *string {
	return &s
}

func student(uid, roll string, tokens ...string) *model.User {
	return &model.User{UID: uid, Role: model.RoleStudent, RollNumber: strPtr(roll), FCMTokens: tokens}
}
