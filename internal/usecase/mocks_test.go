//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-yoga-subscription/internal/domain"
	"telegram-yoga-subscription/internal/domain/model"
	"telegram-yoga-subscription/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memSubscriptionRepo mirrors the conditional-update semantics of the SQL
// implementation so state-machine races behave the same in unit tests.
type memSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string]*model.Subscription
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{subs: make(map[string]*model.Subscription)}
}

func (m *memSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.subs[s.ID] = &cp
	return nil
}

func (m *memSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSubscriptionRepo) FindExpiringUnnotified(ctx context.Context, tx repository.Tx, window time.Duration) ([]*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var out []*model.Subscription
	for _, s := range m.subs {
		if s.Status == model.SubscriptionStatusActive && !s.Notify3dSent &&
			s.EndDate.After(now) && !s.EndDate.After(now.Add(window)) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSubscriptionRepo) FindExpired(ctx context.Context, tx repository.Tx) ([]*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var out []*model.Subscription
	for _, s := range m.subs {
		if (s.Status == model.SubscriptionStatusActive || s.Status == model.SubscriptionStatusExpiring) &&
			!s.EndDate.After(now) && !s.ManualOverride {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSubscriptionRepo) MarkExpiring(ctx context.Context, tx repository.Tx, id string, notifiedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok || s.Status != model.SubscriptionStatusActive || s.Notify3dSent {
		return false, nil
	}
	s.Status = model.SubscriptionStatusExpiring
	s.Notify3dSent = true
	t := notifiedAt
	s.LastNotifiedAt = &t
	s.UpdatedAt = time.Now()
	return true, nil
}

func (m *memSubscriptionRepo) MarkExpired(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok || s.ManualOverride {
		return false, nil
	}
	if s.Status != model.SubscriptionStatusActive && s.Status != model.SubscriptionStatusExpiring {
		return false, nil
	}
	s.Status = model.SubscriptionStatusExpired
	s.UpdatedAt = time.Now()
	return true, nil
}

func (m *memSubscriptionRepo) get(id string) *model.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

type memProductRepo struct {
	mu       sync.Mutex
	products map[string]*model.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[string]*model.Product)}
}

func (m *memProductRepo) put(p *model.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.products[p.ID] = &cp
}

func (m *memProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User)}
}

func (m *memUserRepo) put(u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type memJobRunRepo struct {
	mu   sync.Mutex
	runs []*model.JobRun
}

func (m *memJobRunRepo) Save(ctx context.Context, tx repository.Tx, run *model.JobRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	m.runs = append(m.runs, &cp)
	return nil
}

func (m *memJobRunRepo) last() *model.JobRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.runs) == 0 {
		return nil
	}
	cp := *m.runs[len(m.runs)-1]
	return &cp
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []*model.AuditEntry
}

func (m *memAuditRepo) Save(ctx context.Context, tx repository.Tx, e *model.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memAuditRepo) all() []*model.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.AuditEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// mockSender records outgoing messages; SendFunc overrides delivery per test.
type mockSender struct {
	mu       sync.Mutex
	sent     []sentMessage
	SendFunc func(ctx context.Context, telegramID int64, text string) error
}

type sentMessage struct {
	TelegramID int64
	Text       string
}

func (s *mockSender) SendMessage(ctx context.Context, telegramID int64, text string) error {
	if s.SendFunc != nil {
		if err := s.SendFunc(ctx, telegramID, text); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{TelegramID: telegramID, Text: text})
	return nil
}

func (s *mockSender) messages() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sentMessage, len(s.sent))
	copy(out, s.sent)
	return out
}

// passTxManager runs the callback without a real transaction.
type passTxManager struct{}

func (passTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}
