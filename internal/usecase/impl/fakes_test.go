package impl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"credvault/internal/domain/entity"
	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/domain/repository"

	"github.com/google/uuid"
)

// memoryStore is a shared in-memory backing for the fake repositories.
// It enforces the same uniqueness constraints as the real schema.
type memoryStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*entity.Account
	emails   map[string]uuid.UUID
	tokens   map[uuid.UUID]*entity.ResetToken
	secrets  map[string]uuid.UUID
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		accounts: make(map[uuid.UUID]*entity.Account),
		emails:   make(map[string]uuid.UUID),
		tokens:   make(map[uuid.UUID]*entity.ResetToken),
		secrets:  make(map[string]uuid.UUID),
	}
}

func (s *memoryStore) snapshot() *memoryStore {
	clone := newMemoryStore()
	for id, account := range s.accounts {
		clone.accounts[id] = cloneAccount(account)
	}
	for email, id := range s.emails {
		clone.emails[email] = id
	}
	for id, token := range s.tokens {
		clone.tokens[id] = cloneToken(token)
	}
	for secret, id := range s.secrets {
		clone.secrets[secret] = id
	}

	return clone
}

func (s *memoryStore) restore(from *memoryStore) {
	s.accounts = from.accounts
	s.emails = from.emails
	s.tokens = from.tokens
	s.secrets = from.secrets
}

func cloneAccount(a *entity.Account) *entity.Account {
	copied := *a

	return &copied
}

func cloneToken(t *entity.ResetToken) *entity.ResetToken {
	copied := *t

	return &copied
}

// --- fake AccountRepository ---

type fakeAccountRepo struct {
	store *memoryStore
}

func (r *fakeAccountRepo) Create(_ context.Context, account *entity.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.emails[account.Email]; exists {
		return domainerrors.ErrEmailAlreadyRegistered.WrapMessage("email already exists")
	}

	account.ID = uuid.New()
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	r.store.accounts[account.ID] = cloneAccount(account)
	r.store.emails[account.Email] = account.ID

	return nil
}

func (r *fakeAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	account, ok := r.store.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}

	return cloneAccount(account), nil
}

func (r *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id, ok := r.store.emails[email]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}

	return cloneAccount(r.store.accounts[id]), nil
}

func (r *fakeAccountRepo) UpdatePasswordHash(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	account, ok := r.store.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}

	account.PasswordHash = passwordHash
	account.UpdatedAt = time.Now()

	return nil
}

// --- fake ResetTokenRepository ---

type fakeResetTokenRepo struct {
	store *memoryStore
}

func (r *fakeResetTokenRepo) Create(_ context.Context, token *entity.ResetToken) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.secrets[token.Token]; exists {
		return repository.ErrDuplicateResetToken
	}

	token.ID = uuid.New()
	token.CreatedAt = time.Now()
	r.store.tokens[token.ID] = cloneToken(token)
	r.store.secrets[token.Token] = token.ID

	return nil
}

func (r *fakeResetTokenRepo) FindByToken(_ context.Context, secret string) (*entity.ResetToken, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id, ok := r.store.secrets[secret]
	if !ok {
		return nil, repository.ErrResetTokenNotFound
	}

	return cloneToken(r.store.tokens[id]), nil
}

func (r *fakeResetTokenRepo) Consume(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	token, ok := r.store.tokens[id]
	if !ok {
		return repository.ErrResetTokenNotFound
	}
	if token.Consumed {
		return repository.ErrResetTokenConsumed
	}

	token.Consumed = true

	return nil
}

func (r *fakeResetTokenRepo) PurgeBefore(_ context.Context, now time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var deleted int64
	for id, token := range r.store.tokens {
		if token.Consumed || token.ExpiresAt.Before(now) {
			delete(r.store.tokens, id)
			delete(r.store.secrets, token.Token)
			deleted++
		}
	}

	return deleted, nil
}

// --- fake TransactionManager ---

// fakeTxManager serializes transactions and emulates rollback by restoring a
// snapshot of the store when the callback returns an error.
type fakeTxManager struct {
	txMu  sync.Mutex
	store *memoryStore
}

func (tm *fakeTxManager) Execute(_ context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	tm.txMu.Lock()
	defer tm.txMu.Unlock()

	tm.store.mu.Lock()
	snapshot := tm.store.snapshot()
	tm.store.mu.Unlock()

	err := fn(&fakeRepoFactory{store: tm.store})
	if err != nil {
		tm.store.mu.Lock()
		tm.store.restore(snapshot)
		tm.store.mu.Unlock()

		return err
	}

	return nil
}

type fakeRepoFactory struct {
	store *memoryStore
}

func (f *fakeRepoFactory) NewAccountRepository() repository.AccountRepository {
	return &fakeAccountRepo{store: f.store}
}

func (f *fakeRepoFactory) NewResetTokenRepository() repository.ResetTokenRepository {
	return &fakeResetTokenRepo{store: f.store}
}

// --- fake Clock ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// --- fake Mailer ---

type sentMail struct {
	to   string
	link string
}

type fakeMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	failWith error
}

func (m *fakeMailer) SendResetLink(_ context.Context, toEmail, resetLink string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}

	m.sent = append(m.sent, sentMail{to: toEmail, link: resetLink})

	return nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sent)
}

// --- scripted TokenGenerator ---

// scriptedTokenGen returns queued secrets first, then falls back to a counter.
// Queueing the same secret twice exercises the duplicate-retry path.
type scriptedTokenGen struct {
	mu      sync.Mutex
	queue   []string
	counter int
}

func (g *scriptedTokenGen) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.queue) > 0 {
		next := g.queue[0]
		g.queue = g.queue[1:]

		return next, nil
	}

	g.counter++

	return fmt.Sprintf("generated-secret-%03d", g.counter), nil
}
