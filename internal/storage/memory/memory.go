// Package memory is an in-process implementation of the core stores. It enforces the same
// constraints as the Postgres schema (unique email and currency code, one default currency,
// references from transactions to currencies) and is used to exercise services without a database.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/loft-be/internal/models"
	"github.com/hongminglow/loft-be/internal/storage"
)

var (
	_ storage.UserStore        = (*Store)(nil)
	_ storage.SessionStore     = (*Store)(nil)
	_ storage.CurrencyStore    = (*Store)(nil)
	_ storage.TransactionStore = (*Store)(nil)
)

// Store keeps every record in maps guarded by one mutex.
type Store struct {
	mu           sync.Mutex
	users        map[uuid.UUID]models.User
	sessions     map[string]models.Session
	currencies   map[uuid.UUID]models.Currency
	transactions map[uuid.UUID]models.Transaction

	calls map[string]int
	now   func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:        make(map[uuid.UUID]models.User),
		sessions:     make(map[string]models.Session),
		currencies:   make(map[uuid.UUID]models.Currency),
		transactions: make(map[uuid.UUID]models.Transaction),
		calls:        make(map[string]int),
		now:          time.Now,
	}
}

// CallCount reports how many times the named method ran.
func (s *Store) CallCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

// TotalCalls reports how many store methods ran in total.
func (s *Store) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *Store) track(name string) {
	s.calls[name]++
}

// CreateUser stores a user, rejecting a duplicate email.
func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("CreateUser")
	for _, u := range s.users {
		if u.Email == user.Email {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	now := s.now()
	user.ID = uuid.New()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("FindUserByEmail")
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) TouchLastLogin(_ context.Context, userID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("TouchLastLogin")
	u, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	u.LastLogin = &at
	s.users[userID] = u
	return nil
}

func (s *Store) SetResetToken(_ context.Context, email, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("SetResetToken")
	for id, u := range s.users {
		if u.Email == email {
			u.ResetToken, u.ResetTokenExpires = &token, &expiresAt
			s.users[id] = u
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) ResetPassword(_ context.Context, token, passwordHash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("ResetPassword")
	for id, u := range s.users {
		if u.ResetToken == nil || *u.ResetToken != token || u.ResetTokenExpires == nil || !u.ResetTokenExpires.After(now) {
			continue
		}
		u.PasswordHash = passwordHash
		u.ResetToken, u.ResetTokenExpires = nil, nil
		s.users[id] = u
		for tok, sess := range s.sessions {
			if sess.UserID == id {
				delete(s.sessions, tok)
			}
		}
		return nil
	}
	return storage.ErrNotFound
}

// User returns a stored user by id for assertions.
func (s *Store) User(id uuid.UUID) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// PutUser stores u as-is, replacing any user with the same id.
func (s *Store) PutUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.users[u.ID] = u
	return u
}

func (s *Store) CreateSession(_ context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("CreateSession")
	if _, ok := s.users[session.UserID]; !ok {
		return storage.ErrConflict
	}
	if _, ok := s.sessions[session.Token]; ok {
		return storage.ErrAlreadyExists
	}
	session.CreatedAt = s.now()
	s.sessions[session.Token] = session
	return nil
}

func (s *Store) FindActiveSession(_ context.Context, token string, now time.Time) (models.Session, models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("FindActiveSession")
	sess, ok := s.sessions[token]
	if !ok || !sess.ExpiresAt.After(now) {
		return models.Session{}, models.User{}, storage.ErrNotFound
	}
	u, ok := s.users[sess.UserID]
	if !ok {
		return models.Session{}, models.User{}, storage.ErrNotFound
	}
	return sess, u, nil
}

func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("DeleteSession")
	delete(s.sessions, token)
	return nil
}

// PutSession stores a session without any validation.
func (s *Store) PutSession(sess models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
}

// HasSession reports whether token is still stored, expired or not.
func (s *Store) HasSession(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[token]
	return ok
}

// SessionCount reports the number of stored sessions.
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) ListCurrencies(_ context.Context) ([]models.Currency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("ListCurrencies")
	out := make([]models.Currency, 0, len(s.currencies))
	for _, c := range s.currencies {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b models.Currency) int {
		if a.IsDefault != b.IsDefault {
			if a.IsDefault {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Code, b.Code)
	})
	return out, nil
}

func (s *Store) GetCurrency(_ context.Context, id uuid.UUID) (models.Currency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("GetCurrency")
	return s.getCurrency(id)
}

func (s *Store) getCurrency(id uuid.UUID) (models.Currency, error) {
	c, ok := s.currencies[id]
	if !ok {
		return models.Currency{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) getDefaultCurrency() (models.Currency, error) {
	for _, c := range s.currencies {
		if c.IsDefault {
			return c, nil
		}
	}
	return models.Currency{}, storage.ErrNotFound
}

func (s *Store) CreateCurrency(_ context.Context, c models.Currency) (models.Currency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("CreateCurrency")
	if s.codeTaken(c.Code, uuid.Nil) {
		return models.Currency{}, storage.ErrAlreadyExists
	}
	if c.IsDefault {
		s.clearDefault()
	}
	now := s.now()
	c.ID = uuid.New()
	c.CreatedAt, c.UpdatedAt = now, now
	s.currencies[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCurrency(_ context.Context, c models.Currency) (models.Currency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("UpdateCurrency")
	existing, ok := s.currencies[c.ID]
	if !ok {
		return models.Currency{}, storage.ErrNotFound
	}
	if s.codeTaken(c.Code, c.ID) {
		return models.Currency{}, storage.ErrAlreadyExists
	}
	if c.IsDefault {
		s.clearDefault()
	}
	c.CreatedAt, c.UpdatedAt = existing.CreatedAt, s.now()
	s.currencies[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCurrency(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("DeleteCurrency")
	if _, ok := s.currencies[id]; !ok {
		return storage.ErrNotFound
	}
	for _, t := range s.transactions {
		if t.CurrencyID != nil && *t.CurrencyID == id {
			return storage.ErrConflict
		}
	}
	delete(s.currencies, id)
	return nil
}

func (s *Store) SetDefaultCurrency(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("SetDefaultCurrency")
	if _, ok := s.currencies[id]; !ok {
		return storage.ErrNotFound
	}
	for cid, c := range s.currencies {
		c.IsDefault = cid == id
		s.currencies[cid] = c
	}
	return nil
}

// DefaultCount reports how many currencies are flagged default.
func (s *Store) DefaultCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.currencies {
		if c.IsDefault {
			n++
		}
	}
	return n
}

func (s *Store) codeTaken(code string, except uuid.UUID) bool {
	for id, c := range s.currencies {
		if id != except && c.Code == code {
			return true
		}
	}
	return false
}

func (s *Store) clearDefault() {
	for id, c := range s.currencies {
		c.IsDefault = false
		s.currencies[id] = c
	}
}

// ledgerTx applies writes to a staging copy that replaces the live map only on commit.
type ledgerTx struct {
	s            *Store
	transactions map[uuid.UUID]models.Transaction
}

func (s *Store) WithLedgerTx(_ context.Context, fn func(storage.LedgerQueries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("WithLedgerTx")
	staged := make(map[uuid.UUID]models.Transaction, len(s.transactions))
	for id, t := range s.transactions {
		staged[id] = t
	}
	if err := fn(&ledgerTx{s: s, transactions: staged}); err != nil {
		return err
	}
	s.transactions = staged
	return nil
}

func (l *ledgerTx) GetCurrency(_ context.Context, id uuid.UUID) (models.Currency, error) {
	return l.s.getCurrency(id)
}

func (l *ledgerTx) GetDefaultCurrency(_ context.Context) (models.Currency, error) {
	return l.s.getDefaultCurrency()
}

func (l *ledgerTx) InsertTransaction(_ context.Context, t models.Transaction) (uuid.UUID, error) {
	if t.CurrencyID != nil {
		if _, ok := l.s.currencies[*t.CurrencyID]; !ok {
			return uuid.Nil, storage.ErrConflict
		}
	}
	now := l.s.now()
	t.ID = uuid.New()
	t.CreatedAt, t.UpdatedAt = now, now
	l.transactions[t.ID] = t
	return t.ID, nil
}

func (l *ledgerTx) UpdateTransaction(_ context.Context, t models.Transaction) error {
	existing, ok := l.transactions[t.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if t.CurrencyID != nil {
		if _, ok := l.s.currencies[*t.CurrencyID]; !ok {
			return storage.ErrConflict
		}
	}
	t.CreatedAt, t.UpdatedAt = existing.CreatedAt, l.s.now()
	l.transactions[t.ID] = t
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id uuid.UUID) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("GetTransaction")
	t, ok := s.transactions[id]
	if !ok {
		return models.Transaction{}, storage.ErrNotFound
	}
	return s.withSymbol(t), nil
}

func (s *Store) ListTransactions(_ context.Context, f models.TransactionFilter) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("ListTransactions")
	var out []models.Transaction
	for _, t := range s.transactions {
		if matches(t, f) {
			out = append(out, s.withSymbol(t))
		}
	}
	slices.SortFunc(out, func(a, b models.Transaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("DeleteTransaction")
	if _, ok := s.transactions[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) withSymbol(t models.Transaction) models.Transaction {
	t.CurrencySymbol = nil
	if t.CurrencyID != nil {
		if c, ok := s.currencies[*t.CurrencyID]; ok {
			sym := c.Symbol
			t.CurrencySymbol = &sym
		}
	}
	return t
}

func matches(t models.Transaction, f models.TransactionFilter) bool {
	switch {
	case f.Type != "" && t.Type != f.Type:
		return false
	case f.Status != "" && t.Status != f.Status:
		return false
	case f.LoftID != nil && (t.LoftID == nil || *t.LoftID != *f.LoftID):
		return false
	case f.CurrencyID != nil && (t.CurrencyID == nil || *t.CurrencyID != *f.CurrencyID):
		return false
	case !f.From.IsZero() && t.Date.Before(f.From):
		return false
	case !f.To.IsZero() && t.Date.After(f.To):
		return false
	}
	return true
}
