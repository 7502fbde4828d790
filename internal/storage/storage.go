package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/loft-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrConflict indicates a write that would break a reference between records.
var ErrConflict = errors.New("record is referenced or references a missing record")

// UserStore captures persistence operations on user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	TouchLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error
	// SetResetToken returns ErrNotFound when no user has the email.
	SetResetToken(ctx context.Context, email, token string, expiresAt time.Time) error
	// ResetPassword replaces the hash of the user holding a reset token that is still valid at now,
	// clears the token and drops that user's sessions. ErrNotFound when no such user exists.
	ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) error
}

// SessionStore persists opaque session tokens.
type SessionStore interface {
	CreateSession(ctx context.Context, session models.Session) error
	// FindActiveSession returns the session and its user when the token exists and
	// expires after now. Expired or unknown tokens yield ErrNotFound.
	FindActiveSession(ctx context.Context, token string, now time.Time) (models.Session, models.User, error)
	DeleteSession(ctx context.Context, token string) error
}

// CurrencyStore persists currencies. Implementations guarantee at most one default.
type CurrencyStore interface {
	ListCurrencies(ctx context.Context) ([]models.Currency, error)
	GetCurrency(ctx context.Context, id uuid.UUID) (models.Currency, error)
	CreateCurrency(ctx context.Context, currency models.Currency) (models.Currency, error)
	UpdateCurrency(ctx context.Context, currency models.Currency) (models.Currency, error)
	DeleteCurrency(ctx context.Context, id uuid.UUID) error
	// SetDefaultCurrency flags id as the only default in one atomic step.
	SetDefaultCurrency(ctx context.Context, id uuid.UUID) error
}

// LedgerQueries are the reads and writes a transaction save performs as one unit.
type LedgerQueries interface {
	GetCurrency(ctx context.Context, id uuid.UUID) (models.Currency, error)
	GetDefaultCurrency(ctx context.Context) (models.Currency, error)
	InsertTransaction(ctx context.Context, tx models.Transaction) (uuid.UUID, error)
	UpdateTransaction(ctx context.Context, tx models.Transaction) error
}

// TransactionStore persists financial transactions.
type TransactionStore interface {
	// WithLedgerTx runs fn inside a single database transaction.
	WithLedgerTx(ctx context.Context, fn func(LedgerQueries) error) error
	GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error)
	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
}

// CategoryStore persists transaction categories.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (models.Category, error)
	CreateCategory(ctx context.Context, c models.Category) (models.Category, error)
	UpdateCategory(ctx context.Context, c models.Category) (models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

// ZoneAreaStore persists zone areas.
type ZoneAreaStore interface {
	ListZoneAreas(ctx context.Context) ([]models.ZoneArea, error)
	GetZoneArea(ctx context.Context, id uuid.UUID) (models.ZoneArea, error)
	CreateZoneArea(ctx context.Context, z models.ZoneArea) (models.ZoneArea, error)
	UpdateZoneArea(ctx context.Context, z models.ZoneArea) (models.ZoneArea, error)
	DeleteZoneArea(ctx context.Context, id uuid.UUID) error
}

// OwnerStore persists loft owners.
type OwnerStore interface {
	ListOwners(ctx context.Context) ([]models.Owner, error)
	GetOwner(ctx context.Context, id uuid.UUID) (models.Owner, error)
	CreateOwner(ctx context.Context, o models.Owner) (models.Owner, error)
	UpdateOwner(ctx context.Context, o models.Owner) (models.Owner, error)
	DeleteOwner(ctx context.Context, id uuid.UUID) error
}

// LoftStore persists lofts.
type LoftStore interface {
	ListLofts(ctx context.Context) ([]models.Loft, error)
	GetLoft(ctx context.Context, id uuid.UUID) (models.Loft, error)
	CreateLoft(ctx context.Context, l models.Loft) (models.Loft, error)
	UpdateLoft(ctx context.Context, l models.Loft) (models.Loft, error)
	DeleteLoft(ctx context.Context, id uuid.UUID) error
}

// TeamStore persists teams.
type TeamStore interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
	GetTeam(ctx context.Context, id uuid.UUID) (models.Team, error)
	CreateTeam(ctx context.Context, t models.Team) (models.Team, error)
	UpdateTeam(ctx context.Context, t models.Team) (models.Team, error)
	DeleteTeam(ctx context.Context, id uuid.UUID) error
}

// TaskStore persists tasks.
type TaskStore interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id uuid.UUID) (models.Task, error)
	CreateTask(ctx context.Context, t models.Task) (models.Task, error)
	UpdateTask(ctx context.Context, t models.Task) (models.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
}

// Catalog bundles the stores behind the property management screens.
type Catalog interface {
	CategoryStore
	ZoneAreaStore
	OwnerStore
	LoftStore
	TeamStore
	TaskStore
}
